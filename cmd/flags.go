package cmd

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// choice is a string flag restricted to a fixed word list. Off-list
// values are rejected while flags are parsed, before any command runs.
type choice struct {
	dest    *string
	allowed []string
}

var _ pflag.Value = (*choice)(nil)

// choiceVar registers a choice flag writing through to dest, whose
// current value is the default.
func choiceVar(fs *pflag.FlagSet, dest *string, name, usage string, allowed ...string) {
	fs.Var(&choice{dest: dest, allowed: allowed}, name, usage)
}

func (c *choice) String() string { return *c.dest }

func (c *choice) Type() string { return "string" }

func (c *choice) Set(s string) error {
	for _, a := range c.allowed {
		if s == a {
			*c.dest = s
			return nil
		}
	}
	return errors.Errorf("%q is not one of %s", s, strings.Join(c.allowed, "|"))
}
