package cmd

import (
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type countOptions struct {
	input    string
	kind     string
	counter  string
	beta     float64
	layers   int
	method   string
	encoding string
	timeout  time.Duration
	check    bool
}

func newCountCmd() *cobra.Command {
	o := countOptions{kind: "auto", counter: "gophersat", method: methodDirect, encoding: "binary"}
	cmd := &cobra.Command{
		Use:   "count [model.json]",
		Short: "Count a model's encoding and report the partition function",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				o.input = args[0]
			}
			m, err := readModel(o.input, o.kind)
			if err != nil {
				return err
			}
			p, err := m.problem(encodeOptions{
				beta:     o.beta,
				layers:   o.layers,
				method:   o.method,
				encoding: o.encoding,
			})
			if err != nil {
				return err
			}
			ctr, err := counterByName(o.counter, o.timeout)
			if err != nil {
				return err
			}
			if !ctr.Available() {
				return errors.Errorf("counter %s is not available on this host", o.counter)
			}
			log.WithFields(logrus.Fields{
				"counter":   o.counter,
				"variables": p.Weights.Len(),
				"clauses":   len(p.Formula),
			}).Debug("counting")
			res := ctr.ModelCount(p)
			if !res.Success {
				return errors.Errorf("counter %s failed", o.counter)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "count\t%g\n", res.Count)
			fmt.Fprintf(out, "runtime\t%s\n", res.Runtime.Round(time.Microsecond))
			if o.check {
				want, err := m.reference(o.beta)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "reference\t%g\n", want)
				fmt.Fprintf(out, "relative error\t%.3g\n", relativeError(res.Count, want))
			}
			return nil
		},
	}
	choiceVar(cmd.Flags(), &o.kind, "kind", "model kind", "auto", kindIsing, kindPotts, kindQuantum)
	choiceVar(cmd.Flags(), &o.counter, "counter", "counting backend",
		"brute", "gophersat", "gini", "dpmc", "cachet", "tensororder")
	cmd.Flags().Float64Var(&o.beta, "beta", 1, "inverse temperature")
	cmd.Flags().IntVar(&o.layers, "layers", 4, "trotterization layers for quantum models")
	choiceVar(cmd.Flags(), &o.method, "method", "classical encoding", methodDirect, methodMatrix)
	choiceVar(cmd.Flags(), &o.encoding, "encoding", "register encoding for the potts matrix method", "binary", "onehot")
	cmd.Flags().DurationVar(&o.timeout, "timeout", 0, "external counter timeout (0 keeps the counter default)")
	cmd.Flags().BoolVar(&o.check, "check", false, "also compute the exact reference and the relative error (small models)")
	return cmd
}

func relativeError(got, want float64) float64 {
	if want == 0 {
		return math.Abs(got)
	}
	return math.Abs(got-want) / math.Abs(want)
}
