package cmd

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"spinwmc/count"
)

type convertOptions struct {
	input    string
	kind     string
	format   string
	beta     float64
	layers   int
	method   string
	encoding string
	output   string
}

func newConvertCmd() *cobra.Command {
	o := convertOptions{kind: "auto", format: "dpmc", method: methodDirect, encoding: "binary"}
	cmd := &cobra.Command{
		Use:   "convert [model.json]",
		Short: "Convert a model document to a weighted DIMACS dialect",
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
			var doc string
			switch o.format {
			case "dpmc":
				doc, err = count.FormatDPMC(p)
			case "cachet":
				doc, err = formatCachetScaled(p)
			default:
				return errors.Errorf("unknown format %q", o.format)
			}
			if err != nil {
				return err
			}
			log.WithFields(logrus.Fields{
				"variables": p.Weights.Len(),
				"clauses":   len(p.Formula),
				"format":    o.format,
			}).Debug("converted model")
			return writeOutput(cmd, o.output, doc)
		},
	}
	choiceVar(cmd.Flags(), &o.kind, "kind", "model kind", "auto", kindIsing, kindPotts, kindQuantum)
	choiceVar(cmd.Flags(), &o.format, "format", "output dialect", "dpmc", "cachet")
	cmd.Flags().Float64Var(&o.beta, "beta", 1, "inverse temperature")
	cmd.Flags().IntVar(&o.layers, "layers", 4, "trotterization layers for quantum models")
	choiceVar(cmd.Flags(), &o.method, "method", "classical encoding", methodDirect, methodMatrix)
	choiceVar(cmd.Flags(), &o.encoding, "encoding", "register encoding for the potts matrix method", "binary", "onehot")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output file (default stdout)")
	return cmd
}

// formatCachetScaled normalizes a copy of the weights as the Cachet
// dialect demands and records the lost scale factor in a leading
// comment, so the reported probability can be turned back into a count.
func formatCachetScaled(p count.Problem) (string, error) {
	w := p.Weights.Copy()
	factor, err := w.Normalize()
	if err != nil {
		return "", err
	}
	doc, err := count.FormatCachet(count.Problem{Formula: p.Formula, Weights: w})
	if err != nil {
		return "", err
	}
	scale := fmt.Sprintf("c scale %s\n", strconv.FormatFloat(factor, 'g', -1, 64))
	return scale + doc, nil
}
