package cmd

import (
	"math/rand"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"spinwmc/spin"
)

type generateOptions struct {
	kind      string
	graph     string
	size      int
	degree    int
	states    int
	weighting string
	seed      int64
	output    string
}

func newGenerateCmd() *cobra.Command {
	o := generateOptions{kind: kindIsing, graph: "lattice", weighting: "normal"}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a random spin model instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			weighting, err := spin.ParseWeighting(o.weighting)
			if err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(o.seed))
			m, err := buildModel(rng, o.kind, o.graph, o.size, o.degree, o.states, weighting)
			if err != nil {
				return err
			}
			log.WithFields(logrus.Fields{
				"kind":  o.kind,
				"graph": o.graph,
				"size":  o.size,
				"seed":  o.seed,
			}).Debug("generated instance")
			return writeOutput(cmd, o.output, m.String()+"\n")
		},
	}
	choiceVar(cmd.Flags(), &o.kind, "kind", "model kind", kindIsing, kindPotts, kindQuantum)
	choiceVar(cmd.Flags(), &o.graph, "graph", "interaction graph", "lattice", "regular", "random", "line", "ring")
	cmd.Flags().IntVar(&o.size, "size", 3, "lattice side length, or spin/site count for the other graphs")
	cmd.Flags().IntVar(&o.degree, "degree", 3, "degree of regular and random graphs")
	cmd.Flags().IntVar(&o.states, "states", 3, "potts states per site")
	choiceVar(cmd.Flags(), &o.weighting, "weighting", "coupling strength draw", "normal", "signed")
	cmd.Flags().Int64Var(&o.seed, "seed", 1, "random seed")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output file (default stdout)")
	return cmd
}
