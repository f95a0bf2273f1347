// Package cmd wires the spinwmc command tree: generate random spin
// model instances, convert them to weighted DIMACS dialects, count
// them with any configured counter, and run experiment suites.
package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var log = logrus.New()

func NewRootCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "spinwmc",
		Short: "Weighted model counting for spin model partition functions",
		Long: `spinwmc encodes Ising, Potts and transverse-field Ising models as
weighted CNF formulas whose weighted model count is the partition
function, and realizes the counts with in-process or external counters.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	cmd.AddCommand(newGenerateCmd(), newConvertCmd(), newCountCmd(), newExperimentCmd())
	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
