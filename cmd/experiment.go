package cmd

import (
	"fmt"
	"io"
	"math/rand"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"spinwmc/count"
	"spinwmc/spin"
)

// duration wraps time.Duration so suite configs can say "30s".
type duration time.Duration

func (d *duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, "duration %q", s)
	}
	*d = duration(parsed)
	return nil
}

// experimentSuite is one YAML suite config: which instances to draw,
// how to encode them and which counters to race over them.
type experimentSuite struct {
	Kind      string   `yaml:"kind"`
	Graph     string   `yaml:"graph"`
	Weighting string   `yaml:"weighting"`
	Sizes     []int    `yaml:"sizes"`
	Runs      int      `yaml:"runs"`
	Degree    int      `yaml:"degree"`
	States    int      `yaml:"states"`
	Beta      float64  `yaml:"beta"`
	Layers    int      `yaml:"layers"`
	Method    string   `yaml:"method"`
	Encoding  string   `yaml:"encoding"`
	Counters  []string `yaml:"counters"`
	Seed      int64    `yaml:"seed"`
	Check     bool     `yaml:"check"`
	Timeout   duration `yaml:"timeout"`
}

func (s *experimentSuite) normalize() error {
	if len(s.Sizes) == 0 {
		return errors.New("experiment suite wants at least one size")
	}
	if s.Kind == "" {
		s.Kind = kindIsing
	}
	if s.Graph == "" {
		s.Graph = "lattice"
		if s.Kind == kindQuantum {
			s.Graph = "line"
		}
	}
	if s.Weighting == "" {
		s.Weighting = "normal"
	}
	if s.Runs < 1 {
		s.Runs = 1
	}
	if s.Degree == 0 {
		s.Degree = 3
	}
	if s.States == 0 {
		s.States = 3
	}
	if s.Beta == 0 {
		s.Beta = 1
	}
	if s.Layers == 0 {
		s.Layers = 4
	}
	if s.Method == "" {
		s.Method = methodDirect
	}
	if len(s.Counters) == 0 {
		s.Counters = []string{"gophersat"}
	}
	return nil
}

type cellKey struct {
	size    int
	counter string
}

// experimentCell accumulates one size/counter pair across runs.
type experimentCell struct {
	runs     int
	failures int
	runtime  time.Duration
	relErr   float64
	checked  int
}

// runExperiment draws Runs instances per size, encodes each once and
// hands the same problem to every counter. Counter failures are
// tolerated per problem and end up in the failed column.
func runExperiment(suite *experimentSuite, out io.Writer) error {
	weighting, err := spin.ParseWeighting(suite.Weighting)
	if err != nil {
		return err
	}
	counters := make(map[string]count.Counter, len(suite.Counters))
	for _, name := range suite.Counters {
		ctr, err := counterByName(name, time.Duration(suite.Timeout))
		if err != nil {
			return err
		}
		if !ctr.Available() {
			return errors.Errorf("counter %s is not available on this host", name)
		}
		counters[name] = ctr
	}

	cells := make(map[cellKey]*experimentCell)
	for _, size := range suite.Sizes {
		for _, name := range suite.Counters {
			cells[cellKey{size, name}] = &experimentCell{}
		}
	}

	rng := rand.New(rand.NewSource(suite.Seed))
	for _, size := range suite.Sizes {
		for run := 0; run < suite.Runs; run++ {
			m, err := buildModel(rng, suite.Kind, suite.Graph, size, suite.Degree, suite.States, weighting)
			if err != nil {
				return err
			}
			p, err := m.problem(encodeOptions{
				beta:     suite.Beta,
				layers:   suite.Layers,
				method:   suite.Method,
				encoding: suite.Encoding,
			})
			if err != nil {
				return err
			}
			var want float64
			if suite.Check {
				if want, err = m.reference(suite.Beta); err != nil {
					return err
				}
			}
			log.WithFields(logrus.Fields{
				"size":      size,
				"run":       run,
				"variables": p.Weights.Len(),
				"clauses":   len(p.Formula),
			}).Debug("encoded instance")
			for _, name := range suite.Counters {
				cell := cells[cellKey{size, name}]
				cell.runs++
				res := counters[name].ModelCount(p)
				if !res.Success {
					cell.failures++
					log.WithFields(logrus.Fields{
						"size":    size,
						"run":     run,
						"counter": name,
					}).Warn("counter failed")
					continue
				}
				cell.runtime += res.Runtime
				if suite.Check {
					cell.relErr += relativeError(res.Count, want)
					cell.checked++
				}
				log.WithFields(logrus.Fields{
					"size":    size,
					"run":     run,
					"counter": name,
					"count":   res.Count,
					"runtime": res.Runtime,
				}).Debug("counted")
			}
		}
	}
	return renderExperiment(suite, cells, out)
}

func renderExperiment(suite *experimentSuite, cells map[cellKey]*experimentCell, out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "size\tcounter\truns\tfailed\tmean runtime\tmean rel err")
	for _, size := range suite.Sizes {
		for _, name := range suite.Counters {
			cell := cells[cellKey{size, name}]
			succeeded := cell.runs - cell.failures
			mean := time.Duration(0)
			if succeeded > 0 {
				mean = cell.runtime / time.Duration(succeeded)
			}
			errCol := "-"
			if cell.checked > 0 {
				errCol = fmt.Sprintf("%.3g", cell.relErr/float64(cell.checked))
			}
			fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\t%s\n",
				size, name, cell.runs, cell.failures, mean.Round(time.Microsecond), errCol)
		}
	}
	return tw.Flush()
}

func newExperimentCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "experiment [suite.yaml]",
		Short: "Run a counting experiment suite from a YAML config",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				configPath = args[0]
			}
			data, err := readInput(configPath)
			if err != nil {
				return err
			}
			suite := experimentSuite{}
			if err := yaml.Unmarshal(data, &suite); err != nil {
				return errors.Wrap(err, "suite config")
			}
			if err := suite.normalize(); err != nil {
				return err
			}
			return runExperiment(&suite, cmd.OutOrStdout())
		},
	}
	return cmd
}
