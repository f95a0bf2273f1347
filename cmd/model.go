package cmd

import (
	"encoding/json"
	"io"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"spinwmc/count"
	"spinwmc/encode"
	"spinwmc/matrix"
	"spinwmc/spin"
)

const (
	kindIsing   = "ising"
	kindPotts   = "potts"
	kindQuantum = "quantum"

	methodDirect = "direct"
	methodMatrix = "matrix"
)

// Dense references truncate the Taylor exponential here; far past
// machine precision for the couplings the generators draw.
const referenceTaylorTerms = 48

// model is one loaded instance of any kind, with the kind tag the
// commands dispatch on.
type model struct {
	kind    string
	ising   *spin.IsingModel
	potts   *spin.PottsModel
	quantum *spin.QuantumIsingModel
}

func (m *model) String() string {
	switch m.kind {
	case kindIsing:
		return m.ising.String()
	case kindPotts:
		return m.potts.String()
	case kindQuantum:
		return m.quantum.String()
	}
	return ""
}

// detectKind sniffs the document layout: Potts documents carry "sites",
// quantum ones "external_field_x", classical Ising the bare
// "spin_count" with its field array.
func detectKind(data []byte) (string, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return "", errors.Wrap(err, "model document")
	}
	if _, ok := probe["sites"]; ok {
		return kindPotts, nil
	}
	if _, ok := probe["external_field_x"]; ok {
		return kindQuantum, nil
	}
	if _, ok := probe["spin_count"]; ok {
		return kindIsing, nil
	}
	return "", errors.New("model document matches no known kind")
}

func parseModel(data []byte, kind string) (*model, error) {
	var err error
	if kind == "" || kind == "auto" {
		if kind, err = detectKind(data); err != nil {
			return nil, err
		}
	}
	switch kind {
	case kindIsing:
		m, err := spin.ParseIsing(data)
		if err != nil {
			return nil, err
		}
		return &model{kind: kindIsing, ising: m}, nil
	case kindPotts:
		m, err := spin.ParsePotts(data)
		if err != nil {
			return nil, err
		}
		return &model{kind: kindPotts, potts: m}, nil
	case kindQuantum:
		m, err := spin.ParseQuantumIsing(data)
		if err != nil {
			return nil, err
		}
		return &model{kind: kindQuantum, quantum: m}, nil
	}
	return nil, errors.Errorf("unknown model kind %q", kind)
}

func readModel(path, kind string) (*model, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	return parseModel(data, kind)
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return data, errors.Wrap(err, "read stdin")
	}
	data, err := os.ReadFile(path)
	return data, errors.Wrapf(err, "read %s", path)
}

func writeOutput(cmd *cobra.Command, path, doc string) error {
	if path == "" || path == "-" {
		_, err := io.WriteString(cmd.OutOrStdout(), doc)
		return err
	}
	return errors.Wrapf(os.WriteFile(path, []byte(doc), 0o644), "write %s", path)
}

// buildModel draws a random instance on the requested interaction
// graph. Line and ring graphs only exist for quantum chains; lattice
// sizes are side lengths, every other size a spin or site count.
func buildModel(rng *rand.Rand, kind, graph string, size, degree, states int, weighting spin.Weighting) (*model, error) {
	switch kind {
	case kindIsing:
		switch graph {
		case "lattice":
			return &model{kind: kindIsing, ising: spin.SquareLatticeIsing(rng, size, weighting)}, nil
		case "regular":
			m, err := spin.RandomRegularIsing(rng, size, degree, weighting)
			if err != nil {
				return nil, err
			}
			return &model{kind: kindIsing, ising: m}, nil
		case "random":
			m, err := spin.RandomGraphIsing(rng, size, float64(degree), weighting)
			if err != nil {
				return nil, err
			}
			return &model{kind: kindIsing, ising: m}, nil
		}
	case kindPotts:
		switch graph {
		case "lattice":
			return &model{kind: kindPotts, potts: spin.SquareLatticePotts(rng, size, states)}, nil
		case "regular":
			m, err := spin.RandomRegularPotts(rng, size, states, degree)
			if err != nil {
				return nil, err
			}
			return &model{kind: kindPotts, potts: m}, nil
		}
	case kindQuantum:
		switch graph {
		case "line":
			return &model{kind: kindQuantum, quantum: spin.LineQuantumIsing(rng, size, weighting, false)}, nil
		case "ring":
			return &model{kind: kindQuantum, quantum: spin.LineQuantumIsing(rng, size, weighting, true)}, nil
		case "regular":
			m, err := spin.RandomRegularQuantumIsing(rng, size, degree, weighting)
			if err != nil {
				return nil, err
			}
			return &model{kind: kindQuantum, quantum: m}, nil
		}
	default:
		return nil, errors.Errorf("unknown model kind %q", kind)
	}
	return nil, errors.Errorf("graph %q does not fit a %s model", graph, kind)
}

type encodeOptions struct {
	beta     float64
	layers   int
	method   string
	encoding string
}

// problem encodes the model as one weighted counting instance. Quantum
// models always go through the trotterized operator; the classical
// kinds choose between the direct clause encoding and the operator
// product.
func (m *model) problem(o encodeOptions) (count.Problem, error) {
	switch m.kind {
	case kindIsing:
		switch o.method {
		case "", methodDirect:
			return encode.IsingCNF(m.ising, o.beta)
		case methodMatrix:
			op, err := encode.IsingMatrix(m.ising, o.beta)
			if err != nil {
				return count.Problem{}, err
			}
			return traceProblem(op)
		}
	case kindPotts:
		switch o.method {
		case "", methodDirect:
			return encode.PottsCNF(m.potts, o.beta)
		case methodMatrix:
			enc, err := parseEncoding(o.encoding)
			if err != nil {
				return count.Problem{}, err
			}
			op, err := encode.PottsMatrix(m.potts, o.beta, enc)
			if err != nil {
				return count.Problem{}, err
			}
			return traceProblem(op)
		}
	case kindQuantum:
		f, w, err := encode.QuantumIsingTrace(m.quantum, o.beta, o.layers)
		if err != nil {
			return count.Problem{}, err
		}
		return count.Problem{Formula: f, Weights: w}, nil
	default:
		return count.Problem{}, errors.Errorf("unknown model kind %q", m.kind)
	}
	return count.Problem{}, errors.Errorf("unknown encoding method %q", o.method)
}

func traceProblem(op *matrix.Label) (count.Problem, error) {
	f, w, err := op.TraceFormula()
	if err != nil {
		return count.Problem{}, err
	}
	return count.Problem{Formula: f, Weights: w}, nil
}

func parseEncoding(name string) (matrix.Encoding, error) {
	switch name {
	case "", "binary":
		return matrix.Binary, nil
	case "onehot":
		return matrix.OneHot, nil
	}
	return 0, errors.Errorf("unknown register encoding %q", name)
}

// reference computes the exact partition function by enumeration, or
// densely for quantum models. It refuses sizes where that would not
// come back.
func (m *model) reference(beta float64) (float64, error) {
	switch m.kind {
	case kindIsing:
		if m.ising.SpinCount > 20 {
			return 0, errors.Errorf("%d spins is too large for the brute-force reference", m.ising.SpinCount)
		}
		return m.ising.PartitionFunction(beta), nil
	case kindPotts:
		if math.Pow(float64(m.potts.States), float64(m.potts.Sites)) > 1<<20 {
			return 0, errors.Errorf("%d sites of %d states is too large for the brute-force reference", m.potts.Sites, m.potts.States)
		}
		return m.potts.PartitionFunction(beta), nil
	case kindQuantum:
		if m.quantum.SpinCount > 8 {
			return 0, errors.Errorf("%d spins is too large for the dense reference", m.quantum.SpinCount)
		}
		return m.quantum.PartitionFunction(beta, referenceTaylorTerms)
	}
	return 0, errors.Errorf("unknown model kind %q", m.kind)
}

func counterByName(name string, timeout time.Duration) (count.Counter, error) {
	switch name {
	case "brute":
		return count.Brute{}, nil
	case "gophersat":
		return count.Gophersat{}, nil
	case "gini":
		return count.Gini{}, nil
	case "dpmc":
		d := count.NewDPMC()
		if timeout > 0 {
			d.Timeout = timeout
		}
		return d, nil
	case "cachet":
		c := count.NewCachet()
		if timeout > 0 {
			c.Timeout = timeout
		}
		return c, nil
	case "tensororder":
		to := count.NewTensorOrder()
		if timeout > 0 {
			to.Timeout = timeout
		}
		return to, nil
	}
	return nil, errors.Errorf("unknown counter %q", name)
}
