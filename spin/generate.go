package spin

import (
	"math/rand"

	"github.com/pkg/errors"
)

// Weighting selects the distribution coupling strengths are drawn from.
type Weighting int

const (
	// Normal draws from the standard normal distribution.
	Normal Weighting = iota
	// Signed draws -1 or +1 with equal probability.
	Signed
)

// ParseWeighting resolves the command-line names of the distributions.
func ParseWeighting(name string) (Weighting, error) {
	switch name {
	case "normal":
		return Normal, nil
	case "signed":
		return Signed, nil
	}
	return 0, errors.Errorf("unknown weighting %q, want normal or signed", name)
}

func (w Weighting) String() string {
	if w == Signed {
		return "signed"
	}
	return "normal"
}

func (w Weighting) draw(rng *rand.Rand) float64 {
	if w == Signed {
		return float64(rng.Intn(2)*2 - 1)
	}
	return rng.NormFloat64()
}

// SquareLatticeIsing generates an Ising model on a size x size lattice
// with nearest-neighbour couplings drawn from w and per-spin fields from
// the standard normal.
func SquareLatticeIsing(rng *rand.Rand, size int, w Weighting) *IsingModel {
	n := size * size
	m := NewIsing(n)
	for i := 0; i < n; i++ {
		if i+size < n {
			m.SetInteraction(i, i+size, w.draw(rng))
		}
		if i%size != size-1 {
			m.SetInteraction(i, i+1, w.draw(rng))
		}
	}
	for i := range m.ExternalField {
		m.ExternalField[i] = rng.NormFloat64()
	}
	return m
}

// RandomRegularIsing generates an Ising model on a random degree-regular
// graph, couplings drawn from w and fields from the standard normal.
// n*degree must be even and degree < n.
func RandomRegularIsing(rng *rand.Rand, n, degree int, w Weighting) (*IsingModel, error) {
	edges, err := regularEdges(rng, n, degree)
	if err != nil {
		return nil, err
	}
	m := NewIsing(n)
	for _, e := range edges {
		m.SetInteraction(e.I, e.J, w.draw(rng))
	}
	for i := range m.ExternalField {
		m.ExternalField[i] = rng.NormFloat64()
	}
	return m, nil
}

// RandomGraphIsing generates an Ising model on a G(n, p) random graph
// with p chosen to match the expected degree, couplings drawn from w and
// fields from the standard normal.
func RandomGraphIsing(rng *rand.Rand, n int, expectedDegree float64, w Weighting) (*IsingModel, error) {
	if n < 2 {
		return nil, errors.Errorf("random graph wants at least 2 nodes, got %d", n)
	}
	p := expectedDegree / float64(n-1)
	if p < 0 || p > 1 {
		return nil, errors.Errorf("expected degree %g out of range for %d nodes", expectedDegree, n)
	}
	m := NewIsing(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if rng.Float64() < p {
				m.SetInteraction(i, j, w.draw(rng))
			}
		}
	}
	for i := range m.ExternalField {
		m.ExternalField[i] = rng.NormFloat64()
	}
	return m, nil
}

// SquareLatticePotts generates a standard Potts model on a size x size
// lattice with one normally distributed coupling strength.
func SquareLatticePotts(rng *rand.Rand, size, states int) *PottsModel {
	n := size * size
	m := NewPotts(n, states, rng.NormFloat64())
	for i := 0; i < n; i++ {
		if i+size < n {
			m.AddEdge(i, i+size)
		}
		if i%size != size-1 {
			m.AddEdge(i, i+1)
		}
	}
	return m
}

// RandomRegularPotts generates a standard Potts model on a random
// degree-regular graph with one normally distributed coupling strength.
func RandomRegularPotts(rng *rand.Rand, sites, states, degree int) (*PottsModel, error) {
	j := rng.NormFloat64()
	edges, err := regularEdges(rng, sites, degree)
	if err != nil {
		return nil, err
	}
	m := NewPotts(sites, states, j)
	m.Edges = edges
	return m, nil
}

// LineQuantumIsing generates a quantum Ising chain, optionally closed
// into a ring, with couplings drawn from w and a normally distributed
// transverse field.
func LineQuantumIsing(rng *rand.Rand, n int, w Weighting, ring bool) *QuantumIsingModel {
	m := NewQuantumIsing(n)
	last := n - 1
	if ring {
		last = n
	}
	for i := 0; i < last; i++ {
		m.SetInteraction(i, (i+1)%n, w.draw(rng))
	}
	m.ExternalX = rng.NormFloat64()
	return m
}

// RandomRegularQuantumIsing generates a quantum Ising model on a random
// degree-regular graph with couplings drawn from w and a normally
// distributed transverse field.
func RandomRegularQuantumIsing(rng *rand.Rand, n, degree int, w Weighting) (*QuantumIsingModel, error) {
	edges, err := regularEdges(rng, n, degree)
	if err != nil {
		return nil, err
	}
	m := NewQuantumIsing(n)
	for _, e := range edges {
		m.SetInteraction(e.I, e.J, w.draw(rng))
	}
	m.ExternalX = rng.NormFloat64()
	return m, nil
}

const maxPairingAttempts = 100

// regularEdges pairs shuffled half-edges into a simple degree-regular
// graph, reshuffling whenever the pairing produces a loop or a parallel
// edge.
func regularEdges(rng *rand.Rand, n, degree int) ([]Edge, error) {
	if degree < 1 || degree >= n {
		return nil, errors.Errorf("no simple %d-regular graph on %d nodes", degree, n)
	}
	if n*degree%2 != 0 {
		return nil, errors.Errorf("odd half-edge count: %d nodes of degree %d", n, degree)
	}
	stubs := make([]int, 0, n*degree)
	for i := 0; i < n; i++ {
		for k := 0; k < degree; k++ {
			stubs = append(stubs, i)
		}
	}
	for attempt := 0; attempt < maxPairingAttempts; attempt++ {
		rng.Shuffle(len(stubs), func(a, b int) {
			stubs[a], stubs[b] = stubs[b], stubs[a]
		})
		if edges, ok := pairStubs(stubs); ok {
			return edges, nil
		}
	}
	return nil, errors.Errorf("gave up pairing half-edges after %d attempts", maxPairingAttempts)
}

func pairStubs(stubs []int) ([]Edge, bool) {
	seen := make(map[Edge]bool, len(stubs)/2)
	edges := make([]Edge, 0, len(stubs)/2)
	for k := 0; k < len(stubs); k += 2 {
		i, j := orderPair(stubs[k], stubs[k+1])
		e := Edge{I: i, J: j}
		if i == j || seen[e] {
			return nil, false
		}
		seen[e] = true
		edges = append(edges, e)
	}
	return edges, true
}
