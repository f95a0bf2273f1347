package spin

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// IsingModel is a classical Ising model: pairwise couplings J and a per
// spin external field h, with Hamiltonian
//
//	H(s) = -sum_ij J_ij s_i s_j - sum_i h_i s_i,  s_i in {-1, +1}.
type IsingModel struct {
	SpinCount     int        `json:"spin_count" validate:"min=1"`
	ExternalField []float64  `json:"external_field"`
	Interaction   []Coupling `json:"interaction"`
}

// NewIsing creates a model with n spins, no couplings and a zero field.
func NewIsing(n int) *IsingModel {
	return &IsingModel{SpinCount: n, ExternalField: make([]float64, n), Interaction: []Coupling{}}
}

// ParseIsing decodes and validates a JSON Ising model.
func ParseIsing(data []byte) (*IsingModel, error) {
	var m IsingModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "parse ising model")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.normalize()
	return &m, nil
}

// Validate checks index ranges, field length and finiteness.
func (m *IsingModel) Validate() error {
	return errors.Wrap(validate.Struct(m), "ising model")
}

func (m *IsingModel) normalize() {
	if len(m.ExternalField) == 0 {
		m.ExternalField = make([]float64, m.SpinCount)
	}
	couplings := m.Interaction
	m.Interaction = []Coupling{}
	for _, c := range couplings {
		m.SetInteraction(c.I, c.J, c.Strength)
	}
}

// SetInteraction overrides the coupling strength between spins i and j.
// The pair is stored with the smaller index first.
func (m *IsingModel) SetInteraction(i, j int, strength float64) {
	m.Interaction = setCoupling(m.Interaction, i, j, strength)
}

// AddInteraction sums strength with any existing coupling between i and
// j.
func (m *IsingModel) AddInteraction(i, j int, strength float64) {
	m.Interaction = addCoupling(m.Interaction, i, j, strength)
}

// InteractionAt resolves the coupling strength between i and j, zero
// when the spins are uncoupled.
func (m *IsingModel) InteractionAt(i, j int) float64 {
	return couplingAt(m.Interaction, i, j)
}

// Hamiltonian evaluates the energy of one configuration of +-1 spins.
func (m *IsingModel) Hamiltonian(config []int) (float64, error) {
	if len(config) != m.SpinCount {
		return 0, errors.Errorf("configuration has %d spins, model has %d", len(config), m.SpinCount)
	}
	total := 0.0
	for _, c := range m.Interaction {
		total -= c.Strength * float64(config[c.I]*config[c.J])
	}
	for i, h := range m.ExternalField {
		total -= h * float64(config[i])
	}
	return total, nil
}

// PartitionFunction sums exp(-beta*H) over all 2^n configurations.
// Brute force, reference use only.
func (m *IsingModel) PartitionFunction(beta float64) float64 {
	config := make([]int, m.SpinCount)
	total := 0.0
	for mask := 0; mask < 1<<m.SpinCount; mask++ {
		for i := range config {
			config[i] = -1
			if mask&(1<<i) != 0 {
				config[i] = 1
			}
		}
		h, _ := m.Hamiltonian(config)
		total += math.Exp(-beta * h)
	}
	return total
}

func (m *IsingModel) String() string {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Sprintf("IsingModel(%d spins)", m.SpinCount)
	}
	return string(b)
}
