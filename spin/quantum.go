package spin

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"spinwmc/cnf"
	"spinwmc/matrix"
)

// QuantumIsingModel is a transverse-field Ising model: pairwise ZZ
// couplings plus uniform longitudinal and transverse fields, with
// Hamiltonian
//
//	H = -sum_ij J_ij Z_i Z_j - Gz sum_i Z_i - Gx sum_i X_i.
type QuantumIsingModel struct {
	SpinCount   int        `json:"spin_count" validate:"min=1"`
	ExternalX   float64    `json:"external_field_x"`
	ExternalZ   float64    `json:"external_field_z"`
	Interaction []Coupling `json:"interaction"`
}

// NewQuantumIsing creates a model with n spins, no couplings and zero
// fields.
func NewQuantumIsing(n int) *QuantumIsingModel {
	return &QuantumIsingModel{SpinCount: n, Interaction: []Coupling{}}
}

// ParseQuantumIsing decodes and validates a JSON quantum Ising model.
func ParseQuantumIsing(data []byte) (*QuantumIsingModel, error) {
	var m QuantumIsingModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "parse quantum ising model")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.normalize()
	return &m, nil
}

// Validate checks spin index ranges and finiteness.
func (m *QuantumIsingModel) Validate() error {
	return errors.Wrap(validate.Struct(m), "quantum ising model")
}

func (m *QuantumIsingModel) normalize() {
	couplings := m.Interaction
	m.Interaction = []Coupling{}
	for _, c := range couplings {
		m.SetInteraction(c.I, c.J, c.Strength)
	}
}

// SetInteraction overrides the coupling strength between spins i and j.
func (m *QuantumIsingModel) SetInteraction(i, j int, strength float64) {
	m.Interaction = setCoupling(m.Interaction, i, j, strength)
}

// AddInteraction sums strength with any existing coupling between i and
// j.
func (m *QuantumIsingModel) AddInteraction(i, j int, strength float64) {
	m.Interaction = addCoupling(m.Interaction, i, j, strength)
}

// InteractionAt resolves the coupling strength between i and j.
func (m *QuantumIsingModel) InteractionAt(i, j int) float64 {
	return couplingAt(m.Interaction, i, j)
}

var (
	denseX = [][]float64{{0, 1}, {1, 0}}
	denseZ = [][]float64{{1, 0}, {0, -1}}
)

// Hamiltonian builds the dense 2^n x 2^n Hamiltonian matrix, spin 0 as
// the most significant tensor factor. Very slow for large models.
func (m *QuantumIsingModel) Hamiltonian() (*matrix.Concrete, error) {
	ix, err := matrix.NewIndex(cnf.NewSpace(), 2)
	if err != nil {
		return nil, err
	}
	dim := 1 << m.SpinCount
	rows := make([][]float64, dim)
	for i := range rows {
		rows[i] = make([]float64, dim)
	}
	acc, err := matrix.NewConcrete(ix, rows)
	if err != nil {
		return nil, err
	}
	var total matrix.Matrix = acc
	add := func(ops map[int][][]float64, factor float64) error {
		op, err := siteOperator(ix, m.SpinCount, ops)
		if err != nil {
			return err
		}
		scaled, err := op.Scale(factor)
		if err != nil {
			return err
		}
		total, err = total.Add(scaled)
		return err
	}
	for _, c := range m.Interaction {
		if err := add(map[int][][]float64{c.I: denseZ, c.J: denseZ}, -c.Strength); err != nil {
			return nil, err
		}
	}
	for i := 0; i < m.SpinCount; i++ {
		if m.ExternalZ != 0 {
			if err := add(map[int][][]float64{i: denseZ}, -m.ExternalZ); err != nil {
				return nil, err
			}
		}
		if m.ExternalX != 0 {
			if err := add(map[int][][]float64{i: denseX}, -m.ExternalX); err != nil {
				return nil, err
			}
		}
	}
	return total.(*matrix.Concrete), nil
}

// siteOperator builds the n-spin operator placing the given 2x2 blocks
// at their spin positions and identities elsewhere.
func siteOperator(ix *matrix.Index, n int, ops map[int][][]float64) (matrix.Matrix, error) {
	var total matrix.Matrix
	for k := 0; k < n; k++ {
		var factor matrix.Matrix = matrix.ConcreteIdentity(ix, 1)
		if vals, ok := ops[k]; ok {
			c, err := matrix.NewConcrete(ix, vals)
			if err != nil {
				return nil, err
			}
			factor = c
		}
		if total == nil {
			total = factor
			continue
		}
		next, err := total.Kron(factor)
		if err != nil {
			return nil, err
		}
		total = next
	}
	return total, nil
}

// PartitionFunction approximates Tr(exp(-beta*H)) with a truncated
// exponential of the dense Hamiltonian, keeping the given number of
// Taylor terms. Reference use only.
func (m *QuantumIsingModel) PartitionFunction(beta float64, terms int) (float64, error) {
	h, err := m.Hamiltonian()
	if err != nil {
		return 0, err
	}
	scaled, err := h.Scale(-beta)
	if err != nil {
		return 0, err
	}
	exp, err := scaled.(*matrix.Concrete).Exp(terms)
	if err != nil {
		return 0, err
	}
	return exp.Trace()
}

func (m *QuantumIsingModel) String() string {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Sprintf("QuantumIsingModel(%d spins)", m.SpinCount)
	}
	return string(b)
}
