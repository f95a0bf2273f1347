package spin

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// PottsModel is a standard q-state Potts model: one coupling strength J
// over an edge set, plus an optional external field resolved per site
// and state, with Hamiltonian
//
//	H(s) = -J sum_{(i,j) in E} delta(s_i, s_j) - sum_i h_i(s_i),
//
// where every s_i ranges over the states 0..q-1.
type PottsModel struct {
	Sites         int         `json:"sites" validate:"min=1"`
	States        int         `json:"states" validate:"min=2"`
	Coupling      float64     `json:"interaction_strength"`
	Edges         []Edge      `json:"interaction"`
	ExternalField []SiteField `json:"external_field,omitempty"`
}

// NewPotts creates a model over the given number of sites and states
// with coupling strength j and no edges.
func NewPotts(sites, states int, j float64) *PottsModel {
	return &PottsModel{Sites: sites, States: states, Coupling: j, Edges: []Edge{}}
}

// ParsePotts decodes and validates a JSON Potts model.
func ParsePotts(data []byte) (*PottsModel, error) {
	var m PottsModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "parse potts model")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.normalize()
	return &m, nil
}

// Validate checks site and state ranges and finiteness.
func (m *PottsModel) Validate() error {
	return errors.Wrap(validate.Struct(m), "potts model")
}

func (m *PottsModel) normalize() {
	edges := m.Edges
	m.Edges = []Edge{}
	for _, e := range edges {
		m.AddEdge(e.I, e.J)
	}
	fields := m.ExternalField
	m.ExternalField = nil
	for _, f := range fields {
		m.SetField(f.Site, f.State, f.Strength)
	}
}

// AddEdge records an interaction between sites i and j. Duplicates are
// dropped and the pair is stored with the smaller index first.
func (m *PottsModel) AddEdge(i, j int) {
	i, j = orderPair(i, j)
	for _, e := range m.Edges {
		if e.I == i && e.J == j {
			return
		}
	}
	m.Edges = append(m.Edges, Edge{I: i, J: j})
}

// HasEdge reports whether sites i and j interact.
func (m *PottsModel) HasEdge(i, j int) bool {
	i, j = orderPair(i, j)
	for _, e := range m.Edges {
		if e.I == i && e.J == j {
			return true
		}
	}
	return false
}

// SetField overrides the external field strength at a site and state.
func (m *PottsModel) SetField(site, state int, strength float64) {
	for k := range m.ExternalField {
		if m.ExternalField[k].Site == site && m.ExternalField[k].State == state {
			m.ExternalField[k].Strength = strength
			return
		}
	}
	m.ExternalField = append(m.ExternalField, SiteField{Site: site, State: state, Strength: strength})
}

// FieldAt resolves the external field strength at a site and state,
// zero when unset.
func (m *PottsModel) FieldAt(site, state int) float64 {
	for _, f := range m.ExternalField {
		if f.Site == site && f.State == state {
			return f.Strength
		}
	}
	return 0
}

// Hamiltonian evaluates the energy of one configuration of states.
func (m *PottsModel) Hamiltonian(config []int) (float64, error) {
	if len(config) != m.Sites {
		return 0, errors.Errorf("configuration has %d sites, model has %d", len(config), m.Sites)
	}
	total := 0.0
	for _, e := range m.Edges {
		if config[e.I] == config[e.J] {
			total -= m.Coupling
		}
	}
	for _, f := range m.ExternalField {
		if config[f.Site] == f.State {
			total -= f.Strength
		}
	}
	return total, nil
}

// PartitionFunction sums exp(-beta*H) over all q^n configurations.
// Brute force, reference use only.
func (m *PottsModel) PartitionFunction(beta float64) float64 {
	config := make([]int, m.Sites)
	total := 0.0
	for {
		h, _ := m.Hamiltonian(config)
		total += math.Exp(-beta * h)
		i := 0
		for ; i < m.Sites; i++ {
			config[i]++
			if config[i] < m.States {
				break
			}
			config[i] = 0
		}
		if i == m.Sites {
			return total
		}
	}
}

func (m *PottsModel) String() string {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Sprintf("PottsModel(%d sites, %d states)", m.Sites, m.States)
	}
	return string(b)
}
