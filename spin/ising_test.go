package spin

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsingInteractionAccessors(t *testing.T) {
	m := NewIsing(3)
	m.SetInteraction(2, 0, 1.5)
	assert.Equal(t, 1.5, m.InteractionAt(0, 2))
	assert.Equal(t, 1.5, m.InteractionAt(2, 0))
	assert.Equal(t, 0.0, m.InteractionAt(0, 1))

	m.SetInteraction(0, 2, -1.0)
	assert.Equal(t, -1.0, m.InteractionAt(0, 2))
	m.AddInteraction(0, 2, 0.25)
	assert.Equal(t, -0.75, m.InteractionAt(0, 2))
	m.AddInteraction(1, 2, 0.5)
	assert.Equal(t, 0.5, m.InteractionAt(2, 1))

	require.Len(t, m.Interaction, 2)
	assert.Equal(t, Coupling{I: 0, J: 2, Strength: -0.75}, m.Interaction[0])
}

func TestIsingHamiltonian(t *testing.T) {
	m := NewIsing(3)
	m.SetInteraction(0, 1, 2)
	m.SetInteraction(1, 2, -1)
	m.ExternalField[0] = 0.5
	m.ExternalField[2] = -0.25

	cases := []struct {
		config []int
		want   float64
	}{
		{[]int{1, 1, 1}, -1.25},
		{[]int{1, -1, 1}, 0.75},
		{[]int{-1, -1, -1}, -0.75},
		{[]int{-1, 1, -1}, 1.25},
	}
	for _, c := range cases {
		h, err := m.Hamiltonian(c.config)
		require.NoError(t, err)
		assert.InDelta(t, c.want, h, 1e-12, "config %v", c.config)
	}

	_, err := m.Hamiltonian([]int{1, 1})
	assert.Error(t, err)
}

func TestIsingPartitionFunction(t *testing.T) {
	// Single spin in a field: Z = 2*cosh(beta*h).
	single := NewIsing(1)
	single.ExternalField[0] = 1.3
	assert.InEpsilon(t, 2*math.Cosh(0.7*1.3), single.PartitionFunction(0.7), 1e-12)

	// Coupled pair without a field: Z = 2*exp(beta*J) + 2*exp(-beta*J).
	pair := NewIsing(2)
	pair.SetInteraction(0, 1, 0.9)
	want := 2*math.Exp(0.6*0.9) + 2*math.Exp(-0.6*0.9)
	assert.InEpsilon(t, want, pair.PartitionFunction(0.6), 1e-12)

	// Free spins factorize: Z = 2^n.
	free := NewIsing(4)
	assert.InEpsilon(t, 16, free.PartitionFunction(1), 1e-12)
}

func TestIsingJSONRoundTrip(t *testing.T) {
	m := NewIsing(3)
	m.SetInteraction(0, 1, 0.5)
	m.SetInteraction(1, 2, -2)
	m.ExternalField[1] = 1.25

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"spin_count":3`)
	assert.Contains(t, string(data), `[0,1,0.5]`)

	back, err := ParseIsing(data)
	require.NoError(t, err)
	assert.Equal(t, m, back)
}

func TestParseIsingRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"zero spins", `{"spin_count": 0, "external_field": [], "interaction": []}`},
		{"field length", `{"spin_count": 2, "external_field": [0.5], "interaction": []}`},
		{"spin out of range", `{"spin_count": 2, "external_field": [], "interaction": [[0, 2, 1.0]]}`},
		{"self coupling", `{"spin_count": 2, "external_field": [], "interaction": [[1, 1, 1.0]]}`},
		{"coupling arity", `{"spin_count": 2, "external_field": [], "interaction": [[0, 1]]}`},
		{"fractional index", `{"spin_count": 2, "external_field": [], "interaction": [[0.5, 1, 1.0]]}`},
		{"not an object", `[1, 2, 3]`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ParseIsing([]byte(c.data))
			assert.Error(t, err)
		})
	}
}

func TestParseIsingDefaultsField(t *testing.T) {
	m, err := ParseIsing([]byte(`{"spin_count": 2, "interaction": [[0, 1, 1.0]]}`))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, m.ExternalField)
}

func TestParseIsingMergesDuplicates(t *testing.T) {
	// Later couplings of the same pair override earlier ones, matching
	// SetInteraction.
	m, err := ParseIsing([]byte(`{"spin_count": 2, "interaction": [[0, 1, 1.0], [1, 0, 2.5]]}`))
	require.NoError(t, err)
	require.Len(t, m.Interaction, 1)
	assert.Equal(t, 2.5, m.InteractionAt(0, 1))
}
