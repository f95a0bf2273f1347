package encode

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spinwmc/count"
	"spinwmc/spin"
)

func weightedCount(t *testing.T, ctr count.Counter, p count.Problem) float64 {
	t.Helper()
	res := ctr.ModelCount(p)
	require.True(t, res.Success)
	return res.Count
}

func triangleIsing() *spin.IsingModel {
	m := spin.NewIsing(3)
	m.SetInteraction(0, 1, 0.5)
	m.SetInteraction(1, 2, -0.7)
	m.SetInteraction(0, 2, 0.9)
	m.ExternalField = []float64{0.2, 0, -0.4}
	return m
}

func TestIsingCNFMatchesPartition(t *testing.T) {
	single := spin.NewIsing(1)
	single.ExternalField[0] = 0.8

	pair := spin.NewIsing(2)
	pair.SetInteraction(0, 1, 1.1)
	pair.ExternalField = []float64{0.3, -0.5}

	tests := []struct {
		name  string
		model *spin.IsingModel
		beta  float64
	}{
		{"single spin", single, 0.5},
		{"coupled pair", pair, 0.9},
		{"free spins", spin.NewIsing(4), 1.0},
		{"triangle", triangleIsing(), 0.6},
		{"triangle cold", triangleIsing(), 1.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := IsingCNF(tt.model, tt.beta)
			require.NoError(t, err)
			got := weightedCount(t, count.Brute{}, p)
			assert.InEpsilon(t, tt.model.PartitionFunction(tt.beta), got, 1e-9)
		})
	}
}

func TestIsingCNFShape(t *testing.T) {
	p, err := IsingCNF(triangleIsing(), 0.7)
	require.NoError(t, err)

	// Three spins plus one agreement variable per coupling, four
	// clauses each.
	assert.Len(t, p.Formula, 12)
	require.Equal(t, 6, p.Weights.Len())

	vars := p.Weights.Domain()
	assert.InDelta(t, math.Exp(0.7*0.2), p.Weights.Derived(vars[0], true), 1e-12)
	assert.InDelta(t, math.Exp(-0.7*0.2), p.Weights.Derived(vars[0], false), 1e-12)
	assert.InDelta(t, 1.0, p.Weights.Derived(vars[1], true), 1e-12)
	assert.InDelta(t, math.Exp(0.7*0.5), p.Weights.Derived(vars[3], true), 1e-12)
	assert.InDelta(t, math.Exp(-0.7*0.5), p.Weights.Derived(vars[3], false), 1e-12)
}

func TestIsingMatrixTraceMatchesPartition(t *testing.T) {
	pair := spin.NewIsing(2)
	pair.SetInteraction(0, 1, 1.1)
	pair.ExternalField = []float64{0.3, -0.5}

	tests := []struct {
		name  string
		model *spin.IsingModel
		beta  float64
	}{
		{"coupled pair", pair, 0.9},
		{"free spins", spin.NewIsing(3), 1.0},
		{"triangle", triangleIsing(), 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := IsingMatrix(tt.model, tt.beta)
			require.NoError(t, err)
			f, w, err := op.TraceFormula()
			require.NoError(t, err)
			got := weightedCount(t, count.Brute{}, count.Problem{Formula: f, Weights: w})
			assert.InEpsilon(t, tt.model.PartitionFunction(tt.beta), got, 1e-9)
		})
	}
}

func TestIsingMatrixValue(t *testing.T) {
	m := spin.NewIsing(2)
	m.SetInteraction(0, 1, 0.8)

	op, err := IsingMatrix(m, 0.5)
	require.NoError(t, err)
	got, err := op.Value(count.Brute{})
	require.NoError(t, err)

	agree, differ := math.Exp(0.4), math.Exp(-0.4)
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			want := 0.0
			if row == col {
				want = differ
				if row == 0 || row == 3 {
					want = agree
				}
			}
			assert.InDelta(t, want, got.At(row, col), 1e-9)
		}
	}
}

func TestIsingEncodersRejectInvalid(t *testing.T) {
	bad := &spin.IsingModel{
		SpinCount:   2,
		Interaction: []spin.Coupling{{I: 0, J: 5, Strength: 1}},
	}
	_, err := IsingCNF(bad, 1)
	assert.Error(t, err)
	_, err = IsingMatrix(bad, 1)
	assert.Error(t, err)
}
