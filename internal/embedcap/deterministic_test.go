package embedcap

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministic_SameInputSameVector(t *testing.T) {
	e := NewDeterministic(32, 7)
	a, err := e.EmbedBatch(context.Background(), []string{"Argo float 2902746, cycle 12."})
	require.NoError(t, err)
	b, err := e.EmbedBatch(context.Background(), []string{"Argo float 2902746, cycle 12."})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDeterministic_DifferentInputDifferentVector(t *testing.T) {
	e := NewDeterministic(32, 7)
	out, err := e.EmbedBatch(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	assert.NotEqual(t, out[0], out[1])
}

func TestDeterministic_Normalized(t *testing.T) {
	e := NewDeterministic(16, 1)
	out, err := e.EmbedBatch(context.Background(), []string{"a nontrivial string of text"})
	require.NoError(t, err)
	var sumSq float64
	for _, x := range out[0] {
		sumSq += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSq), 1e-5)
}

func TestDeterministic_DimensionDefaultsWhenNonPositive(t *testing.T) {
	e := NewDeterministic(0, 0)
	assert.Equal(t, 64, e.Dimension())
}
