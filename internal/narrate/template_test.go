package narrate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplate_EmptyResult(t *testing.T) {
	n := NewTemplate()
	out, err := n.Narrate(context.Background(), Request{Question: "floats near the equator", RowCount: 0})
	require.NoError(t, err)
	assert.Contains(t, out, "No matching")
	assert.Contains(t, out, "floats near the equator")
}

func TestTemplate_WithStats(t *testing.T) {
	n := NewTemplate()
	out, err := n.Narrate(context.Background(), Request{
		Question:      "mean temperature in the Arabian Sea",
		RowCount:      42,
		HeadlineStats: "mean temperature 24.1C",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "mean temperature 24.1C")
}

func TestTemplate_Deterministic(t *testing.T) {
	n := NewTemplate()
	req := Request{Question: "x", RowCount: 3, HeadlineStats: "y"}
	a, _ := n.Narrate(context.Background(), req)
	b, _ := n.Narrate(context.Background(), req)
	assert.Equal(t, a, b)
}
