package gazetteer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_LookupKnownRegion(t *testing.T) {
	g := Default()
	r, ok := g.Lookup("arabian sea")
	require.True(t, ok)
	assert.Equal(t, "Arabian Sea", r.Name)
}

func TestDefault_LookupUnknownRegion(t *testing.T) {
	g := Default()
	_, ok := g.Lookup("lake michigan")
	assert.False(t, ok)
}

func TestFindInText_PicksLongestMatch(t *testing.T) {
	g := Default()
	r, ok := g.FindInText("show me floats in the Bay of Bengal near the coast")
	require.True(t, ok)
	assert.Equal(t, "Bay of Bengal", r.Name)
}

func TestFindInText_NoMatch(t *testing.T) {
	g := Default()
	_, ok := g.FindInText("show me floats somewhere random")
	assert.False(t, ok)
}

func TestLoad_EmptyPathReturnsDefault(t *testing.T) {
	g, err := Load("")
	require.NoError(t, err)
	_, ok := g.Lookup("Indian Ocean")
	assert.True(t, ok)
}
