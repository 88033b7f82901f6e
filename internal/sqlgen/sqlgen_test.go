package sqlgen

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floatchat/internal/classify"
	"floatchat/internal/gazetteer"
)

func TestSynthesize_InformationalRejected(t *testing.T) {
	_, err := Synthesize(classify.IntentInformational, classify.Entities{}, nil, Options{})
	assert.Error(t, err)
}

func TestSynthesize_SemanticRejected(t *testing.T) {
	_, err := Synthesize(classify.IntentSemantic, classify.Entities{}, nil, Options{})
	assert.Error(t, err)
}

func TestSynthesize_FloatLookupIsRawWithLimit(t *testing.T) {
	ent := classify.Entities{FloatIDs: []string{"29027460"}}
	stmt, err := Synthesize(classify.IntentFloatLookup, ent, nil, Options{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stmt.Text, "SELECT"))
	assert.Contains(t, stmt.Text, "LIMIT $2")
	assert.Contains(t, stmt.Text, "float_id IN ($1)")
	assert.Equal(t, []any{"29027460", DefaultRowLimit}, stmt.Args)
	assert.NotContains(t, stmt.Text, "GROUP BY")
}

func TestSynthesize_ParameterProfileIsAggregated(t *testing.T) {
	ent := classify.Entities{Parameters: []string{"temperature"}}
	stmt, err := Synthesize(classify.IntentParameterProfile, ent, nil, Options{})
	require.NoError(t, err)
	assert.Contains(t, stmt.Text, "GROUP BY depth_range")
	assert.Contains(t, stmt.Text, "avg(m.temperature)")
	assert.NotContains(t, stmt.Text, "LIMIT")
}

func TestSynthesize_ParameterProfileExcludesBadAndMissingQC(t *testing.T) {
	ent := classify.Entities{Parameters: []string{"temperature"}}
	stmt, err := Synthesize(classify.IntentParameterProfile, ent, nil, Options{})
	require.NoError(t, err)
	assert.Contains(t, stmt.Text, "m.qc_flag NOT IN (4, 9)")
}

func TestSynthesize_SpatialWithParametersUsesRegionBoundingBox(t *testing.T) {
	reg, ok := gazetteer.Default().Lookup("Arabian Sea")
	require.True(t, ok)
	ent := classify.Entities{Regions: []gazetteer.Region{reg}, Parameters: []string{"salinity"}}
	stmt, err := Synthesize(classify.IntentSpatial, ent, nil, Options{})
	require.NoError(t, err)
	assert.Contains(t, stmt.Text, "p.latitude BETWEEN")
	assert.Contains(t, stmt.Text, "p.longitude BETWEEN")
	assert.Contains(t, stmt.Args, reg.MinLat)
}

func TestSynthesize_TemporalUsesHalfOpenInterval(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	ent := classify.Entities{TimeRange: &classify.TimeRange{Start: start, End: end}}
	stmt, err := Synthesize(classify.IntentTemporal, ent, nil, Options{})
	require.NoError(t, err)
	assert.Contains(t, stmt.Text, ">= $")
	assert.Contains(t, stmt.Text, "< $")
	assert.Contains(t, stmt.Args, start)
	assert.Contains(t, stmt.Args, end)
}

func TestSynthesize_CandidateIDsNarrowRawQuery(t *testing.T) {
	ent := classify.Entities{FloatIDs: []string{"29027460"}}
	stmt, err := Synthesize(classify.IntentFloatLookup, ent, []int64{10, 20, 30}, Options{})
	require.NoError(t, err)
	assert.Contains(t, stmt.Text, "global_profile_id IN ($2, $3, $4)")
	assert.Contains(t, stmt.Args, int64(10))
}

func TestSynthesize_DepthBoundsOnlyAppliedInAggregateForm(t *testing.T) {
	ent := classify.Entities{
		Parameters: []string{"pressure"},
		Depth:      classify.DepthBounds{MinMeters: 200, HasMin: true},
	}
	stmt, err := Synthesize(classify.IntentParameterProfile, ent, nil, Options{})
	require.NoError(t, err)
	assert.Contains(t, stmt.Text, "m.pressure >= $")
}

func TestSynthesize_RawFormIgnoresDepthBounds(t *testing.T) {
	ent := classify.Entities{
		FloatIDs: []string{"29027460"},
		Depth:    classify.DepthBounds{MinMeters: 200, HasMin: true},
	}
	stmt, err := Synthesize(classify.IntentFloatLookup, ent, nil, Options{})
	require.NoError(t, err)
	assert.NotContains(t, stmt.Text, "pressure")
}

func TestSynthesize_CustomOptionsOverrideDefaults(t *testing.T) {
	ent := classify.Entities{FloatIDs: []string{"29027460"}}
	stmt, err := Synthesize(classify.IntentFloatLookup, ent, nil, Options{RowLimit: 10})
	require.NoError(t, err)
	assert.Contains(t, stmt.Args, 10)
}
