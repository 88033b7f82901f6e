package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineKM_KnownDistance(t *testing.T) {
	// Mumbai to Chennai, roughly 1030km great-circle.
	d := HaversineKM(19.0760, 72.8777, 13.0827, 80.2707)
	assert.InDelta(t, 1030, d, 60)
}

func TestHaversineKM_SamePoint(t *testing.T) {
	d := HaversineKM(10.0, 70.0, 10.0, 70.0)
	assert.InDelta(t, 0, d, 1e-9)
}

func TestValidateIdentifiers_RejectsUnknownTable(t *testing.T) {
	err := ValidateIdentifiers([]string{"pg_user"}, nil)
	require.Error(t, err)
}

func TestValidateIdentifiers_RejectsUnknownColumn(t *testing.T) {
	err := ValidateIdentifiers([]string{"argo_profiles"}, []string{"password_hash"})
	require.Error(t, err)
}

func TestValidateIdentifiers_AllowsKnownSet(t *testing.T) {
	err := ValidateIdentifiers(
		[]string{"argo_profiles", "argo_measurements"},
		[]string{"float_id", "pressure", "temperature", "salinity", "qc_flag"},
	)
	require.NoError(t, err)
}

func TestValidateSelectOnly_RejectsWriteKeywords(t *testing.T) {
	cases := []string{
		"DELETE FROM argo_profiles",
		"UPDATE argo_profiles SET float_id = 'x'",
		"DROP TABLE argo_profiles",
		"INSERT INTO argo_profiles DEFAULT VALUES",
	}
	for _, sql := range cases {
		err := validateSelectOnly(sql)
		assert.Error(t, err, sql)
	}
}

func TestValidateSelectOnly_AllowsPlainSelect(t *testing.T) {
	err := validateSelectOnly("SELECT float_id, pressure FROM argo_profiles JOIN argo_measurements USING (global_profile_id)")
	assert.NoError(t, err)
}

func TestProfile_NaturalKey(t *testing.T) {
	p := Profile{FloatID: "2902746", CycleNumber: 42, SourceFileFingerprint: "abc123"}
	floatID, cycle, fingerprint := p.NaturalKey()
	assert.Equal(t, "2902746", floatID)
	assert.Equal(t, 42, cycle)
	assert.Equal(t, "abc123", fingerprint)
}
