package vectorindex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDescribe_FullFields(t *testing.T) {
	lat, lon := 12.5, 78.25
	dt := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	s := Describe(ProfileSummary{FloatID: "2902746", CycleNumber: 12, Latitude: &lat, Longitude: &lon, Region: "Bay of Bengal", Datetime: &dt})
	assert.Contains(t, s, "2902746")
	assert.Contains(t, s, "cycle 12")
	assert.Contains(t, s, "Bay of Bengal")
	assert.Contains(t, s, "2024-03-14")
}

func TestDescribe_MissingPosition(t *testing.T) {
	s := Describe(ProfileSummary{FloatID: "2902746", CycleNumber: 1})
	assert.Equal(t, "Argo float 2902746, cycle 1.", s)
}

func TestPointKey_Deterministic(t *testing.T) {
	a := PointKey("dev", 42)
	b := PointKey("dev", 42)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, PointKey("live", 42))
}

func TestPointUUID_Deterministic(t *testing.T) {
	key := PointKey("dev", 42)
	assert.Equal(t, pointUUID(key), pointUUID(key))
	assert.NotEqual(t, pointUUID(key), pointUUID(PointKey("live", 42)))
}
