package store

import (
	"context"
	"math"
)

const earthRadiusKM = 6371.0

// HaversineKM returns the great-circle distance in kilometers between two
// lat/lon points (spec §4.10, §8 "spatial correctness"). No geospatial
// library in the example pack is exercised anywhere else in the tree, so
// this is a direct, justified standard-library implementation (see
// DESIGN.md).
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}

// ProfilesInBBox returns the latest profile per float whose position falls
// within [minLat,maxLat] x [minLon,maxLon].
func (s *Store) ProfilesInBBox(ctx context.Context, minLat, maxLat, minLon, maxLon float64, limit int) ([]FloatPosition, error) {
	rows, err := s.pool.Query(ctx, `
SELECT DISTINCT ON (float_id) global_profile_id, float_id, cycle_number, latitude, longitude, datetime, measurement_count
FROM argo_profiles
WHERE latitude BETWEEN $1 AND $2 AND longitude BETWEEN $3 AND $4
  AND latitude IS NOT NULL AND longitude IS NOT NULL
ORDER BY float_id, datetime DESC
LIMIT $5`, minLat, maxLat, minLon, maxLon, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFloatPositions(rows)
}

// ProfilesWithinRadius returns the latest profile per float within radiusKM
// of (centerLat, centerLon), computed via HaversineKM over a bounding-box
// prefiltered candidate set (spec §4.10).
func (s *Store) ProfilesWithinRadius(ctx context.Context, centerLat, centerLon, radiusKM float64, limit int) ([]FloatPosition, error) {
	degPad := radiusKM / 111.0 // ~111km per degree latitude, generous prefilter
	// A degree of longitude shrinks with cos(latitude); widen by the
	// poleward edge of the box so the prefilter stays generous.
	lonPad := 180.0
	if c := math.Cos((math.Abs(centerLat) + degPad) * math.Pi / 180); c > 0.01 {
		lonPad = math.Min(180, degPad/c)
	}
	candidates, err := s.ProfilesInBBox(ctx, centerLat-degPad, centerLat+degPad, centerLon-lonPad, centerLon+lonPad, limit*4)
	if err != nil {
		return nil, err
	}
	var out []FloatPosition
	for _, c := range candidates {
		d := HaversineKM(centerLat, centerLon, c.Latitude, c.Longitude)
		if d <= radiusKM {
			c.DistanceKM = d
			out = append(out, c)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AllFloatPositions returns the latest known position of every float.
func (s *Store) AllFloatPositions(ctx context.Context, limit int) ([]FloatPosition, error) {
	rows, err := s.pool.Query(ctx, `
SELECT DISTINCT ON (float_id) global_profile_id, float_id, cycle_number, latitude, longitude, datetime, measurement_count
FROM argo_profiles
WHERE latitude IS NOT NULL AND longitude IS NOT NULL
ORDER BY float_id, datetime DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFloatPositions(rows)
}

// TrajectoriesWithinRadius returns every profile position (not just the
// latest) for floats whose latest position is within radiusKM of the
// center, ordered by float then time, for the trajectory endpoint (spec §6).
func (s *Store) TrajectoriesWithinRadius(ctx context.Context, centerLat, centerLon, radiusKM float64, limit int) ([]TrajectoryPoint, error) {
	degPad := radiusKM / 111.0
	lonPad := 180.0
	if c := math.Cos((math.Abs(centerLat) + degPad) * math.Pi / 180); c > 0.01 {
		lonPad = math.Min(180, degPad/c)
	}
	rows, err := s.pool.Query(ctx, `
SELECT global_profile_id, float_id, cycle_number, latitude, longitude, datetime
FROM argo_profiles
WHERE float_id IN (
    SELECT float_id FROM argo_profiles
    WHERE latitude BETWEEN $1 AND $2 AND longitude BETWEEN $3 AND $4)
  AND latitude IS NOT NULL AND longitude IS NOT NULL
ORDER BY float_id, datetime ASC
LIMIT $5`, centerLat-degPad, centerLat+degPad, centerLon-lonPad, centerLon+lonPad, limit*8)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []TrajectoryPoint
	for rows.Next() {
		var p TrajectoryPoint
		if err := rows.Scan(&p.GlobalProfileID, &p.FloatID, &p.CycleNumber, &p.Latitude, &p.Longitude, &p.Datetime); err != nil {
			return nil, err
		}
		all = append(all, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// all is ordered by float_id, datetime ASC, so the last row seen per
	// float is its most recent position; inclusion is decided on that
	// position alone (spec: "for every float whose latest position is
	// inside the radius, that float's entire ordered profile history").
	latest := map[string]TrajectoryPoint{}
	for _, p := range all {
		latest[p.FloatID] = p
	}
	floatsSeen := map[string]bool{}
	for floatID, p := range latest {
		if HaversineKM(centerLat, centerLon, p.Latitude, p.Longitude) <= radiusKM {
			floatsSeen[floatID] = true
		}
	}
	var out []TrajectoryPoint
	for _, p := range all {
		if floatsSeen[p.FloatID] {
			out = append(out, p)
		}
	}
	if len(out) > limit*8 {
		out = out[:limit*8]
	}
	return out, nil
}

func scanFloatPositions(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]FloatPosition, error) {
	var out []FloatPosition
	for rows.Next() {
		var p FloatPosition
		if err := rows.Scan(&p.GlobalProfileID, &p.FloatID, &p.CycleNumber, &p.Latitude, &p.Longitude, &p.Datetime, &p.MeasurementCount); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
