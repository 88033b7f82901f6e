package store

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
)

// FloatDetail is the full-resolution view of one float's latest profile plus
// its per-level measurements, for the single-float read endpoint (spec §6).
type FloatDetail struct {
	Profile      Profile
	Measurements []Measurement
}

// FloatByID returns the latest profile for floatID and its measurements,
// optionally windowed to [minDepth, maxDepth] by pressure. ok is false if the
// float has no profiles on record.
func (s *Store) FloatByID(ctx context.Context, floatID string, minDepth, maxDepth *float64) (FloatDetail, bool, error) {
	var p Profile
	row := s.pool.QueryRow(ctx, `
SELECT global_profile_id, float_id, cycle_number, latitude, longitude, datetime, measurement_count, source_file_fingerprint
FROM argo_profiles
WHERE float_id = $1
ORDER BY datetime DESC
LIMIT 1`, floatID)
	if err := row.Scan(&p.GlobalProfileID, &p.FloatID, &p.CycleNumber, &p.Latitude, &p.Longitude, &p.Datetime, &p.MeasurementCount, &p.SourceFileFingerprint); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FloatDetail{}, false, nil
		}
		return FloatDetail{}, false, err
	}

	sql := `
SELECT global_profile_id, level, pressure, temperature, salinity, qc_flag, latitude, longitude, datetime
FROM argo_measurements
WHERE global_profile_id = $1`
	args := []any{p.GlobalProfileID}
	if minDepth != nil {
		args = append(args, *minDepth)
		sql += " AND pressure >= $" + strconv.Itoa(len(args))
	}
	if maxDepth != nil {
		args = append(args, *maxDepth)
		sql += " AND pressure <= $" + strconv.Itoa(len(args))
	}
	sql += " ORDER BY level ASC"

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return FloatDetail{}, false, err
	}
	defer rows.Close()

	var measurements []Measurement
	for rows.Next() {
		var m Measurement
		if err := rows.Scan(&m.GlobalProfileID, &m.Level, &m.Pressure, &m.Temperature, &m.Salinity, &m.QCFlag, &m.Latitude, &m.Longitude, &m.Datetime); err != nil {
			return FloatDetail{}, false, err
		}
		measurements = append(measurements, m)
	}
	if err := rows.Err(); err != nil {
		return FloatDetail{}, false, err
	}
	return FloatDetail{Profile: p, Measurements: measurements}, true, nil
}
