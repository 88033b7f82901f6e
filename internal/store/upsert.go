package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// UpsertProfile attempts to insert profile using its natural key
// (float_id, cycle_number, source_file_fingerprint). On conflict it does
// nothing and returns the existing global_profile_id with Inserted=false
// ("skipped" per spec §4.3). On a fresh insert it allocates a new ID from
// the store's sequence and bulk-inserts measurements, all in one
// transaction, so a crash mid-file never leaves a profile with a wrong
// measurement_count (spec §3 invariant, §5 "profiles ... committed
// atomically ... as one logical unit").
func (s *Store) UpsertProfile(ctx context.Context, p Profile, measurements []Measurement) (UpsertOutcome, error) {
	floatID, cycle, fingerprint := p.NaturalKey()
	naturalKey := fmt.Sprintf("%s/%d/%s", floatID, cycle, fingerprint)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return UpsertOutcome{}, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var existingID int64
	err = tx.QueryRow(ctx, `SELECT global_profile_id FROM argo_profiles WHERE natural_key = $1`, naturalKey).Scan(&existingID)
	if err == nil {
		// Already ingested; no-op per spec §3 "Re-ingesting the same file is a no-op."
		return UpsertOutcome{GlobalProfileID: existingID, Inserted: false}, nil
	}
	if err != pgx.ErrNoRows {
		return UpsertOutcome{}, err
	}

	var newID int64
	if err := tx.QueryRow(ctx, fmt.Sprintf(`SELECT nextval('%s')`, s.seqName())).Scan(&newID); err != nil {
		return UpsertOutcome{}, fmt.Errorf("allocate global_profile_id: %w", err)
	}

	_, err = tx.Exec(ctx, `
INSERT INTO argo_profiles (global_profile_id, float_id, cycle_number, latitude, longitude, datetime, measurement_count, source_file_fingerprint, natural_key)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		newID, floatID, cycle, p.Latitude, p.Longitude, p.Datetime, len(measurements), fingerprint, naturalKey)
	if err != nil {
		return UpsertOutcome{}, fmt.Errorf("insert profile: %w", err)
	}

	batch := &pgx.Batch{}
	for _, m := range measurements {
		batch.Queue(`
INSERT INTO argo_measurements (global_profile_id, level, pressure, temperature, salinity, qc_flag, latitude, longitude, datetime)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			newID, m.Level, m.Pressure, m.Temperature, m.Salinity, m.QCFlag, p.Latitude, p.Longitude, p.Datetime)
	}
	if batch.Len() > 0 {
		br := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return UpsertOutcome{}, fmt.Errorf("insert measurement: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return UpsertOutcome{}, fmt.Errorf("close measurement batch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return UpsertOutcome{}, fmt.Errorf("commit profile upsert: %w", err)
	}
	return UpsertOutcome{GlobalProfileID: newID, Inserted: true}, nil
}
