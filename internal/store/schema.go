package store

import (
	"context"
	"fmt"
)

// EnsureSchema creates the store's tables and ID sequence if they do not
// already exist. The sequence is started at idBase and the profiles table
// carries a CHECK constraint enforcing global_profile_id stays within
// [idBase, idBase+idWidth), so the dev/live ID-space disjointness invariant
// (spec §3) is enforced by the database, not just by application code.
func (s *Store) EnsureSchema(ctx context.Context) error {
	seqName := s.seqName()
	stmts := []string{
		fmt.Sprintf(`CREATE SEQUENCE IF NOT EXISTS %s START WITH %d INCREMENT BY 1`, seqName, s.idBase),
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS argo_profiles (
	global_profile_id       BIGINT PRIMARY KEY,
	float_id                TEXT NOT NULL,
	cycle_number            INTEGER NOT NULL,
	latitude                DOUBLE PRECISION,
	longitude               DOUBLE PRECISION,
	datetime                TIMESTAMPTZ,
	measurement_count       INTEGER NOT NULL DEFAULT 0,
	source_file_fingerprint TEXT NOT NULL,
	natural_key             TEXT NOT NULL UNIQUE,
	CONSTRAINT %s_id_range CHECK (global_profile_id >= %d AND global_profile_id < %d)
)`, s.name, s.idBase, s.idBase+s.idWidth),
		`CREATE INDEX IF NOT EXISTS idx_argo_profiles_latlon ON argo_profiles (latitude, longitude)`,
		`CREATE INDEX IF NOT EXISTS idx_argo_profiles_datetime ON argo_profiles (datetime)`,
		`CREATE INDEX IF NOT EXISTS idx_argo_profiles_float_id ON argo_profiles (float_id)`,
		`
CREATE TABLE IF NOT EXISTS argo_measurements (
	global_profile_id BIGINT NOT NULL REFERENCES argo_profiles(global_profile_id) ON DELETE CASCADE,
	level             INTEGER NOT NULL,
	pressure          DOUBLE PRECISION,
	temperature       DOUBLE PRECISION,
	salinity          DOUBLE PRECISION,
	qc_flag           SMALLINT,
	latitude          DOUBLE PRECISION,
	longitude         DOUBLE PRECISION,
	datetime          TIMESTAMPTZ,
	PRIMARY KEY (global_profile_id, level)
)`,
		`CREATE INDEX IF NOT EXISTS idx_argo_measurements_profile ON argo_measurements (global_profile_id)`,
		`
CREATE TABLE IF NOT EXISTS automation_log (
	id                 BIGSERIAL PRIMARY KEY,
	run_timestamp      TIMESTAMPTZ NOT NULL,
	status             TEXT NOT NULL,
	files_discovered   INTEGER NOT NULL DEFAULT 0,
	files_downloaded   INTEGER NOT NULL DEFAULT 0,
	profiles_added     INTEGER NOT NULL DEFAULT 0,
	measurements_added INTEGER NOT NULL DEFAULT 0,
	duration_seconds   DOUBLE PRECISION NOT NULL DEFAULT 0,
	error_message      TEXT
)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema (%s): %w", s.name, err)
		}
	}
	return nil
}

func (s *Store) seqName() string {
	return fmt.Sprintf("%s_global_profile_id_seq", s.name)
}
