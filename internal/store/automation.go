package store

import (
	"context"
	"time"
)

// OpenRun records the start of an ingestion tick and returns its ID so the
// caller can close it out with the final counts (spec §3 AutomationRun).
func (s *Store) OpenRun(ctx context.Context, at time.Time) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
INSERT INTO automation_log (run_timestamp, status)
VALUES ($1, $2)
RETURNING id`, at, RunStarted).Scan(&id)
	return id, err
}

// CloseRun finalizes a run with its outcome counts and status.
func (s *Store) CloseRun(ctx context.Context, run AutomationRun) error {
	_, err := s.pool.Exec(ctx, `
UPDATE automation_log
SET status = $1, files_discovered = $2, files_downloaded = $3,
    profiles_added = $4, measurements_added = $5, duration_seconds = $6, error_message = $7
WHERE id = $8`,
		run.Status, run.FilesDiscovered, run.FilesDownloaded,
		run.ProfilesAdded, run.MeasurementsAdded, run.DurationSeconds, nullableString(run.ErrorMessage), run.ID)
	return err
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// RecentRuns returns the most recent automation runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]AutomationRun, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, run_timestamp, status, files_discovered, files_downloaded, profiles_added, measurements_added, duration_seconds, COALESCE(error_message, '')
FROM automation_log
ORDER BY run_timestamp DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AutomationRun
	for rows.Next() {
		var r AutomationRun
		if err := rows.Scan(&r.ID, &r.RunTimestamp, &r.Status, &r.FilesDiscovered, &r.FilesDownloaded,
			&r.ProfilesAdded, &r.MeasurementsAdded, &r.DurationSeconds, &r.ErrorMessage); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
