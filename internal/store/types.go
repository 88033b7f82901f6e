// Package store implements the relational data model (C3): two disjoint
// Postgres-backed stores ("dev" and "live") holding Argo profiles,
// per-level measurements, and the ingestion automation log.
package store

import "time"

// Profile is one vertical cast by one float at one time (spec §3).
type Profile struct {
	GlobalProfileID       int64      `json:"global_profile_id"`
	FloatID               string     `json:"float_id"`
	CycleNumber           int        `json:"cycle_number"`
	Latitude              *float64   `json:"latitude"`
	Longitude             *float64   `json:"longitude"`
	Datetime              *time.Time `json:"datetime"`
	MeasurementCount      int        `json:"measurement_count"`
	SourceFileFingerprint string     `json:"source_file_fingerprint"`
}

// NaturalKey is the domain key that de-duplicates re-ingestion of the same file.
func (p Profile) NaturalKey() (string, int, string) {
	return p.FloatID, p.CycleNumber, p.SourceFileFingerprint
}

// Measurement is one sample at one depth level of one profile (spec §3).
type Measurement struct {
	GlobalProfileID int64    `json:"global_profile_id"`
	Level           int      `json:"level"`
	Pressure        *float64 `json:"pressure"`
	Temperature     *float64 `json:"temperature"`
	Salinity        *float64 `json:"salinity"`
	QCFlag          *int16   `json:"qc_flag"` // Argo QC convention: 1=good, 4=bad, 9=missing

	// Denormalized copies of the parent profile for query convenience.
	Latitude  *float64   `json:"latitude"`
	Longitude *float64   `json:"longitude"`
	Datetime  *time.Time `json:"datetime"`
}

// RunStatus is the closed set of AutomationRun states (spec §3).
type RunStatus string

const (
	RunStarted   RunStatus = "started"
	RunCompleted RunStatus = "completed"
	RunError     RunStatus = "error"
)

// AutomationRun is one attempted ingestion tick (spec §3).
type AutomationRun struct {
	ID                int64     `json:"id"`
	RunTimestamp      time.Time `json:"run_timestamp"`
	Status            RunStatus `json:"status"`
	FilesDiscovered   int       `json:"files_discovered"`
	FilesDownloaded   int       `json:"files_downloaded"`
	ProfilesAdded     int       `json:"profiles_added"`
	MeasurementsAdded int       `json:"measurements_added"`
	DurationSeconds   float64   `json:"duration_seconds"`
	ErrorMessage      string    `json:"error_message,omitempty"`
}

// UpsertOutcome reports whether upsertProfile inserted a new row or found
// an existing one via the natural key (spec §4.3).
type UpsertOutcome struct {
	GlobalProfileID int64
	Inserted        bool
}

// FloatPosition is the latest-known position of one float, used by the
// radius/bbox/"all floats" read endpoints (spec §6, §4.10).
type FloatPosition struct {
	FloatID          string     `json:"float_id"`
	Latitude         float64    `json:"latitude"`
	Longitude        float64    `json:"longitude"`
	DistanceKM       float64    `json:"distance_km"`
	Datetime         *time.Time `json:"datetime"`
	CycleNumber      int        `json:"cycle_number"`
	MeasurementCount int        `json:"measurement_count"`
	GlobalProfileID  int64      `json:"global_profile_id"`
}

// TrajectoryPoint is one position sample for a float's trajectory (spec §6,
// property 8: the client groups the flat "trajectories" array by float_id).
type TrajectoryPoint struct {
	FloatID         string     `json:"float_id"`
	Latitude        float64    `json:"latitude"`
	Longitude       float64    `json:"longitude"`
	Datetime        *time.Time `json:"datetime"`
	GlobalProfileID int64      `json:"global_profile_id"`
	CycleNumber     int        `json:"cycle_number"`
}
