package database

import "time"

// SnapshotRecord is one archive entry, newest first in listings.
type SnapshotRecord struct {
	Version        string    `json:"version"`
	Source         string    `json:"source"`
	LoadedAt       time.Time `json:"loaded_at"`
	RowCount       int       `json:"row_count"`
	HasSubCategory bool      `json:"has_sub_category"`
}

// RefreshJob tracks one background dataset reload.
type RefreshJob struct {
	JobID           string    `json:"job_id"`
	Status          string    `json:"status"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	SnapshotVersion string    `json:"snapshot_version,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Refresh job states.
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// LoadRecord is one load-journal entry.
type LoadRecord struct {
	ID              int64     `json:"id"`
	Source          string    `json:"source"`
	SnapshotVersion string    `json:"snapshot_version,omitempty"`
	RowCount        int       `json:"row_count"`
	CoercedCells    int       `json:"coerced_cells"`
	DurationMs      int64     `json:"duration_ms"`
	Status          string    `json:"status"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	LoadedAt        time.Time `json:"loaded_at"`
}
