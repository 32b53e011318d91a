package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dnlaql/cls-reporting/dataset"
)

type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// CreateSchema creates necessary database tables
func (r *Repository) CreateSchema() error {
	// Helper to execute multi-statement SQL
	execSQL := func(db *sql.DB, script string) error {
		statements := strings.Split(script, ";")
		for _, stmt := range statements {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if _, err := db.Exec(stmt); err != nil {
				return fmt.Errorf("failed to execute statement: %w\nStatement: %s", err, stmt)
			}
		}
		return nil
	}

	if err := execSQL(r.db.Archive, archiveSchema); err != nil {
		return fmt.Errorf("archive schema error: %w", err)
	}
	if err := execSQL(r.db.App, appSchema); err != nil {
		return fmt.Errorf("app schema error: %w", err)
	}
	return nil
}

// ArchiveSnapshot appends a snapshot and its rows to the archive in one
// transaction.
func (r *Repository) ArchiveSnapshot(snap *dataset.Snapshot) error {
	tx, err := r.db.Archive.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO snapshots (version, source, loaded_at, row_count, has_sub_category) VALUES (?, ?, ?, ?, ?)`,
		snap.Version.String(), snap.Source, snap.LoadedAt, len(snap.Rows), snap.HasSubCategory,
	); err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO work_orders (
			snapshot_version, date_created, todo_dt, priority, assign_to,
			sub_category, response_time_min, resolution_time_min,
			sla_respond_met, sla_resolution_met
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	version := snap.Version.String()
	for i := range snap.Rows {
		row := &snap.Rows[i]
		_, err := stmt.Exec(
			version,
			nullableTime(row.DateCreated), nullableTime(row.ToDoDate),
			row.Priority, row.AssignTo,
			nullableString(row.SubCategory),
			nullableFloat(row.ResponseTimeMin), nullableFloat(row.ResolutionTimeMin),
			nullableBool(row.SLARespondMet), nullableBool(row.SLAResolutionMet),
		)
		if err != nil {
			return fmt.Errorf("failed to insert work order %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// ListSnapshots returns archive entries, newest first.
func (r *Repository) ListSnapshots(limit int) ([]SnapshotRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Archive.Query(
		`SELECT version, source, loaded_at, row_count, has_sub_category
		 FROM snapshots ORDER BY loaded_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var records []SnapshotRecord
	for rows.Next() {
		var rec SnapshotRecord
		if err := rows.Scan(&rec.Version, &rec.Source, &rec.LoadedAt, &rec.RowCount, &rec.HasSubCategory); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CleanupArchive deletes snapshots older than the retention window, their
// rows, and stale refresh jobs.
func (r *Repository) CleanupArchive(archiveDays, jobDays int) error {
	cutoff := time.Now().AddDate(0, 0, -archiveDays)

	if _, err := r.db.Archive.Exec(
		`DELETE FROM work_orders WHERE snapshot_version IN (SELECT version FROM snapshots WHERE loaded_at < ?)`, cutoff,
	); err != nil {
		return fmt.Errorf("failed to delete archived work orders: %w", err)
	}
	if _, err := r.db.Archive.Exec(`DELETE FROM snapshots WHERE loaded_at < ?`, cutoff); err != nil {
		return fmt.Errorf("failed to delete archived snapshots: %w", err)
	}

	jobCutoff := time.Now().AddDate(0, 0, -jobDays)
	if _, err := r.db.App.Exec(`DELETE FROM refresh_jobs WHERE created_at < ?`, jobCutoff); err != nil {
		return fmt.Errorf("failed to delete old refresh jobs: %w", err)
	}
	if _, err := r.db.App.Exec(`DELETE FROM load_log WHERE loaded_at < ?`, jobCutoff); err != nil {
		return fmt.Errorf("failed to delete old load log entries: %w", err)
	}
	return nil
}

// CreateRefreshJob inserts a pending job row.
func (r *Repository) CreateRefreshJob(jobID string) error {
	_, err := r.db.App.Exec(
		`INSERT INTO refresh_jobs (job_id, status, created_at, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		jobID, JobPending)
	return err
}

// UpdateRefreshJob moves a job to a new state.
func (r *Repository) UpdateRefreshJob(jobID, status, errorMsg, snapshotVersion string) error {
	_, err := r.db.App.Exec(
		`UPDATE refresh_jobs SET status = ?, error_message = ?, snapshot_version = ?, updated_at = CURRENT_TIMESTAMP WHERE job_id = ?`,
		status, errorMsg, snapshotVersion, jobID)
	return err
}

// GetRefreshJob fetches one job row. sql.ErrNoRows passes through so the
// handler can map it to 404.
func (r *Repository) GetRefreshJob(jobID string) (*RefreshJob, error) {
	var job RefreshJob
	var errorMsg, snapshotVersion sql.NullString
	err := r.db.App.QueryRow(
		`SELECT job_id, status, error_message, snapshot_version, created_at, updated_at FROM refresh_jobs WHERE job_id = ?`,
		jobID,
	).Scan(&job.JobID, &job.Status, &errorMsg, &snapshotVersion, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if errorMsg.Valid {
		job.ErrorMessage = errorMsg.String
	}
	if snapshotVersion.Valid {
		job.SnapshotVersion = snapshotVersion.String
	}
	return &job, nil
}

// LogLoad journals one load attempt, success or failure.
func (r *Repository) LogLoad(rec LoadRecord) error {
	_, err := r.db.App.Exec(
		`INSERT INTO load_log (source, snapshot_version, row_count, coerced_cells, duration_ms, status, error_message, loaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		rec.Source, rec.SnapshotVersion, rec.RowCount, rec.CoercedCells, rec.DurationMs, rec.Status, rec.ErrorMessage)
	return err
}

// RecentLoads returns the latest journal entries, newest first.
func (r *Repository) RecentLoads(limit int) ([]LoadRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.App.Query(
		`SELECT id, source, snapshot_version, row_count, coerced_cells, duration_ms, status, error_message, loaded_at
		 FROM load_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []LoadRecord
	for rows.Next() {
		var rec LoadRecord
		var snapshotVersion, errorMsg sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Source, &snapshotVersion, &rec.RowCount, &rec.CoercedCells,
			&rec.DurationMs, &rec.Status, &errorMsg, &rec.LoadedAt); err != nil {
			return nil, err
		}
		if snapshotVersion.Valid {
			rec.SnapshotVersion = snapshotVersion.String
		}
		if errorMsg.Valid {
			rec.ErrorMessage = errorMsg.String
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nullableFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

func nullableBool(b *bool) interface{} {
	if b == nil {
		return nil
	}
	return *b
}
