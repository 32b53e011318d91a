package database

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dnlaql/cls-reporting/dataset"
)

// newTestRepository opens both stores in memory.
func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := Initialize("", ":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(db.Close)

	repo := NewRepository(db)
	require.NoError(t, repo.CreateSchema())
	return repo
}

func testSnapshot(t *testing.T) *dataset.Snapshot {
	t.Helper()

	created := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	todo := created.Add(24 * time.Hour)
	resp := 10.0
	res := 50.0
	met := true
	missed := false
	hw := "Hardware"

	rows := []dataset.WorkOrder{
		{
			DateCreated: &created, ToDoDate: &todo,
			Priority: "High", AssignTo: "Team A", SubCategory: &hw,
			ResponseTimeMin: &resp, ResolutionTimeMin: &res,
			SLARespondMet: &met, SLAResolutionMet: &missed,
		},
		// All-null row: the archive keeps the holes as NULLs.
		{Priority: "Low", AssignTo: "Team B"},
	}
	return dataset.NewSnapshot("test.csv", rows, true)
}

func TestArchiveSnapshotAndList(t *testing.T) {
	repo := newTestRepository(t)
	snap := testSnapshot(t)

	require.NoError(t, repo.ArchiveSnapshot(snap))

	records, err := repo.ListSnapshots(10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, snap.Version.String(), rec.Version)
	assert.Equal(t, "test.csv", rec.Source)
	assert.Equal(t, 2, rec.RowCount)
	assert.True(t, rec.HasSubCategory)

	var archived int
	err = repo.db.Archive.QueryRow(
		`SELECT COUNT(*) FROM work_orders WHERE snapshot_version = ?`,
		snap.Version.String(),
	).Scan(&archived)
	require.NoError(t, err)
	assert.Equal(t, 2, archived)

	var nullDates int
	err = repo.db.Archive.QueryRow(
		`SELECT COUNT(*) FROM work_orders WHERE date_created IS NULL`,
	).Scan(&nullDates)
	require.NoError(t, err)
	assert.Equal(t, 1, nullDates)
}

func TestListSnapshots_NewestFirst(t *testing.T) {
	repo := newTestRepository(t)

	first := dataset.NewSnapshot("a.csv", nil, false)
	first.LoadedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	second := dataset.NewSnapshot("b.csv", nil, false)
	second.LoadedAt = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.ArchiveSnapshot(first))
	require.NoError(t, repo.ArchiveSnapshot(second))

	records, err := repo.ListSnapshots(10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b.csv", records[0].Source)
	assert.Equal(t, "a.csv", records[1].Source)

	records, err = repo.ListSnapshots(1)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestCleanupArchive(t *testing.T) {
	repo := newTestRepository(t)

	old := dataset.NewSnapshot("old.csv", nil, false)
	old.LoadedAt = time.Now().AddDate(0, 0, -120)
	fresh := dataset.NewSnapshot("fresh.csv", nil, false)

	require.NoError(t, repo.ArchiveSnapshot(old))
	require.NoError(t, repo.ArchiveSnapshot(fresh))

	require.NoError(t, repo.CleanupArchive(90, 30))

	records, err := repo.ListSnapshots(10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "fresh.csv", records[0].Source)
}

func TestRefreshJobLifecycle(t *testing.T) {
	repo := newTestRepository(t)

	jobID := "test-job-1"
	require.NoError(t, repo.CreateRefreshJob(jobID))

	job, err := repo.GetRefreshJob(jobID)
	require.NoError(t, err)
	assert.Equal(t, JobPending, job.Status)
	assert.Empty(t, job.ErrorMessage)
	assert.Empty(t, job.SnapshotVersion)

	require.NoError(t, repo.UpdateRefreshJob(jobID, JobRunning, "", ""))
	job, err = repo.GetRefreshJob(jobID)
	require.NoError(t, err)
	assert.Equal(t, JobRunning, job.Status)

	require.NoError(t, repo.UpdateRefreshJob(jobID, JobCompleted, "", "version-123"))
	job, err = repo.GetRefreshJob(jobID)
	require.NoError(t, err)
	assert.Equal(t, JobCompleted, job.Status)
	assert.Equal(t, "version-123", job.SnapshotVersion)
}

func TestRefreshJob_Failure(t *testing.T) {
	repo := newTestRepository(t)

	jobID := "test-job-2"
	require.NoError(t, repo.CreateRefreshJob(jobID))
	require.NoError(t, repo.UpdateRefreshJob(jobID, JobFailed, "source unreachable", ""))

	job, err := repo.GetRefreshJob(jobID)
	require.NoError(t, err)
	assert.Equal(t, JobFailed, job.Status)
	assert.Equal(t, "source unreachable", job.ErrorMessage)
}

func TestGetRefreshJob_NotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.GetRefreshJob("missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestLoadJournal(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.LogLoad(LoadRecord{
		Source:          "test.csv",
		SnapshotVersion: "v1",
		RowCount:        100,
		CoercedCells:    3,
		DurationMs:      42,
		Status:          "ok",
	}))
	require.NoError(t, repo.LogLoad(LoadRecord{
		Source:       "test.csv",
		Status:       "failed",
		ErrorMessage: "bad header",
	}))

	records, err := repo.RecentLoads(10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first
	assert.Equal(t, "failed", records[0].Status)
	assert.Equal(t, "bad header", records[0].ErrorMessage)
	assert.Equal(t, "ok", records[1].Status)
	assert.Equal(t, "v1", records[1].SnapshotVersion)
	assert.Equal(t, 100, records[1].RowCount)
	assert.Equal(t, 3, records[1].CoercedCells)
}
