package etl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dnlaql/cls-reporting/config"
	"github.com/dnlaql/cls-reporting/database"
	"github.com/dnlaql/cls-reporting/dataset"
)

const refreshCSV = `Date Created,To Do Dt,Priority,Assign To,Response Time (min),Resolution Time (min),SLA_Respond_Met,SLA_Resolution_Met
2024-01-01 08:00:00,2024-01-02 08:00:00,High,Team A,10,50,true,false
`

func newTestRefresher(t *testing.T, cfg *config.Config) (*Refresher, *dataset.Store, *database.Repository) {
	t.Helper()

	db, err := database.Initialize("", ":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(db.Close)

	repo := database.NewRepository(db)
	require.NoError(t, repo.CreateSchema())

	store := dataset.NewStore()
	loader := dataset.NewLoader(cfg, zap.NewNop())
	return NewRefresher(cfg, loader, store, repo, zap.NewNop()), store, repo
}

func TestRefresh_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workorders.csv")
	require.NoError(t, os.WriteFile(path, []byte(refreshCSV), 0o644))

	cfg := &config.Config{DatasetSource: path, HTTPTimeoutSeconds: 5}
	refresher, store, repo := newTestRefresher(t, cfg)

	snap, err := refresher.Refresh(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Len(t, snap.Rows, 1)

	assert.Same(t, snap, store.Current(), "swap installs the new snapshot")

	records, err := repo.ListSnapshots(10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, snap.Version.String(), records[0].Version)

	loads, err := repo.RecentLoads(10)
	require.NoError(t, err)
	require.Len(t, loads, 1)
	assert.Equal(t, "ok", loads[0].Status)
	assert.Equal(t, 1, loads[0].RowCount)
}

func TestRefresh_FailureKeepsOldSnapshot(t *testing.T) {
	cfg := &config.Config{
		DatasetSource:      filepath.Join(t.TempDir(), "missing.csv"),
		HTTPTimeoutSeconds: 5,
	}
	refresher, store, repo := newTestRefresher(t, cfg)

	previous := dataset.NewSnapshot("previous", nil, false)
	store.Swap(previous)

	_, err := refresher.Refresh(context.Background())
	require.Error(t, err)

	assert.Same(t, previous, store.Current(), "failed load never touches the store")

	loads, err := repo.RecentLoads(10)
	require.NoError(t, err)
	require.Len(t, loads, 1)
	assert.Equal(t, "failed", loads[0].Status)
	assert.NotEmpty(t, loads[0].ErrorMessage)
}

func TestRefresh_MockMode(t *testing.T) {
	cfg := &config.Config{
		DatasetSource:      "ignored-when-mocking",
		HTTPTimeoutSeconds: 5,
		MockData:           config.MockDataConfig{Enabled: true, Records: 25, Seed: 9},
	}
	refresher, store, _ := newTestRefresher(t, cfg)

	snap, err := refresher.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Rows, 25)
	assert.Equal(t, "mock://generator", snap.Source)
	assert.True(t, snap.HasSubCategory)
	assert.Same(t, snap, store.Current())
}

func TestRunJob_Lifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workorders.csv")
	require.NoError(t, os.WriteFile(path, []byte(refreshCSV), 0o644))

	cfg := &config.Config{DatasetSource: path, HTTPTimeoutSeconds: 5}
	refresher, _, repo := newTestRefresher(t, cfg)

	jobID := "job-1"
	require.NoError(t, repo.CreateRefreshJob(jobID))
	require.NoError(t, refresher.RunJob(jobID))

	job, err := repo.GetRefreshJob(jobID)
	require.NoError(t, err)
	assert.Equal(t, database.JobCompleted, job.Status)
	assert.NotEmpty(t, job.SnapshotVersion)
}

func TestRunJob_Failure(t *testing.T) {
	cfg := &config.Config{
		DatasetSource:      filepath.Join(t.TempDir(), "missing.csv"),
		HTTPTimeoutSeconds: 5,
	}
	refresher, _, repo := newTestRefresher(t, cfg)

	jobID := "job-2"
	require.NoError(t, repo.CreateRefreshJob(jobID))
	require.Error(t, refresher.RunJob(jobID))

	job, err := repo.GetRefreshJob(jobID)
	require.NoError(t, err)
	assert.Equal(t, database.JobFailed, job.Status)
	assert.NotEmpty(t, job.ErrorMessage)
}
