package etl

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dnlaql/cls-reporting/config"
	"github.com/dnlaql/cls-reporting/database"
	"github.com/dnlaql/cls-reporting/dataset"
)

// mockSource is the journaled source name when mock data mode is on.
const mockSource = "mock://generator"

// Refresher loads a fresh snapshot, swaps it into the store, archives it
// and journals the load. Serving never blocks on a refresh: readers keep
// the old snapshot until the swap.
type Refresher struct {
	cfg    *config.Config
	loader *dataset.Loader
	store  *dataset.Store
	repo   *database.Repository
	log    *zap.Logger
}

func NewRefresher(cfg *config.Config, loader *dataset.Loader, store *dataset.Store, repo *database.Repository, log *zap.Logger) *Refresher {
	return &Refresher{
		cfg:    cfg,
		loader: loader,
		store:  store,
		repo:   repo,
		log:    log,
	}
}

// Refresh runs one load cycle. On failure the current snapshot stays live
// and the failure is journaled.
func (r *Refresher) Refresh(ctx context.Context) (*dataset.Snapshot, error) {
	start := time.Now()

	var (
		snap  *dataset.Snapshot
		stats dataset.ParseStats
		err   error
	)
	source := r.cfg.DatasetSource
	if r.cfg.MockData.Enabled {
		source = mockSource
		rows := NewMockGenerator(&r.cfg.MockData).Generate()
		snap = dataset.NewSnapshot(source, rows, true)
		stats = dataset.ParseStats{Rows: len(rows), HasSubCategory: true}
	} else {
		snap, stats, err = r.loader.Load(ctx, source)
	}

	if err != nil {
		r.journal(database.LoadRecord{
			Source:       source,
			CoercedCells: stats.CoercedCells,
			DurationMs:   time.Since(start).Milliseconds(),
			Status:       "failed",
			ErrorMessage: err.Error(),
		})
		return nil, fmt.Errorf("dataset load failed: %w", err)
	}

	r.store.Swap(snap)

	// Archive and journal are operational history; their failure must not
	// take down a successful swap.
	if err := r.repo.ArchiveSnapshot(snap); err != nil {
		r.log.Warn("failed to archive snapshot",
			zap.String("version", snap.Version.String()), zap.Error(err))
	}
	r.journal(database.LoadRecord{
		Source:          source,
		SnapshotVersion: snap.Version.String(),
		RowCount:        stats.Rows,
		CoercedCells:    stats.CoercedCells,
		DurationMs:      time.Since(start).Milliseconds(),
		Status:          "ok",
	})

	return snap, nil
}

// RunJob executes a refresh under a tracked job id, moving the job row
// through running and completed/failed.
func (r *Refresher) RunJob(jobID string) error {
	if err := r.repo.UpdateRefreshJob(jobID, database.JobRunning, "", ""); err != nil {
		r.log.Warn("failed to mark job running", zap.String("job_id", jobID), zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(),
		2*time.Duration(r.cfg.HTTPTimeoutSeconds)*time.Second)
	defer cancel()

	snap, err := r.Refresh(ctx)
	if err != nil {
		if uerr := r.repo.UpdateRefreshJob(jobID, database.JobFailed, err.Error(), ""); uerr != nil {
			r.log.Warn("failed to mark job failed", zap.String("job_id", jobID), zap.Error(uerr))
		}
		return err
	}

	if err := r.repo.UpdateRefreshJob(jobID, database.JobCompleted, "", snap.Version.String()); err != nil {
		r.log.Warn("failed to mark job completed", zap.String("job_id", jobID), zap.Error(err))
	}
	return nil
}

func (r *Refresher) journal(rec database.LoadRecord) {
	if err := r.repo.LogLoad(rec); err != nil {
		r.log.Warn("failed to journal load", zap.Error(err))
	}
}
