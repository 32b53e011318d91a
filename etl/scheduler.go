package etl

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dnlaql/cls-reporting/config"
	"github.com/dnlaql/cls-reporting/database"
)

// Scheduler re-runs the dataset refresh on an interval and triggers the
// daily archive cleanup.
type Scheduler struct {
	cfg         *config.Config
	refresher   *Refresher
	repo        *database.Repository
	log         *zap.Logger
	ticker      *time.Ticker
	quit        chan struct{}
	lastCleanup time.Time
}

// NewScheduler creates a new scheduler
func NewScheduler(cfg *config.Config, refresher *Refresher, repo *database.Repository, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cfg:       cfg,
		refresher: refresher,
		repo:      repo,
		log:       log,
		quit:      make(chan struct{}),
	}
}

// Start begins the scheduling loop
func (s *Scheduler) Start() {
	if !s.cfg.Scheduler.Enabled {
		s.log.Info("scheduler is disabled by config")
		return
	}

	interval := time.Duration(s.cfg.Scheduler.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 60 * time.Minute
	}

	s.log.Info("starting scheduler",
		zap.Duration("interval", interval),
		zap.String("cleanup_time", s.cfg.Retention.CleanupTime))
	s.ticker = time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-s.ticker.C:
				s.RunJob()
			case <-s.quit:
				s.ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	if s.ticker != nil {
		close(s.quit)
	}
}

// RunJob executes the scheduled refresh and, once per day, the cleanup.
func (s *Scheduler) RunJob() {
	s.log.Info("scheduled refresh starting")

	ctx, cancel := context.WithTimeout(context.Background(),
		2*time.Duration(s.cfg.HTTPTimeoutSeconds)*time.Second)
	defer cancel()

	if snap, err := s.refresher.Refresh(ctx); err != nil {
		s.log.Error("scheduled refresh failed", zap.Error(err))
	} else {
		s.log.Info("scheduled refresh complete",
			zap.String("version", snap.Version.String()),
			zap.Int("rows", len(snap.Rows)))
	}

	s.checkAndRunCleanup()
}

func (s *Scheduler) checkAndRunCleanup() {
	cleanupTimeStr := s.cfg.Retention.CleanupTime
	if cleanupTimeStr == "" {
		cleanupTimeStr = "06:00"
	}

	now := time.Now()
	target, err := time.Parse("15:04", cleanupTimeStr)
	if err != nil {
		s.log.Warn("invalid cleanup time format", zap.String("cleanup_time", cleanupTimeStr), zap.Error(err))
		return
	}

	cleanupTarget := time.Date(now.Year(), now.Month(), now.Day(), target.Hour(), target.Minute(), 0, 0, now.Location())

	// Run once per day after the target time. A restart may repeat the
	// day's cleanup; the deletes are idempotent.
	shouldRun := false
	if now.After(cleanupTarget) {
		if s.lastCleanup.IsZero() || s.lastCleanup.Before(cleanupTarget) {
			shouldRun = true
		}
	}

	if shouldRun {
		archiveDays := s.cfg.Retention.ArchiveDays
		if archiveDays <= 0 {
			archiveDays = 90
		}
		jobDays := s.cfg.Retention.JobDays
		if jobDays <= 0 {
			jobDays = 30
		}

		s.log.Info("starting daily cleanup",
			zap.Int("archive_days", archiveDays), zap.Int("job_days", jobDays))
		if err := s.repo.CleanupArchive(archiveDays, jobDays); err != nil {
			s.log.Error("cleanup failed", zap.Error(err))
			return
		}
		s.lastCleanup = now
		s.log.Info("cleanup completed")
	}
}
