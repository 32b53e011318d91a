package dataset

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dnlaql/cls-reporting/config"
)

// Loader fetches and decodes the work-order dataset from a configured
// source: a remote CSV, a local file, or a postgres table.
type Loader struct {
	cfg    *config.Config
	client *http.Client
	log    *zap.Logger
}

func NewLoader(cfg *config.Config, log *zap.Logger) *Loader {
	return &Loader{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.HTTPTimeoutSeconds) * time.Second,
		},
		log: log,
	}
}

// Load reads the source and builds an immutable snapshot. Any whole-file
// failure (unreachable source, bad header) propagates; cell-level parse
// failures only null the affected cells.
func (l *Loader) Load(ctx context.Context, source string) (*Snapshot, ParseStats, error) {
	var (
		rows  []WorkOrder
		stats ParseStats
		err   error
	)

	switch {
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		rows, stats, err = l.loadHTTP(ctx, source)
	case strings.HasPrefix(source, "postgres://"), strings.HasPrefix(source, "postgresql://"):
		rows, stats, err = l.loadPostgres(ctx, source)
	default:
		rows, stats, err = l.loadFile(strings.TrimPrefix(source, "file://"))
	}
	if err != nil {
		return nil, stats, err
	}

	snap := NewSnapshot(source, rows, stats.HasSubCategory)
	l.log.Info("dataset loaded",
		zap.String("source", source),
		zap.String("version", snap.Version.String()),
		zap.Int("rows", stats.Rows),
		zap.Int("coerced_cells", stats.CoercedCells))
	return snap, stats, nil
}

func (l *Loader) loadHTTP(ctx context.Context, url string) ([]WorkOrder, ParseStats, error) {
	var stats ParseStats

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to fetch dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, stats, fmt.Errorf("dataset fetch returned status %d", resp.StatusCode)
	}

	return ParseCSV(resp.Body)
}

func (l *Loader) loadFile(path string) ([]WorkOrder, ParseStats, error) {
	var stats ParseStats

	f, err := os.Open(path)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer f.Close()

	return ParseCSV(f)
}
