package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/dnlaql/cls-reporting/analysis"
	"github.com/dnlaql/cls-reporting/charting"
	"github.com/dnlaql/cls-reporting/config"
	"github.com/dnlaql/cls-reporting/database"
	"github.com/dnlaql/cls-reporting/dataset"
	"github.com/dnlaql/cls-reporting/etl"
	"github.com/dnlaql/cls-reporting/jobs"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	db        *database.DB
	repo      *database.Repository
	cfg       *config.Config
	store     *dataset.Store
	charts    *charting.Generator
	pool      *jobs.WorkerPool
	refresher *etl.Refresher
	log       *zap.Logger
	started   time.Time
}

// NewHandler creates a new handler instance
func NewHandler(db *database.DB, repo *database.Repository, cfg *config.Config, store *dataset.Store,
	charts *charting.Generator, pool *jobs.WorkerPool, refresher *etl.Refresher, log *zap.Logger) *Handler {
	return &Handler{
		db:        db,
		repo:      repo,
		cfg:       cfg,
		store:     store,
		charts:    charts,
		pool:      pool,
		refresher: refresher,
		log:       log,
		started:   time.Now(),
	}
}

// currentSnapshot responds 503 and returns nil before the first load.
func (h *Handler) currentSnapshot(w http.ResponseWriter) *dataset.Snapshot {
	snap := h.store.Current()
	if snap == nil {
		respondError(w, http.StatusServiceUnavailable, "no dataset loaded yet")
	}
	return snap
}

// HealthCheck returns API health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Archive.Ping(); err != nil {
		respondError(w, http.StatusServiceUnavailable, "archive database health check failed")
		return
	}
	if err := h.db.App.Ping(); err != nil {
		respondError(w, http.StatusServiceUnavailable, "app database health check failed")
		return
	}

	stats := make(map[string]int64)
	tables := []struct {
		name string
		db   *sql.DB
	}{
		{"snapshots", h.db.Archive},
		{"work_orders", h.db.Archive},
		{"refresh_jobs", h.db.App},
		{"load_log", h.db.App},
	}
	for _, t := range tables {
		var count int64
		if err := t.db.QueryRow("SELECT COUNT(*) FROM " + t.name).Scan(&count); err != nil {
			// Table might not exist yet
			stats[t.name] = 0
		} else {
			stats[t.name] = count
		}
	}

	resp := map[string]interface{}{
		"status":         "healthy",
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"stats":          stats,
	}
	if snap := h.store.Current(); snap != nil {
		resp["snapshot"] = snapshotMeta(snap)
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetFilters returns the observed domain and the full-domain default
// selection. Resetting the dashboard means re-applying these defaults.
func (h *Handler) GetFilters(w http.ResponseWriter, r *http.Request) {
	snap := h.currentSnapshot(w)
	if snap == nil {
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"snapshot": snapshotMeta(snap),
		"domain":   snap.Domain,
		"defaults": analysis.DefaultSelection(snap),
	})
}

// GetDashboard computes the full aggregate view for the requested selection.
// Absent filter params default to the full domain; a present-but-empty param
// is an empty set and matches nothing.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	snap := h.currentSnapshot(w)
	if snap == nil {
		return
	}

	sel, err := parseSelection(r.URL.Query(), snap)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	_, view := analysis.ComputeView(snap, sel)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"snapshot":  snapshotMeta(snap),
		"selection": sel,
		"view":      view,
	})
}

// GetWorkOrders returns the filtered detail rows with pagination.
func (h *Handler) GetWorkOrders(w http.ResponseWriter, r *http.Request) {
	snap := h.currentSnapshot(w)
	if snap == nil {
		return
	}

	sel, err := parseSelection(r.URL.Query(), snap)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	subset := analysis.Apply(snap, sel)

	limit := h.cfg.Dashboard.DefaultPageSize
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > h.cfg.Dashboard.MaxPageSize {
		limit = h.cfg.Dashboard.MaxPageSize
	}

	offset := 0
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	total := len(subset)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"data": subset[offset:end],
		"pagination": map[string]interface{}{
			"limit":       limit,
			"offset":      offset,
			"total_count": total,
			"has_more":    end < total,
		},
	})
}

// RequestRefresh enqueues an asynchronous dataset reload job.
func (h *Handler) RequestRefresh(w http.ResponseWriter, r *http.Request) {
	jobID := uuid.New().String()
	if err := h.repo.CreateRefreshJob(jobID); err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to create refresh job: %v", err))
		return
	}

	job := jobs.Job{
		ID:      jobID,
		Execute: func() error { return h.refresher.RunJob(jobID) },
	}
	if err := h.pool.Submit(job); err != nil {
		if uerr := h.repo.UpdateRefreshJob(jobID, database.JobFailed, err.Error(), ""); uerr != nil {
			h.log.Warn("failed to mark job failed", zap.String("job_id", jobID), zap.Error(uerr))
		}
		respondError(w, http.StatusServiceUnavailable, fmt.Sprintf("failed to submit refresh job: %v", err))
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": jobID,
		"status": database.JobPending,
	})
}

// GetRefreshJob returns the status of a refresh job
func (h *Handler) GetRefreshJob(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobID := vars["jobId"]

	job, err := h.repo.GetRefreshJob(jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "job not found")
		} else {
			respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get job status: %v", err))
		}
		return
	}

	respondJSON(w, http.StatusOK, job)
}

// ListSnapshots returns the archive history, newest first.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	records, err := h.repo.ListSnapshots(limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list snapshots: %v", err))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"snapshots": records,
		"count":     len(records),
	})
}

// ListLoads returns the recent load journal, newest first.
func (h *Handler) ListLoads(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	records, err := h.repo.RecentLoads(limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list loads: %v", err))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"loads": records,
		"count": len(records),
	})
}

// ConfigUpdateRequest represents the body for config updates
type ConfigUpdateRequest struct {
	Dashboard struct {
		DefaultPageSize int `json:"default_page_size"`
		MaxPageSize     int `json:"max_page_size"`
		TopBreachLimit  int `json:"top_breach_limit"`
	} `json:"dashboard"`
	Scheduler struct {
		Enabled         bool `json:"enabled"`
		IntervalMinutes int  `json:"interval_minutes"`
	} `json:"scheduler"`
}

// GetConfig returns the current configuration
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.cfg)
}

// UpdateConfig updates configuration settings
func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req ConfigUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Dashboard.DefaultPageSize <= 0 || req.Dashboard.MaxPageSize <= 0 || req.Dashboard.TopBreachLimit <= 0 {
		respondError(w, http.StatusBadRequest, "dashboard settings must be positive")
		return
	}
	if req.Scheduler.IntervalMinutes <= 0 {
		respondError(w, http.StatusBadRequest, "scheduler interval must be positive")
		return
	}

	if err := h.cfg.UpdateDashboardSettings(req.Dashboard.DefaultPageSize, req.Dashboard.MaxPageSize, req.Dashboard.TopBreachLimit); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update dashboard settings")
		return
	}
	if err := h.cfg.UpdateSchedulerSettings(req.Scheduler.Enabled, req.Scheduler.IntervalMinutes); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update scheduler settings")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// snapshotMeta is the snapshot summary embedded in responses.
func snapshotMeta(snap *dataset.Snapshot) map[string]interface{} {
	return map[string]interface{}{
		"version":          snap.Version.String(),
		"source":           snap.Source,
		"loaded_at":        snap.LoadedAt,
		"row_count":        len(snap.Rows),
		"has_sub_category": snap.HasSubCategory,
	}
}

// parseSelection builds the filter selection from query params. Missing
// params keep the snapshot defaults; a param present with no values is an
// empty set.
func parseSelection(q url.Values, snap *dataset.Snapshot) (analysis.Selection, error) {
	sel := analysis.DefaultSelection(snap)

	if vals, ok := q["priority"]; ok {
		sel.Priorities = splitParamValues(vals)
	}
	if vals, ok := q["assignee"]; ok {
		sel.Assignees = splitParamValues(vals)
	}
	if vals, ok := q["sub_category"]; ok {
		sel.SubCategories = splitParamValues(vals)
	}

	if s := q.Get("start"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return sel, fmt.Errorf("invalid start date %q, expected YYYY-MM-DD", s)
		}
		sel.DateRange.Start = t
	}
	if e := q.Get("end"); e != "" {
		t, err := time.Parse("2006-01-02", e)
		if err != nil {
			return sel, fmt.Errorf("invalid end date %q, expected YYYY-MM-DD", e)
		}
		sel.DateRange.End = t
	}
	sel.DateRange = sel.DateRange.Normalize()

	return sel, nil
}

// splitParamValues accepts both repeated params and comma-separated lists.
func splitParamValues(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// parseSLAField reads the ?sla= param, defaulting to respond.
func parseSLAField(q url.Values) (dataset.SLAField, error) {
	switch q.Get("sla") {
	case "", string(dataset.SLARespond):
		return dataset.SLARespond, nil
	case string(dataset.SLAResolution):
		return dataset.SLAResolution, nil
	default:
		return "", fmt.Errorf("invalid sla field %q, expected respond or resolution", q.Get("sla"))
	}
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
