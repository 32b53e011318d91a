package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/dnlaql/cls-reporting/analysis"
	"github.com/dnlaql/cls-reporting/charting"
	"github.com/dnlaql/cls-reporting/dataset"
)

// Chart endpoint names.
const (
	chartComplianceByPriority = "compliance-by-priority"
	chartMeanTimesByPriority  = "mean-times-by-priority"
	chartBreachesByAssignee   = "breaches-by-assignee"
	chartStatusDistribution   = "status-distribution"
	chartStatusBySubCategory  = "status-by-subcategory"
)

// GetChart renders one dashboard chart as PNG for the requested selection.
func (h *Handler) GetChart(w http.ResponseWriter, r *http.Request) {
	snap := h.currentSnapshot(w)
	if snap == nil {
		return
	}

	sel, err := parseSelection(r.URL.Query(), snap)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	field, err := parseSLAField(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	subset := analysis.Apply(snap, sel)

	name := mux.Vars(r)["name"]
	img, err := h.renderChart(name, snap, subset, field)
	if err != nil {
		switch {
		case errors.Is(err, charting.ErrNoData):
			respondError(w, http.StatusNotFound, "no data available for charting")
		case errors.Is(err, errUnknownChart):
			respondError(w, http.StatusNotFound, fmt.Sprintf("unknown chart %q", name))
		case errors.Is(err, errNoSubCategory):
			respondError(w, http.StatusNotFound, "dataset has no sub-category column")
		default:
			respondError(w, http.StatusInternalServerError, fmt.Sprintf("chart rendering failed: %v", err))
		}
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	w.Write(img)
}

var (
	errUnknownChart  = errors.New("unknown chart")
	errNoSubCategory = errors.New("dataset has no sub-category column")
)

func (h *Handler) renderChart(name string, snap *dataset.Snapshot, subset []dataset.WorkOrder, field dataset.SLAField) ([]byte, error) {
	switch name {
	case chartComplianceByPriority:
		return h.charts.ComplianceByPriority(analysis.StatusByPriority(subset, field), field)
	case chartMeanTimesByPriority:
		return h.charts.MeanTimesByPriority(analysis.MeanTimesByPriority(subset))
	case chartBreachesByAssignee:
		return h.charts.BreachesByAssignee(analysis.BreachCounts(subset), h.cfg.Dashboard.TopBreachLimit)
	case chartStatusDistribution:
		return h.charts.StatusDistribution(analysis.StatusDistribution(subset, field), field)
	case chartStatusBySubCategory:
		if !snap.HasSubCategory {
			return nil, errNoSubCategory
		}
		return h.charts.StatusBySubCategory(analysis.StatusBySubCategory(subset, field), field)
	default:
		return nil, errUnknownChart
	}
}
