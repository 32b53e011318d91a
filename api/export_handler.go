package api

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/dnlaql/cls-reporting/analysis"
	"github.com/dnlaql/cls-reporting/charting"
	"github.com/dnlaql/cls-reporting/dataset"
)

// ExportBundle streams a ZIP of every renderable chart plus the filtered
// rows as CSV. Charts with no data are skipped, not errors.
func (h *Handler) ExportBundle(w http.ResponseWriter, r *http.Request) {
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

	zipBuf := new(bytes.Buffer)
	zipWriter := zip.NewWriter(zipBuf)

	addFile := func(name string, data []byte) {
		f, err := zipWriter.Create(name)
		if err != nil {
			h.log.Warn("zip create failed", zap.String("name", name), zap.Error(err))
			return
		}
		if _, err := f.Write(data); err != nil {
			h.log.Warn("zip write failed", zap.String("name", name), zap.Error(err))
		}
	}

	charts := []string{
		chartComplianceByPriority,
		chartMeanTimesByPriority,
		chartBreachesByAssignee,
		chartStatusDistribution,
		chartStatusBySubCategory,
	}
	for _, name := range charts {
		img, err := h.renderChart(name, snap, subset, field)
		if err != nil {
			if !errors.Is(err, charting.ErrNoData) && !errors.Is(err, errNoSubCategory) {
				h.log.Warn("export chart failed", zap.String("chart", name), zap.Error(err))
			}
			continue
		}
		addFile(name+".png", img)
	}

	csvData, err := workOrdersCSV(subset, snap.HasSubCategory)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("csv export failed: %v", err))
		return
	}
	addFile("workorders.csv", csvData)

	if err := zipWriter.Close(); err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("zip close failed: %v", err))
		return
	}

	filename := fmt.Sprintf("workorders_%s.zip", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(zipBuf.Len()))
	w.Write(zipBuf.Bytes())
}

// workOrdersCSV writes the subset back out in the source column layout.
func workOrdersCSV(subset []dataset.WorkOrder, hasSubCategory bool) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{
		dataset.ColDateCreated, dataset.ColToDoDate,
		dataset.ColPriority, dataset.ColAssignTo,
		dataset.ColResponseTime, dataset.ColResolutionTime,
		dataset.ColRespondMet, dataset.ColResolutionMet,
	}
	if hasSubCategory {
		header = append(header, dataset.ColSubCategory)
	}
	if err := writer.Write(header); err != nil {
		return nil, err
	}

	for i := range subset {
		w := &subset[i]
		record := []string{
			csvTime(w.DateCreated), csvTime(w.ToDoDate),
			w.Priority, w.AssignTo,
			csvFloat(w.ResponseTimeMin), csvFloat(w.ResolutionTimeMin),
			csvBool(w.SLARespondMet), csvBool(w.SLAResolutionMet),
		}
		if hasSubCategory {
			if w.SubCategory != nil {
				record = append(record, *w.SubCategory)
			} else {
				record = append(record, "")
			}
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func csvTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

func csvFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func csvBool(b *bool) string {
	if b == nil {
		return ""
	}
	if *b {
		return "True"
	}
	return "False"
}
