package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ErrMissingColumns marks a dataset whose header lacks required columns.
// This is a whole-load failure, unlike cell-level parse errors.
var ErrMissingColumns = errors.New("dataset is missing required columns")

// requiredColumns must all be present in the header. Sub Category is optional.
var requiredColumns = []string{
	ColDateCreated,
	ColToDoDate,
	ColPriority,
	ColAssignTo,
	ColResponseTime,
	ColResolutionTime,
	ColRespondMet,
	ColResolutionMet,
}

// timeLayouts are tried in order when coercing timestamp cells.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
}

// ParseStats reports what the coercion pass did to a load.
type ParseStats struct {
	Rows           int
	CoercedCells   int // non-empty cells that failed to parse and became null
	HasSubCategory bool
}

// ParseCSV decodes work orders from CSV. Unparseable cells become nil and
// are counted in stats; a missing required column fails the whole load.
func ParseCSV(r io.Reader) ([]WorkOrder, ParseStats, error) {
	var stats ParseStats

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, stats, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, stats, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	known := make(map[int]bool, len(requiredColumns)+1)
	for _, col := range requiredColumns {
		known[index[col]] = true
	}
	subIdx, hasSubCategory := index[ColSubCategory]
	if hasSubCategory {
		known[subIdx] = true
	}

	var rows []WorkOrder
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("failed to read record %d: %w", len(rows)+1, err)
		}

		cell := func(col string) string {
			i := index[col]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		w := WorkOrder{
			DateCreated:       coerceTime(cell(ColDateCreated), &stats),
			ToDoDate:          coerceTime(cell(ColToDoDate), &stats),
			Priority:          cell(ColPriority),
			AssignTo:          cell(ColAssignTo),
			ResponseTimeMin:   coerceFloat(cell(ColResponseTime), &stats),
			ResolutionTimeMin: coerceFloat(cell(ColResolutionTime), &stats),
			SLARespondMet:     coerceBool(cell(ColRespondMet), &stats),
			SLAResolutionMet:  coerceBool(cell(ColResolutionMet), &stats),
		}
		w.SLARespondStatus = StatusOf(w.SLARespondMet)
		w.SLAResolutionStatus = StatusOf(w.SLAResolutionMet)

		if hasSubCategory {
			if v := cell(ColSubCategory); v != "" {
				w.SubCategory = &v
			}
		}

		for i, name := range header {
			if known[i] || i >= len(record) {
				continue
			}
			if v := strings.TrimSpace(record[i]); v != "" {
				if w.Extras == nil {
					w.Extras = make(map[string]string)
				}
				w.Extras[strings.TrimSpace(name)] = v
			}
		}

		rows = append(rows, w)
	}

	stats.Rows = len(rows)
	stats.HasSubCategory = hasSubCategory
	return rows, stats, nil
}

func coerceTime(v string, stats *ParseStats) *time.Time {
	if v == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	stats.CoercedCells++
	return nil
}

func coerceFloat(v string, stats *ParseStats) *float64 {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		stats.CoercedCells++
		return nil
	}
	return &f
}

func coerceBool(v string, stats *ParseStats) *bool {
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		stats.CoercedCells++
		return nil
	}
	return &b
}
