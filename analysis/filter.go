package analysis

import (
	"time"

	"github.com/dnlaql/cls-reporting/dataset"
)

// DateRange is an inclusive calendar-day window. Start and End are civil
// dates in UTC; Normalize swaps them when they arrive reversed.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Normalize truncates both ends to civil dates and orders them.
func (r DateRange) Normalize() DateRange {
	start := dataset.CivilDate(r.Start)
	end := dataset.CivilDate(r.End)
	if end.Before(start) {
		start, end = end, start
	}
	return DateRange{Start: start, End: end}
}

// Contains reports whether the timestamp's calendar date falls inside the
// range. A nil timestamp never matches, not even an all-time range.
func (r DateRange) Contains(t *time.Time) bool {
	if t == nil {
		return false
	}
	d := dataset.CivilDate(*t)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Selection is a plain filter value: which priorities, assignees and
// sub-categories to keep, over which creation-date window. An empty slice
// matches nothing; it is not a wildcard. The dashboard serializes selections
// into query strings and request bodies, so the struct stays flat.
type Selection struct {
	Priorities    []string  `json:"priorities"`
	Assignees     []string  `json:"assignees"`
	SubCategories []string  `json:"sub_categories"`
	DateRange     DateRange `json:"date_range"`
}

// DefaultSelection is the full observed domain of a snapshot, the state the
// dashboard resets to.
func DefaultSelection(snap *dataset.Snapshot) Selection {
	sel := Selection{
		Priorities:    append([]string(nil), snap.Domain.Priorities...),
		Assignees:     append([]string(nil), snap.Domain.Assignees...),
		SubCategories: append([]string(nil), snap.Domain.SubCategories...),
	}
	if snap.Domain.MinDate != nil {
		sel.DateRange.Start = *snap.Domain.MinDate
	}
	if snap.Domain.MaxDate != nil {
		sel.DateRange.End = *snap.Domain.MaxDate
	}
	sel.DateRange = sel.DateRange.Normalize()
	return sel
}

// Apply returns the rows of the snapshot matching every predicate of the
// selection. One pass, no mutation of the snapshot or the selection; row
// order is preserved. When the snapshot has no sub-category column that
// predicate is skipped entirely; when it has one, rows without a
// sub-category are dropped.
func Apply(snap *dataset.Snapshot, sel Selection) []dataset.WorkOrder {
	priorities := toSet(sel.Priorities)
	assignees := toSet(sel.Assignees)
	subCategories := toSet(sel.SubCategories)
	dates := sel.DateRange.Normalize()

	out := make([]dataset.WorkOrder, 0, len(snap.Rows))
	for i := range snap.Rows {
		row := &snap.Rows[i]

		if _, ok := priorities[row.Priority]; !ok {
			continue
		}
		if _, ok := assignees[row.AssignTo]; !ok {
			continue
		}
		if !dates.Contains(row.DateCreated) {
			continue
		}
		if snap.HasSubCategory {
			if row.SubCategory == nil {
				continue
			}
			if _, ok := subCategories[*row.SubCategory]; !ok {
				continue
			}
		}
		out = append(out, *row)
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
