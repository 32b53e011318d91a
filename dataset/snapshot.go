package dataset

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Domain is the set of values observed in a snapshot. The dashboard's
// default (and reset) selection is the full domain.
type Domain struct {
	Priorities    []string   `json:"priorities"`
	Assignees     []string   `json:"assignees"`
	SubCategories []string   `json:"sub_categories,omitempty"`
	MinDate       *time.Time `json:"min_date"`
	MaxDate       *time.Time `json:"max_date"`
}

// Snapshot is one immutable load of the dataset. Rows are never mutated
// after construction; a refresh builds a new snapshot and swaps it in.
type Snapshot struct {
	Version        uuid.UUID   `json:"version"`
	Source         string      `json:"source"`
	LoadedAt       time.Time   `json:"loaded_at"`
	HasSubCategory bool        `json:"has_sub_category"`
	Rows           []WorkOrder `json:"-"`
	Domain         Domain      `json:"domain"`
}

// NewSnapshot builds a snapshot from loaded rows and computes its domain.
func NewSnapshot(source string, rows []WorkOrder, hasSubCategory bool) *Snapshot {
	snap := &Snapshot{
		Version:        uuid.New(),
		Source:         source,
		LoadedAt:       time.Now().UTC(),
		HasSubCategory: hasSubCategory,
		Rows:           rows,
	}
	snap.Domain = computeDomain(rows, hasSubCategory)
	return snap
}

func computeDomain(rows []WorkOrder, hasSubCategory bool) Domain {
	priorities := make(map[string]struct{})
	assignees := make(map[string]struct{})
	subCategories := make(map[string]struct{})

	var minDate, maxDate *time.Time
	for i := range rows {
		r := &rows[i]
		priorities[r.Priority] = struct{}{}
		assignees[r.AssignTo] = struct{}{}
		if r.SubCategory != nil {
			subCategories[*r.SubCategory] = struct{}{}
		}
		if r.DateCreated != nil {
			d := CivilDate(*r.DateCreated)
			if minDate == nil || d.Before(*minDate) {
				minDate = &d
			}
			if maxDate == nil || d.After(*maxDate) {
				maxDate = &d
			}
		}
	}

	dom := Domain{
		Priorities: sortedKeys(priorities),
		Assignees:  sortedKeys(assignees),
		MinDate:    minDate,
		MaxDate:    maxDate,
	}
	if hasSubCategory {
		dom.SubCategories = sortedKeys(subCategories)
	}
	return dom
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CivilDate truncates a timestamp to its calendar date in UTC. Date range
// filters compare at day granularity, matching how the dashboard's date
// pickers behave.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
