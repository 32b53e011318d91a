package analysis

import (
	"github.com/dnlaql/cls-reporting/dataset"
)

// StatusCount carries PASS and FAIL tallies for one group. Rows whose flag
// is null belong to neither bucket. Both keys always serialize, zero or not.
type StatusCount struct {
	Pass int `json:"PASS"`
	Fail int `json:"FAIL"`
}

// MeanTimes pairs the null-skipping mean response and resolution times for
// one priority. A nil mean says the group had no parseable values, which is
// not the same as zero minutes.
type MeanTimes struct {
	Response   *float64 `json:"response"`
	Resolution *float64 `json:"resolution"`
}

// View is the complete set of dashboard aggregates for one filtered subset.
// Views are computed per request and never persisted.
type View struct {
	TotalCount         int      `json:"total_count"`
	MeanResponseTime   *float64 `json:"mean_response_time"`
	MeanResolutionTime *float64 `json:"mean_resolution_time"`

	PassPercentage map[dataset.SLAField]*float64 `json:"pass_percentage"`

	MeanTimesByPriority map[string]MeanTimes `json:"mean_times_by_priority"`
	BreachCounts        map[string]int       `json:"breach_counts"`

	StatusDistribution map[dataset.SLAField]StatusCount            `json:"status_distribution"`
	StatusByPriority   map[dataset.SLAField]map[string]StatusCount `json:"status_by_priority"`

	// Present only when the snapshot carries the Sub Category column.
	StatusBySubCategory map[dataset.SLAField]map[string]StatusCount `json:"status_by_sub_category,omitempty"`
}

// TotalCount is the number of rows in the subset.
func TotalCount(subset []dataset.WorkOrder) int {
	return len(subset)
}

// MeanResponseTime averages the non-null response times. Nil when the subset
// has no parseable values.
func MeanResponseTime(subset []dataset.WorkOrder) *float64 {
	return meanOf(subset, func(w *dataset.WorkOrder) *float64 { return w.ResponseTimeMin })
}

// MeanResolutionTime averages the non-null resolution times.
func MeanResolutionTime(subset []dataset.WorkOrder) *float64 {
	return meanOf(subset, func(w *dataset.WorkOrder) *float64 { return w.ResolutionTimeMin })
}

func meanOf(subset []dataset.WorkOrder, value func(*dataset.WorkOrder) *float64) *float64 {
	var sum float64
	var n int
	for i := range subset {
		if v := value(&subset[i]); v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}

// PassPercentage is 100 * met / total over ALL rows of the subset: rows with
// a null flag count in the denominator but never the numerator. Nil when the
// subset is empty, keeping "no data" distinct from 0% and 100%.
func PassPercentage(subset []dataset.WorkOrder, field dataset.SLAField) *float64 {
	if len(subset) == 0 {
		return nil
	}
	met := 0
	for i := range subset {
		if v := subset[i].SLAMet(field); v != nil && *v {
			met++
		}
	}
	pct := 100 * float64(met) / float64(len(subset))
	return &pct
}

// MeanTimesByPriority computes per-priority mean response and resolution
// times. Only priorities present in the subset appear.
func MeanTimesByPriority(subset []dataset.WorkOrder) map[string]MeanTimes {
	type acc struct {
		respSum, resSum float64
		respN, resN     int
	}
	groups := make(map[string]*acc)
	for i := range subset {
		w := &subset[i]
		g, ok := groups[w.Priority]
		if !ok {
			g = &acc{}
			groups[w.Priority] = g
		}
		if w.ResponseTimeMin != nil {
			g.respSum += *w.ResponseTimeMin
			g.respN++
		}
		if w.ResolutionTimeMin != nil {
			g.resSum += *w.ResolutionTimeMin
			g.resN++
		}
	}

	out := make(map[string]MeanTimes, len(groups))
	for priority, g := range groups {
		var mt MeanTimes
		if g.respN > 0 {
			m := g.respSum / float64(g.respN)
			mt.Response = &m
		}
		if g.resN > 0 {
			m := g.resSum / float64(g.resN)
			mt.Resolution = &m
		}
		out[priority] = mt
	}
	return out
}

// BreachCounts tallies per assignee the rows where either SLA flag is
// explicitly false. Null flags are unknown, not breaches; assignees without
// breaches do not appear.
func BreachCounts(subset []dataset.WorkOrder) map[string]int {
	out := make(map[string]int)
	for i := range subset {
		if subset[i].Breached() {
			out[subset[i].AssignTo]++
		}
	}
	return out
}

// StatusDistribution counts PASS and FAIL for one SLA field. Rows with a
// null flag are in neither bucket, so Pass+Fail can be less than the subset
// size.
func StatusDistribution(subset []dataset.WorkOrder, field dataset.SLAField) StatusCount {
	var out StatusCount
	for i := range subset {
		switch subset[i].Status(field) {
		case dataset.StatusPass:
			out.Pass++
		case dataset.StatusFail:
			out.Fail++
		}
	}
	return out
}

// StatusByPriority breaks the status distribution down per priority.
func StatusByPriority(subset []dataset.WorkOrder, field dataset.SLAField) map[string]StatusCount {
	return statusByKey(subset, field, func(w *dataset.WorkOrder) (string, bool) {
		return w.Priority, true
	})
}

// StatusBySubCategory breaks the status distribution down per sub-category.
// Rows without a sub-category are excluded; callers only use this when the
// snapshot carries the column.
func StatusBySubCategory(subset []dataset.WorkOrder, field dataset.SLAField) map[string]StatusCount {
	return statusByKey(subset, field, func(w *dataset.WorkOrder) (string, bool) {
		if w.SubCategory == nil {
			return "", false
		}
		return *w.SubCategory, true
	})
}

func statusByKey(subset []dataset.WorkOrder, field dataset.SLAField, key func(*dataset.WorkOrder) (string, bool)) map[string]StatusCount {
	out := make(map[string]StatusCount)
	for i := range subset {
		w := &subset[i]
		k, ok := key(w)
		if !ok {
			continue
		}
		status := w.Status(field)
		if status == "" {
			continue
		}
		c := out[k]
		if status == dataset.StatusPass {
			c.Pass++
		} else {
			c.Fail++
		}
		out[k] = c
	}
	return out
}

// ComputeView filters the snapshot and assembles every dashboard aggregate
// in one pass over the subset per table.
func ComputeView(snap *dataset.Snapshot, sel Selection) ([]dataset.WorkOrder, *View) {
	subset := Apply(snap, sel)

	view := &View{
		TotalCount:         TotalCount(subset),
		MeanResponseTime:   MeanResponseTime(subset),
		MeanResolutionTime: MeanResolutionTime(subset),
		PassPercentage: map[dataset.SLAField]*float64{
			dataset.SLARespond:    PassPercentage(subset, dataset.SLARespond),
			dataset.SLAResolution: PassPercentage(subset, dataset.SLAResolution),
		},
		MeanTimesByPriority: MeanTimesByPriority(subset),
		BreachCounts:        BreachCounts(subset),
		StatusDistribution: map[dataset.SLAField]StatusCount{
			dataset.SLARespond:    StatusDistribution(subset, dataset.SLARespond),
			dataset.SLAResolution: StatusDistribution(subset, dataset.SLAResolution),
		},
		StatusByPriority: map[dataset.SLAField]map[string]StatusCount{
			dataset.SLARespond:    StatusByPriority(subset, dataset.SLARespond),
			dataset.SLAResolution: StatusByPriority(subset, dataset.SLAResolution),
		},
	}
	if snap.HasSubCategory {
		view.StatusBySubCategory = map[dataset.SLAField]map[string]StatusCount{
			dataset.SLARespond:    StatusBySubCategory(subset, dataset.SLARespond),
			dataset.SLAResolution: StatusBySubCategory(subset, dataset.SLAResolution),
		}
	}
	return subset, view
}
