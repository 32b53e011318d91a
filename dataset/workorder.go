package dataset

import "time"

// Source CSV column headers.
const (
	ColDateCreated    = "Date Created"
	ColToDoDate       = "To Do Dt"
	ColPriority       = "Priority"
	ColAssignTo       = "Assign To"
	ColResponseTime   = "Response Time (min)"
	ColResolutionTime = "Resolution Time (min)"
	ColRespondMet     = "SLA_Respond_Met"
	ColResolutionMet  = "SLA_Resolution_Met"
	ColSubCategory    = "Sub Category"
)

// SLAStatus is the readable form of an SLA outcome flag. The empty string
// means the source flag was missing or unparseable.
type SLAStatus string

const (
	StatusPass SLAStatus = "PASS"
	StatusFail SLAStatus = "FAIL"
)

// SLAField selects which SLA the caller is asking about.
type SLAField string

const (
	SLARespond    SLAField = "respond"
	SLAResolution SLAField = "resolution"
)

// WorkOrder is one row of the dataset. Pointer fields are nil when the
// source cell was empty or failed to parse; a bad cell never fails a load.
type WorkOrder struct {
	DateCreated       *time.Time `json:"date_created"`
	ToDoDate          *time.Time `json:"todo_dt"`
	Priority          string     `json:"priority"`
	AssignTo          string     `json:"assign_to"`
	SubCategory       *string    `json:"sub_category,omitempty"`
	ResponseTimeMin   *float64   `json:"response_time_min"`
	ResolutionTimeMin *float64   `json:"resolution_time_min"`
	SLARespondMet     *bool      `json:"sla_respond_met"`
	SLAResolutionMet  *bool      `json:"sla_resolution_met"`

	// Derived from the met flags
	SLARespondStatus    SLAStatus `json:"sla_respond_status,omitempty"`
	SLAResolutionStatus SLAStatus `json:"sla_resolution_status,omitempty"`

	// Columns the loader does not recognize, kept verbatim for the detail table
	Extras map[string]string `json:"extras,omitempty"`
}

// SLAMet returns the raw met flag for the given field.
func (w *WorkOrder) SLAMet(field SLAField) *bool {
	if field == SLAResolution {
		return w.SLAResolutionMet
	}
	return w.SLARespondMet
}

// Status returns the derived PASS/FAIL status for the given field.
func (w *WorkOrder) Status(field SLAField) SLAStatus {
	if field == SLAResolution {
		return w.SLAResolutionStatus
	}
	return w.SLARespondStatus
}

// Breached reports whether either SLA was explicitly missed. A nil flag is
// unknown, not a breach.
func (w *WorkOrder) Breached() bool {
	if w.SLARespondMet != nil && !*w.SLARespondMet {
		return true
	}
	if w.SLAResolutionMet != nil && !*w.SLAResolutionMet {
		return true
	}
	return false
}

// StatusOf maps a met flag to its readable status.
func StatusOf(met *bool) SLAStatus {
	if met == nil {
		return ""
	}
	if *met {
		return StatusPass
	}
	return StatusFail
}
