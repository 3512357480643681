package domain

import (
	"time"
)

// Canonical column headers of the project register. Uploaded files must
// carry all of them (exact, case-sensitive); exports emit them in this
// order.
const (
	ColID               = "ID"
	ColName             = "Name"
	ColVendor           = "Project Vendor"
	ColPriority         = "Project Priority"
	ColBusinessOwner    = "Business Owner"
	ColInitiationDate   = "Project Initiation Date"
	ColTargetCompletion = "Target Completion Date"
	ColRevisedTimeline  = "Revised Timeline"
	ColObjective        = "Objective"
	ColCurrentStatus    = "Project Current Status"
	ColCategory         = "Project Category"
	ColManager          = "Project Manager"
	ColCustodian        = "Project Custodian"
)

// CanonicalColumns lists the required headers in canonical order.
var CanonicalColumns = []string{
	ColID,
	ColName,
	ColVendor,
	ColPriority,
	ColBusinessOwner,
	ColInitiationDate,
	ColTargetCompletion,
	ColRevisedTimeline,
	ColObjective,
	ColCurrentStatus,
	ColCategory,
	ColManager,
	ColCustodian,
}

// DateLayout is the fixed date format used by register exports (DD-Mon-YYYY).
const DateLayout = "02-Jan-2006"

// Well-known status values referenced by KPI counters and the overdue rule.
const (
	StatusLive     = "Live"
	StatusOnHold   = "On Hold"
	StatusWithdraw = "Withdraw"
)

// Project represents one row of the register. Categorical and date fields
// are pointers: nil means the cell was empty or, for dates, unparseable.
type Project struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Vendor        *string `json:"vendor"`
	Priority      *string `json:"priority"`
	BusinessOwner *string `json:"business_owner"`
	Objective     *string `json:"objective"`
	CurrentStatus *string `json:"current_status"`
	Category      *string `json:"category"`
	Manager       *string `json:"manager"`
	Custodian     *string `json:"custodian"`

	InitiationDate   *time.Time `json:"initiation_date"`
	TargetCompletion *time.Time `json:"target_completion_date"`
	RevisedTimeline  *time.Time `json:"revised_timeline"`

	// PlannedEnd is RevisedTimeline when present, else TargetCompletion.
	PlannedEnd *time.Time `json:"planned_end"`
	// Overdue is true when PlannedEnd has passed and the project is not in
	// a terminal-exempt status. Evaluated against the reference date the
	// table was loaded with.
	Overdue bool `json:"overdue"`
}

// Table is an ordered project register. Order always matches the source
// file; operations on tables never reorder or deduplicate rows.
type Table []Project

// Field identifies a filterable categorical column.
type Field string

const (
	FieldStatus   Field = "current_status"
	FieldPriority Field = "priority"
	FieldCategory Field = "category"
	FieldOwner    Field = "business_owner"
	FieldManager  Field = "manager"
	FieldVendor   Field = "vendor"
)

// FilterableFields lists the fields a selection may constrain.
var FilterableFields = []Field{
	FieldStatus,
	FieldPriority,
	FieldCategory,
	FieldOwner,
	FieldManager,
	FieldVendor,
}

// ParseField resolves a field name to a filterable Field.
func ParseField(name string) (Field, bool) {
	f := Field(name)
	for _, known := range FilterableFields {
		if f == known {
			return f, true
		}
	}
	return "", false
}

// Value returns the project's value for a filterable field, or nil when the
// cell is empty or the field is not filterable.
func (p *Project) Value(f Field) *string {
	switch f {
	case FieldStatus:
		return p.CurrentStatus
	case FieldPriority:
		return p.Priority
	case FieldCategory:
		return p.Category
	case FieldOwner:
		return p.BusinessOwner
	case FieldManager:
		return p.Manager
	case FieldVendor:
		return p.Vendor
	default:
		return nil
	}
}

// Selections maps filterable fields to the set of allowed values. An absent
// or empty set means the field is unconstrained.
type Selections map[Field][]string

// Constrains reports whether the selection restricts the given field.
func (s Selections) Constrains(f Field) bool {
	return len(s[f]) > 0
}

// ValueCount is one entry of a categorical distribution.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// DatasetStatus describes the currently loaded register.
type DatasetStatus struct {
	Loaded   bool      `json:"loaded"`
	Rows     int       `json:"rows"`
	Source   string    `json:"source,omitempty"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
}
