package model

import (
	"strings"
)

// Lead is a sales prospect as served by the CRM backend.
//
// Optional fields decode to their zero value when absent or null. Code that
// needs the documented fallbacks (stage "new", priority "medium") must go
// through the accessor methods rather than reading the raw fields.
type Lead struct {
	ID         string    `json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Company    string    `json:"company,omitempty"`
	Title      string    `json:"title,omitempty"`
	Source     string    `json:"source,omitempty"`
	Status     string    `json:"status,omitempty"`
	Priority   string    `json:"priority,omitempty"`
	Value      float64   `json:"value,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	AssignedTo string    `json:"assigned_to,omitempty"`
	CreatedAt  Timestamp `json:"created_at"`
	UpdatedAt  Timestamp `json:"updated_at"`
}

// Pipeline stages known to the CRM. Status is open-ended; these are only the
// stages the board view and stats know how to place.
const (
	StageNew       = "new"
	StageContacted = "contacted"
	StageQualified = "qualified"
	StageProposal  = "proposal"
	StageWon       = "won"
)

// StageAll is the stage-filter sentinel meaning "no stage filter".
const StageAll = "all"

// PipelineStages lists the board columns in pipeline order.
var PipelineStages = []string{StageNew, StageContacted, StageQualified, StageProposal, StageWon}

// Priority levels.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Stage returns the lead status, falling back to "new" when unset.
func (l Lead) Stage() string {
	if l.Status == "" {
		return StageNew
	}
	return l.Status
}

// PriorityLevel returns the lead priority, falling back to "medium" when unset.
func (l Lead) PriorityLevel() string {
	if l.Priority == "" {
		return PriorityMedium
	}
	return l.Priority
}

// PriorityRank maps priority to its sort rank. Lower ranks sort first;
// unrecognized values rank as medium.
func (l Lead) PriorityRank() int {
	switch l.Priority {
	case PriorityHigh:
		return 0
	case PriorityLow:
		return 2
	default:
		return 1
	}
}

// SortName is the key used by name ordering: "first last", untrimmed.
func (l Lead) SortName() string {
	return l.FirstName + " " + l.LastName
}

// DisplayName returns the trimmed full name or a placeholder.
func (l Lead) DisplayName() string {
	name := strings.TrimSpace(l.SortName())
	if name == "" {
		return "Unnamed Lead"
	}
	return name
}

// Matches reports whether the lowercased query is a substring of any of the
// searchable contact fields, compared case-insensitively.
func (l Lead) Matches(lowerQuery string) bool {
	for _, field := range [...]string{l.FirstName, l.LastName, l.Email, l.Company} {
		if strings.Contains(strings.ToLower(field), lowerQuery) {
			return true
		}
	}
	return false
}

// LeadUpdate is a partial update. Nil fields are left untouched by the backend.
type LeadUpdate struct {
	FirstName  *string  `json:"first_name,omitempty"`
	LastName   *string  `json:"last_name,omitempty"`
	Email      *string  `json:"email,omitempty"`
	Phone      *string  `json:"phone,omitempty"`
	Company    *string  `json:"company,omitempty"`
	Title      *string  `json:"title,omitempty"`
	Source     *string  `json:"source,omitempty"`
	Status     *string  `json:"status,omitempty"`
	Priority   *string  `json:"priority,omitempty"`
	Value      *float64 `json:"value,omitempty"`
	Notes      *string  `json:"notes,omitempty"`
	AssignedTo *string  `json:"assigned_to,omitempty"`
}

// IsEmpty returns true if the update carries no fields.
func (u LeadUpdate) IsEmpty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Email == nil &&
		u.Phone == nil && u.Company == nil && u.Title == nil && u.Source == nil &&
		u.Status == nil && u.Priority == nil && u.Value == nil &&
		u.Notes == nil && u.AssignedTo == nil
}

// User is the authenticated account returned at login.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
}
