// Package models defines the lead record produced by completed flows.
package models

import "time"

// LeadType identifies which kind of request produced a lead.
type LeadType string

const (
	LeadTypeDemoRequest       LeadType = "DEMO_REQUEST"
	LeadTypeHumanHandoff      LeadType = "HUMAN_HANDOFF"
	LeadTypeRFPUpload         LeadType = "RFP_UPLOAD"
	LeadTypeCareerApplication LeadType = "CAREER_APPLICATION"
	LeadTypeContactRequest    LeadType = "CONTACT_REQUEST"
)

// LeadStatus tracks operator progress on a lead.
type LeadStatus string

const (
	LeadStatusNew        LeadStatus = "NEW"
	LeadStatusContacted  LeadStatus = "CONTACTED"
	LeadStatusInProgress LeadStatus = "IN_PROGRESS"
	LeadStatusClosed     LeadStatus = "CLOSED"
)

// IsValidLeadStatus checks if the given status is one of the fixed enum values.
func IsValidLeadStatus(s LeadStatus) bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusInProgress, LeadStatusClosed:
		return true
	default:
		return false
	}
}

// ValidStatusTransition reports whether a lead may move from one status to
// another. Statuses only advance forward along NEW -> CONTACTED ->
// IN_PROGRESS -> CLOSED, with the single operator-triggered reopen
// CLOSED -> NEW allowed.
func ValidStatusTransition(from, to LeadStatus) bool {
	switch from {
	case LeadStatusNew:
		return to == LeadStatusContacted
	case LeadStatusContacted:
		return to == LeadStatusInProgress
	case LeadStatusInProgress:
		return to == LeadStatusClosed
	case LeadStatusClosed:
		return to == LeadStatusNew
	default:
		return false
	}
}

// Lead is the persisted record produced by a completed flow or handoff.
type Lead struct {
	ID          string            `json:"id"`
	Type        LeadType          `json:"type"`
	Name        string            `json:"name"`
	Contact     string            `json:"contact"`
	Info        string            `json:"info"`
	Status      LeadStatus        `json:"status"`
	AdminNotes  string            `json:"admin_notes"`
	TicketID    string            `json:"ticket_id"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	RequestedAt time.Time         `json:"requested_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// LeadStats aggregates lead counts by status and by type.
type LeadStats struct {
	Total    int                `json:"total"`
	ByStatus map[LeadStatus]int `json:"by_status"`
	ByType   map[LeadType]int   `json:"by_type"`
}
