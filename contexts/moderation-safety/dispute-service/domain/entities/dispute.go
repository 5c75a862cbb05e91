package entities

import (
	"strings"
	"time"
)

type DisputeStatus string

const (
	DisputeStatusOpen     DisputeStatus = "open"
	DisputeStatusInReview DisputeStatus = "in_review"
	DisputeStatusResolved DisputeStatus = "resolved"
	DisputeStatusClosed   DisputeStatus = "closed"
)

// Dispute references exactly one context entity by (type, id). The audit
// ledger rows for that entity are its evidence trail.
type Dispute struct {
	DisputeID       string
	ContextType     string
	ContextID       string
	OpenerID        string
	Reason          string
	Status          DisputeStatus
	ResolutionNotes string
	ResolverID      string
	ResolvedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (d Dispute) Validate() bool {
	if !IsSupportedContextType(d.ContextType) {
		return false
	}
	return strings.TrimSpace(d.ContextID) != "" &&
		strings.TrimSpace(d.OpenerID) != "" &&
		strings.TrimSpace(d.Reason) != ""
}

func IsSupportedContextType(value string) bool {
	switch value {
	case "deed", "campaign", "assignment", "offer":
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the dispute can no longer change status.
func (d Dispute) IsTerminal() bool {
	return d.Status == DisputeStatusResolved || d.Status == DisputeStatusClosed
}
