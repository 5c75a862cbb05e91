package entities

import (
	"strings"
	"time"
)

type MilestoneStatus string

const (
	MilestoneStatusPending    MilestoneStatus = "pending"
	MilestoneStatusInProgress MilestoneStatus = "in_progress"
	MilestoneStatusDelivered  MilestoneStatus = "delivered"
	MilestoneStatusAccepted   MilestoneStatus = "accepted"
	MilestoneStatusFailed     MilestoneStatus = "failed"
	MilestoneStatusDisputed   MilestoneStatus = "disputed"
)

type Milestone struct {
	MilestoneID  string
	AssignmentID string
	Title        string
	Description  string
	DueAt        *time.Time
	Status       MilestoneStatus
	ProofURL     string
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (m Milestone) Validate() bool {
	return strings.TrimSpace(m.AssignmentID) != "" && strings.TrimSpace(m.Title) != ""
}

// IsSupplierStatus reports whether the status is one the supplier may set.
func IsSupplierStatus(value MilestoneStatus) bool {
	switch value {
	case MilestoneStatusInProgress, MilestoneStatusDelivered, MilestoneStatusFailed:
		return true
	default:
		return false
	}
}
