package entities

import (
	"strings"
	"time"
)

type AssignmentStatus string

const (
	AssignmentStatusActive    AssignmentStatus = "active"
	AssignmentStatusFulfilled AssignmentStatus = "fulfilled"
	AssignmentStatusDisputed  AssignmentStatus = "disputed"
)

// Assignment binds the selected supplier to the feed campaign and carries
// the milestone plan. It is created by offer selection and completed here.
type Assignment struct {
	AssignmentID   string
	NeedCampaignID string
	FeedCampaignID string
	OfferID        string
	SupplierID     string
	OwnerID        string
	DeedID         string
	Status         AssignmentStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
	FulfilledAt    *time.Time
}

// IsParty reports whether the user is the assignment owner or its supplier.
func (a Assignment) IsParty(userID string) bool {
	trimmed := strings.TrimSpace(userID)
	return trimmed != "" && (trimmed == a.OwnerID || trimmed == a.SupplierID)
}

// OtherParties returns the assignment parties excluding the actor, used for
// notification fan-out.
func (a Assignment) OtherParties(actorID string) []string {
	parties := make([]string, 0, 2)
	for _, userID := range []string{a.OwnerID, a.SupplierID} {
		if userID != "" && userID != strings.TrimSpace(actorID) {
			parties = append(parties, userID)
		}
	}
	return parties
}
