package entities

import (
	"strings"
	"time"
)

type CampaignKind string

const (
	CampaignKindNeed CampaignKind = "need"
	CampaignKindFeed CampaignKind = "feed"
)

type Visibility string

const (
	VisibilityPublic Visibility = "public"
	VisibilityGroup  Visibility = "group"
)

// NeedStatus is the lifecycle of a demand-aggregation campaign.
type NeedStatus string

const (
	NeedStatusDraft          NeedStatus = "draft"
	NeedStatusReview         NeedStatus = "review"
	NeedStatusLive           NeedStatus = "live"
	NeedStatusSeeded         NeedStatus = "seeded"
	NeedStatusCanceled       NeedStatus = "canceled"
	NeedStatusClosedUnseeded NeedStatus = "closed_unseeded"
)

// FeedStatus is the lifecycle of a supply-solicitation campaign.
type FeedStatus string

const (
	FeedStatusDraft            FeedStatus = "draft"
	FeedStatusOpen             FeedStatus = "open"
	FeedStatusSupplierSelected FeedStatus = "supplier_selected"
	FeedStatusCanceled         FeedStatus = "canceled"
)

// CampaignStatus is a sealed union: a campaign carries exactly one of the
// two status families, matching its kind. The type system enforces the
// exclusivity instead of a pair of nullable columns.
type CampaignStatus interface {
	campaignStatus()
	String() string
}

func (NeedStatus) campaignStatus() {}

func (s NeedStatus) String() string { return string(s) }

func (FeedStatus) campaignStatus() {}

func (s FeedStatus) String() string { return string(s) }

type Campaign struct {
	CampaignID  string
	Kind        CampaignKind
	OwnerID     string
	Title       string
	Description string
	Visibility  Visibility
	GroupID     string

	// SourceNeedCampaignID links a feed campaign back to the need campaign
	// that seeded it. Explicit field, not an audit-payload lookup.
	SourceNeedCampaignID string

	// Threshold is set for need campaigns only.
	Threshold *ThresholdDefinition

	Status    CampaignStatus
	CreatedAt time.Time
	UpdatedAt time.Time
	SeededAt  *time.Time
}

// NeedStatus returns the need-family status when the campaign is a need
// campaign.
func (c Campaign) NeedStatus() (NeedStatus, bool) {
	status, ok := c.Status.(NeedStatus)
	return status, ok
}

// FeedStatus returns the feed-family status when the campaign is a feed
// campaign.
func (c Campaign) FeedStatus() (FeedStatus, bool) {
	status, ok := c.Status.(FeedStatus)
	return status, ok
}

func (c Campaign) IsOwnedBy(userID string) bool {
	trimmed := strings.TrimSpace(userID)
	return trimmed != "" && c.OwnerID == trimmed
}

func (c Campaign) ValidateBasics() bool {
	title := strings.TrimSpace(c.Title)
	if title == "" || len(title) < 3 || len(title) > 150 {
		return false
	}
	if !IsSupportedKind(c.Kind) {
		return false
	}
	if c.Visibility != VisibilityPublic && c.Visibility != VisibilityGroup {
		return false
	}
	if c.Visibility == VisibilityGroup && strings.TrimSpace(c.GroupID) == "" {
		return false
	}
	if c.Kind == CampaignKindNeed {
		if c.Threshold == nil || !c.Threshold.Validate() {
			return false
		}
	}
	return true
}

func IsSupportedKind(value CampaignKind) bool {
	switch value {
	case CampaignKindNeed, CampaignKindFeed:
		return true
	default:
		return false
	}
}

func IsSupportedNeedStatus(value NeedStatus) bool {
	switch value {
	case NeedStatusDraft, NeedStatusReview, NeedStatusLive,
		NeedStatusSeeded, NeedStatusCanceled, NeedStatusClosedUnseeded:
		return true
	default:
		return false
	}
}

func IsSupportedFeedStatus(value FeedStatus) bool {
	switch value {
	case FeedStatusDraft, FeedStatusOpen, FeedStatusSupplierSelected, FeedStatusCanceled:
		return true
	default:
		return false
	}
}
