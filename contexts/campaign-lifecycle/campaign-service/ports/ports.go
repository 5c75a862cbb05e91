package ports

import (
	"context"
	"time"

	"covenant/contexts/campaign-lifecycle/campaign-service/domain/entities"
	"covenant/internal/shared/audit"
	"covenant/internal/shared/events"
	"covenant/internal/shared/outbox"
)

type EventEnvelope = events.Envelope

type CampaignFilter struct {
	OwnerID string
	Kind    entities.CampaignKind
	Status  string
}

// TransitionInput is one conditional status flip: the update applies only
// when the stored status still equals From, and the audit entry plus the
// optional outbox event commit in the same transaction.
type TransitionInput struct {
	CampaignID string
	From       entities.CampaignStatus
	To         entities.CampaignStatus
	At         time.Time
	Audit      audit.Entry
	Event      *EventEnvelope
}

// SeedInput transitions a live need campaign to seeded and creates its
// companion feed campaign atomically.
type SeedInput struct {
	NeedCampaignID string
	Feed           entities.Campaign
	At             time.Time
	Audits         []audit.Entry
	Event          *EventEnvelope
}

type SeedResult struct {
	Need entities.Campaign
	Feed entities.Campaign
}

type CampaignRepository interface {
	CreateCampaign(ctx context.Context, campaign entities.Campaign, entry audit.Entry) error
	GetCampaign(ctx context.Context, campaignID string) (entities.Campaign, error)
	ListCampaigns(ctx context.Context, filter CampaignFilter) ([]entities.Campaign, error)
	TransitionCampaign(ctx context.Context, input TransitionInput) (entities.Campaign, error)
	SeedCampaign(ctx context.Context, input SeedInput) (SeedResult, error)
	// DeleteCampaign hard-deletes the row; the audit entry outlives it.
	DeleteCampaign(ctx context.Context, campaignID string, entry audit.Entry) error
}

type PledgeRepository interface {
	// AddPledge re-checks inside the write transaction that the campaign is
	// a live need campaign.
	AddPledge(ctx context.Context, pledge entities.Pledge, entry audit.Entry) error
	ListPledges(ctx context.Context, campaignID string) ([]entities.Pledge, error)
}

// DueNeedRepository feeds the deadline sweep: live need campaigns whose
// threshold deadline has passed.
type DueNeedRepository interface {
	ListDueNeedCampaigns(ctx context.Context, now time.Time, limit int) ([]entities.Campaign, error)
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]outbox.Message, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type PermissionChecker interface {
	HasAnyRole(ctx context.Context, userID string, roles ...string) (bool, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID, kind, contextType, contextID string, payload map[string]any) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
