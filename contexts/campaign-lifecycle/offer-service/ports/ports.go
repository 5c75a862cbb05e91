package ports

import (
	"context"
	"time"

	"covenant/contexts/campaign-lifecycle/offer-service/domain/entities"
	"covenant/internal/shared/audit"
	"covenant/internal/shared/events"
	"covenant/internal/shared/outbox"
)

type EventEnvelope = events.Envelope

// FeedCampaignView is the slice of campaign state the offer protocol needs.
type FeedCampaignView struct {
	CampaignID           string
	OwnerID              string
	Status               string
	SourceNeedCampaignID string
}

// SelectionInput drives the atomic single-winner transaction. The
// repository re-reads campaign and offers under lock, flips the winner to
// selected and every other signed offer to rejected, advances the campaign
// to supplier_selected, inserts the assignment row, and writes the audit
// and outbox rows, all in one transaction.
type SelectionInput struct {
	CampaignID   string
	OfferID      string
	ActorID      string
	AssignmentID string
	At           time.Time
	Event        *EventEnvelope
}

type SelectionResult struct {
	Winner            entities.SupplierOffer
	RejectedOfferIDs  []string
	LosingSupplierIDs []string
	AssignmentID      string
	NeedCampaignID    string
	FeedCampaignID    string
	OwnerID           string
}

type OfferRepository interface {
	CreateOffer(ctx context.Context, offer entities.SupplierOffer, entry audit.Entry) error
	GetOffer(ctx context.Context, offerID string) (entities.SupplierOffer, error)
	ListOffersByCampaign(ctx context.Context, campaignID string) ([]entities.SupplierOffer, error)
	// SignOffer conditionally flips submitted -> signed.
	SignOffer(ctx context.Context, offerID string, supplierID string, at time.Time, entry audit.Entry) (entities.SupplierOffer, error)
	SelectOffer(ctx context.Context, input SelectionInput) (SelectionResult, error)
}

// FeedCampaignGateway reads campaign state owned by the campaign service.
type FeedCampaignGateway interface {
	GetFeedCampaign(ctx context.Context, campaignID string) (FeedCampaignView, error)
}

// FeedDeedInput asks the deed service for the binding feed deed after a
// selection commits. Best effort: failure is logged, never rolled back.
type FeedDeedInput struct {
	FeedCampaignID string
	NeedCampaignID string
	OfferID        string
	AssignmentID   string
	OwnerID        string
	SupplierID     string
	Terms          entities.OfferTerms
	Rows           []entities.OfferRow
}

type DeedClient interface {
	CreateFeedDeed(ctx context.Context, input FeedDeedInput) (string, error)
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]outbox.Message, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type Notifier interface {
	Notify(ctx context.Context, userID, kind, contextType, contextID string, payload map[string]any) error
}

// AuditAppender writes post-commit audit enrichment, such as the selection
// summary with offer counts.
type AuditAppender interface {
	AppendAudit(ctx context.Context, entries ...audit.Entry) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
