package ports

import (
	"context"
	"time"

	"covenant/contexts/agreements-core/fulfillment-service/domain/entities"
	"covenant/internal/shared/events"
	"covenant/internal/shared/outbox"
)

type EventEnvelope = events.Envelope

// UpdateMilestoneInput is a conditional update: the repository applies it
// only while the milestone still holds the expected prior status.
type UpdateMilestoneInput struct {
	MilestoneID string
	From        entities.MilestoneStatus
	To          entities.MilestoneStatus
	ProofURL    string
	Notes       string
	At          time.Time
	Event       entities.FulfillmentEvent
}

// ConfirmInput accepts one delivered milestone. The repository re-reads all
// milestones of the assignment inside the transaction; when every one is
// accepted it also flips the assignment and writes the aggregate event and
// outbox envelope.
type ConfirmInput struct {
	MilestoneID    string
	At             time.Time
	Event          entities.FulfillmentEvent
	AggregateEvent entities.FulfillmentEvent
	Envelope       *EventEnvelope
}

type ConfirmResult struct {
	Milestone  entities.Milestone
	Assignment entities.Assignment
	// Fulfilled is set when this confirmation completed the assignment.
	Fulfilled bool
}

// DisputeFlagInput marks the assignment, and optionally one milestone,
// as disputed.
type DisputeFlagInput struct {
	AssignmentID string
	MilestoneID  string
	At           time.Time
	Event        entities.FulfillmentEvent
}

type AssignmentRepository interface {
	GetAssignment(ctx context.Context, assignmentID string) (entities.Assignment, error)
	// LinkDeed stamps the deed backing the assignment. Confirmation is
	// blocked until a deed is linked.
	LinkDeed(ctx context.Context, assignmentID, deedID string, at time.Time) error
	CreateMilestone(ctx context.Context, milestone entities.Milestone, event entities.FulfillmentEvent) error
	GetMilestone(ctx context.Context, milestoneID string) (entities.Milestone, error)
	ListMilestones(ctx context.Context, assignmentID string) ([]entities.Milestone, error)
	UpdateMilestone(ctx context.Context, input UpdateMilestoneInput) (entities.Milestone, error)
	ConfirmMilestone(ctx context.Context, input ConfirmInput) (ConfirmResult, error)
	FlagDisputed(ctx context.Context, input DisputeFlagInput) (entities.Assignment, error)
	ListFulfillmentEvents(ctx context.Context, assignmentID string) ([]entities.FulfillmentEvent, error)
}

// DeedSignerGateway answers whether a user holds a backer slot on the deed
// backing an assignment.
type DeedSignerGateway interface {
	IsBackerSigner(ctx context.Context, deedID string, userID string) (bool, error)
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

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
