package ports

import (
	"context"
	"time"

	"covenant/contexts/agreements-core/deed-service/domain/entities"
	"covenant/internal/shared/audit"
	"covenant/internal/shared/events"
	"covenant/internal/shared/outbox"
)

type EventEnvelope = events.Envelope

// SignInput flips one signer slot to signed. The repository recomputes the
// signer-kind quorum under lock after the write; when it holds, the deed
// advances to signed in the same transaction and Event is enqueued.
type SignInput struct {
	DeedID string
	UserID string
	At     time.Time
	Audit  audit.Entry
	Event  *EventEnvelope
}

// AmendInput inserts the successor row. The prior row is never touched;
// the repository only verifies it is still the chain head.
type AmendInput struct {
	PrevDeedID string
	Successor  entities.Deed
	Audit      audit.Entry
	Event      *EventEnvelope
}

type DeedRepository interface {
	CreateDeed(ctx context.Context, deed entities.Deed, entry audit.Entry) error
	GetDeed(ctx context.Context, deedID string) (entities.Deed, error)
	// TransitionDeed conditionally moves a deed between statuses.
	TransitionDeed(ctx context.Context, deedID string, from, to entities.DeedStatus, at time.Time, entry audit.Entry) (entities.Deed, error)
	SignDeed(ctx context.Context, input SignInput) (entities.Deed, error)
	AmendDeed(ctx context.Context, input AmendInput) (entities.Deed, error)
	// GetBySuccessor returns the deed whose prev_deed_id equals deedID.
	GetBySuccessor(ctx context.Context, deedID string) (entities.Deed, bool, error)
	// IsBackerSigner reports whether the user holds a signed or pending
	// backer slot on the deed.
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
