package ports

import (
	"context"
	"time"

	"covenant/contexts/moderation-safety/dispute-service/domain/entities"
	"covenant/internal/shared/audit"
)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type IdempotencyRecord struct {
	Key         string
	RequestHash string
	Payload     []byte
	ExpiresAt   time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	Put(ctx context.Context, record IdempotencyRecord) error
}

// TransitionInput is a conditional status update stamped with the
// resolution fields when the transition is terminal.
type TransitionInput struct {
	DisputeID       string
	From            entities.DisputeStatus
	To              entities.DisputeStatus
	ResolutionNotes string
	ResolverID      string
	ResolvedAt      *time.Time
	At              time.Time
	Audit           audit.Entry
}

type Repository interface {
	CreateDispute(ctx context.Context, dispute entities.Dispute, entry audit.Entry) error
	GetDispute(ctx context.Context, disputeID string) (entities.Dispute, error)
	TransitionDispute(ctx context.Context, input TransitionInput) (entities.Dispute, error)
}

type PermissionChecker interface {
	HasAnyRole(ctx context.Context, userID string, roles ...string) (bool, error)
}

// AssignmentDisputeClient freezes an assignment when a dispute is opened
// against it.
type AssignmentDisputeClient interface {
	FlagDisputed(ctx context.Context, assignmentID, milestoneID, actorID, reason string) error
}

type Notifier interface {
	Notify(ctx context.Context, userID, kind, contextType, contextID string, payload map[string]any) error
}
