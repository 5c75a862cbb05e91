package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"covenant/contexts/moderation-safety/dispute-service/domain/entities"
	domainerrors "covenant/contexts/moderation-safety/dispute-service/domain/errors"
	"covenant/contexts/moderation-safety/dispute-service/ports"
	"covenant/internal/shared/audit"
)

const (
	ResolveActionInReview = "in_review"
	ResolveActionResolve  = "resolve"
	ResolveActionClose    = "close"
)

type OpenDisputeInput struct {
	ContextType string
	ContextID   string
	Reason      string
	// MilestoneID narrows an assignment dispute to one milestone.
	MilestoneID string
}

type ResolveInput struct {
	DisputeID string
	Action    string
	Notes     string
}

// DisputeView pairs the dispute with the audit ledger rows of its context
// entity, the evidence trail a reviewer works from.
type DisputeView struct {
	Dispute  entities.Dispute
	Evidence []audit.Entry
}

type Service struct {
	Repo           ports.Repository
	Idempotency    ports.IdempotencyStore
	Permissions    ports.PermissionChecker
	Assignments    ports.AssignmentDisputeClient
	AuditReader    audit.Reader
	Notifier       ports.Notifier
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func (s Service) Open(ctx context.Context, openerID string, input OpenDisputeInput) (entities.Dispute, error) {
	openerID = strings.TrimSpace(openerID)
	input.ContextType = strings.TrimSpace(strings.ToLower(input.ContextType))
	input.ContextID = strings.TrimSpace(input.ContextID)
	input.Reason = strings.TrimSpace(input.Reason)

	now := s.now()
	disputeID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Dispute{}, err
	}
	dispute := entities.Dispute{
		DisputeID:   disputeID,
		ContextType: input.ContextType,
		ContextID:   input.ContextID,
		OpenerID:    openerID,
		Reason:      input.Reason,
		Status:      entities.DisputeStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if !dispute.Validate() {
		return entities.Dispute{}, domainerrors.ErrInvalidDisputeInput
	}

	auditID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Dispute{}, err
	}
	entry, err := audit.NewEntry(auditID, openerID, "dispute.opened", "dispute", disputeID, map[string]any{
		"context_type": dispute.ContextType,
		"context_id":   dispute.ContextID,
		"reason":       dispute.Reason,
	}, now)
	if err != nil {
		return entities.Dispute{}, err
	}
	if err := s.Repo.CreateDispute(ctx, dispute, entry); err != nil {
		return entities.Dispute{}, err
	}

	// Freeze the assignment while the dispute runs. Best-effort: the
	// dispute itself stands even if the flag call fails.
	if dispute.ContextType == "assignment" && s.Assignments != nil {
		if err := s.Assignments.FlagDisputed(ctx, dispute.ContextID, input.MilestoneID, openerID, dispute.Reason); err != nil {
			resolveLogger(s.Logger).Warn("assignment dispute flag failed",
				"event", "assignment_dispute_flag_failed",
				"module", "moderation-safety/dispute-service",
				"layer", "application",
				"dispute_id", disputeID,
				"assignment_id", dispute.ContextID,
				"error", err.Error(),
			)
		}
	}

	resolveLogger(s.Logger).Info("dispute opened",
		"event", "dispute_opened",
		"module", "moderation-safety/dispute-service",
		"layer", "application",
		"dispute_id", disputeID,
		"context_type", dispute.ContextType,
		"context_id", dispute.ContextID,
	)
	return dispute, nil
}

// Get returns the dispute with its evidence. Restricted to the opener and
// platform staff.
func (s Service) Get(ctx context.Context, actorID string, disputeID string) (DisputeView, error) {
	dispute, err := s.Repo.GetDispute(ctx, strings.TrimSpace(disputeID))
	if err != nil {
		return DisputeView{}, err
	}
	if err := s.authorizeView(ctx, actorID, dispute); err != nil {
		return DisputeView{}, err
	}
	view := DisputeView{Dispute: dispute}
	if s.AuditReader != nil {
		evidence, err := s.AuditReader.ListByEntity(ctx, dispute.ContextType, dispute.ContextID)
		if err != nil {
			return DisputeView{}, err
		}
		view.Evidence = evidence
	}
	return view, nil
}

func (s Service) Resolve(ctx context.Context, idempotencyKey string, actorID string, input ResolveInput) (entities.Dispute, error) {
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	actorID = strings.TrimSpace(actorID)
	input.DisputeID = strings.TrimSpace(input.DisputeID)
	input.Action = strings.TrimSpace(strings.ToLower(input.Action))
	input.Notes = strings.TrimSpace(input.Notes)

	if idempotencyKey == "" {
		return entities.Dispute{}, domainerrors.ErrIdempotencyKeyRequired
	}
	switch input.Action {
	case ResolveActionInReview, ResolveActionResolve, ResolveActionClose:
	default:
		return entities.Dispute{}, domainerrors.ErrInvalidDisputeInput
	}
	allowed, err := s.Permissions.HasAnyRole(ctx, actorID, "admin", "moderator")
	if err != nil {
		return entities.Dispute{}, err
	}
	if !allowed {
		return entities.Dispute{}, domainerrors.ErrForbidden
	}

	requestHash := hashStrings(actorID, input.DisputeID, input.Action, input.Notes)
	var output entities.Dispute
	err = s.runIdempotent(
		ctx,
		idempotencyKey,
		requestHash,
		func(raw []byte) error { return json.Unmarshal(raw, &output) },
		func() ([]byte, error) {
			dispute, err := s.applyResolution(ctx, actorID, input)
			if err != nil {
				return nil, err
			}
			return json.Marshal(dispute)
		},
	)
	return output, err
}

func (s Service) applyResolution(ctx context.Context, actorID string, input ResolveInput) (entities.Dispute, error) {
	dispute, err := s.Repo.GetDispute(ctx, input.DisputeID)
	if err != nil {
		return entities.Dispute{}, err
	}
	if dispute.IsTerminal() {
		return entities.Dispute{}, domainerrors.ErrInvalidState
	}

	// open -> in_review -> resolved | closed, no shortcuts.
	var to entities.DisputeStatus
	switch input.Action {
	case ResolveActionInReview:
		if dispute.Status != entities.DisputeStatusOpen {
			return entities.Dispute{}, domainerrors.ErrInvalidState
		}
		to = entities.DisputeStatusInReview
	case ResolveActionResolve:
		if dispute.Status != entities.DisputeStatusInReview {
			return entities.Dispute{}, domainerrors.ErrInvalidState
		}
		to = entities.DisputeStatusResolved
	case ResolveActionClose:
		if dispute.Status != entities.DisputeStatusInReview {
			return entities.Dispute{}, domainerrors.ErrInvalidState
		}
		to = entities.DisputeStatusClosed
	}

	now := s.now()
	transition := ports.TransitionInput{
		DisputeID: dispute.DisputeID,
		From:      dispute.Status,
		To:        to,
		At:        now,
	}
	if to == entities.DisputeStatusResolved || to == entities.DisputeStatusClosed {
		resolvedAt := now
		transition.ResolutionNotes = input.Notes
		transition.ResolverID = actorID
		transition.ResolvedAt = &resolvedAt
	}
	auditID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Dispute{}, err
	}
	entry, err := audit.NewEntry(auditID, actorID, "dispute.status_changed", "dispute", dispute.DisputeID, map[string]any{
		"from":  string(dispute.Status),
		"to":    string(to),
		"notes": input.Notes,
	}, now)
	if err != nil {
		return entities.Dispute{}, err
	}
	transition.Audit = entry

	updated, err := s.Repo.TransitionDispute(ctx, transition)
	if err != nil {
		return entities.Dispute{}, err
	}

	if s.Notifier != nil {
		_ = s.Notifier.Notify(ctx, updated.OpenerID, "dispute_"+string(to), "dispute", updated.DisputeID, map[string]any{
			"context_type": updated.ContextType,
			"context_id":   updated.ContextID,
			"notes":        input.Notes,
		})
	}

	resolveLogger(s.Logger).Info("dispute status changed",
		"event", "dispute_status_changed",
		"module", "moderation-safety/dispute-service",
		"layer", "application",
		"dispute_id", updated.DisputeID,
		"from", string(dispute.Status),
		"to", string(to),
	)
	return updated, nil
}

func (s Service) authorizeView(ctx context.Context, actorID string, dispute entities.Dispute) error {
	actorID = strings.TrimSpace(actorID)
	if actorID == dispute.OpenerID {
		return nil
	}
	allowed, err := s.Permissions.HasAnyRole(ctx, actorID, "admin", "moderator")
	if err != nil {
		return err
	}
	if !allowed {
		return domainerrors.ErrForbidden
	}
	return nil
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (s Service) idempotencyTTL() time.Duration {
	if s.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.IdempotencyTTL
}

func (s Service) runIdempotent(
	ctx context.Context,
	key string,
	requestHash string,
	decode func([]byte) error,
	exec func() ([]byte, error),
) error {
	now := s.now()
	record, found, err := s.Idempotency.Get(ctx, key, now)
	if err != nil {
		return err
	}
	if found {
		if record.RequestHash != requestHash {
			return domainerrors.ErrIdempotencyConflict
		}
		return decode(record.Payload)
	}
	payload, err := exec()
	if err != nil {
		return err
	}
	if err := s.Idempotency.Put(ctx, ports.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Payload:     payload,
		ExpiresAt:   now.Add(s.idempotencyTTL()),
	}); err != nil {
		return err
	}
	resolveLogger(s.Logger).Debug("dispute idempotent mutation committed",
		"event", "dispute_idempotent_mutation_committed",
		"module", "moderation-safety/dispute-service",
		"layer", "application",
		"idempotency_key", key,
	)
	return decode(payload)
}

func hashStrings(values ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(values, "|")))
	return hex.EncodeToString(sum[:])
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
