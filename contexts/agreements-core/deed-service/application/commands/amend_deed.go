package commands

import (
	"context"
	"log/slog"
	"strings"

	application "covenant/contexts/agreements-core/deed-service/application"
	"covenant/contexts/agreements-core/deed-service/domain/entities"
	domainerrors "covenant/contexts/agreements-core/deed-service/domain/errors"
	"covenant/contexts/agreements-core/deed-service/ports"
	"covenant/internal/shared/audit"
	"covenant/internal/shared/canonhash"
	"covenant/internal/shared/events"
)

type AmendDeedCommand struct {
	DeedID   string
	ActorID  string
	Document entities.DeedDocument
	Signers  []entities.DeedSigner
}

// AmendDeedUseCase is the only path to change immutable content: it creates
// a new deed row with version+1 pointing back at the prior one. The prior
// row is never touched.
type AmendDeedUseCase struct {
	Deeds    ports.DeedRepository
	Notifier ports.Notifier
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

func (uc AmendDeedUseCase) Execute(ctx context.Context, cmd AmendDeedCommand) (entities.Deed, error) {
	logger := application.ResolveLogger(uc.Logger)

	actorID := strings.TrimSpace(cmd.ActorID)
	if actorID == "" {
		return entities.Deed{}, domainerrors.ErrInvalidDeedInput
	}

	prior, err := uc.Deeds.GetDeed(ctx, strings.TrimSpace(cmd.DeedID))
	if err != nil {
		return entities.Deed{}, err
	}
	if prior.Status == entities.DeedStatusVoided {
		return entities.Deed{}, domainerrors.ErrInvalidState
	}
	if !prior.IsImmutable() {
		return entities.Deed{}, domainerrors.ErrDeedNotImmutable
	}
	if _, exists, err := uc.Deeds.GetBySuccessor(ctx, prior.DeedID); err != nil {
		return entities.Deed{}, err
	} else if exists {
		return entities.Deed{}, domainerrors.ErrAmendConflict
	}

	now := uc.Clock.Now().UTC()
	successorID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Deed{}, err
	}
	document := cmd.Document
	if document.DraftedAt.IsZero() {
		document.DraftedAt = now
	}
	hash, _, err := canonhash.Sum(document)
	if err != nil {
		return entities.Deed{}, err
	}

	signers := cmd.Signers
	if len(signers) == 0 {
		signers = prior.Signers
	}
	successorSigners := make([]entities.DeedSigner, 0, len(signers))
	for _, signer := range signers {
		signer.DeedID = successorID
		signer.Status = entities.SignerStatusPending
		signer.SignedAt = nil
		successorSigners = append(successorSigners, signer)
	}

	successor := entities.Deed{
		DeedID:      successorID,
		Kind:        prior.Kind,
		Status:      entities.DeedStatusDraft,
		ContextType: prior.ContextType,
		ContextID:   prior.ContextID,
		Document:    document,
		ContentHash: hash,
		Version:     prior.Version + 1,
		PrevDeedID:  prior.DeedID,
		Signers:     successorSigners,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if !successor.Validate() {
		return entities.Deed{}, domainerrors.ErrInvalidDeedInput
	}

	auditID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Deed{}, err
	}
	entry, err := audit.NewEntry(auditID, actorID, "deed.amended", "deed", successorID, map[string]any{
		"prev_deed_id": prior.DeedID,
		"version":      successor.Version,
		"content_hash": successor.ContentHash,
	}, now)
	if err != nil {
		return entities.Deed{}, err
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Deed{}, err
	}
	envelope, err := events.New(eventID, "deed.amended", "deed-service", successorID, now, map[string]any{
		"deed_id":      successorID,
		"prev_deed_id": prior.DeedID,
		"version":      successor.Version,
	})
	if err != nil {
		return entities.Deed{}, err
	}

	created, err := uc.Deeds.AmendDeed(ctx, ports.AmendInput{
		PrevDeedID: prior.DeedID,
		Successor:  successor,
		Audit:      entry,
		Event:      &envelope,
	})
	if err != nil {
		return entities.Deed{}, err
	}

	if uc.Notifier != nil {
		for _, signer := range created.Signers {
			_ = uc.Notifier.Notify(ctx, signer.UserID, "deed_amended", "deed", created.DeedID, map[string]any{
				"prev_deed_id": prior.DeedID,
				"version":      created.Version,
			})
		}
	}

	logger.Info("deed amended",
		"event", "deed_amended",
		"module", "agreements-core/deed-service",
		"layer", "application",
		"deed_id", created.DeedID,
		"prev_deed_id", prior.DeedID,
		"version", created.Version,
	)
	return created, nil
}
