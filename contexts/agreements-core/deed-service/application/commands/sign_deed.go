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
	"covenant/internal/shared/events"
)

type SignDeedCommand struct {
	DeedID  string
	ActorID string
}

// SignDeedUseCase records one signature. The caller must hold a declared
// signer slot and the deed must be collecting signatures. When the last
// required signer kind signs, the deed advances to signed atomically with
// the signature write.
type SignDeedUseCase struct {
	Deeds    ports.DeedRepository
	Notifier ports.Notifier
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

func (uc SignDeedUseCase) Execute(ctx context.Context, cmd SignDeedCommand) (entities.Deed, error) {
	logger := application.ResolveLogger(uc.Logger)

	actorID := strings.TrimSpace(cmd.ActorID)
	if actorID == "" {
		return entities.Deed{}, domainerrors.ErrNotASigner
	}

	deed, err := uc.Deeds.GetDeed(ctx, strings.TrimSpace(cmd.DeedID))
	if err != nil {
		return entities.Deed{}, err
	}
	if deed.Status != entities.DeedStatusOpenForSignature {
		return entities.Deed{}, domainerrors.ErrInvalidState
	}
	signer, ok := deed.SignerFor(actorID)
	if !ok {
		return entities.Deed{}, domainerrors.ErrNotASigner
	}
	if signer.Status == entities.SignerStatusSigned {
		return entities.Deed{}, domainerrors.ErrAlreadySigned
	}

	now := uc.Clock.Now().UTC()
	auditID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Deed{}, err
	}
	entry, err := audit.NewEntry(auditID, actorID, "deed.signer_signed", "deed", deed.DeedID, map[string]any{
		"signer_kind": string(signer.Kind),
	}, now)
	if err != nil {
		return entities.Deed{}, err
	}

	// The repository decides completion under lock; the envelope is only
	// enqueued when this signature closes the quorum.
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Deed{}, err
	}
	envelope, err := events.New(eventID, "deed.signed", "deed-service", deed.DeedID, now, map[string]any{
		"deed_id":      deed.DeedID,
		"kind":         string(deed.Kind),
		"context_type": deed.ContextType,
		"context_id":   deed.ContextID,
		"content_hash": deed.ContentHash,
	})
	if err != nil {
		return entities.Deed{}, err
	}

	updated, err := uc.Deeds.SignDeed(ctx, ports.SignInput{
		DeedID: deed.DeedID,
		UserID: actorID,
		At:     now,
		Audit:  entry,
		Event:  &envelope,
	})
	if err != nil {
		return entities.Deed{}, err
	}

	if uc.Notifier != nil && updated.Status == entities.DeedStatusSigned {
		for _, other := range updated.Signers {
			if other.UserID == actorID {
				continue
			}
			_ = uc.Notifier.Notify(ctx, other.UserID, "deed_signed", "deed", deed.DeedID, map[string]any{
				"content_hash": updated.ContentHash,
			})
		}
	}

	logger.Info("deed signature recorded",
		"event", "deed_signature_recorded",
		"module", "agreements-core/deed-service",
		"layer", "application",
		"deed_id", deed.DeedID,
		"signer_kind", string(signer.Kind),
		"deed_status", string(updated.Status),
	)
	return updated, nil
}
