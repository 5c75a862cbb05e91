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
)

type VoidDeedCommand struct {
	DeedID  string
	ActorID string
	Reason  string
}

// VoidDeedUseCase terminates a deed. Voiding is a status transition, not a
// content change, so it is allowed on immutable deeds; the document and
// hash stay untouched.
type VoidDeedUseCase struct {
	Deeds    ports.DeedRepository
	Notifier ports.Notifier
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

func (uc VoidDeedUseCase) Execute(ctx context.Context, cmd VoidDeedCommand) (entities.Deed, error) {
	logger := application.ResolveLogger(uc.Logger)

	deed, err := uc.Deeds.GetDeed(ctx, strings.TrimSpace(cmd.DeedID))
	if err != nil {
		return entities.Deed{}, err
	}
	if deed.Status == entities.DeedStatusVoided || deed.Status == entities.DeedStatusFulfilled {
		return entities.Deed{}, domainerrors.ErrInvalidState
	}

	now := uc.Clock.Now().UTC()
	auditID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Deed{}, err
	}
	entry, err := audit.NewEntry(auditID, strings.TrimSpace(cmd.ActorID), "deed.voided", "deed", deed.DeedID, map[string]any{
		"from":   string(deed.Status),
		"to":     string(entities.DeedStatusVoided),
		"reason": strings.TrimSpace(cmd.Reason),
	}, now)
	if err != nil {
		return entities.Deed{}, err
	}

	updated, err := uc.Deeds.TransitionDeed(ctx, deed.DeedID, deed.Status, entities.DeedStatusVoided, now, entry)
	if err != nil {
		return entities.Deed{}, err
	}

	if uc.Notifier != nil {
		for _, signer := range updated.Signers {
			_ = uc.Notifier.Notify(ctx, signer.UserID, "deed_voided", "deed", deed.DeedID, map[string]any{
				"reason": strings.TrimSpace(cmd.Reason),
			})
		}
	}

	logger.Info("deed voided",
		"event", "deed_voided",
		"module", "agreements-core/deed-service",
		"layer", "application",
		"deed_id", deed.DeedID,
	)
	return updated, nil
}
