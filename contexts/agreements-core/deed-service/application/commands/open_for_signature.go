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

type OpenForSignatureCommand struct {
	DeedID  string
	ActorID string
}

// OpenForSignatureUseCase freezes the deed content and starts collecting
// signatures. Draft deeds only.
type OpenForSignatureUseCase struct {
	Deeds    ports.DeedRepository
	Notifier ports.Notifier
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

func (uc OpenForSignatureUseCase) Execute(ctx context.Context, cmd OpenForSignatureCommand) (entities.Deed, error) {
	logger := application.ResolveLogger(uc.Logger)

	deed, err := uc.Deeds.GetDeed(ctx, strings.TrimSpace(cmd.DeedID))
	if err != nil {
		return entities.Deed{}, err
	}
	if deed.Status != entities.DeedStatusDraft {
		return entities.Deed{}, domainerrors.ErrInvalidState
	}
	if len(deed.Signers) == 0 {
		return entities.Deed{}, domainerrors.ErrInvalidDeedInput
	}

	now := uc.Clock.Now().UTC()
	auditID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Deed{}, err
	}
	entry, err := audit.NewEntry(auditID, strings.TrimSpace(cmd.ActorID), "deed.opened_for_signature", "deed", deed.DeedID, map[string]any{
		"from":         string(entities.DeedStatusDraft),
		"to":           string(entities.DeedStatusOpenForSignature),
		"signer_count": len(deed.Signers),
	}, now)
	if err != nil {
		return entities.Deed{}, err
	}

	updated, err := uc.Deeds.TransitionDeed(ctx, deed.DeedID, entities.DeedStatusDraft, entities.DeedStatusOpenForSignature, now, entry)
	if err != nil {
		return entities.Deed{}, err
	}

	if uc.Notifier != nil {
		for _, signer := range updated.Signers {
			_ = uc.Notifier.Notify(ctx, signer.UserID, "deed_signature_requested", "deed", deed.DeedID, map[string]any{
				"signer_kind": string(signer.Kind),
			})
		}
	}

	logger.Info("deed opened for signature",
		"event", "deed_opened_for_signature",
		"module", "agreements-core/deed-service",
		"layer", "application",
		"deed_id", deed.DeedID,
		"signer_count", len(updated.Signers),
	)
	return updated, nil
}
