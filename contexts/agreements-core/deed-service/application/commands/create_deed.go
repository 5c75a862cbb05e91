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
)

type CreateDeedCommand struct {
	ActorID     string
	Kind        entities.DeedKind
	ContextType string
	ContextID   string
	Document    entities.DeedDocument
	Signers     []entities.DeedSigner
}

type CreateDeedUseCase struct {
	Deeds  ports.DeedRepository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (uc CreateDeedUseCase) Execute(ctx context.Context, cmd CreateDeedCommand) (entities.Deed, error) {
	logger := application.ResolveLogger(uc.Logger)

	actorID := strings.TrimSpace(cmd.ActorID)
	if actorID == "" {
		return entities.Deed{}, domainerrors.ErrInvalidDeedInput
	}

	now := uc.Clock.Now().UTC()
	deedID, err := uc.IDGen.NewID(ctx)
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

	signers := make([]entities.DeedSigner, 0, len(cmd.Signers))
	for _, signer := range cmd.Signers {
		signer.DeedID = deedID
		signer.Status = entities.SignerStatusPending
		signer.SignedAt = nil
		signers = append(signers, signer)
	}

	deed := entities.Deed{
		DeedID:      deedID,
		Kind:        cmd.Kind,
		Status:      entities.DeedStatusDraft,
		ContextType: strings.TrimSpace(cmd.ContextType),
		ContextID:   strings.TrimSpace(cmd.ContextID),
		Document:    document,
		ContentHash: hash,
		Version:     1,
		Signers:     signers,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if !deed.Validate() {
		return entities.Deed{}, domainerrors.ErrInvalidDeedInput
	}

	auditID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Deed{}, err
	}
	entry, err := audit.NewEntry(auditID, actorID, "deed.created", "deed", deedID, map[string]any{
		"kind":         string(deed.Kind),
		"context_type": deed.ContextType,
		"context_id":   deed.ContextID,
		"content_hash": deed.ContentHash,
		"version":      deed.Version,
	}, now)
	if err != nil {
		return entities.Deed{}, err
	}

	if err := uc.Deeds.CreateDeed(ctx, deed, entry); err != nil {
		return entities.Deed{}, err
	}

	logger.Info("deed created",
		"event", "deed_created",
		"module", "agreements-core/deed-service",
		"layer", "application",
		"deed_id", deedID,
		"kind", string(deed.Kind),
		"content_hash", deed.ContentHash,
	)
	return deed, nil
}
