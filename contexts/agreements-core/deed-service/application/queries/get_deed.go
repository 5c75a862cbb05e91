package queries

import (
	"context"
	"log/slog"
	"strings"

	"covenant/contexts/agreements-core/deed-service/domain/entities"
	"covenant/contexts/agreements-core/deed-service/ports"
)

type GetDeedUseCase struct {
	Deeds  ports.DeedRepository
	Logger *slog.Logger
}

func (uc GetDeedUseCase) Execute(ctx context.Context, deedID string) (entities.Deed, error) {
	return uc.Deeds.GetDeed(ctx, strings.TrimSpace(deedID))
}
