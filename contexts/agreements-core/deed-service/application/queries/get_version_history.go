package queries

import (
	"context"
	"log/slog"
	"strings"

	"covenant/contexts/agreements-core/deed-service/domain/entities"
	"covenant/contexts/agreements-core/deed-service/ports"
)

// GetVersionHistoryUseCase reconstructs the full version chain from any
// version the caller happens to hold: backward via prev_deed_id, forward
// via the successor lookup. The result is ordered by version ascending.
type GetVersionHistoryUseCase struct {
	Deeds  ports.DeedRepository
	Logger *slog.Logger
}

func (uc GetVersionHistoryUseCase) Execute(ctx context.Context, deedID string) ([]entities.Deed, error) {
	start, err := uc.Deeds.GetDeed(ctx, strings.TrimSpace(deedID))
	if err != nil {
		return nil, err
	}

	chain := []entities.Deed{start}

	current := start
	for current.PrevDeedID != "" {
		prior, err := uc.Deeds.GetDeed(ctx, current.PrevDeedID)
		if err != nil {
			return nil, err
		}
		chain = append([]entities.Deed{prior}, chain...)
		current = prior
	}

	current = start
	for {
		next, exists, err := uc.Deeds.GetBySuccessor(ctx, current.DeedID)
		if err != nil {
			return nil, err
		}
		if !exists {
			break
		}
		chain = append(chain, next)
		current = next
	}

	return chain, nil
}
