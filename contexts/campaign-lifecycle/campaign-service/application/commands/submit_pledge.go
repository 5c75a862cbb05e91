package commands

import (
	"context"
	"log/slog"
	"strings"

	application "covenant/contexts/campaign-lifecycle/campaign-service/application"
	"covenant/contexts/campaign-lifecycle/campaign-service/domain/entities"
	domainerrors "covenant/contexts/campaign-lifecycle/campaign-service/domain/errors"
	"covenant/contexts/campaign-lifecycle/campaign-service/ports"
	"covenant/internal/shared/audit"
)

type SubmitPledgeCommand struct {
	CampaignID string
	BackerID   string
	Rows       []entities.PledgeRow
}

type SubmitPledgeUseCase struct {
	Campaigns ports.CampaignRepository
	Pledges   ports.PledgeRepository
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func (uc SubmitPledgeUseCase) Execute(ctx context.Context, cmd SubmitPledgeCommand) (entities.Pledge, error) {
	logger := application.ResolveLogger(uc.Logger)

	backerID := strings.TrimSpace(cmd.BackerID)
	if backerID == "" {
		return entities.Pledge{}, domainerrors.ErrInvalidPledgeInput
	}

	campaign, err := uc.Campaigns.GetCampaign(ctx, strings.TrimSpace(cmd.CampaignID))
	if err != nil {
		return entities.Pledge{}, err
	}
	needStatus, ok := campaign.NeedStatus()
	if !ok {
		return entities.Pledge{}, domainerrors.ErrNotNeedCampaign
	}
	if needStatus != entities.NeedStatusLive {
		return entities.Pledge{}, domainerrors.ErrCampaignNotLive
	}

	now := uc.Clock.Now().UTC()
	pledgeID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Pledge{}, err
	}
	rows := make([]entities.PledgeRow, 0, len(cmd.Rows))
	for _, row := range cmd.Rows {
		rowID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return entities.Pledge{}, err
		}
		row.RowID = rowID
		rows = append(rows, row)
	}
	pledge := entities.Pledge{
		PledgeID:   pledgeID,
		CampaignID: campaign.CampaignID,
		BackerID:   backerID,
		Rows:       rows,
		CreatedAt:  now,
	}
	if !pledge.Validate() {
		return entities.Pledge{}, domainerrors.ErrInvalidPledgeInput
	}

	auditID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Pledge{}, err
	}
	entry, err := audit.NewEntry(auditID, backerID, "pledge.submitted", "pledge", pledgeID, map[string]any{
		"campaign_id": campaign.CampaignID,
		"row_count":   len(rows),
	}, now)
	if err != nil {
		return entities.Pledge{}, err
	}

	if err := uc.Pledges.AddPledge(ctx, pledge, entry); err != nil {
		return entities.Pledge{}, err
	}

	logger.Info("pledge submitted",
		"event", "pledge_submitted",
		"module", "campaign-lifecycle/campaign-service",
		"layer", "application",
		"pledge_id", pledgeID,
		"campaign_id", campaign.CampaignID,
		"backer_id", backerID,
	)
	return pledge, nil
}
