package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "covenant/contexts/campaign-lifecycle/offer-service/application"
	domainerrors "covenant/contexts/campaign-lifecycle/offer-service/domain/errors"
	"covenant/contexts/campaign-lifecycle/offer-service/ports"
	"covenant/internal/shared/audit"
	"covenant/internal/shared/events"
)

type SelectOfferCommand struct {
	CampaignID string
	OfferID    string
	ActorID    string
}

// SelectOfferUseCase runs the single-winner selection. The repository
// transaction re-reads campaign and signed offers under lock, marks the
// winner selected and every other signed offer rejected, advances the
// campaign to supplier_selected, and inserts the assignment row. Whole or
// nothing. Notifications, the selection summary audit entry, and the feed
// deed request run after the commit and never roll it back.
type SelectOfferUseCase struct {
	Offers    ports.OfferRepository
	Campaigns ports.FeedCampaignGateway
	Deeds     ports.DeedClient
	Notifier  ports.Notifier
	Audits    ports.AuditAppender
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func (uc SelectOfferUseCase) Execute(ctx context.Context, cmd SelectOfferCommand) (ports.SelectionResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	actorID := strings.TrimSpace(cmd.ActorID)
	if actorID == "" {
		return ports.SelectionResult{}, domainerrors.ErrForbidden
	}

	campaign, err := uc.Campaigns.GetFeedCampaign(ctx, strings.TrimSpace(cmd.CampaignID))
	if err != nil {
		return ports.SelectionResult{}, err
	}
	if campaign.OwnerID != actorID {
		return ports.SelectionResult{}, domainerrors.ErrForbidden
	}
	if campaign.Status != "open" {
		return ports.SelectionResult{}, domainerrors.ErrInvalidState
	}

	now := uc.Clock.Now().UTC()
	assignmentID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return ports.SelectionResult{}, err
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return ports.SelectionResult{}, err
	}
	envelope, err := events.New(eventID, "offer.selected", "offer-service", campaign.CampaignID, now, map[string]any{
		"campaign_id":   campaign.CampaignID,
		"offer_id":      strings.TrimSpace(cmd.OfferID),
		"assignment_id": assignmentID,
	})
	if err != nil {
		return ports.SelectionResult{}, err
	}

	result, err := uc.Offers.SelectOffer(ctx, ports.SelectionInput{
		CampaignID:   campaign.CampaignID,
		OfferID:      strings.TrimSpace(cmd.OfferID),
		ActorID:      actorID,
		AssignmentID: assignmentID,
		At:           now,
		Event:        &envelope,
	})
	if err != nil {
		return ports.SelectionResult{}, err
	}

	uc.afterCommit(ctx, actorID, result, now, logger)

	logger.Info("supplier offer selected",
		"event", "offer_selected",
		"module", "campaign-lifecycle/offer-service",
		"layer", "application",
		"campaign_id", result.FeedCampaignID,
		"offer_id", result.Winner.OfferID,
		"assignment_id", result.AssignmentID,
		"rejected_count", len(result.RejectedOfferIDs),
	)
	return result, nil
}

func (uc SelectOfferUseCase) afterCommit(ctx context.Context, actorID string, result ports.SelectionResult, now time.Time, logger *slog.Logger) {
	if uc.Audits != nil {
		auditID, err := uc.IDGen.NewID(ctx)
		if err == nil {
			entry, err := audit.NewEntry(auditID, actorID, "offer.selection_completed", "campaign", result.FeedCampaignID, map[string]any{
				"winning_offer_id": result.Winner.OfferID,
				"assignment_id":    result.AssignmentID,
				"signed_offers":    1 + len(result.RejectedOfferIDs),
				"rejected_offers":  len(result.RejectedOfferIDs),
			}, now)
			if err == nil {
				if err := uc.Audits.AppendAudit(ctx, entry); err != nil {
					logger.Error("selection summary audit failed",
						"event", "offer_selection_audit_failed",
						"module", "campaign-lifecycle/offer-service",
						"layer", "application",
						"campaign_id", result.FeedCampaignID,
						"error", err.Error(),
					)
				}
			}
		}
	}

	if uc.Notifier != nil {
		_ = uc.Notifier.Notify(ctx, result.Winner.SupplierID, "offer_selected", "supplier_offer", result.Winner.OfferID, map[string]any{
			"campaign_id":   result.FeedCampaignID,
			"assignment_id": result.AssignmentID,
		})
		for i, supplierID := range result.LosingSupplierIDs {
			offerID := ""
			if i < len(result.RejectedOfferIDs) {
				offerID = result.RejectedOfferIDs[i]
			}
			_ = uc.Notifier.Notify(ctx, supplierID, "offer_rejected", "supplier_offer", offerID, map[string]any{
				"campaign_id": result.FeedCampaignID,
			})
		}
	}

	if uc.Deeds != nil {
		deedID, err := uc.Deeds.CreateFeedDeed(ctx, ports.FeedDeedInput{
			FeedCampaignID: result.FeedCampaignID,
			NeedCampaignID: result.NeedCampaignID,
			OfferID:        result.Winner.OfferID,
			AssignmentID:   result.AssignmentID,
			OwnerID:        result.OwnerID,
			SupplierID:     result.Winner.SupplierID,
			Terms:          result.Winner.Terms,
			Rows:           result.Winner.Rows,
		})
		if err != nil {
			logger.Error("feed deed request failed",
				"event", "feed_deed_request_failed",
				"module", "campaign-lifecycle/offer-service",
				"layer", "application",
				"campaign_id", result.FeedCampaignID,
				"assignment_id", result.AssignmentID,
				"error", err.Error(),
			)
		} else if deedID != "" {
			logger.Info("feed deed requested",
				"event", "feed_deed_requested",
				"module", "campaign-lifecycle/offer-service",
				"layer", "application",
				"campaign_id", result.FeedCampaignID,
				"deed_id", deedID,
			)
		}
	}
}
