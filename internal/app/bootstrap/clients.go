package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	deedcommands "covenant/contexts/agreements-core/deed-service/application/commands"
	deedentities "covenant/contexts/agreements-core/deed-service/domain/entities"
	fulfillmentcommands "covenant/contexts/agreements-core/fulfillment-service/application/commands"
	offerports "covenant/contexts/campaign-lifecycle/offer-service/ports"
	authzqueries "covenant/contexts/identity-access/authorization-service/application/queries"
)

// permissionClient adapts the authorization module to the PermissionChecker
// port every other service declares.
type permissionClient struct {
	check authzqueries.CheckPermissionUseCase
}

func (c permissionClient) HasAnyRole(ctx context.Context, userID string, roles ...string) (bool, error) {
	return c.check.Execute(ctx, authzqueries.CheckPermissionQuery{
		UserID: userID,
		Roles:  roles,
	})
}

// deedClient creates the binding feed deed after a supplier selection
// commits, opens it for signature, and stamps it onto the assignment.
type deedClient struct {
	create deedcommands.CreateDeedUseCase
	open   deedcommands.OpenForSignatureUseCase
	attach fulfillmentcommands.AttachDeedUseCase
	logger *slog.Logger
}

func (c deedClient) CreateFeedDeed(ctx context.Context, input offerports.FeedDeedInput) (string, error) {
	rows := make([]deedentities.DocumentRow, 0, len(input.Rows))
	for _, row := range input.Rows {
		rows = append(rows, deedentities.DocumentRow{
			ItemRef:   row.ItemRef,
			Quantity:  row.Quantity,
			UnitPrice: row.UnitPrice,
		})
	}
	terms := map[string]any{
		"delivery_days": input.Terms.DeliveryDays,
		"notes":         input.Terms.Notes,
	}
	for key, value := range input.Terms.Extra {
		terms[key] = value
	}

	deed, err := c.create.Execute(ctx, deedcommands.CreateDeedCommand{
		ActorID:     input.OwnerID,
		Kind:        deedentities.DeedKindFeed,
		ContextType: "assignment",
		ContextID:   input.AssignmentID,
		Document: deedentities.DeedDocument{
			Title:     fmt.Sprintf("Supply deed for campaign %s", input.FeedCampaignID),
			ContextID: input.FeedCampaignID,
			Terms:     terms,
			Rows:      rows,
		},
		Signers: []deedentities.DeedSigner{
			{UserID: input.OwnerID, Kind: deedentities.SignerKindBacker},
			{UserID: input.SupplierID, Kind: deedentities.SignerKindSupplier},
		},
	})
	if err != nil {
		return "", err
	}

	if _, err := c.open.Execute(ctx, deedcommands.OpenForSignatureCommand{
		DeedID:  deed.DeedID,
		ActorID: input.OwnerID,
	}); err != nil {
		return "", err
	}

	if err := c.attach.Execute(ctx, fulfillmentcommands.AttachDeedCommand{
		AssignmentID: input.AssignmentID,
		DeedID:       deed.DeedID,
	}); err != nil {
		// The deed exists; only the assignment link is missing. Log and
		// surface so the caller records the failure.
		if c.logger != nil {
			c.logger.Error("deed attach failed",
				"event", "bootstrap_deed_attach_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"assignment_id", input.AssignmentID,
				"deed_id", deed.DeedID,
				"error", err.Error(),
			)
		}
		return "", err
	}
	return deed.DeedID, nil
}

// assignmentDisputeClient freezes the disputed assignment through the
// fulfillment module.
type assignmentDisputeClient struct {
	flag fulfillmentcommands.FlagDisputedUseCase
}

func (c assignmentDisputeClient) FlagDisputed(ctx context.Context, assignmentID, milestoneID, actorID, reason string) error {
	_, err := c.flag.Execute(ctx, fulfillmentcommands.FlagDisputedCommand{
		AssignmentID: assignmentID,
		MilestoneID:  milestoneID,
		ActorID:      actorID,
		Reason:       reason,
	})
	return err
}
