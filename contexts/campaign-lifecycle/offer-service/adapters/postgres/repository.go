package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"covenant/contexts/campaign-lifecycle/offer-service/domain/entities"
	domainerrors "covenant/contexts/campaign-lifecycle/offer-service/domain/errors"
	"covenant/contexts/campaign-lifecycle/offer-service/ports"
	"covenant/internal/shared/audit"
	"covenant/internal/shared/outbox"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) GetFeedCampaign(ctx context.Context, campaignID string) (ports.FeedCampaignView, error) {
	var row feedCampaignModel
	err := r.db.WithContext(ctx).
		Table("campaigns").
		Select("campaign_id, owner_id, kind, status_feed, source_need_campaign_id").
		Where("campaign_id = ?", strings.TrimSpace(campaignID)).
		Take(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.FeedCampaignView{}, domainerrors.ErrCampaignNotFound
		}
		return ports.FeedCampaignView{}, err
	}
	if row.Kind != "feed" {
		return ports.FeedCampaignView{}, domainerrors.ErrCampaignNotFound
	}
	return row.toView(), nil
}

func (r *Repository) CreateOffer(ctx context.Context, offer entities.SupplierOffer, entry audit.Entry) error {
	row, err := offerModelFromEntity(offer)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrInvalidOfferInput
			}
			return err
		}
		for _, item := range offer.Rows {
			rowModel := offerRowModel{
				RowID:     item.RowID,
				OfferID:   offer.OfferID,
				ItemRef:   item.ItemRef,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			}
			if err := tx.Create(&rowModel).Error; err != nil {
				return err
			}
		}
		return audit.AppendTx(tx, entry)
	})
}

func (r *Repository) GetOffer(ctx context.Context, offerID string) (entities.SupplierOffer, error) {
	var row offerModel
	err := r.db.WithContext(ctx).
		Where("offer_id = ?", strings.TrimSpace(offerID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.SupplierOffer{}, domainerrors.ErrOfferNotFound
		}
		return entities.SupplierOffer{}, err
	}
	rows, err := r.loadRows(ctx, r.db, []string{row.OfferID})
	if err != nil {
		return entities.SupplierOffer{}, err
	}
	return row.toEntity(rows[row.OfferID])
}

func (r *Repository) ListOffersByCampaign(ctx context.Context, campaignID string) ([]entities.SupplierOffer, error) {
	var rows []offerModel
	if err := r.db.WithContext(ctx).
		Where("campaign_id = ?", strings.TrimSpace(campaignID)).
		Order("created_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.OfferID)
	}
	rowsByOffer, err := r.loadRows(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	items := make([]entities.SupplierOffer, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity(rowsByOffer[row.OfferID])
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *Repository) SignOffer(ctx context.Context, offerID string, supplierID string, at time.Time, entry audit.Entry) (entities.SupplierOffer, error) {
	var signed entities.SupplierOffer
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row offerModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("offer_id = ?", strings.TrimSpace(offerID)).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrOfferNotFound
			}
			return err
		}
		if row.SupplierID != supplierID {
			return domainerrors.ErrForbidden
		}
		if row.Status != string(entities.OfferStatusSubmitted) {
			return domainerrors.ErrInvalidState
		}
		if err := tx.Model(&offerModel{}).
			Where("offer_id = ? AND status = ?", row.OfferID, string(entities.OfferStatusSubmitted)).
			Updates(map[string]any{
				"status":     string(entities.OfferStatusSigned),
				"signed_at":  at.UTC(),
				"updated_at": at.UTC(),
			}).
			Error; err != nil {
			return err
		}
		if err := audit.AppendTx(tx, entry); err != nil {
			return err
		}

		var fresh offerModel
		if err := tx.Where("offer_id = ?", row.OfferID).First(&fresh).Error; err != nil {
			return err
		}
		rows, err := r.loadRows(ctx, tx, []string{row.OfferID})
		if err != nil {
			return err
		}
		item, err := fresh.toEntity(rows[row.OfferID])
		if err != nil {
			return err
		}
		signed = item
		return nil
	})
	if err != nil {
		return entities.SupplierOffer{}, err
	}
	return signed, nil
}

// SelectOffer is the single-winner protocol. One transaction locks the
// campaign row, re-reads the signed offers under lock, promotes the winner,
// rejects the rest, advances the campaign, and inserts the assignment row.
// The unique feed_campaign_id constraint on assignments backs up the
// conditional status update.
func (r *Repository) SelectOffer(ctx context.Context, input ports.SelectionInput) (ports.SelectionResult, error) {
	var result ports.SelectionResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var campaign feedCampaignModel
		if err := tx.Table("campaigns").
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("campaign_id, owner_id, kind, status_feed, source_need_campaign_id").
			Where("campaign_id = ?", strings.TrimSpace(input.CampaignID)).
			Take(&campaign).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrCampaignNotFound
			}
			return err
		}
		if campaign.Kind != "feed" {
			return domainerrors.ErrCampaignNotFound
		}
		if campaign.StatusFeed == nil || *campaign.StatusFeed != "open" {
			return domainerrors.ErrInvalidState
		}
		if campaign.OwnerID != strings.TrimSpace(input.ActorID) {
			return domainerrors.ErrForbidden
		}

		var offers []offerModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("campaign_id = ? AND status = ?", campaign.CampaignID, string(entities.OfferStatusSigned)).
			Order("created_at ASC").
			Find(&offers).
			Error; err != nil {
			return err
		}

		var winner *offerModel
		rejectedIDs := make([]string, 0, len(offers))
		losingSuppliers := make([]string, 0, len(offers))
		for i := range offers {
			if offers[i].OfferID == strings.TrimSpace(input.OfferID) {
				winner = &offers[i]
				continue
			}
			rejectedIDs = append(rejectedIDs, offers[i].OfferID)
			losingSuppliers = append(losingSuppliers, offers[i].SupplierID)
		}
		if winner == nil {
			var target offerModel
			err := tx.Where("offer_id = ? AND campaign_id = ?", strings.TrimSpace(input.OfferID), campaign.CampaignID).
				Take(&target).
				Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domainerrors.ErrOfferNotFound
				}
				return err
			}
			return domainerrors.ErrOfferNotSigned
		}

		if err := tx.Model(&offerModel{}).
			Where("offer_id = ? AND status = ?", winner.OfferID, string(entities.OfferStatusSigned)).
			Updates(map[string]any{
				"status":     string(entities.OfferStatusSelected),
				"updated_at": input.At.UTC(),
			}).
			Error; err != nil {
			return err
		}
		if len(rejectedIDs) > 0 {
			if err := tx.Model(&offerModel{}).
				Where("offer_id IN ? AND status = ?", rejectedIDs, string(entities.OfferStatusSigned)).
				Updates(map[string]any{
					"status":     string(entities.OfferStatusRejected),
					"updated_at": input.At.UTC(),
				}).
				Error; err != nil {
				return err
			}
		}

		campaignUpdate := tx.Table("campaigns").
			Where("campaign_id = ? AND status_feed = ?", campaign.CampaignID, "open").
			Updates(map[string]any{
				"status_feed": "supplier_selected",
				"updated_at":  input.At.UTC(),
			})
		if campaignUpdate.Error != nil {
			return campaignUpdate.Error
		}
		if campaignUpdate.RowsAffected == 0 {
			return domainerrors.ErrInvalidState
		}

		assignment := assignmentModel{
			AssignmentID:   input.AssignmentID,
			NeedCampaignID: campaign.SourceNeedCampaignID,
			FeedCampaignID: campaign.CampaignID,
			OfferID:        winner.OfferID,
			SupplierID:     winner.SupplierID,
			OwnerID:        campaign.OwnerID,
			Status:         "active",
			CreatedAt:      input.At.UTC(),
			UpdatedAt:      input.At.UTC(),
		}
		if err := tx.Create(&assignment).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrInvalidState
			}
			return err
		}

		selectEntry, err := audit.NewEntry(uuid.NewString(), input.ActorID, "offer.selected", "supplier_offer", winner.OfferID, map[string]any{
			"campaign_id":   campaign.CampaignID,
			"assignment_id": input.AssignmentID,
		}, input.At)
		if err != nil {
			return err
		}
		entries := []audit.Entry{selectEntry}
		for _, offerID := range rejectedIDs {
			rejectEntry, err := audit.NewEntry(uuid.NewString(), input.ActorID, "offer.rejected", "supplier_offer", offerID, map[string]any{
				"campaign_id":      campaign.CampaignID,
				"winning_offer_id": winner.OfferID,
			}, input.At)
			if err != nil {
				return err
			}
			entries = append(entries, rejectEntry)
		}
		if err := audit.AppendTx(tx, entries...); err != nil {
			return err
		}
		if input.Event != nil {
			if err := enqueueOutboxTx(tx, *input.Event); err != nil {
				return err
			}
		}

		rows, err := r.loadRows(ctx, tx, []string{winner.OfferID})
		if err != nil {
			return err
		}
		winner.Status = string(entities.OfferStatusSelected)
		winner.UpdatedAt = input.At.UTC()
		winnerEntity, err := winner.toEntity(rows[winner.OfferID])
		if err != nil {
			return err
		}
		result = ports.SelectionResult{
			Winner:            winnerEntity,
			RejectedOfferIDs:  rejectedIDs,
			LosingSupplierIDs: losingSuppliers,
			AssignmentID:      input.AssignmentID,
			NeedCampaignID:    campaign.SourceNeedCampaignID,
			FeedCampaignID:    campaign.CampaignID,
			OwnerID:           campaign.OwnerID,
		}
		return nil
	})
	if err != nil {
		return ports.SelectionResult{}, err
	}
	return result, nil
}

func (r *Repository) AppendAudit(ctx context.Context, entries ...audit.Entry) error {
	return audit.AppendTx(r.db.WithContext(ctx), entries...)
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]outbox.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outbox.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]outbox.Message, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toMessage())
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outbox.StatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrOfferNotFound
	}
	return nil
}

func (r *Repository) loadRows(ctx context.Context, tx *gorm.DB, offerIDs []string) (map[string][]entities.OfferRow, error) {
	result := make(map[string][]entities.OfferRow, len(offerIDs))
	if len(offerIDs) == 0 {
		return result, nil
	}
	var rows []offerRowModel
	if err := tx.WithContext(ctx).
		Where("offer_id IN ?", offerIDs).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.OfferID] = append(result[row.OfferID], entities.OfferRow{
			RowID:     row.RowID,
			ItemRef:   row.ItemRef,
			Quantity:  row.Quantity,
			UnitPrice: row.UnitPrice,
		})
	}
	return result, nil
}

func enqueueOutboxTx(tx *gorm.DB, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outbox.StatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return tx.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "outbox_id"}},
			DoNothing: true,
		}).
		Create(&row).
		Error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

type feedCampaignModel struct {
	CampaignID           string  `gorm:"column:campaign_id"`
	OwnerID              string  `gorm:"column:owner_id"`
	Kind                 string  `gorm:"column:kind"`
	StatusFeed           *string `gorm:"column:status_feed"`
	SourceNeedCampaignID string  `gorm:"column:source_need_campaign_id"`
}

func (m feedCampaignModel) toView() ports.FeedCampaignView {
	status := ""
	if m.StatusFeed != nil {
		status = *m.StatusFeed
	}
	return ports.FeedCampaignView{
		CampaignID:           m.CampaignID,
		OwnerID:              m.OwnerID,
		Status:               status,
		SourceNeedCampaignID: m.SourceNeedCampaignID,
	}
}

type offerModel struct {
	OfferID      string     `gorm:"column:offer_id;primaryKey"`
	CampaignID   string     `gorm:"column:campaign_id"`
	SupplierID   string     `gorm:"column:supplier_id"`
	Status       string     `gorm:"column:status"`
	DeliveryDays int        `gorm:"column:delivery_days"`
	Notes        string     `gorm:"column:notes"`
	ExtraTerms   []byte     `gorm:"column:extra_terms"`
	SignedAt     *time.Time `gorm:"column:signed_at"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (offerModel) TableName() string {
	return "supplier_offers"
}

func (m offerModel) toEntity(rows []entities.OfferRow) (entities.SupplierOffer, error) {
	item := entities.SupplierOffer{
		OfferID:    m.OfferID,
		CampaignID: m.CampaignID,
		SupplierID: m.SupplierID,
		Status:     entities.OfferStatus(m.Status),
		Rows:       rows,
		Terms: entities.OfferTerms{
			DeliveryDays: m.DeliveryDays,
			Notes:        m.Notes,
		},
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
	if len(m.ExtraTerms) > 0 {
		if err := json.Unmarshal(m.ExtraTerms, &item.Terms.Extra); err != nil {
			return entities.SupplierOffer{}, err
		}
	}
	if m.SignedAt != nil {
		signedAt := m.SignedAt.UTC()
		item.SignedAt = &signedAt
	}
	return item, nil
}

func offerModelFromEntity(item entities.SupplierOffer) (offerModel, error) {
	row := offerModel{
		OfferID:      strings.TrimSpace(item.OfferID),
		CampaignID:   strings.TrimSpace(item.CampaignID),
		SupplierID:   strings.TrimSpace(item.SupplierID),
		Status:       string(item.Status),
		DeliveryDays: item.Terms.DeliveryDays,
		Notes:        item.Terms.Notes,
		CreatedAt:    item.CreatedAt.UTC(),
		UpdatedAt:    item.UpdatedAt.UTC(),
	}
	if len(item.Terms.Extra) > 0 {
		extra, err := json.Marshal(item.Terms.Extra)
		if err != nil {
			return offerModel{}, err
		}
		row.ExtraTerms = extra
	}
	if item.SignedAt != nil {
		signedAt := item.SignedAt.UTC()
		row.SignedAt = &signedAt
	}
	return row, nil
}

type offerRowModel struct {
	RowID     string  `gorm:"column:row_id;primaryKey"`
	OfferID   string  `gorm:"column:offer_id"`
	ItemRef   string  `gorm:"column:item_ref"`
	Quantity  int64   `gorm:"column:quantity"`
	UnitPrice float64 `gorm:"column:unit_price"`
}

func (offerRowModel) TableName() string {
	return "offer_rows"
}

type assignmentModel struct {
	AssignmentID   string    `gorm:"column:assignment_id;primaryKey"`
	NeedCampaignID string    `gorm:"column:need_campaign_id"`
	FeedCampaignID string    `gorm:"column:feed_campaign_id"`
	OfferID        string    `gorm:"column:offer_id"`
	SupplierID     string    `gorm:"column:supplier_id"`
	OwnerID        string    `gorm:"column:owner_id"`
	Status         string    `gorm:"column:status"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (assignmentModel) TableName() string {
	return "assignments"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	RetryCount   int        `gorm:"column:retry_count"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "outbox"
}

func (m outboxModel) toMessage() outbox.Message {
	return outbox.Message{
		OutboxID:     m.OutboxID,
		EventType:    m.EventType,
		PartitionKey: m.PartitionKey,
		Payload:      append([]byte(nil), m.Payload...),
		Status:       m.Status,
		RetryCount:   m.RetryCount,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}
