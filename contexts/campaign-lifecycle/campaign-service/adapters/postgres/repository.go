package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"covenant/contexts/campaign-lifecycle/campaign-service/domain/entities"
	domainerrors "covenant/contexts/campaign-lifecycle/campaign-service/domain/errors"
	"covenant/contexts/campaign-lifecycle/campaign-service/ports"
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

func (r *Repository) CreateCampaign(ctx context.Context, campaign entities.Campaign, entry audit.Entry) error {
	row, err := campaignModelFromEntity(campaign)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrInvalidCampaignInput
			}
			return err
		}
		return audit.AppendTx(tx, entry)
	})
}

func (r *Repository) GetCampaign(ctx context.Context, campaignID string) (entities.Campaign, error) {
	var row campaignModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", strings.TrimSpace(campaignID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Campaign{}, domainerrors.ErrCampaignNotFound
		}
		return entities.Campaign{}, err
	}
	return row.toEntity()
}

func (r *Repository) ListCampaigns(ctx context.Context, filter ports.CampaignFilter) ([]entities.Campaign, error) {
	tx := r.db.WithContext(ctx).Model(&campaignModel{})
	if strings.TrimSpace(filter.OwnerID) != "" {
		tx = tx.Where("owner_id = ?", strings.TrimSpace(filter.OwnerID))
	}
	if filter.Kind != "" {
		tx = tx.Where("kind = ?", string(filter.Kind))
	}
	if filter.Status != "" {
		tx = tx.Where("status_need = ? OR status_feed = ?", filter.Status, filter.Status)
	}

	var rows []campaignModel
	if err := tx.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.Campaign, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// TransitionCampaign applies one conditional status flip. The row is locked
// FOR UPDATE and the update runs only when the stored status still equals
// From, so racing sweeps and retries fail with a conflict instead of
// double-applying.
func (r *Repository) TransitionCampaign(ctx context.Context, input ports.TransitionInput) (entities.Campaign, error) {
	var updated entities.Campaign
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row campaignModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("campaign_id = ?", strings.TrimSpace(input.CampaignID)).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrCampaignNotFound
			}
			return err
		}
		if row.currentStatus() != input.From.String() {
			return domainerrors.ErrTransitionConflict
		}

		updates := map[string]any{
			"updated_at": input.At.UTC(),
		}
		switch input.To.(type) {
		case entities.NeedStatus:
			updates["status_need"] = input.To.String()
		case entities.FeedStatus:
			updates["status_feed"] = input.To.String()
		default:
			return domainerrors.ErrInvalidStateTransition
		}
		if input.To == entities.NeedStatusSeeded {
			updates["seeded_at"] = input.At.UTC()
		}
		if err := tx.Model(&campaignModel{}).
			Where("campaign_id = ?", row.CampaignID).
			Updates(updates).
			Error; err != nil {
			return err
		}
		if err := audit.AppendTx(tx, input.Audit); err != nil {
			return err
		}
		if input.Event != nil {
			if err := enqueueOutboxTx(tx, *input.Event); err != nil {
				return err
			}
		}

		var fresh campaignModel
		if err := tx.Where("campaign_id = ?", row.CampaignID).First(&fresh).Error; err != nil {
			return err
		}
		item, err := fresh.toEntity()
		if err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return entities.Campaign{}, err
	}
	return updated, nil
}

// SeedCampaign flips the need campaign live -> seeded and inserts the
// companion feed campaign in the same transaction.
func (r *Repository) SeedCampaign(ctx context.Context, input ports.SeedInput) (ports.SeedResult, error) {
	var result ports.SeedResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row campaignModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("campaign_id = ?", strings.TrimSpace(input.NeedCampaignID)).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrCampaignNotFound
			}
			return err
		}
		if row.Kind != string(entities.CampaignKindNeed) {
			return domainerrors.ErrNotNeedCampaign
		}
		if row.currentStatus() != entities.NeedStatusLive.String() {
			return domainerrors.ErrTransitionConflict
		}

		if err := tx.Model(&campaignModel{}).
			Where("campaign_id = ?", row.CampaignID).
			Updates(map[string]any{
				"status_need": entities.NeedStatusSeeded.String(),
				"updated_at":  input.At.UTC(),
				"seeded_at":   input.At.UTC(),
			}).
			Error; err != nil {
			return err
		}

		feedRow, err := campaignModelFromEntity(input.Feed)
		if err != nil {
			return err
		}
		if err := tx.Create(&feedRow).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrInvalidCampaignInput
			}
			return err
		}

		if err := audit.AppendTx(tx, input.Audits...); err != nil {
			return err
		}
		if input.Event != nil {
			if err := enqueueOutboxTx(tx, *input.Event); err != nil {
				return err
			}
		}

		var freshNeed campaignModel
		if err := tx.Where("campaign_id = ?", row.CampaignID).First(&freshNeed).Error; err != nil {
			return err
		}
		need, err := freshNeed.toEntity()
		if err != nil {
			return err
		}
		feed, err := feedRow.toEntity()
		if err != nil {
			return err
		}
		result = ports.SeedResult{Need: need, Feed: feed}
		return nil
	})
	if err != nil {
		return ports.SeedResult{}, err
	}
	return result, nil
}

func (r *Repository) DeleteCampaign(ctx context.Context, campaignID string, entry audit.Entry) error {
	id := strings.TrimSpace(campaignID)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row campaignModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("campaign_id = ?", id).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrCampaignNotFound
			}
			return err
		}
		if err := tx.
			Where("pledge_id IN (?)", tx.Model(&pledgeModel{}).Select("pledge_id").Where("campaign_id = ?", id)).
			Delete(&pledgeRowModel{}).
			Error; err != nil {
			return err
		}
		if err := tx.Where("campaign_id = ?", id).Delete(&pledgeModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("campaign_id = ?", id).Delete(&campaignModel{}).Error; err != nil {
			return err
		}
		return audit.AppendTx(tx, entry)
	})
}

// AddPledge re-checks the live need precondition under the campaign row
// lock before inserting, so a pledge can never land on a campaign that a
// racing transition just closed.
func (r *Repository) AddPledge(ctx context.Context, pledge entities.Pledge, entry audit.Entry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row campaignModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("campaign_id = ?", pledge.CampaignID).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrCampaignNotFound
			}
			return err
		}
		if row.Kind != string(entities.CampaignKindNeed) {
			return domainerrors.ErrNotNeedCampaign
		}
		if row.currentStatus() != entities.NeedStatusLive.String() {
			return domainerrors.ErrCampaignNotLive
		}

		pledgeRow := pledgeModel{
			PledgeID:   pledge.PledgeID,
			CampaignID: pledge.CampaignID,
			BackerID:   pledge.BackerID,
			CreatedAt:  pledge.CreatedAt.UTC(),
		}
		if err := tx.Create(&pledgeRow).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrInvalidPledgeInput
			}
			return err
		}
		for _, item := range pledge.Rows {
			rowModel := pledgeRowModel{
				RowID:     item.RowID,
				PledgeID:  pledge.PledgeID,
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

func (r *Repository) ListPledges(ctx context.Context, campaignID string) ([]entities.Pledge, error) {
	var pledgeRows []pledgeModel
	if err := r.db.WithContext(ctx).
		Where("campaign_id = ?", strings.TrimSpace(campaignID)).
		Order("created_at ASC").
		Find(&pledgeRows).
		Error; err != nil {
		return nil, err
	}
	if len(pledgeRows) == 0 {
		return []entities.Pledge{}, nil
	}

	ids := make([]string, 0, len(pledgeRows))
	for _, row := range pledgeRows {
		ids = append(ids, row.PledgeID)
	}
	var rowModels []pledgeRowModel
	if err := r.db.WithContext(ctx).
		Where("pledge_id IN ?", ids).
		Find(&rowModels).
		Error; err != nil {
		return nil, err
	}
	rowsByPledge := make(map[string][]entities.PledgeRow, len(pledgeRows))
	for _, row := range rowModels {
		rowsByPledge[row.PledgeID] = append(rowsByPledge[row.PledgeID], entities.PledgeRow{
			RowID:     row.RowID,
			ItemRef:   row.ItemRef,
			Quantity:  row.Quantity,
			UnitPrice: row.UnitPrice,
		})
	}

	items := make([]entities.Pledge, 0, len(pledgeRows))
	for _, row := range pledgeRows {
		items = append(items, entities.Pledge{
			PledgeID:   row.PledgeID,
			CampaignID: row.CampaignID,
			BackerID:   row.BackerID,
			Rows:       rowsByPledge[row.PledgeID],
			CreatedAt:  row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) ListDueNeedCampaigns(ctx context.Context, now time.Time, limit int) ([]entities.Campaign, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []campaignModel
	if err := r.db.WithContext(ctx).
		Where("kind = ? AND status_need = ? AND threshold_deadline IS NOT NULL AND threshold_deadline < ?",
			string(entities.CampaignKindNeed), entities.NeedStatusLive.String(), now.UTC()).
		Order("threshold_deadline ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Campaign, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
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
		return domainerrors.ErrCampaignNotFound
	}
	return nil
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

type campaignModel struct {
	CampaignID           string     `gorm:"column:campaign_id;primaryKey"`
	Kind                 string     `gorm:"column:kind"`
	OwnerID              string     `gorm:"column:owner_id"`
	Title                string     `gorm:"column:title"`
	Description          string     `gorm:"column:description"`
	Visibility           string     `gorm:"column:visibility"`
	GroupID              string     `gorm:"column:group_id"`
	SourceNeedCampaignID string     `gorm:"column:source_need_campaign_id"`
	StatusNeed           *string    `gorm:"column:status_need"`
	StatusFeed           *string    `gorm:"column:status_feed"`
	ThresholdType        *string    `gorm:"column:threshold_type"`
	ThresholdTarget      *float64   `gorm:"column:threshold_target"`
	ThresholdDeadline    *time.Time `gorm:"column:threshold_deadline"`
	DepositTerms         []byte     `gorm:"column:deposit_terms"`
	PaymentTerms         []byte     `gorm:"column:payment_terms"`
	DeliveryTerms        []byte     `gorm:"column:delivery_terms"`
	CancellationTerms    []byte     `gorm:"column:cancellation_terms"`
	CreatedAt            time.Time  `gorm:"column:created_at"`
	UpdatedAt            time.Time  `gorm:"column:updated_at"`
	SeededAt             *time.Time `gorm:"column:seeded_at"`
}

func (campaignModel) TableName() string {
	return "campaigns"
}

func (m campaignModel) currentStatus() string {
	if m.StatusNeed != nil {
		return *m.StatusNeed
	}
	if m.StatusFeed != nil {
		return *m.StatusFeed
	}
	return ""
}

func (m campaignModel) toEntity() (entities.Campaign, error) {
	item := entities.Campaign{
		CampaignID:           m.CampaignID,
		Kind:                 entities.CampaignKind(m.Kind),
		OwnerID:              m.OwnerID,
		Title:                m.Title,
		Description:          m.Description,
		Visibility:           entities.Visibility(m.Visibility),
		GroupID:              m.GroupID,
		SourceNeedCampaignID: m.SourceNeedCampaignID,
		CreatedAt:            m.CreatedAt.UTC(),
		UpdatedAt:            m.UpdatedAt.UTC(),
	}
	switch {
	case m.StatusNeed != nil:
		item.Status = entities.NeedStatus(*m.StatusNeed)
	case m.StatusFeed != nil:
		item.Status = entities.FeedStatus(*m.StatusFeed)
	default:
		return entities.Campaign{}, domainerrors.ErrInvalidCampaignInput
	}
	if m.SeededAt != nil {
		seededAt := m.SeededAt.UTC()
		item.SeededAt = &seededAt
	}
	if m.ThresholdType != nil && m.ThresholdTarget != nil && m.ThresholdDeadline != nil {
		def := entities.ThresholdDefinition{
			Type:     entities.ThresholdType(*m.ThresholdType),
			Target:   *m.ThresholdTarget,
			Deadline: m.ThresholdDeadline.UTC(),
		}
		if len(m.DepositTerms) > 0 {
			if err := json.Unmarshal(m.DepositTerms, &def.Deposit); err != nil {
				return entities.Campaign{}, err
			}
		}
		if len(m.PaymentTerms) > 0 {
			if err := json.Unmarshal(m.PaymentTerms, &def.Payment); err != nil {
				return entities.Campaign{}, err
			}
		}
		if len(m.DeliveryTerms) > 0 {
			if err := json.Unmarshal(m.DeliveryTerms, &def.Delivery); err != nil {
				return entities.Campaign{}, err
			}
		}
		if len(m.CancellationTerms) > 0 {
			if err := json.Unmarshal(m.CancellationTerms, &def.Cancellation); err != nil {
				return entities.Campaign{}, err
			}
		}
		item.Threshold = &def
	}
	return item, nil
}

func campaignModelFromEntity(item entities.Campaign) (campaignModel, error) {
	row := campaignModel{
		CampaignID:           strings.TrimSpace(item.CampaignID),
		Kind:                 string(item.Kind),
		OwnerID:              strings.TrimSpace(item.OwnerID),
		Title:                item.Title,
		Description:          item.Description,
		Visibility:           string(item.Visibility),
		GroupID:              strings.TrimSpace(item.GroupID),
		SourceNeedCampaignID: strings.TrimSpace(item.SourceNeedCampaignID),
		CreatedAt:            item.CreatedAt.UTC(),
		UpdatedAt:            item.UpdatedAt.UTC(),
	}
	switch status := item.Status.(type) {
	case entities.NeedStatus:
		value := status.String()
		row.StatusNeed = &value
	case entities.FeedStatus:
		value := status.String()
		row.StatusFeed = &value
	default:
		return campaignModel{}, domainerrors.ErrInvalidCampaignInput
	}
	if item.SeededAt != nil {
		seededAt := item.SeededAt.UTC()
		row.SeededAt = &seededAt
	}
	if item.Threshold != nil {
		thresholdType := string(item.Threshold.Type)
		target := item.Threshold.Target
		deadline := item.Threshold.Deadline.UTC()
		row.ThresholdType = &thresholdType
		row.ThresholdTarget = &target
		row.ThresholdDeadline = &deadline

		deposit, err := json.Marshal(item.Threshold.Deposit)
		if err != nil {
			return campaignModel{}, err
		}
		payment, err := json.Marshal(item.Threshold.Payment)
		if err != nil {
			return campaignModel{}, err
		}
		delivery, err := json.Marshal(item.Threshold.Delivery)
		if err != nil {
			return campaignModel{}, err
		}
		cancellation, err := json.Marshal(item.Threshold.Cancellation)
		if err != nil {
			return campaignModel{}, err
		}
		row.DepositTerms = deposit
		row.PaymentTerms = payment
		row.DeliveryTerms = delivery
		row.CancellationTerms = cancellation
	}
	return row, nil
}

type pledgeModel struct {
	PledgeID   string    `gorm:"column:pledge_id;primaryKey"`
	CampaignID string    `gorm:"column:campaign_id"`
	BackerID   string    `gorm:"column:backer_id"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (pledgeModel) TableName() string {
	return "pledges"
}

type pledgeRowModel struct {
	RowID     string  `gorm:"column:row_id;primaryKey"`
	PledgeID  string  `gorm:"column:pledge_id"`
	ItemRef   string  `gorm:"column:item_ref"`
	Quantity  int64   `gorm:"column:quantity"`
	UnitPrice float64 `gorm:"column:unit_price"`
}

func (pledgeRowModel) TableName() string {
	return "pledge_rows"
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
		Payload:      json.RawMessage(append([]byte(nil), m.Payload...)),
		Status:       m.Status,
		RetryCount:   m.RetryCount,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}
