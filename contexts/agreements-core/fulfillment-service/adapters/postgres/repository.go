package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"covenant/contexts/agreements-core/fulfillment-service/domain/entities"
	domainerrors "covenant/contexts/agreements-core/fulfillment-service/domain/errors"
	"covenant/contexts/agreements-core/fulfillment-service/ports"
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

func (r *Repository) GetAssignment(ctx context.Context, assignmentID string) (entities.Assignment, error) {
	var row assignmentModel
	err := r.db.WithContext(ctx).
		Where("assignment_id = ?", strings.TrimSpace(assignmentID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Assignment{}, domainerrors.ErrAssignmentNotFound
		}
		return entities.Assignment{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) LinkDeed(ctx context.Context, assignmentID, deedID string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&assignmentModel{}).
		Where("assignment_id = ?", strings.TrimSpace(assignmentID)).
		Updates(map[string]any{
			"deed_id":    strings.TrimSpace(deedID),
			"updated_at": at.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrAssignmentNotFound
	}
	return nil
}

func (r *Repository) CreateMilestone(ctx context.Context, milestone entities.Milestone, event entities.FulfillmentEvent) error {
	row := milestoneModelFromEntity(milestone)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrInvalidMilestoneInput
			}
			return err
		}
		return appendEventTx(tx, event)
	})
}

func (r *Repository) GetMilestone(ctx context.Context, milestoneID string) (entities.Milestone, error) {
	var row milestoneModel
	err := r.db.WithContext(ctx).
		Where("milestone_id = ?", strings.TrimSpace(milestoneID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Milestone{}, domainerrors.ErrMilestoneNotFound
		}
		return entities.Milestone{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListMilestones(ctx context.Context, assignmentID string) ([]entities.Milestone, error) {
	var rows []milestoneModel
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", strings.TrimSpace(assignmentID)).
		Order("created_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Milestone, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) UpdateMilestone(ctx context.Context, input ports.UpdateMilestoneInput) (entities.Milestone, error) {
	var updated entities.Milestone
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row milestoneModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("milestone_id = ?", strings.TrimSpace(input.MilestoneID)).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrMilestoneNotFound
			}
			return err
		}
		if row.Status != string(input.From) {
			return domainerrors.ErrInvalidState
		}
		values := map[string]any{
			"status":     string(input.To),
			"updated_at": input.At.UTC(),
		}
		if input.ProofURL != "" {
			values["proof_url"] = input.ProofURL
		}
		if input.Notes != "" {
			values["notes"] = input.Notes
		}
		result := tx.Model(&milestoneModel{}).
			Where("milestone_id = ? AND status = ?", row.MilestoneID, string(input.From)).
			Updates(values)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrInvalidState
		}
		if err := appendEventTx(tx, input.Event); err != nil {
			return err
		}

		var fresh milestoneModel
		if err := tx.Where("milestone_id = ?", row.MilestoneID).First(&fresh).Error; err != nil {
			return err
		}
		updated = fresh.toEntity()
		return nil
	})
	if err != nil {
		return entities.Milestone{}, err
	}
	return updated, nil
}

// ConfirmMilestone accepts one delivered milestone and recomputes the
// aggregate from current rows inside the same transaction. The assignment
// row lock serializes concurrent confirmations so the last one to commit
// sees every milestone accepted.
func (r *Repository) ConfirmMilestone(ctx context.Context, input ports.ConfirmInput) (ports.ConfirmResult, error) {
	var result ports.ConfirmResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var milestone milestoneModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("milestone_id = ?", strings.TrimSpace(input.MilestoneID)).
			First(&milestone).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrMilestoneNotFound
			}
			return err
		}
		if milestone.Status != string(entities.MilestoneStatusDelivered) {
			return domainerrors.ErrInvalidState
		}

		var assignment assignmentModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("assignment_id = ?", milestone.AssignmentID).
			First(&assignment).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrAssignmentNotFound
			}
			return err
		}
		if assignment.Status != string(entities.AssignmentStatusActive) {
			return domainerrors.ErrInvalidState
		}

		accept := tx.Model(&milestoneModel{}).
			Where("milestone_id = ? AND status = ?", milestone.MilestoneID, string(entities.MilestoneStatusDelivered)).
			Updates(map[string]any{
				"status":     string(entities.MilestoneStatusAccepted),
				"updated_at": input.At.UTC(),
			})
		if accept.Error != nil {
			return accept.Error
		}
		if accept.RowsAffected == 0 {
			return domainerrors.ErrConfirmConflict
		}
		if err := appendEventTx(tx, input.Event); err != nil {
			return err
		}

		var remaining int64
		if err := tx.Model(&milestoneModel{}).
			Where("assignment_id = ? AND status <> ?", assignment.AssignmentID, string(entities.MilestoneStatusAccepted)).
			Count(&remaining).
			Error; err != nil {
			return err
		}

		fulfilled := remaining == 0
		if fulfilled {
			flip := tx.Model(&assignmentModel{}).
				Where("assignment_id = ? AND status = ?", assignment.AssignmentID, string(entities.AssignmentStatusActive)).
				Updates(map[string]any{
					"status":       string(entities.AssignmentStatusFulfilled),
					"fulfilled_at": input.At.UTC(),
					"updated_at":   input.At.UTC(),
				})
			if flip.Error != nil {
				return flip.Error
			}
			if flip.RowsAffected == 0 {
				return domainerrors.ErrConfirmConflict
			}
			if err := appendEventTx(tx, input.AggregateEvent); err != nil {
				return err
			}
			if input.Envelope != nil {
				if err := enqueueOutboxTx(tx, *input.Envelope); err != nil {
					return err
				}
			}
		}

		var freshMilestone milestoneModel
		if err := tx.Where("milestone_id = ?", milestone.MilestoneID).First(&freshMilestone).Error; err != nil {
			return err
		}
		var freshAssignment assignmentModel
		if err := tx.Where("assignment_id = ?", assignment.AssignmentID).First(&freshAssignment).Error; err != nil {
			return err
		}
		result = ports.ConfirmResult{
			Milestone:  freshMilestone.toEntity(),
			Assignment: freshAssignment.toEntity(),
			Fulfilled:  fulfilled,
		}
		return nil
	})
	if err != nil {
		return ports.ConfirmResult{}, err
	}
	return result, nil
}

func (r *Repository) FlagDisputed(ctx context.Context, input ports.DisputeFlagInput) (entities.Assignment, error) {
	var updated entities.Assignment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var assignment assignmentModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("assignment_id = ?", strings.TrimSpace(input.AssignmentID)).
			First(&assignment).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrAssignmentNotFound
			}
			return err
		}
		if assignment.Status != string(entities.AssignmentStatusActive) {
			return domainerrors.ErrInvalidState
		}
		result := tx.Model(&assignmentModel{}).
			Where("assignment_id = ? AND status = ?", assignment.AssignmentID, string(entities.AssignmentStatusActive)).
			Updates(map[string]any{
				"status":     string(entities.AssignmentStatusDisputed),
				"updated_at": input.At.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrInvalidState
		}
		if input.MilestoneID != "" {
			if err := tx.Model(&milestoneModel{}).
				Where("milestone_id = ? AND assignment_id = ?", input.MilestoneID, assignment.AssignmentID).
				Updates(map[string]any{
					"status":     string(entities.MilestoneStatusDisputed),
					"updated_at": input.At.UTC(),
				}).
				Error; err != nil {
				return err
			}
		}
		if err := appendEventTx(tx, input.Event); err != nil {
			return err
		}

		var fresh assignmentModel
		if err := tx.Where("assignment_id = ?", assignment.AssignmentID).First(&fresh).Error; err != nil {
			return err
		}
		updated = fresh.toEntity()
		return nil
	})
	if err != nil {
		return entities.Assignment{}, err
	}
	return updated, nil
}

func (r *Repository) ListFulfillmentEvents(ctx context.Context, assignmentID string) ([]entities.FulfillmentEvent, error) {
	var rows []fulfillmentEventModel
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", strings.TrimSpace(assignmentID)).
		Order("created_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.FulfillmentEvent, 0, len(rows))
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
		return domainerrors.ErrAssignmentNotFound
	}
	return nil
}

func appendEventTx(tx *gorm.DB, event entities.FulfillmentEvent) error {
	row, err := eventModelFromEntity(event)
	if err != nil {
		return err
	}
	return tx.Create(&row).Error
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

type assignmentModel struct {
	AssignmentID   string     `gorm:"column:assignment_id;primaryKey"`
	NeedCampaignID string     `gorm:"column:need_campaign_id"`
	FeedCampaignID string     `gorm:"column:feed_campaign_id"`
	OfferID        string     `gorm:"column:offer_id"`
	SupplierID     string     `gorm:"column:supplier_id"`
	OwnerID        string     `gorm:"column:owner_id"`
	DeedID         string     `gorm:"column:deed_id"`
	Status         string     `gorm:"column:status"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
	FulfilledAt    *time.Time `gorm:"column:fulfilled_at"`
}

func (assignmentModel) TableName() string {
	return "assignments"
}

func (m assignmentModel) toEntity() entities.Assignment {
	item := entities.Assignment{
		AssignmentID:   m.AssignmentID,
		NeedCampaignID: m.NeedCampaignID,
		FeedCampaignID: m.FeedCampaignID,
		OfferID:        m.OfferID,
		SupplierID:     m.SupplierID,
		OwnerID:        m.OwnerID,
		DeedID:         m.DeedID,
		Status:         entities.AssignmentStatus(m.Status),
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
	if m.FulfilledAt != nil {
		fulfilledAt := m.FulfilledAt.UTC()
		item.FulfilledAt = &fulfilledAt
	}
	return item
}

type milestoneModel struct {
	MilestoneID  string     `gorm:"column:milestone_id;primaryKey"`
	AssignmentID string     `gorm:"column:assignment_id"`
	Title        string     `gorm:"column:title"`
	Description  string     `gorm:"column:description"`
	DueAt        *time.Time `gorm:"column:due_at"`
	Status       string     `gorm:"column:status"`
	ProofURL     string     `gorm:"column:proof_url"`
	Notes        string     `gorm:"column:notes"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (milestoneModel) TableName() string {
	return "milestones"
}

func (m milestoneModel) toEntity() entities.Milestone {
	item := entities.Milestone{
		MilestoneID:  m.MilestoneID,
		AssignmentID: m.AssignmentID,
		Title:        m.Title,
		Description:  m.Description,
		Status:       entities.MilestoneStatus(m.Status),
		ProofURL:     m.ProofURL,
		Notes:        m.Notes,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
	if m.DueAt != nil {
		dueAt := m.DueAt.UTC()
		item.DueAt = &dueAt
	}
	return item
}

func milestoneModelFromEntity(item entities.Milestone) milestoneModel {
	row := milestoneModel{
		MilestoneID:  strings.TrimSpace(item.MilestoneID),
		AssignmentID: strings.TrimSpace(item.AssignmentID),
		Title:        item.Title,
		Description:  item.Description,
		Status:       string(item.Status),
		ProofURL:     item.ProofURL,
		Notes:        item.Notes,
		CreatedAt:    item.CreatedAt.UTC(),
		UpdatedAt:    item.UpdatedAt.UTC(),
	}
	if item.DueAt != nil {
		dueAt := item.DueAt.UTC()
		row.DueAt = &dueAt
	}
	return row
}

type fulfillmentEventModel struct {
	EventID      string    `gorm:"column:event_id;primaryKey"`
	AssignmentID string    `gorm:"column:assignment_id"`
	MilestoneID  string    `gorm:"column:milestone_id"`
	ActorID      string    `gorm:"column:actor_id"`
	EventType    string    `gorm:"column:event_type"`
	Payload      []byte    `gorm:"column:payload"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (fulfillmentEventModel) TableName() string {
	return "fulfillment_events"
}

func (m fulfillmentEventModel) toEntity() (entities.FulfillmentEvent, error) {
	item := entities.FulfillmentEvent{
		EventID:      m.EventID,
		AssignmentID: m.AssignmentID,
		MilestoneID:  m.MilestoneID,
		ActorID:      m.ActorID,
		EventType:    m.EventType,
		CreatedAt:    m.CreatedAt.UTC(),
	}
	if len(m.Payload) > 0 {
		if err := json.Unmarshal(m.Payload, &item.Payload); err != nil {
			return entities.FulfillmentEvent{}, err
		}
	}
	return item, nil
}

func eventModelFromEntity(item entities.FulfillmentEvent) (fulfillmentEventModel, error) {
	row := fulfillmentEventModel{
		EventID:      strings.TrimSpace(item.EventID),
		AssignmentID: strings.TrimSpace(item.AssignmentID),
		MilestoneID:  strings.TrimSpace(item.MilestoneID),
		ActorID:      strings.TrimSpace(item.ActorID),
		EventType:    item.EventType,
		CreatedAt:    item.CreatedAt.UTC(),
	}
	if len(item.Payload) > 0 {
		payload, err := json.Marshal(item.Payload)
		if err != nil {
			return fulfillmentEventModel{}, err
		}
		row.Payload = payload
	}
	return row, nil
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
