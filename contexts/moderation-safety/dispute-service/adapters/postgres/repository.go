package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"covenant/contexts/moderation-safety/dispute-service/domain/entities"
	domainerrors "covenant/contexts/moderation-safety/dispute-service/domain/errors"
	"covenant/contexts/moderation-safety/dispute-service/ports"
	"covenant/internal/shared/audit"

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

func (r *Repository) CreateDispute(ctx context.Context, dispute entities.Dispute, entry audit.Entry) error {
	row := modelFromDispute(dispute)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrInvalidDisputeInput
			}
			return err
		}
		return audit.AppendTx(tx, entry)
	})
}

func (r *Repository) GetDispute(ctx context.Context, disputeID string) (entities.Dispute, error) {
	var row disputeModel
	err := r.db.WithContext(ctx).
		Where("dispute_id = ?", strings.TrimSpace(disputeID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Dispute{}, domainerrors.ErrDisputeNotFound
		}
		return entities.Dispute{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) TransitionDispute(ctx context.Context, input ports.TransitionInput) (entities.Dispute, error) {
	var updated entities.Dispute
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row disputeModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("dispute_id = ?", strings.TrimSpace(input.DisputeID)).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrDisputeNotFound
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
		if input.ResolvedAt != nil {
			values["resolution_notes"] = input.ResolutionNotes
			values["resolver_id"] = input.ResolverID
			values["resolved_at"] = input.ResolvedAt.UTC()
		}
		result := tx.Model(&disputeModel{}).
			Where("dispute_id = ? AND status = ?", row.DisputeID, string(input.From)).
			Updates(values)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrInvalidState
		}
		if err := audit.AppendTx(tx, input.Audit); err != nil {
			return err
		}

		var fresh disputeModel
		if err := tx.Where("dispute_id = ?", row.DisputeID).First(&fresh).Error; err != nil {
			return err
		}
		updated = fresh.toEntity()
		return nil
	})
	if err != nil {
		return entities.Dispute{}, err
	}
	return updated, nil
}

func (r *Repository) Get(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ? AND expires_at > ?", strings.TrimSpace(key), now.UTC()).
		Take(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, err
	}
	return ports.IdempotencyRecord{
		Key:         row.Key,
		RequestHash: row.RequestHash,
		Payload:     append([]byte(nil), row.ResponsePayload...),
		ExpiresAt:   row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:             strings.TrimSpace(record.Key),
		RequestHash:     record.RequestHash,
		ResponsePayload: append([]byte(nil), record.Payload...),
		ExpiresAt:       record.ExpiresAt.UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
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

type disputeModel struct {
	DisputeID       string     `gorm:"column:dispute_id;primaryKey"`
	ContextType     string     `gorm:"column:context_type"`
	ContextID       string     `gorm:"column:context_id"`
	OpenerID        string     `gorm:"column:opener_id"`
	Reason          string     `gorm:"column:reason"`
	Status          string     `gorm:"column:status"`
	ResolutionNotes string     `gorm:"column:resolution_notes"`
	ResolverID      string     `gorm:"column:resolver_id"`
	ResolvedAt      *time.Time `gorm:"column:resolved_at"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (disputeModel) TableName() string {
	return "disputes"
}

func (m disputeModel) toEntity() entities.Dispute {
	item := entities.Dispute{
		DisputeID:       m.DisputeID,
		ContextType:     m.ContextType,
		ContextID:       m.ContextID,
		OpenerID:        m.OpenerID,
		Reason:          m.Reason,
		Status:          entities.DisputeStatus(m.Status),
		ResolutionNotes: m.ResolutionNotes,
		ResolverID:      m.ResolverID,
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
	if m.ResolvedAt != nil {
		resolvedAt := m.ResolvedAt.UTC()
		item.ResolvedAt = &resolvedAt
	}
	return item
}

func modelFromDispute(item entities.Dispute) disputeModel {
	row := disputeModel{
		DisputeID:       strings.TrimSpace(item.DisputeID),
		ContextType:     item.ContextType,
		ContextID:       item.ContextID,
		OpenerID:        item.OpenerID,
		Reason:          item.Reason,
		Status:          string(item.Status),
		ResolutionNotes: item.ResolutionNotes,
		ResolverID:      item.ResolverID,
		CreatedAt:       item.CreatedAt.UTC(),
		UpdatedAt:       item.UpdatedAt.UTC(),
	}
	if item.ResolvedAt != nil {
		resolvedAt := item.ResolvedAt.UTC()
		row.ResolvedAt = &resolvedAt
	}
	return row
}

type idempotencyModel struct {
	Key             string    `gorm:"column:key;primaryKey"`
	RequestHash     string    `gorm:"column:request_hash"`
	ResponsePayload []byte    `gorm:"column:response_payload"`
	ExpiresAt       time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "idempotency_keys"
}
