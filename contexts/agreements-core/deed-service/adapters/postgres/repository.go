package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"covenant/contexts/agreements-core/deed-service/domain/entities"
	domainerrors "covenant/contexts/agreements-core/deed-service/domain/errors"
	"covenant/contexts/agreements-core/deed-service/ports"
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

func (r *Repository) CreateDeed(ctx context.Context, deed entities.Deed, entry audit.Entry) error {
	row, err := deedModelFromEntity(deed)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrInvalidDeedInput
			}
			return err
		}
		for _, signer := range deed.Signers {
			signerRow := signerModelFromEntity(deed.DeedID, signer)
			if err := tx.Create(&signerRow).Error; err != nil {
				return err
			}
		}
		return audit.AppendTx(tx, entry)
	})
}

func (r *Repository) GetDeed(ctx context.Context, deedID string) (entities.Deed, error) {
	var row deedModel
	err := r.db.WithContext(ctx).
		Where("deed_id = ?", strings.TrimSpace(deedID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Deed{}, domainerrors.ErrDeedNotFound
		}
		return entities.Deed{}, err
	}
	signers, err := r.loadSigners(ctx, r.db, row.DeedID)
	if err != nil {
		return entities.Deed{}, err
	}
	return row.toEntity(signers)
}

func (r *Repository) TransitionDeed(ctx context.Context, deedID string, from, to entities.DeedStatus, at time.Time, entry audit.Entry) (entities.Deed, error) {
	var updated entities.Deed
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row deedModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("deed_id = ?", strings.TrimSpace(deedID)).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrDeedNotFound
			}
			return err
		}
		if row.Status != string(from) {
			return domainerrors.ErrInvalidState
		}
		result := tx.Model(&deedModel{}).
			Where("deed_id = ? AND status = ?", row.DeedID, string(from)).
			Updates(map[string]any{
				"status":     string(to),
				"updated_at": at.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrInvalidState
		}
		if err := audit.AppendTx(tx, entry); err != nil {
			return err
		}

		row.Status = string(to)
		row.UpdatedAt = at.UTC()
		signers, err := r.loadSigners(ctx, tx, row.DeedID)
		if err != nil {
			return err
		}
		item, err := row.toEntity(signers)
		if err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return entities.Deed{}, err
	}
	return updated, nil
}

// SignDeed writes one signature and, when it completes the quorum, flips
// the deed to signed in the same transaction. The conditional signer
// update keeps a double submit from the same user idempotent-safe.
func (r *Repository) SignDeed(ctx context.Context, input ports.SignInput) (entities.Deed, error) {
	var updated entities.Deed
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row deedModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("deed_id = ?", strings.TrimSpace(input.DeedID)).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrDeedNotFound
			}
			return err
		}
		if row.Status != string(entities.DeedStatusOpenForSignature) {
			return domainerrors.ErrInvalidState
		}

		var signer deedSignerModel
		if err := tx.Where("deed_id = ? AND user_id = ?", row.DeedID, strings.TrimSpace(input.UserID)).
			Take(&signer).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrNotASigner
			}
			return err
		}
		if signer.Status == string(entities.SignerStatusSigned) {
			return domainerrors.ErrAlreadySigned
		}

		result := tx.Model(&deedSignerModel{}).
			Where("deed_id = ? AND user_id = ? AND status = ?", row.DeedID, signer.UserID, string(entities.SignerStatusPending)).
			Updates(map[string]any{
				"status":    string(entities.SignerStatusSigned),
				"signed_at": input.At.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrSignConflict
		}

		// Recompute the quorum under the row lock; the signer update above
		// is part of the same snapshot.
		quorum, err := r.loadSigners(ctx, tx, row.DeedID)
		if err != nil {
			return err
		}
		if (entities.Deed{Signers: quorum}).SignatureComplete() {
			flip := tx.Model(&deedModel{}).
				Where("deed_id = ? AND status = ?", row.DeedID, string(entities.DeedStatusOpenForSignature)).
				Updates(map[string]any{
					"status":     string(entities.DeedStatusSigned),
					"signed_at":  input.At.UTC(),
					"updated_at": input.At.UTC(),
				})
			if flip.Error != nil {
				return flip.Error
			}
			if flip.RowsAffected == 0 {
				return domainerrors.ErrSignConflict
			}
			if input.Event != nil {
				if err := enqueueOutboxTx(tx, *input.Event); err != nil {
					return err
				}
			}
		}

		if err := audit.AppendTx(tx, input.Audit); err != nil {
			return err
		}

		var fresh deedModel
		if err := tx.Where("deed_id = ?", row.DeedID).First(&fresh).Error; err != nil {
			return err
		}
		signers, err := r.loadSigners(ctx, tx, row.DeedID)
		if err != nil {
			return err
		}
		item, err := fresh.toEntity(signers)
		if err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return entities.Deed{}, err
	}
	return updated, nil
}

// AmendDeed inserts the successor row. The unique partial index on
// prev_deed_id guarantees one successor per deed; a concurrent amend loses
// with a unique violation.
func (r *Repository) AmendDeed(ctx context.Context, input ports.AmendInput) (entities.Deed, error) {
	row, err := deedModelFromEntity(input.Successor)
	if err != nil {
		return entities.Deed{}, err
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prior deedModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("deed_id = ?", strings.TrimSpace(input.PrevDeedID)).
			First(&prior).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrDeedNotFound
			}
			return err
		}
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrAmendConflict
			}
			return err
		}
		for _, signer := range input.Successor.Signers {
			signerRow := signerModelFromEntity(input.Successor.DeedID, signer)
			if err := tx.Create(&signerRow).Error; err != nil {
				return err
			}
		}
		if err := audit.AppendTx(tx, input.Audit); err != nil {
			return err
		}
		if input.Event != nil {
			return enqueueOutboxTx(tx, *input.Event)
		}
		return nil
	})
	if err != nil {
		return entities.Deed{}, err
	}
	return input.Successor, nil
}

func (r *Repository) GetBySuccessor(ctx context.Context, deedID string) (entities.Deed, bool, error) {
	var row deedModel
	err := r.db.WithContext(ctx).
		Where("prev_deed_id = ?", strings.TrimSpace(deedID)).
		Take(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Deed{}, false, nil
		}
		return entities.Deed{}, false, err
	}
	signers, err := r.loadSigners(ctx, r.db, row.DeedID)
	if err != nil {
		return entities.Deed{}, false, err
	}
	item, err := row.toEntity(signers)
	if err != nil {
		return entities.Deed{}, false, err
	}
	return item, true, nil
}

func (r *Repository) IsBackerSigner(ctx context.Context, deedID string, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&deedSignerModel{}).
		Where("deed_id = ? AND user_id = ? AND signer_kind = ?",
			strings.TrimSpace(deedID), strings.TrimSpace(userID), string(entities.SignerKindBacker)).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
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
		return domainerrors.ErrDeedNotFound
	}
	return nil
}

func (r *Repository) loadSigners(ctx context.Context, tx *gorm.DB, deedID string) ([]entities.DeedSigner, error) {
	var rows []deedSignerModel
	if err := tx.WithContext(ctx).
		Where("deed_id = ?", deedID).
		Order("user_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	signers := make([]entities.DeedSigner, 0, len(rows))
	for _, row := range rows {
		signers = append(signers, row.toEntity())
	}
	return signers, nil
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

type deedModel struct {
	DeedID      string     `gorm:"column:deed_id;primaryKey"`
	Kind        string     `gorm:"column:kind"`
	Status      string     `gorm:"column:status"`
	ContextType string     `gorm:"column:context_type"`
	ContextID   string     `gorm:"column:context_id"`
	Document    []byte     `gorm:"column:document"`
	ContentHash string     `gorm:"column:content_hash"`
	Version     int        `gorm:"column:version"`
	PrevDeedID  string     `gorm:"column:prev_deed_id"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
	SignedAt    *time.Time `gorm:"column:signed_at"`
}

func (deedModel) TableName() string {
	return "deeds"
}

func (m deedModel) toEntity(signers []entities.DeedSigner) (entities.Deed, error) {
	var document entities.DeedDocument
	if len(m.Document) > 0 {
		if err := json.Unmarshal(m.Document, &document); err != nil {
			return entities.Deed{}, err
		}
	}
	item := entities.Deed{
		DeedID:      m.DeedID,
		Kind:        entities.DeedKind(m.Kind),
		Status:      entities.DeedStatus(m.Status),
		ContextType: m.ContextType,
		ContextID:   m.ContextID,
		Document:    document,
		ContentHash: m.ContentHash,
		Version:     m.Version,
		PrevDeedID:  m.PrevDeedID,
		Signers:     signers,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
	if m.SignedAt != nil {
		signedAt := m.SignedAt.UTC()
		item.SignedAt = &signedAt
	}
	return item, nil
}

func deedModelFromEntity(item entities.Deed) (deedModel, error) {
	document, err := json.Marshal(item.Document)
	if err != nil {
		return deedModel{}, err
	}
	row := deedModel{
		DeedID:      strings.TrimSpace(item.DeedID),
		Kind:        string(item.Kind),
		Status:      string(item.Status),
		ContextType: strings.TrimSpace(item.ContextType),
		ContextID:   strings.TrimSpace(item.ContextID),
		Document:    document,
		ContentHash: item.ContentHash,
		Version:     item.Version,
		PrevDeedID:  strings.TrimSpace(item.PrevDeedID),
		CreatedAt:   item.CreatedAt.UTC(),
		UpdatedAt:   item.UpdatedAt.UTC(),
	}
	if item.SignedAt != nil {
		signedAt := item.SignedAt.UTC()
		row.SignedAt = &signedAt
	}
	return row, nil
}

type deedSignerModel struct {
	DeedID     string     `gorm:"column:deed_id;primaryKey"`
	UserID     string     `gorm:"column:user_id;primaryKey"`
	SignerKind string     `gorm:"column:signer_kind"`
	Status     string     `gorm:"column:status"`
	SignedAt   *time.Time `gorm:"column:signed_at"`
}

func (deedSignerModel) TableName() string {
	return "deed_signers"
}

func (m deedSignerModel) toEntity() entities.DeedSigner {
	signer := entities.DeedSigner{
		DeedID: m.DeedID,
		UserID: m.UserID,
		Kind:   entities.SignerKind(m.SignerKind),
		Status: entities.SignerStatus(m.Status),
	}
	if m.SignedAt != nil {
		signedAt := m.SignedAt.UTC()
		signer.SignedAt = &signedAt
	}
	return signer
}

func signerModelFromEntity(deedID string, signer entities.DeedSigner) deedSignerModel {
	row := deedSignerModel{
		DeedID:     deedID,
		UserID:     strings.TrimSpace(signer.UserID),
		SignerKind: string(signer.Kind),
		Status:     string(signer.Status),
	}
	if signer.SignedAt != nil {
		signedAt := signer.SignedAt.UTC()
		row.SignedAt = &signedAt
	}
	return row
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
