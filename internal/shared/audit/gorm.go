package audit

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

type entryModel struct {
	AuditID    string    `gorm:"column:audit_id;primaryKey"`
	ActorID    string    `gorm:"column:actor_id"`
	Action     string    `gorm:"column:action"`
	EntityType string    `gorm:"column:entity_type"`
	EntityID   string    `gorm:"column:entity_id"`
	Payload    []byte    `gorm:"column:payload"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (entryModel) TableName() string {
	return "audit_log"
}

func modelFromEntry(entry Entry) entryModel {
	return entryModel{
		AuditID:    entry.AuditID,
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Payload:    append([]byte(nil), entry.Payload...),
		CreatedAt:  entry.CreatedAt.UTC(),
	}
}

func (m entryModel) toEntry() Entry {
	return Entry{
		AuditID:    m.AuditID,
		ActorID:    m.ActorID,
		Action:     m.Action,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		Payload:    json.RawMessage(append([]byte(nil), m.Payload...)),
		CreatedAt:  m.CreatedAt.UTC(),
	}
}

// AppendTx inserts entries inside the caller's transaction so the audit
// write commits or rolls back together with the state change.
func AppendTx(tx *gorm.DB, entries ...Entry) error {
	for _, entry := range entries {
		row := modelFromEntry(entry)
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// GormReader reads ledger entries from the shared audit_log table.
type GormReader struct {
	DB *gorm.DB
}

func (r GormReader) ListByEntity(ctx context.Context, entityType string, entityID string) ([]Entry, error) {
	var rows []entryModel
	if err := r.DB.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toEntry())
	}
	return entries, nil
}
