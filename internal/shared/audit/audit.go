package audit

import (
	"context"
	"encoding/json"
	"time"
)

// Entry is one append-only audit record. Every state change in Covenant
// writes an entry before or atomically with the change; entries are never
// updated or deleted and are the canonical record for dispute evidence.
type Entry struct {
	AuditID    string
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	Payload    json.RawMessage
	CreatedAt  time.Time
}

// NewEntry marshals the payload and stamps the entry.
func NewEntry(auditID, actorID, action, entityType, entityID string, payload map[string]any, at time.Time) (Entry, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Entry{}, err
		}
		raw = data
	}
	return Entry{
		AuditID:    auditID,
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Payload:    raw,
		CreatedAt:  at.UTC(),
	}, nil
}

// Reader exposes the ledger for dispute evidence and reconstruction.
type Reader interface {
	ListByEntity(ctx context.Context, entityType string, entityID string) ([]Entry, error)
}
