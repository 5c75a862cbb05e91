package audit

import (
	"context"
	"sync"
)

// MemoryLog keeps ledger entries in memory for tests and in-memory modules.
type MemoryLog struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{entries: make([]Entry, 0)}
}

func (l *MemoryLog) Append(entries ...Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entries...)
}

func (l *MemoryLog) ListByEntity(_ context.Context, entityType string, entityID string) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	items := make([]Entry, 0)
	for _, entry := range l.entries {
		if entry.EntityType == entityType && entry.EntityID == entityID {
			items = append(items, entry)
		}
	}
	return items, nil
}

func (l *MemoryLog) All() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return append([]Entry(nil), l.entries...)
}
