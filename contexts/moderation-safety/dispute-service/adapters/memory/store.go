package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"covenant/contexts/moderation-safety/dispute-service/domain/entities"
	domainerrors "covenant/contexts/moderation-safety/dispute-service/domain/errors"
	"covenant/contexts/moderation-safety/dispute-service/ports"
	"covenant/internal/shared/audit"

	"github.com/google/uuid"
)

type Store struct {
	mu sync.RWMutex

	disputes    map[string]entities.Dispute
	idempotency map[string]ports.IdempotencyRecord
	auditLog    *audit.MemoryLog
}

func NewStore(auditLog *audit.MemoryLog) *Store {
	if auditLog == nil {
		auditLog = audit.NewMemoryLog()
	}
	return &Store{
		disputes:    make(map[string]entities.Dispute),
		idempotency: make(map[string]ports.IdempotencyRecord),
		auditLog:    auditLog,
	}
}

func (s *Store) AuditLog() *audit.MemoryLog { return s.auditLog }

func (s *Store) CreateDispute(_ context.Context, dispute entities.Dispute, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.disputes[dispute.DisputeID]; exists {
		return domainerrors.ErrInvalidDisputeInput
	}
	s.disputes[dispute.DisputeID] = dispute
	s.auditLog.Append(entry)
	return nil
}

func (s *Store) GetDispute(_ context.Context, disputeID string) (entities.Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dispute, exists := s.disputes[strings.TrimSpace(disputeID)]
	if !exists {
		return entities.Dispute{}, domainerrors.ErrDisputeNotFound
	}
	return dispute, nil
}

func (s *Store) TransitionDispute(_ context.Context, input ports.TransitionInput) (entities.Dispute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dispute, exists := s.disputes[input.DisputeID]
	if !exists {
		return entities.Dispute{}, domainerrors.ErrDisputeNotFound
	}
	if dispute.Status != input.From {
		return entities.Dispute{}, domainerrors.ErrInvalidState
	}
	dispute.Status = input.To
	dispute.UpdatedAt = input.At
	if input.ResolvedAt != nil {
		dispute.ResolutionNotes = input.ResolutionNotes
		dispute.ResolverID = input.ResolverID
		resolvedAt := *input.ResolvedAt
		dispute.ResolvedAt = &resolvedAt
	}
	s.disputes[input.DisputeID] = dispute
	s.auditLog.Append(input.Audit)
	return dispute, nil
}

func (s *Store) Get(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.idempotency[key]
	if !exists || now.After(record.ExpiresAt) {
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) Put(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.idempotency[record.Key] = record
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
