package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"covenant/contexts/agreements-core/deed-service/domain/entities"
	domainerrors "covenant/contexts/agreements-core/deed-service/domain/errors"
	"covenant/contexts/agreements-core/deed-service/ports"
	"covenant/internal/shared/audit"
	"covenant/internal/shared/outbox"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   outbox.Message
	published bool
}

type Store struct {
	mu sync.RWMutex

	deeds map[string]entities.Deed
	// successors maps prev_deed_id to the deed that amended it. One
	// successor per deed, matching the unique constraint in postgres.
	successors map[string]string
	outbox     map[string]outboxRecord
	auditLog   *audit.MemoryLog
}

func NewStore(auditLog *audit.MemoryLog) *Store {
	if auditLog == nil {
		auditLog = audit.NewMemoryLog()
	}
	return &Store{
		deeds:      make(map[string]entities.Deed),
		successors: make(map[string]string),
		outbox:     make(map[string]outboxRecord),
		auditLog:   auditLog,
	}
}

func (s *Store) AuditLog() *audit.MemoryLog { return s.auditLog }

func (s *Store) CreateDeed(_ context.Context, deed entities.Deed, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.deeds[deed.DeedID]; exists {
		return domainerrors.ErrInvalidDeedInput
	}
	s.deeds[deed.DeedID] = cloneDeed(deed)
	s.auditLog.Append(entry)
	return nil
}

func (s *Store) GetDeed(_ context.Context, deedID string) (entities.Deed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	deed, exists := s.deeds[strings.TrimSpace(deedID)]
	if !exists {
		return entities.Deed{}, domainerrors.ErrDeedNotFound
	}
	return cloneDeed(deed), nil
}

func (s *Store) TransitionDeed(_ context.Context, deedID string, from, to entities.DeedStatus, at time.Time, entry audit.Entry) (entities.Deed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deed, exists := s.deeds[deedID]
	if !exists {
		return entities.Deed{}, domainerrors.ErrDeedNotFound
	}
	if deed.Status != from {
		return entities.Deed{}, domainerrors.ErrInvalidState
	}
	deed.Status = to
	deed.UpdatedAt = at
	s.deeds[deedID] = deed
	s.auditLog.Append(entry)
	return cloneDeed(deed), nil
}

func (s *Store) SignDeed(_ context.Context, input ports.SignInput) (entities.Deed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deed, exists := s.deeds[input.DeedID]
	if !exists {
		return entities.Deed{}, domainerrors.ErrDeedNotFound
	}
	if deed.Status != entities.DeedStatusOpenForSignature {
		return entities.Deed{}, domainerrors.ErrInvalidState
	}
	signed := false
	for i, signer := range deed.Signers {
		if signer.UserID != input.UserID {
			continue
		}
		if signer.Status == entities.SignerStatusSigned {
			return entities.Deed{}, domainerrors.ErrAlreadySigned
		}
		signedAt := input.At
		deed.Signers[i].Status = entities.SignerStatusSigned
		deed.Signers[i].SignedAt = &signedAt
		signed = true
		break
	}
	if !signed {
		return entities.Deed{}, domainerrors.ErrNotASigner
	}

	deed.UpdatedAt = input.At
	if deed.SignatureComplete() {
		signedAt := input.At
		deed.Status = entities.DeedStatusSigned
		deed.SignedAt = &signedAt
		if input.Event != nil {
			s.enqueueOutboxLocked(*input.Event, input.At)
		}
	}
	s.deeds[input.DeedID] = deed
	s.auditLog.Append(input.Audit)
	return cloneDeed(deed), nil
}

func (s *Store) AmendDeed(_ context.Context, input ports.AmendInput) (entities.Deed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.deeds[input.PrevDeedID]; !exists {
		return entities.Deed{}, domainerrors.ErrDeedNotFound
	}
	if _, taken := s.successors[input.PrevDeedID]; taken {
		return entities.Deed{}, domainerrors.ErrAmendConflict
	}
	if _, exists := s.deeds[input.Successor.DeedID]; exists {
		return entities.Deed{}, domainerrors.ErrInvalidDeedInput
	}

	s.deeds[input.Successor.DeedID] = cloneDeed(input.Successor)
	s.successors[input.PrevDeedID] = input.Successor.DeedID
	s.auditLog.Append(input.Audit)
	if input.Event != nil {
		s.enqueueOutboxLocked(*input.Event, input.Successor.CreatedAt)
	}
	return cloneDeed(input.Successor), nil
}

func (s *Store) GetBySuccessor(_ context.Context, deedID string) (entities.Deed, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	successorID, exists := s.successors[strings.TrimSpace(deedID)]
	if !exists {
		return entities.Deed{}, false, nil
	}
	deed, exists := s.deeds[successorID]
	if !exists {
		return entities.Deed{}, false, nil
	}
	return cloneDeed(deed), true, nil
}

func (s *Store) IsBackerSigner(_ context.Context, deedID string, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	deed, exists := s.deeds[strings.TrimSpace(deedID)]
	if !exists {
		return false, domainerrors.ErrDeedNotFound
	}
	for _, signer := range deed.Signers {
		if signer.UserID == strings.TrimSpace(userID) && signer.Kind == entities.SignerKindBacker {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) enqueueOutboxLocked(envelope ports.EventEnvelope, at time.Time) {
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if _, ok := s.outbox[outboxID]; ok {
		return
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return
	}
	s.outbox[outboxID] = outboxRecord{
		message: outbox.Message{
			OutboxID:     outboxID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			Status:       outbox.StatusPending,
			CreatedAt:    at,
		},
	}
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]outbox.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]outbox.Message, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, exists := s.outbox[outboxID]
	if !exists {
		return nil
	}
	row.published = true
	row.message.Status = outbox.StatusPublished
	s.outbox[outboxID] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func cloneDeed(deed entities.Deed) entities.Deed {
	copied := deed
	copied.Signers = make([]entities.DeedSigner, len(deed.Signers))
	copy(copied.Signers, deed.Signers)
	return copied
}
