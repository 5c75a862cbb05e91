package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"covenant/contexts/agreements-core/fulfillment-service/domain/entities"
	domainerrors "covenant/contexts/agreements-core/fulfillment-service/domain/errors"
	"covenant/contexts/agreements-core/fulfillment-service/ports"
	"covenant/internal/shared/outbox"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   outbox.Message
	published bool
}

type Store struct {
	mu sync.RWMutex

	assignments map[string]entities.Assignment
	milestones  map[string]entities.Milestone
	events      []entities.FulfillmentEvent
	outbox      map[string]outboxRecord
}

func NewStore() *Store {
	return &Store{
		assignments: make(map[string]entities.Assignment),
		milestones:  make(map[string]entities.Milestone),
		outbox:      make(map[string]outboxRecord),
	}
}

// PutAssignment registers an assignment for tests and local wiring.
func (s *Store) PutAssignment(assignment entities.Assignment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.assignments[assignment.AssignmentID] = assignment
}

func (s *Store) GetAssignment(_ context.Context, assignmentID string) (entities.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	assignment, exists := s.assignments[strings.TrimSpace(assignmentID)]
	if !exists {
		return entities.Assignment{}, domainerrors.ErrAssignmentNotFound
	}
	return assignment, nil
}

func (s *Store) LinkDeed(_ context.Context, assignmentID, deedID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	assignment, exists := s.assignments[strings.TrimSpace(assignmentID)]
	if !exists {
		return domainerrors.ErrAssignmentNotFound
	}
	assignment.DeedID = strings.TrimSpace(deedID)
	assignment.UpdatedAt = at
	s.assignments[assignment.AssignmentID] = assignment
	return nil
}

func (s *Store) CreateMilestone(_ context.Context, milestone entities.Milestone, event entities.FulfillmentEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.milestones[milestone.MilestoneID]; exists {
		return domainerrors.ErrInvalidMilestoneInput
	}
	if _, exists := s.assignments[milestone.AssignmentID]; !exists {
		return domainerrors.ErrAssignmentNotFound
	}
	s.milestones[milestone.MilestoneID] = milestone
	s.events = append(s.events, event)
	return nil
}

func (s *Store) GetMilestone(_ context.Context, milestoneID string) (entities.Milestone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	milestone, exists := s.milestones[strings.TrimSpace(milestoneID)]
	if !exists {
		return entities.Milestone{}, domainerrors.ErrMilestoneNotFound
	}
	return milestone, nil
}

func (s *Store) ListMilestones(_ context.Context, assignmentID string) ([]entities.Milestone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Milestone, 0)
	for _, milestone := range s.milestones {
		if milestone.AssignmentID == strings.TrimSpace(assignmentID) {
			items = append(items, milestone)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) UpdateMilestone(_ context.Context, input ports.UpdateMilestoneInput) (entities.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	milestone, exists := s.milestones[input.MilestoneID]
	if !exists {
		return entities.Milestone{}, domainerrors.ErrMilestoneNotFound
	}
	if milestone.Status != input.From {
		return entities.Milestone{}, domainerrors.ErrInvalidState
	}
	milestone.Status = input.To
	if input.ProofURL != "" {
		milestone.ProofURL = input.ProofURL
	}
	if input.Notes != "" {
		milestone.Notes = input.Notes
	}
	milestone.UpdatedAt = input.At
	s.milestones[input.MilestoneID] = milestone
	s.events = append(s.events, input.Event)
	return milestone, nil
}

func (s *Store) ConfirmMilestone(_ context.Context, input ports.ConfirmInput) (ports.ConfirmResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	milestone, exists := s.milestones[input.MilestoneID]
	if !exists {
		return ports.ConfirmResult{}, domainerrors.ErrMilestoneNotFound
	}
	if milestone.Status != entities.MilestoneStatusDelivered {
		return ports.ConfirmResult{}, domainerrors.ErrInvalidState
	}
	assignment, exists := s.assignments[milestone.AssignmentID]
	if !exists {
		return ports.ConfirmResult{}, domainerrors.ErrAssignmentNotFound
	}
	if assignment.Status != entities.AssignmentStatusActive {
		return ports.ConfirmResult{}, domainerrors.ErrInvalidState
	}

	milestone.Status = entities.MilestoneStatusAccepted
	milestone.UpdatedAt = input.At
	s.milestones[input.MilestoneID] = milestone
	s.events = append(s.events, input.Event)

	// Recompute the aggregate from current data every time.
	allAccepted := true
	for _, other := range s.milestones {
		if other.AssignmentID != assignment.AssignmentID {
			continue
		}
		if other.Status != entities.MilestoneStatusAccepted {
			allAccepted = false
			break
		}
	}
	fulfilled := false
	if allAccepted {
		fulfilledAt := input.At
		assignment.Status = entities.AssignmentStatusFulfilled
		assignment.FulfilledAt = &fulfilledAt
		assignment.UpdatedAt = input.At
		s.assignments[assignment.AssignmentID] = assignment
		s.events = append(s.events, input.AggregateEvent)
		if input.Envelope != nil {
			s.enqueueOutboxLocked(*input.Envelope, input.At)
		}
		fulfilled = true
	}

	return ports.ConfirmResult{
		Milestone:  milestone,
		Assignment: assignment,
		Fulfilled:  fulfilled,
	}, nil
}

func (s *Store) FlagDisputed(_ context.Context, input ports.DisputeFlagInput) (entities.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	assignment, exists := s.assignments[input.AssignmentID]
	if !exists {
		return entities.Assignment{}, domainerrors.ErrAssignmentNotFound
	}
	if assignment.Status != entities.AssignmentStatusActive {
		return entities.Assignment{}, domainerrors.ErrInvalidState
	}
	assignment.Status = entities.AssignmentStatusDisputed
	assignment.UpdatedAt = input.At
	s.assignments[input.AssignmentID] = assignment

	if input.MilestoneID != "" {
		if milestone, ok := s.milestones[input.MilestoneID]; ok {
			milestone.Status = entities.MilestoneStatusDisputed
			milestone.UpdatedAt = input.At
			s.milestones[input.MilestoneID] = milestone
		}
	}
	s.events = append(s.events, input.Event)
	return assignment, nil
}

func (s *Store) ListFulfillmentEvents(_ context.Context, assignmentID string) ([]entities.FulfillmentEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.FulfillmentEvent, 0)
	for _, event := range s.events {
		if event.AssignmentID == strings.TrimSpace(assignmentID) {
			items = append(items, event)
		}
	}
	return items, nil
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
