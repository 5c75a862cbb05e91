package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"covenant/contexts/campaign-lifecycle/campaign-service/domain/entities"
	domainerrors "covenant/contexts/campaign-lifecycle/campaign-service/domain/errors"
	"covenant/contexts/campaign-lifecycle/campaign-service/ports"
	"covenant/internal/shared/audit"
	"covenant/internal/shared/outbox"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   outbox.Message
	published bool
}

// Store backs every campaign-service port for tests and local runs. Audit
// entries land in the shared in-memory ledger so scenarios can assert on
// them the way production asserts on the audit_log table.
type Store struct {
	mu sync.RWMutex

	campaigns map[string]entities.Campaign
	pledges   map[string][]entities.Pledge
	outbox    map[string]outboxRecord
	auditLog  *audit.MemoryLog
}

func NewStore(auditLog *audit.MemoryLog) *Store {
	if auditLog == nil {
		auditLog = audit.NewMemoryLog()
	}
	return &Store{
		campaigns: make(map[string]entities.Campaign),
		pledges:   make(map[string][]entities.Pledge),
		outbox:    make(map[string]outboxRecord),
		auditLog:  auditLog,
	}
}

func (s *Store) AuditLog() *audit.MemoryLog { return s.auditLog }

func (s *Store) CreateCampaign(_ context.Context, campaign entities.Campaign, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.campaigns[campaign.CampaignID]; exists {
		return domainerrors.ErrInvalidCampaignInput
	}
	s.campaigns[campaign.CampaignID] = campaign
	s.auditLog.Append(entry)
	return nil
}

func (s *Store) GetCampaign(_ context.Context, campaignID string) (entities.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.campaigns[strings.TrimSpace(campaignID)]
	if !exists {
		return entities.Campaign{}, domainerrors.ErrCampaignNotFound
	}
	return item, nil
}

func (s *Store) ListCampaigns(_ context.Context, filter ports.CampaignFilter) ([]entities.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Campaign, 0, len(s.campaigns))
	for _, campaign := range s.campaigns {
		if strings.TrimSpace(filter.OwnerID) != "" && campaign.OwnerID != strings.TrimSpace(filter.OwnerID) {
			continue
		}
		if filter.Kind != "" && campaign.Kind != filter.Kind {
			continue
		}
		if filter.Status != "" && campaign.Status.String() != filter.Status {
			continue
		}
		items = append(items, campaign)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) TransitionCampaign(_ context.Context, input ports.TransitionInput) (entities.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	campaign, exists := s.campaigns[input.CampaignID]
	if !exists {
		return entities.Campaign{}, domainerrors.ErrCampaignNotFound
	}
	if campaign.Status != input.From {
		return entities.Campaign{}, domainerrors.ErrTransitionConflict
	}
	campaign.Status = input.To
	campaign.UpdatedAt = input.At
	if input.To == entities.NeedStatusSeeded {
		at := input.At
		campaign.SeededAt = &at
	}
	s.campaigns[input.CampaignID] = campaign
	s.auditLog.Append(input.Audit)
	if input.Event != nil {
		s.enqueueOutboxLocked(*input.Event, input.At)
	}
	return campaign, nil
}

func (s *Store) SeedCampaign(_ context.Context, input ports.SeedInput) (ports.SeedResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	need, exists := s.campaigns[input.NeedCampaignID]
	if !exists {
		return ports.SeedResult{}, domainerrors.ErrCampaignNotFound
	}
	if need.Status != entities.NeedStatusLive {
		return ports.SeedResult{}, domainerrors.ErrTransitionConflict
	}
	if _, exists := s.campaigns[input.Feed.CampaignID]; exists {
		return ports.SeedResult{}, domainerrors.ErrInvalidCampaignInput
	}

	need.Status = entities.NeedStatusSeeded
	need.UpdatedAt = input.At
	at := input.At
	need.SeededAt = &at
	s.campaigns[need.CampaignID] = need
	s.campaigns[input.Feed.CampaignID] = input.Feed

	s.auditLog.Append(input.Audits...)
	if input.Event != nil {
		s.enqueueOutboxLocked(*input.Event, input.At)
	}
	return ports.SeedResult{Need: need, Feed: input.Feed}, nil
}

func (s *Store) DeleteCampaign(_ context.Context, campaignID string, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.campaigns[campaignID]; !exists {
		return domainerrors.ErrCampaignNotFound
	}
	delete(s.campaigns, campaignID)
	delete(s.pledges, campaignID)
	s.auditLog.Append(entry)
	return nil
}

func (s *Store) AddPledge(_ context.Context, pledge entities.Pledge, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	campaign, exists := s.campaigns[pledge.CampaignID]
	if !exists {
		return domainerrors.ErrCampaignNotFound
	}
	status, ok := campaign.NeedStatus()
	if !ok {
		return domainerrors.ErrNotNeedCampaign
	}
	if status != entities.NeedStatusLive {
		return domainerrors.ErrCampaignNotLive
	}
	s.pledges[pledge.CampaignID] = append(s.pledges[pledge.CampaignID], pledge)
	s.auditLog.Append(entry)
	return nil
}

func (s *Store) ListPledges(_ context.Context, campaignID string) ([]entities.Pledge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := append([]entities.Pledge(nil), s.pledges[strings.TrimSpace(campaignID)]...)
	return items, nil
}

func (s *Store) ListDueNeedCampaigns(_ context.Context, now time.Time, limit int) ([]entities.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]entities.Campaign, 0)
	for _, campaign := range s.campaigns {
		status, ok := campaign.NeedStatus()
		if !ok || status != entities.NeedStatusLive {
			continue
		}
		if campaign.Threshold == nil || campaign.Threshold.Deadline.After(now) {
			continue
		}
		items = append(items, campaign)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Threshold.Deadline.Before(items[j].Threshold.Deadline)
	})
	if len(items) > limit {
		items = items[:limit]
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
