package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"covenant/contexts/campaign-lifecycle/offer-service/domain/entities"
	domainerrors "covenant/contexts/campaign-lifecycle/offer-service/domain/errors"
	"covenant/contexts/campaign-lifecycle/offer-service/ports"
	"covenant/internal/shared/audit"
	"covenant/internal/shared/outbox"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   outbox.Message
	published bool
}

// Assignment mirrors the row the selection transaction inserts, exposed so
// scenarios can assert on it.
type Assignment struct {
	AssignmentID   string
	NeedCampaignID string
	FeedCampaignID string
	OfferID        string
	SupplierID     string
	OwnerID        string
	Status         string
	CreatedAt      time.Time
}

type Store struct {
	mu sync.RWMutex

	offers      map[string]entities.SupplierOffer
	campaigns   map[string]ports.FeedCampaignView
	assignments map[string]Assignment
	outbox      map[string]outboxRecord
	auditLog    *audit.MemoryLog
}

func NewStore(auditLog *audit.MemoryLog) *Store {
	if auditLog == nil {
		auditLog = audit.NewMemoryLog()
	}
	return &Store{
		offers:      make(map[string]entities.SupplierOffer),
		campaigns:   make(map[string]ports.FeedCampaignView),
		assignments: make(map[string]Assignment),
		outbox:      make(map[string]outboxRecord),
		auditLog:    auditLog,
	}
}

func (s *Store) AuditLog() *audit.MemoryLog { return s.auditLog }

// PutFeedCampaign registers a campaign view for tests and local wiring.
func (s *Store) PutFeedCampaign(view ports.FeedCampaignView) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.campaigns[view.CampaignID] = view
}

func (s *Store) AssignmentByCampaign(campaignID string) (Assignment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.assignments {
		if item.FeedCampaignID == campaignID {
			return item, true
		}
	}
	return Assignment{}, false
}

func (s *Store) GetFeedCampaign(_ context.Context, campaignID string) (ports.FeedCampaignView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	view, exists := s.campaigns[strings.TrimSpace(campaignID)]
	if !exists {
		return ports.FeedCampaignView{}, domainerrors.ErrCampaignNotFound
	}
	return view, nil
}

func (s *Store) CreateOffer(_ context.Context, offer entities.SupplierOffer, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.offers[offer.OfferID]; exists {
		return domainerrors.ErrInvalidOfferInput
	}
	campaign, exists := s.campaigns[offer.CampaignID]
	if !exists {
		return domainerrors.ErrCampaignNotFound
	}
	if campaign.Status != "open" {
		return domainerrors.ErrCampaignNotOpen
	}
	s.offers[offer.OfferID] = offer
	s.auditLog.Append(entry)
	return nil
}

func (s *Store) GetOffer(_ context.Context, offerID string) (entities.SupplierOffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	offer, exists := s.offers[strings.TrimSpace(offerID)]
	if !exists {
		return entities.SupplierOffer{}, domainerrors.ErrOfferNotFound
	}
	return offer, nil
}

func (s *Store) ListOffersByCampaign(_ context.Context, campaignID string) ([]entities.SupplierOffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.SupplierOffer, 0)
	for _, offer := range s.offers {
		if offer.CampaignID == strings.TrimSpace(campaignID) {
			items = append(items, offer)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) SignOffer(_ context.Context, offerID string, supplierID string, at time.Time, entry audit.Entry) (entities.SupplierOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	offer, exists := s.offers[offerID]
	if !exists {
		return entities.SupplierOffer{}, domainerrors.ErrOfferNotFound
	}
	if offer.SupplierID != supplierID {
		return entities.SupplierOffer{}, domainerrors.ErrForbidden
	}
	if offer.Status != entities.OfferStatusSubmitted {
		return entities.SupplierOffer{}, domainerrors.ErrInvalidState
	}
	offer.Status = entities.OfferStatusSigned
	offer.UpdatedAt = at
	signedAt := at
	offer.SignedAt = &signedAt
	s.offers[offerID] = offer
	s.auditLog.Append(entry)
	return offer, nil
}

func (s *Store) SelectOffer(_ context.Context, input ports.SelectionInput) (ports.SelectionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	campaign, exists := s.campaigns[input.CampaignID]
	if !exists {
		return ports.SelectionResult{}, domainerrors.ErrCampaignNotFound
	}
	if campaign.Status != "open" {
		return ports.SelectionResult{}, domainerrors.ErrInvalidState
	}
	winner, exists := s.offers[input.OfferID]
	if !exists || winner.CampaignID != input.CampaignID {
		return ports.SelectionResult{}, domainerrors.ErrOfferNotFound
	}
	if winner.Status != entities.OfferStatusSigned {
		return ports.SelectionResult{}, domainerrors.ErrOfferNotSigned
	}
	for _, item := range s.assignments {
		if item.FeedCampaignID == input.CampaignID {
			return ports.SelectionResult{}, domainerrors.ErrInvalidState
		}
	}

	rejectedIDs := make([]string, 0)
	losingSuppliers := make([]string, 0)
	for id, offer := range s.offers {
		if offer.CampaignID != input.CampaignID || id == input.OfferID {
			continue
		}
		if offer.Status != entities.OfferStatusSigned {
			continue
		}
		offer.Status = entities.OfferStatusRejected
		offer.UpdatedAt = input.At
		s.offers[id] = offer
		rejectedIDs = append(rejectedIDs, id)
		losingSuppliers = append(losingSuppliers, offer.SupplierID)
		rejectEntry, err := audit.NewEntry(uuid.NewString(), input.ActorID, "offer.rejected", "supplier_offer", id, map[string]any{
			"campaign_id":      input.CampaignID,
			"winning_offer_id": input.OfferID,
		}, input.At)
		if err != nil {
			return ports.SelectionResult{}, err
		}
		s.auditLog.Append(rejectEntry)
	}

	winner.Status = entities.OfferStatusSelected
	winner.UpdatedAt = input.At
	s.offers[input.OfferID] = winner
	selectEntry, err := audit.NewEntry(uuid.NewString(), input.ActorID, "offer.selected", "supplier_offer", input.OfferID, map[string]any{
		"campaign_id":   input.CampaignID,
		"assignment_id": input.AssignmentID,
	}, input.At)
	if err != nil {
		return ports.SelectionResult{}, err
	}
	s.auditLog.Append(selectEntry)

	campaign.Status = "supplier_selected"
	s.campaigns[input.CampaignID] = campaign

	s.assignments[input.AssignmentID] = Assignment{
		AssignmentID:   input.AssignmentID,
		NeedCampaignID: campaign.SourceNeedCampaignID,
		FeedCampaignID: input.CampaignID,
		OfferID:        input.OfferID,
		SupplierID:     winner.SupplierID,
		OwnerID:        campaign.OwnerID,
		Status:         "active",
		CreatedAt:      input.At,
	}

	if input.Event != nil {
		s.enqueueOutboxLocked(*input.Event, input.At)
	}

	return ports.SelectionResult{
		Winner:            winner,
		RejectedOfferIDs:  rejectedIDs,
		LosingSupplierIDs: losingSuppliers,
		AssignmentID:      input.AssignmentID,
		NeedCampaignID:    campaign.SourceNeedCampaignID,
		FeedCampaignID:    input.CampaignID,
		OwnerID:           campaign.OwnerID,
	}, nil
}

func (s *Store) AppendAudit(_ context.Context, entries ...audit.Entry) error {
	s.auditLog.Append(entries...)
	return nil
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
