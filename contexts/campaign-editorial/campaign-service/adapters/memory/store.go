package memory

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"clypzy/contexts/campaign-editorial/campaign-service/domain/entities"
	domainerrors "clypzy/contexts/campaign-editorial/campaign-service/domain/errors"
	"clypzy/contexts/campaign-editorial/campaign-service/ports"
	"clypzy/internal/platform/lock"
	"clypzy/internal/shared/outbox"

	"github.com/google/uuid"
)

// Store keeps campaigns in memory. Every write registers an undo entry with
// the unit of work carried by ctx.
type Store struct {
	mu sync.RWMutex

	campaigns   map[string]entities.Campaign
	stateLog    []entities.StateHistory
	idempotency map[string]ports.IdempotencyRecord

	Outbox *outbox.MemoryStore
}

func NewStore(seed []entities.Campaign) *Store {
	campaigns := make(map[string]entities.Campaign, len(seed))
	for _, item := range seed {
		campaigns[item.CampaignID] = cloneCampaign(item)
	}
	return &Store{
		campaigns:   campaigns,
		stateLog:    make([]entities.StateHistory, 0),
		idempotency: make(map[string]ports.IdempotencyRecord),
		Outbox:      outbox.NewMemoryStore(),
	}
}

func (s *Store) CreateCampaign(ctx context.Context, campaign entities.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.campaigns[campaign.CampaignID]; exists {
		return domainerrors.ErrConflict
	}
	s.campaigns[campaign.CampaignID] = cloneCampaign(campaign)
	lock.RecordUndo(ctx, func() {
		s.mu.Lock()
		delete(s.campaigns, campaign.CampaignID)
		s.mu.Unlock()
	})
	return nil
}

func (s *Store) UpdateCampaign(ctx context.Context, campaign entities.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, exists := s.campaigns[campaign.CampaignID]
	if !exists {
		return domainerrors.ErrCampaignNotFound
	}
	s.campaigns[campaign.CampaignID] = cloneCampaign(campaign)
	lock.RecordUndo(ctx, func() {
		s.mu.Lock()
		s.campaigns[previous.CampaignID] = previous
		s.mu.Unlock()
	})
	return nil
}

func (s *Store) DeleteCampaign(ctx context.Context, campaignID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	campaignID = strings.TrimSpace(campaignID)
	previous, exists := s.campaigns[campaignID]
	if !exists {
		return domainerrors.ErrCampaignNotFound
	}
	delete(s.campaigns, campaignID)
	lock.RecordUndo(ctx, func() {
		s.mu.Lock()
		s.campaigns[campaignID] = previous
		s.mu.Unlock()
	})
	return nil
}

func (s *Store) GetCampaign(_ context.Context, campaignID string) (entities.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.campaigns[strings.TrimSpace(campaignID)]
	if !exists {
		return entities.Campaign{}, domainerrors.ErrCampaignNotFound
	}
	return cloneCampaign(item), nil
}

func (s *Store) ListCampaigns(_ context.Context, filter ports.CampaignFilter) ([]entities.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Campaign, 0, len(s.campaigns))
	for _, campaign := range s.campaigns {
		if strings.TrimSpace(filter.BrandID) != "" && campaign.BrandID != strings.TrimSpace(filter.BrandID) {
			continue
		}
		if filter.Status != "" && campaign.Status != filter.Status {
			continue
		}
		items = append(items, cloneCampaign(campaign))
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CampaignID < items[j].CampaignID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) AppendState(ctx context.Context, item entities.StateHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stateLog = append(s.stateLog, item)
	size := len(s.stateLog) - 1
	lock.RecordUndo(ctx, func() {
		s.mu.Lock()
		s.stateLog = s.stateLog[:size]
		s.mu.Unlock()
	})
	return nil
}

func (s *Store) ListStates(_ context.Context, campaignID string) ([]entities.StateHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.StateHistory, 0)
	for _, item := range s.stateLog {
		if item.CampaignID == strings.TrimSpace(campaignID) {
			items = append(items, item)
		}
	}
	return items, nil
}

func (s *Store) GetRecord(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.idempotency[key]
	if !exists {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.After(now) {
		delete(s.idempotency, key)
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) PutRecord(ctx context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.idempotency[record.Key]
	if exists {
		if existing.RequestHash != record.RequestHash {
			return domainerrors.ErrIdempotencyKeyConflict
		}
		if !bytes.Equal(existing.ResponsePayload, record.ResponsePayload) {
			return domainerrors.ErrIdempotencyKeyConflict
		}
		return nil
	}
	s.idempotency[record.Key] = record
	lock.RecordUndo(ctx, func() {
		s.mu.Lock()
		delete(s.idempotency, record.Key)
		s.mu.Unlock()
	})
	return nil
}

func (s *Store) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	return s.Outbox.Append(ctx, envelope)
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func cloneCampaign(item entities.Campaign) entities.Campaign {
	item.SourceVideos = append([]string(nil), item.SourceVideos...)
	return item
}

var _ ports.CampaignRepository = (*Store)(nil)
var _ ports.HistoryRepository = (*Store)(nil)
var _ ports.IdempotencyStore = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
