package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"clypzy/contexts/campaign-editorial/clip-service/domain/entities"
	domainerrors "clypzy/contexts/campaign-editorial/clip-service/domain/errors"
	"clypzy/contexts/campaign-editorial/clip-service/ports"
	"clypzy/internal/platform/lock"
	"clypzy/internal/shared/outbox"

	"github.com/google/uuid"
)

// Store keeps clips and their audit trail in memory. Every write registers an
// undo entry with the unit of work carried by ctx.
type Store struct {
	mu     sync.RWMutex
	clips  map[string]entities.Clip
	audits []entities.ClipAudit

	Outbox *outbox.MemoryStore
}

func NewStore(seed []entities.Clip) *Store {
	clips := make(map[string]entities.Clip, len(seed))
	for _, item := range seed {
		clips[item.ClipID] = cloneClip(item)
	}
	return &Store{
		clips:  clips,
		audits: make([]entities.ClipAudit, 0),
		Outbox: outbox.NewMemoryStore(),
	}
}

func (s *Store) CreateClip(ctx context.Context, clip entities.Clip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.clips[clip.ClipID]; exists {
		return domainerrors.ErrConflict
	}
	s.clips[clip.ClipID] = cloneClip(clip)
	lock.RecordUndo(ctx, func() {
		s.mu.Lock()
		delete(s.clips, clip.ClipID)
		s.mu.Unlock()
	})
	return nil
}

func (s *Store) UpdateClip(ctx context.Context, clip entities.Clip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, exists := s.clips[clip.ClipID]
	if !exists {
		return domainerrors.ErrClipNotFound
	}
	s.clips[clip.ClipID] = cloneClip(clip)
	lock.RecordUndo(ctx, func() {
		s.mu.Lock()
		s.clips[previous.ClipID] = previous
		s.mu.Unlock()
	})
	return nil
}

func (s *Store) DeleteClip(ctx context.Context, clipID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clipID = strings.TrimSpace(clipID)
	previous, exists := s.clips[clipID]
	if !exists {
		return domainerrors.ErrClipNotFound
	}
	delete(s.clips, clipID)
	lock.RecordUndo(ctx, func() {
		s.mu.Lock()
		s.clips[clipID] = previous
		s.mu.Unlock()
	})
	return nil
}

func (s *Store) GetClip(_ context.Context, clipID string) (entities.Clip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.clips[strings.TrimSpace(clipID)]
	if !exists {
		return entities.Clip{}, domainerrors.ErrClipNotFound
	}
	return cloneClip(item), nil
}

func (s *Store) ListClips(_ context.Context, filter ports.ClipFilter) ([]entities.Clip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Clip, 0)
	for _, clip := range s.clips {
		if filter.CreatorID != "" && clip.CreatorID != filter.CreatorID {
			continue
		}
		if filter.CampaignID != "" && clip.CampaignID != filter.CampaignID {
			continue
		}
		if filter.Status != "" && clip.Status != filter.Status {
			continue
		}
		items = append(items, cloneClip(clip))
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].SubmittedAt.Equal(items[j].SubmittedAt) {
			return items[i].ClipID < items[j].ClipID
		}
		return items[i].SubmittedAt.After(items[j].SubmittedAt)
	})
	return items, nil
}

func (s *Store) AppendAudit(ctx context.Context, audit entities.ClipAudit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.audits = append(s.audits, audit)
	auditID := audit.AuditID
	lock.RecordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i := len(s.audits) - 1; i >= 0; i-- {
			if s.audits[i].AuditID == auditID {
				s.audits = append(s.audits[:i], s.audits[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (s *Store) ListAudits(_ context.Context, clipID string) ([]entities.ClipAudit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.ClipAudit, 0)
	for _, audit := range s.audits {
		if audit.ClipID == strings.TrimSpace(clipID) {
			items = append(items, audit)
		}
	}
	return items, nil
}

func (s *Store) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	if err := s.Outbox.Append(ctx, envelope); err != nil {
		if errors.Is(err, outbox.ErrPayloadConflict) {
			return domainerrors.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	reserved, err := s.Outbox.ReserveEvent(ctx, eventID, payloadHash, expiresAt)
	if errors.Is(err, outbox.ErrPayloadConflict) {
		return false, domainerrors.ErrConflict
	}
	return reserved, err
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func cloneClip(item entities.Clip) entities.Clip {
	item.ClipTimestamps = append([]string(nil), item.ClipTimestamps...)
	return item
}

var _ ports.ClipRepository = (*Store)(nil)
var _ ports.AuditRepository = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.EventDedupStore = (*Store)(nil)
