package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"clypzy/contexts/finance-core/wallet-service/domain/entities"
	domainerrors "clypzy/contexts/finance-core/wallet-service/domain/errors"
	"clypzy/contexts/finance-core/wallet-service/ports"
	"clypzy/internal/platform/lock"
	"clypzy/internal/shared/outbox"

	"github.com/google/uuid"
)

type Store struct {
	mu      sync.RWMutex
	wallets map[string]entities.Wallet

	Outbox *outbox.MemoryStore
}

func NewStore(seed []entities.Wallet) *Store {
	wallets := make(map[string]entities.Wallet, len(seed))
	for _, item := range seed {
		wallets[item.UserID] = cloneWallet(item)
	}
	return &Store{
		wallets: wallets,
		Outbox:  outbox.NewMemoryStore(),
	}
}

func (s *Store) CreateWallet(ctx context.Context, wallet entities.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.wallets[wallet.UserID]; exists {
		return domainerrors.ErrConflict
	}
	s.wallets[wallet.UserID] = cloneWallet(wallet)
	lock.RecordUndo(ctx, func() {
		s.mu.Lock()
		delete(s.wallets, wallet.UserID)
		s.mu.Unlock()
	})
	return nil
}

func (s *Store) UpdateWallet(ctx context.Context, wallet entities.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, exists := s.wallets[wallet.UserID]
	if !exists {
		return domainerrors.ErrWalletNotFound
	}
	s.wallets[wallet.UserID] = cloneWallet(wallet)
	lock.RecordUndo(ctx, func() {
		s.mu.Lock()
		s.wallets[previous.UserID] = previous
		s.mu.Unlock()
	})
	return nil
}

func (s *Store) GetWallet(_ context.Context, userID string) (entities.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.wallets[strings.TrimSpace(userID)]
	if !exists {
		return entities.Wallet{}, domainerrors.ErrWalletNotFound
	}
	return cloneWallet(item), nil
}

func (s *Store) ListWalletIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.wallets))
	for id := range s.wallets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
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

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func cloneWallet(item entities.Wallet) entities.Wallet {
	if item.LastRecomputedAt != nil {
		at := *item.LastRecomputedAt
		item.LastRecomputedAt = &at
	}
	return item
}

var _ ports.WalletRepository = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
