package db

import (
	"context"
	"strings"

	"clypzy/internal/platform/lock"

	"gorm.io/gorm"
)

type txKey struct{}

// WithTx stores tx in ctx so repositories joined to a unit of work share it.
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// Conn returns the transaction carried by ctx, or fallback when there is none.
func Conn(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return fallback.WithContext(ctx)
}

// Scope is the database unit of work. Callbacks sharing a key run one at a
// time inside a single transaction; on postgres a transaction-scoped advisory
// lock extends the serialization across processes.
type Scope struct {
	db    *gorm.DB
	locks *lock.KeyedMutex
}

func NewScope(conn *gorm.DB) *Scope {
	return &Scope{db: conn, locks: lock.NewKeyedMutex()}
}

func (s *Scope) Within(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	key = strings.TrimSpace(key)
	if lock.Held(ctx, key) {
		return fn(ctx)
	}
	unlock := s.locks.Lock(key)
	defer unlock()

	return Conn(ctx, s.db).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == DriverPostgres {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error; err != nil {
				return err
			}
		}
		return fn(lock.WithHeld(WithTx(ctx, tx), key))
	})
}
