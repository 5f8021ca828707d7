package lock

import (
	"context"
	"strings"
	"sync"
)

type heldKeysKey struct{}
type journalKey struct{}

// Held reports whether ctx already runs inside a scope for key.
func Held(ctx context.Context, key string) bool {
	held, _ := ctx.Value(heldKeysKey{}).(map[string]struct{})
	_, ok := held[key]
	return ok
}

// WithHeld marks key as held for every call made with the returned context.
func WithHeld(ctx context.Context, key string) context.Context {
	previous, _ := ctx.Value(heldKeysKey{}).(map[string]struct{})
	next := make(map[string]struct{}, len(previous)+1)
	for item := range previous {
		next[item] = struct{}{}
	}
	next[key] = struct{}{}
	return context.WithValue(ctx, heldKeysKey{}, next)
}

// Journal collects undo steps for writes made inside an in-memory scope.
type Journal struct {
	mu   sync.Mutex
	undo []func()
}

func (j *Journal) record(fn func()) {
	j.mu.Lock()
	j.undo = append(j.undo, fn)
	j.mu.Unlock()
}

func (j *Journal) mark() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.undo)
}

// rollbackTo runs undo steps newer than mark in reverse order.
func (j *Journal) rollbackTo(mark int) {
	j.mu.Lock()
	steps := append([]func(){}, j.undo[mark:]...)
	j.undo = j.undo[:mark]
	j.mu.Unlock()

	for i := len(steps) - 1; i >= 0; i-- {
		steps[i]()
	}
}

// RecordUndo registers fn to run if the enclosing scope fails. Outside a
// scope it is a no-op.
func RecordUndo(ctx context.Context, fn func()) {
	journal, ok := ctx.Value(journalKey{}).(*Journal)
	if !ok || journal == nil || fn == nil {
		return
	}
	journal.record(fn)
}

// Scope is the in-memory unit of work: writes sharing a key are serialized,
// and writes made through a scope are undone when its callback fails.
type Scope struct {
	locks *KeyedMutex
}

func NewScope() *Scope {
	return &Scope{locks: NewKeyedMutex()}
}

func (s *Scope) Within(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	key = strings.TrimSpace(key)
	journal, nested := ctx.Value(journalKey{}).(*Journal)
	if !nested || journal == nil {
		journal = &Journal{}
		ctx = context.WithValue(ctx, journalKey{}, journal)
	}
	mark := journal.mark()

	if !Held(ctx, key) {
		unlock := s.locks.Lock(key)
		defer unlock()
		ctx = WithHeld(ctx, key)
	}

	if err := fn(ctx); err != nil {
		journal.rollbackTo(mark)
		return err
	}
	return nil
}
