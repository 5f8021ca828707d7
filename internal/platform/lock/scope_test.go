package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestScopeSerializesSameKey(t *testing.T) {
	scope := NewScope()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = scope.Within(context.Background(), "creator:1", func(context.Context) error {
				current := counter
				current++
				counter = current
				return nil
			})
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("expected 50 serialized increments, got %d", counter)
	}
	if scope.locks.Len() != 0 {
		t.Fatalf("expected keyed mutex entries to be released, got %d", scope.locks.Len())
	}
}

func TestScopeRollsBackOnError(t *testing.T) {
	scope := NewScope()
	values := map[string]int{"a": 1}
	failure := errors.New("boom")

	err := scope.Within(context.Background(), "k", func(ctx context.Context) error {
		previous := values["a"]
		values["a"] = 2
		RecordUndo(ctx, func() { values["a"] = previous })
		values["b"] = 3
		RecordUndo(ctx, func() { delete(values, "b") })
		return failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if values["a"] != 1 {
		t.Fatalf("expected a restored to 1, got %d", values["a"])
	}
	if _, ok := values["b"]; ok {
		t.Fatalf("expected b removed by rollback")
	}
}

func TestScopeIsReentrantForHeldKey(t *testing.T) {
	scope := NewScope()
	calls := 0
	err := scope.Within(context.Background(), "creator:1", func(ctx context.Context) error {
		return scope.Within(ctx, "creator:1", func(context.Context) error {
			calls++
			return nil
		})
	})
	if err != nil {
		t.Fatalf("nested scope failed: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected nested callback to run once, got %d", calls)
	}
}

func TestNestedFailureOnlyUndoesInnerWrites(t *testing.T) {
	scope := NewScope()
	values := map[string]int{}
	failure := errors.New("inner")

	err := scope.Within(context.Background(), "outer", func(ctx context.Context) error {
		values["outer"] = 1
		RecordUndo(ctx, func() { delete(values, "outer") })
		innerErr := scope.Within(ctx, "inner", func(ctx context.Context) error {
			values["inner"] = 1
			RecordUndo(ctx, func() { delete(values, "inner") })
			return failure
		})
		if !errors.Is(innerErr, failure) {
			t.Fatalf("expected inner failure, got %v", innerErr)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("outer scope failed: %v", err)
	}
	if values["outer"] != 1 {
		t.Fatalf("expected outer write kept")
	}
	if _, ok := values["inner"]; ok {
		t.Fatalf("expected inner write undone")
	}
}
