package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/TheusHen/rendezvous/rdv/directory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestStoreAddListRemove(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.Add(ctx, "alpha", "one", directory.ModeDefault); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(ctx, "alpha", "two", directory.ModeShort); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := s.List(ctx, "alpha")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Fatalf("List = %v", got)
	}
	if s.Count() != 2 {
		t.Fatalf("Count = %d", s.Count())
	}

	if err := s.Remove(ctx, "alpha", "one"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	got, _ = s.List(ctx, "alpha")
	if len(got) != 1 || got[0] != "two" {
		t.Fatalf("List after remove = %v", got)
	}

	if err := s.Remove(ctx, "alpha", "two"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if s.Count() != 0 {
		t.Fatalf("Count = %d, want 0", s.Count())
	}
}

func TestStoreNamesAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Add(ctx, "alpha", "x", directory.ModeDefault); err != nil {
		t.Fatalf("Add: %v", err)
	}
	got, err := s.List(ctx, "beta")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("unexpected entries %v", got)
	}
}

func TestStoreDuplicateAddRefreshes(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	s := New().WithClock(clock.Now)

	if err := s.Add(ctx, "alpha", "x", directory.ModeFast); err != nil {
		t.Fatalf("Add: %v", err)
	}
	clock.Advance(10 * time.Second)
	if err := s.Add(ctx, "alpha", "x", directory.ModeFast); err != nil {
		t.Fatalf("Add: %v", err)
	}
	clock.Advance(10 * time.Second)

	got, _ := s.List(ctx, "alpha")
	if len(got) != 1 {
		t.Fatalf("List = %v, want the refreshed entry once", got)
	}
}

func TestStoreExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	s := New().WithClock(clock.Now)

	if err := s.Add(ctx, "alpha", "short-lived", directory.ModeFast); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(ctx, "alpha", "long-lived", directory.ModeLong); err != nil {
		t.Fatalf("Add: %v", err)
	}

	clock.Advance(directory.TimeToLive(directory.ModeFast) + time.Second)
	got, _ := s.List(ctx, "alpha")
	if len(got) != 1 || got[0] != "long-lived" {
		t.Fatalf("List = %v", got)
	}

	clock.Advance(directory.TimeToLive(directory.ModeLong))
	if s.Count() != 0 {
		t.Fatalf("Count = %d after expiry", s.Count())
	}
}

func TestStoreRemoveMissing(t *testing.T) {
	s := New()
	if err := s.Remove(context.Background(), "alpha", "ghost"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
}

func TestStoreInvalidArgs(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Add(ctx, "", "x", directory.ModeDefault); !errors.Is(err, directory.ErrInvalidArgs) {
		t.Fatalf("Add empty name: %v", err)
	}
	if err := s.Add(ctx, "alpha", "", directory.ModeDefault); !errors.Is(err, directory.ErrInvalidArgs) {
		t.Fatalf("Add empty entry: %v", err)
	}
	if _, err := s.List(ctx, ""); !errors.Is(err, directory.ErrInvalidArgs) {
		t.Fatalf("List empty name: %v", err)
	}
}
