package directory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// scripted is a Directory whose List answers come from a queue.
type scripted struct {
	mu      sync.Mutex
	answers [][]string
	listErr error
	lists   int
	removed []string
}

func (s *scripted) Add(context.Context, string, string, Mode) error { return nil }

func (s *scripted) List(context.Context, string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	if s.listErr != nil {
		return nil, s.listErr
	}
	if len(s.answers) == 0 {
		return nil, nil
	}
	next := s.answers[0]
	s.answers = s.answers[1:]
	return next, nil
}

func (s *scripted) Remove(_ context.Context, _ string, entry string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, entry)
	return nil
}

func TestWaitAndRemoveFound(t *testing.T) {
	d := &scripted{answers: [][]string{nil, nil, {"first", "second"}}}
	got, err := WaitAndRemove(context.Background(), d, "name", PollOptions{MaxAttempts: 5, Interval: time.Millisecond})
	if err != nil {
		t.Fatalf("WaitAndRemove: %v", err)
	}
	if got != "first" {
		t.Fatalf("entry = %q, want first", got)
	}
	if d.lists != 3 {
		t.Fatalf("lists = %d, want 3", d.lists)
	}
	if len(d.removed) != 1 || d.removed[0] != "first" {
		t.Fatalf("removed = %v", d.removed)
	}
}

func TestWaitAndRemoveTimeout(t *testing.T) {
	const interval = 20 * time.Millisecond
	d := &scripted{}
	start := time.Now()
	_, err := WaitAndRemove(context.Background(), d, "name", PollOptions{MaxAttempts: 3, Interval: interval})
	elapsed := time.Since(start)

	if !errors.Is(err, ErrRendezvousTimeout) {
		t.Fatalf("err = %v, want ErrRendezvousTimeout", err)
	}
	if d.lists != 3 {
		t.Fatalf("lists = %d, want 3", d.lists)
	}
	if elapsed < 3*interval {
		t.Fatalf("elapsed %v, want at least %v", elapsed, 3*interval)
	}
	if elapsed > 3*interval+time.Second {
		t.Fatalf("elapsed %v, too long", elapsed)
	}
	if len(d.removed) != 0 {
		t.Fatalf("removed = %v", d.removed)
	}
}

func TestWaitAndRemoveListErrorNotRetried(t *testing.T) {
	boom := errors.New("boom")
	d := &scripted{listErr: boom}
	_, err := WaitAndRemove(context.Background(), d, "name", PollOptions{MaxAttempts: 5, Interval: time.Millisecond})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if d.lists != 1 {
		t.Fatalf("lists = %d, want 1", d.lists)
	}
}

func TestWaitAndRemoveEmptyEntry(t *testing.T) {
	d := &scripted{answers: [][]string{{""}}}
	_, err := WaitAndRemove(context.Background(), d, "name", PollOptions{MaxAttempts: 2, Interval: time.Millisecond})
	if !errors.Is(err, ErrMalformedEntry) {
		t.Fatalf("err = %v, want ErrMalformedEntry", err)
	}
}

func TestWaitAndRemoveCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := &scripted{}
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := WaitAndRemove(ctx, d, "name", PollOptions{MaxAttempts: 1000, Interval: 5 * time.Millisecond})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestPollOptionsBudget(t *testing.T) {
	if got := (PollOptions{}).Budget(); got != DefaultMaxAttempts*DefaultPollInterval {
		t.Fatalf("Budget = %v", got)
	}
	if got := (PollOptions{MaxAttempts: 100, Interval: 200 * time.Millisecond}).Budget(); got != 20*time.Second {
		t.Fatalf("Budget = %v", got)
	}
}

func TestTimeToLive(t *testing.T) {
	cases := map[Mode]time.Duration{
		ModeFast:    15 * time.Second,
		ModeShort:   time.Minute,
		ModeDefault: 3 * time.Minute,
		ModeNormal:  3 * time.Minute,
		ModeLong:    5 * time.Minute,
		Mode("?"):   3 * time.Minute,
	}
	for mode, want := range cases {
		if got := TimeToLive(mode); got != want {
			t.Fatalf("TimeToLive(%q) = %v, want %v", mode, got, want)
		}
	}
}
