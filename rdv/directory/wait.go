package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/TheusHen/rendezvous/rdv/internal/logutil"
	"github.com/TheusHen/rendezvous/rdv/metrics"
)

const (
	DefaultPollInterval = 200 * time.Millisecond
	DefaultMaxAttempts  = 10
)

// PollOptions bound a wait: at most MaxAttempts List calls, Interval apart.
type PollOptions struct {
	MaxAttempts int
	Interval    time.Duration
}

func (o PollOptions) withDefaults() PollOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Interval <= 0 {
		o.Interval = DefaultPollInterval
	}
	return o
}

// Budget is the longest a wait with these options can take.
func (o PollOptions) Budget() time.Duration {
	o = o.withDefaults()
	return time.Duration(o.MaxAttempts) * o.Interval
}

// Poller waits for entries on a Directory.
type Poller struct {
	Directory Directory
	Logger    logrus.FieldLogger
	Metrics   *metrics.Metrics
}

// WaitAndRemove waits for an entry under name on d and consumes it.
// See Poller.WaitAndRemove.
func WaitAndRemove(ctx context.Context, d Directory, name string, opts PollOptions) (string, error) {
	p := Poller{Directory: d}
	return p.WaitAndRemove(ctx, name, opts)
}

// WaitAndRemove lists name until an entry appears, removes the first entry
// of that snapshot and returns it. After MaxAttempts empty snapshots it fails
// with ErrRendezvousTimeout. Only "not yet present" is retried: List and
// Remove errors, and context cancellation, end the wait immediately.
func (p *Poller) WaitAndRemove(ctx context.Context, name string, opts PollOptions) (string, error) {
	opts = opts.withDefaults()
	log := logutil.OrDiscard(p.Logger).WithField("name", shortName(name))
	start := time.Now()

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		entries, err := p.Directory.List(ctx, name)
		if err != nil {
			p.Metrics.PollFinished(attempt, time.Since(start), "error")
			return "", err
		}

		if len(entries) > 0 {
			entry := entries[0]
			if entry == "" {
				p.Metrics.PollFinished(attempt, time.Since(start), "malformed")
				return "", ErrMalformedEntry
			}
			if err := p.Directory.Remove(ctx, name, entry); err != nil {
				p.Metrics.PollFinished(attempt, time.Since(start), "error")
				return "", err
			}
			log.WithFields(logrus.Fields{
				"attempt": attempt,
				"max":     opts.MaxAttempts,
			}).Debug("entry consumed")
			p.Metrics.PollFinished(attempt, time.Since(start), "found")
			return entry, nil
		}

		if err := sleep(ctx, opts.Interval); err != nil {
			p.Metrics.PollFinished(attempt, time.Since(start), "canceled")
			return "", err
		}
	}

	p.Metrics.PollFinished(opts.MaxAttempts, time.Since(start), "timeout")
	log.WithField("attempts", opts.MaxAttempts).Debug("wait timed out")
	return "", fmt.Errorf("%w: %s after %d attempts", ErrRendezvousTimeout, shortName(name), opts.MaxAttempts)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func shortName(name string) string {
	if len(name) <= 8 {
		return name
	}
	return name[:8]
}
