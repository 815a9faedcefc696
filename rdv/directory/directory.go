// Package directory defines the contract of the untrusted directory service
// and the polling primitive built on top of it.
package directory

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrDirectoryUnavailable = errors.New("directory: unavailable")
	ErrRejected             = fmt.Errorf("%w: request rejected", ErrDirectoryUnavailable)
	ErrRendezvousTimeout    = errors.New("directory: rendezvous timeout")
	ErrMalformedEntry       = errors.New("directory: malformed entry")
	ErrInvalidArgs          = errors.New("directory: invalid arguments")
)

// Mode is the advisory retention policy requested for an entry. Only the
// directory service interprets it.
type Mode string

const (
	ModeFast    Mode = "fast"
	ModeShort   Mode = "short"
	ModeDefault Mode = "default"
	ModeNormal  Mode = "normal"
	ModeLong    Mode = "long"
)

// TimeToLive maps a mode to the retention applied by the reference
// directory service. Unknown modes get the default retention.
func TimeToLive(mode Mode) time.Duration {
	switch mode {
	case ModeFast:
		return 15 * time.Second
	case ModeShort:
		return time.Minute
	case ModeLong:
		return 5 * time.Minute
	default:
		return 3 * time.Minute
	}
}

// Directory is a publish/poll store of string entries under string names.
// Implementations are backed by an RPC service, an in-memory map, etc.
//
// Transport failures are reported as ErrDirectoryUnavailable, non-success
// answers as ErrRejected. Entries are never empty.
type Directory interface {
	Add(ctx context.Context, name, entry string, mode Mode) error
	List(ctx context.Context, name string) ([]string, error)
	Remove(ctx context.Context, name, entry string) error
}
