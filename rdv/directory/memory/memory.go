// Package memory is an in-memory directory.
// It is useful for tests, examples and the local development server.
package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/shaj13/libcache"
	_ "github.com/shaj13/libcache/arc"

	"github.com/TheusHen/rendezvous/rdv/directory"
)

const (
	DefaultDomain   = "rdv"
	DefaultCapacity = 100000
	DefaultTTL      = 15 * time.Minute
)

// Store keeps entries per name, each with its own expiry derived from the
// requested Mode. Names are hashed with a domain prefix before being used as
// cache keys, so distinct names never share a slot.
type Store struct {
	mu     sync.Mutex
	domain string
	cache  libcache.Cache
	now    func() time.Time
}

var _ directory.Directory = (*Store)(nil)

type entry struct {
	value    string
	expireOn time.Time
}

type entryList struct {
	values []*entry
}

func New() *Store {
	return NewWithDomain(DefaultDomain, DefaultCapacity, DefaultTTL)
}

func NewWithDomain(domain string, capacity int, ttl time.Duration) *Store {
	cache := libcache.ARC.NewUnsafe(capacity)
	cache.SetTTL(ttl)
	return &Store{
		domain: domain,
		cache:  cache,
		now:    time.Now,
	}
}

// WithClock replaces the clock used for entry expiry. Intended for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

// Add stores entry under name. Adding an existing entry refreshes its expiry.
func (s *Store) Add(_ context.Context, name, value string, mode directory.Mode) error {
	if name == "" || value == "" {
		return directory.ErrInvalidArgs
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.key(name)
	now := s.now()
	list := s.load(key)
	purge(list, now)

	expireOn := now.Add(directory.TimeToLive(mode))
	if pos := indexOf(list.values, value); pos >= 0 {
		list.values[pos].expireOn = expireOn
	} else {
		list.values = append(list.values, &entry{value: value, expireOn: expireOn})
	}
	s.store(key, list, now)
	return nil
}

// List returns the live entries under name in insertion order.
func (s *Store) List(_ context.Context, name string) ([]string, error) {
	if name == "" {
		return nil, directory.ErrInvalidArgs
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.key(name)
	now := s.now()
	list := s.load(key)
	purge(list, now)
	s.store(key, list, now)

	out := make([]string, 0, len(list.values))
	for _, e := range list.values {
		out = append(out, e.value)
	}
	return out, nil
}

// Remove deletes entry from name. Removing an absent entry is not an error.
func (s *Store) Remove(_ context.Context, name, value string) error {
	if name == "" {
		return directory.ErrInvalidArgs
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.key(name)
	now := s.now()
	list := s.load(key)
	if pos := indexOf(list.values, value); pos >= 0 {
		list.values = append(list.values[:pos], list.values[pos+1:]...)
	}
	purge(list, now)
	s.store(key, list, now)
	return nil
}

// Count returns the number of live entries across all names.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	total := 0
	for _, k := range s.cache.Keys() {
		v, ok := s.cache.Peek(k)
		if !ok {
			continue
		}
		list, ok := v.(*entryList)
		if !ok {
			continue
		}
		for _, e := range list.values {
			if !e.expireOn.Before(now) {
				total++
			}
		}
	}
	return total
}

func (s *Store) key(name string) string {
	sum := sha256.Sum256([]byte(s.domain + name))
	return "k:" + hex.EncodeToString(sum[:])
}

func (s *Store) load(key string) *entryList {
	if v, ok := s.cache.Load(key); ok {
		if list, ok := v.(*entryList); ok {
			return list
		}
	}
	return &entryList{}
}

// store writes list back, or drops the key once the list is empty.
// The cache TTL follows the longest-lived entry.
func (s *Store) store(key string, list *entryList, now time.Time) {
	if len(list.values) == 0 {
		s.cache.Delete(key)
		return
	}
	latest := now
	for _, e := range list.values {
		if e.expireOn.After(latest) {
			latest = e.expireOn
		}
	}
	ttl := latest.Sub(now)
	if ttl < time.Second {
		ttl = time.Second
	}
	s.cache.StoreWithTTL(key, list, ttl)
}

func purge(list *entryList, now time.Time) {
	kept := list.values[:0]
	for _, e := range list.values {
		if e.expireOn.Before(now) {
			continue
		}
		kept = append(kept, e)
	}
	list.values = kept
}

func indexOf(values []*entry, value string) int {
	for i, e := range values {
		if e.value == value {
			return i
		}
	}
	return -1
}
