// Package state provides a TTL-bounded key-value store.
//
// The engine uses it for results that are ready before the identifier needed
// to deliver them is known: entries either get taken by a backfill or expire,
// so an identifier that never arrives cannot leak memory.
package state

import (
	"errors"
	"sync"
	"time"
)

// Common errors.
var (
	ErrClosed     = errors.New("store closed")
	ErrInvalidTTL = errors.New("invalid TTL")
)

// DefaultSweepInterval is how often expired entries are collected when the
// caller does not choose one.
const DefaultSweepInterval = 10 * time.Second

// EvictFunc is called for each entry dropped by TTL expiry. It is not called
// on Take or Close.
type EvictFunc func(key string, value interface{})

type entry struct {
	value    interface{}
	deadline time.Time
}

// TTLStore holds values for at most a fixed duration.
type TTLStore struct {
	ttl   time.Duration
	sweep time.Duration

	mu      sync.Mutex
	entries map[string]entry
	onEvict EvictFunc
	closed  bool
	stopCh  chan struct{}
}

// NewTTLStore creates a store whose entries expire after ttl.
func NewTTLStore(ttl time.Duration) (*TTLStore, error) {
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}

	s := &TTLStore{
		ttl:     ttl,
		sweep:   DefaultSweepInterval,
		entries: make(map[string]entry),
		stopCh:  make(chan struct{}),
	}
	if s.sweep > ttl {
		s.sweep = ttl
	}
	go s.sweepLoop()
	return s, nil
}

// OnEvict registers the eviction callback. Must be set before entries expire
// to observe them.
func (s *TTLStore) OnEvict(fn EvictFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvict = fn
}

// Put stores a value under key, replacing any previous value and restarting
// its TTL.
func (s *TTLStore) Put(key string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.entries[key] = entry{value: value, deadline: time.Now().Add(s.ttl)}
	return nil
}

// Take removes and returns the value for key. An expired entry is treated as
// absent even if the sweeper has not run yet.
func (s *TTLStore) Take(key string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	delete(s.entries, key)
	if time.Now().After(e.deadline) {
		return nil, false
	}
	return e.value, true
}

// Len returns the number of live entries.
func (s *TTLStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	n := 0
	for _, e := range s.entries {
		if !now.After(e.deadline) {
			n++
		}
	}
	return n
}

// Close stops the sweeper and drops all entries without eviction callbacks.
func (s *TTLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.stopCh)
	s.entries = make(map[string]entry)
	return nil
}

func (s *TTLStore) sweepLoop() {
	ticker := time.NewTicker(s.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.collect()
		}
	}
}

func (s *TTLStore) collect() {
	now := time.Now()

	s.mu.Lock()
	var evicted []struct {
		key   string
		value interface{}
	}
	for k, e := range s.entries {
		if now.After(e.deadline) {
			evicted = append(evicted, struct {
				key   string
				value interface{}
			}{k, e.value})
			delete(s.entries, k)
		}
	}
	fn := s.onEvict
	s.mu.Unlock()

	// Callbacks run outside the lock; they may call back into the store.
	if fn != nil {
		for _, ev := range evicted {
			fn(ev.key, ev.value)
		}
	}
}
