package cache

import (
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// Cache configuration defaults
const (
	DefaultMaxEntries = 256
	DefaultShards     = 16
)

// Config defines memo options
type Config struct {
	Enabled bool
	// MaxEntries bounds how many produced values stay reachable; older
	// entries are dropped and recomputed on next access.
	MaxEntries int
	Shards     int
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		MaxEntries: DefaultMaxEntries,
		Shards:     DefaultShards,
	}
}

type entry[V any] struct {
	value V
	seq   uint64
}

type shard[V any] struct {
	mu    sync.RWMutex
	items map[string]entry[V]
}

// Memo is a concurrent memoization table keyed by stable string identities.
// Computation happens outside any lock: concurrent misses on the same key
// may compute twice and the last store wins. Values must be immutable once
// returned.
type Memo[V any] struct {
	enabled bool
	shards  []*shard[V]
	recency *recencyQueue

	seq       atomic.Uint64
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewMemo creates a memo from config. Non-positive sizes fall back to defaults.
func NewMemo[V any](config Config) *Memo[V] {
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultMaxEntries
	}
	if config.Shards <= 0 {
		config.Shards = DefaultShards
	}

	m := &Memo[V]{
		enabled: config.Enabled,
		shards:  make([]*shard[V], config.Shards),
		recency: newRecencyQueue(config.MaxEntries),
	}
	for i := range m.shards {
		m.shards[i] = &shard[V]{items: make(map[string]entry[V])}
	}
	return m
}

func (m *Memo[V]) shardFor(key string) *shard[V] {
	return m.shards[xxhash.Sum64String(key)%uint64(len(m.shards))]
}

// Get returns the cached value for key
func (m *Memo[V]) Get(key string) (V, bool) {
	if !m.enabled {
		var zero V
		return zero, false
	}

	s := m.shardFor(key)
	s.mu.RLock()
	e, ok := s.items[key]
	s.mu.RUnlock()

	if ok {
		m.hits.Add(1)
	} else {
		m.misses.Add(1)
	}
	return e.value, ok
}

// Put stores value under key, evicting the oldest entries beyond capacity
func (m *Memo[V]) Put(key string, value V) {
	if !m.enabled {
		return
	}

	seq := m.seq.Add(1)
	s := m.shardFor(key)
	s.mu.Lock()
	s.items[key] = entry[V]{value: value, seq: seq}
	s.mu.Unlock()

	if old, ok := m.recency.push(recencyItem{key: key, seq: seq}); ok {
		m.evict(old)
	}
}

// evict drops an entry only if it was not overwritten since it was queued
func (m *Memo[V]) evict(item recencyItem) {
	s := m.shardFor(item.key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.items[item.key]; ok && e.seq == item.seq {
		delete(s.items, item.key)
		m.evictions.Add(1)
	}
}

// GetOrCompute returns the cached value or computes and stores it
func (m *Memo[V]) GetOrCompute(key string, compute func() V) V {
	if v, ok := m.Get(key); ok {
		return v
	}
	v := compute()
	m.Put(key, v)
	return v
}

// Len returns the number of live entries
func (m *Memo[V]) Len() int {
	n := 0
	for _, s := range m.shards {
		s.mu.RLock()
		n += len(s.items)
		s.mu.RUnlock()
	}
	return n
}

// Clear removes all entries
func (m *Memo[V]) Clear() {
	for _, s := range m.shards {
		s.mu.Lock()
		s.items = make(map[string]entry[V])
		s.mu.Unlock()
	}
	m.recency.reset()
}

// Enabled reports whether the memo stores anything
func (m *Memo[V]) Enabled() bool {
	return m.enabled
}

// Stats returns a snapshot of the counters
func (m *Memo[V]) Stats() Stats {
	return Stats{
		Entries:   m.Len(),
		Hits:      m.hits.Load(),
		Misses:    m.misses.Load(),
		Evictions: m.evictions.Load(),
	}
}
