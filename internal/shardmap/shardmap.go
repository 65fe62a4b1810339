// Package shardmap provides the lock-striped concurrent map backing the
// indicator engines' per-key state. Keys are hash-partitioned across a fixed
// set of shards so that operations on different keys contend only when they
// land on the same shard, and an Upsert is atomic with respect to concurrent
// Upserts on the same key.
package shardmap

import (
	"hash/fnv"
	"math"
	"sync"
)

// DefaultShards is the shard count used by New. Must be a power of two.
const DefaultShards = 32

// Hasher maps a key to a 64-bit hash used for shard selection.
type Hasher[K comparable] func(K) uint64

type shard[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

// Map is a sharded concurrent map. The zero value is not usable; construct
// with New or NewWithShards.
type Map[K comparable, V any] struct {
	shards []*shard[K, V]
	mask   uint64
	hash   Hasher[K]
}

// New creates a map with DefaultShards shards.
func New[K comparable, V any](hash Hasher[K]) *Map[K, V] {
	return NewWithShards[K, V](DefaultShards, hash)
}

// NewWithShards creates a map with the given shard count, rounded up to the
// next power of two.
func NewWithShards[K comparable, V any](shards int, hash Hasher[K]) *Map[K, V] {
	n := 1
	for n < shards {
		n <<= 1
	}
	m := &Map[K, V]{
		shards: make([]*shard[K, V], n),
		mask:   uint64(n - 1),
		hash:   hash,
	}
	for i := range m.shards {
		m.shards[i] = &shard[K, V]{m: make(map[K]V)}
	}
	return m
}

func (m *Map[K, V]) shardFor(key K) *shard[K, V] {
	return m.shards[m.hash(key)&m.mask]
}

// Get returns the value stored for key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	s := m.shardFor(key)
	s.mu.RLock()
	v, ok := s.m[key]
	s.mu.RUnlock()
	return v, ok
}

// Store sets the value for key unconditionally.
func (m *Map[K, V]) Store(key K, value V) {
	s := m.shardFor(key)
	s.mu.Lock()
	s.m[key] = value
	s.mu.Unlock()
}

// Upsert applies fn to the current value for key (or the zero value when the
// key is absent) and stores the result, all under the shard lock. It returns
// the stored value. Concurrent Upserts on the same key never lose updates.
func (m *Map[K, V]) Upsert(key K, fn func(old V, exists bool) V) V {
	s := m.shardFor(key)
	s.mu.Lock()
	old, ok := s.m[key]
	v := fn(old, ok)
	s.m[key] = v
	s.mu.Unlock()
	return v
}

// Delete removes key. Deleting an absent key is a no-op.
func (m *Map[K, V]) Delete(key K) {
	s := m.shardFor(key)
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
}

// Clear removes every entry.
func (m *Map[K, V]) Clear() {
	for _, s := range m.shards {
		s.mu.Lock()
		s.m = make(map[K]V)
		s.mu.Unlock()
	}
}

// Len returns the total number of entries across all shards. The count is a
// point-in-time aggregate; entries may move while it is being taken.
func (m *Map[K, V]) Len() int {
	n := 0
	for _, s := range m.shards {
		s.mu.RLock()
		n += len(s.m)
		s.mu.RUnlock()
	}
	return n
}

// Range calls fn for every entry until fn returns false. Each shard is read
// locked only while its own entries are visited.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	for _, s := range m.shards {
		s.mu.RLock()
		for k, v := range s.m {
			if !fn(k, v) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}

// DeleteFunc removes every entry for which fn returns true.
func (m *Map[K, V]) DeleteFunc(fn func(key K, value V) bool) {
	for _, s := range m.shards {
		s.mu.Lock()
		for k, v := range s.m {
			if fn(k, v) {
				delete(s.m, k)
			}
		}
		s.mu.Unlock()
	}
}

// StringHash is an FNV-1a hasher for string keys.
func StringHash(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

// Uint64Hash mixes a uint64 with the FNV-1a prime, for composite keys whose
// fields have already been folded into one word.
func Uint64Hash(v uint64) uint64 {
	const prime64 = 1099511628211
	h := uint64(14695981039346656037)
	for i := 0; i < 8; i++ {
		h ^= v & 0xff
		h *= prime64
		v >>= 8
	}
	return h
}

// Float64Bits folds a float64 into hashable bits. Negative zero is
// normalised so -0.0 and 0.0 hash identically.
func Float64Bits(f float64) uint64 {
	if f == 0 {
		return 0
	}
	return math.Float64bits(f)
}
