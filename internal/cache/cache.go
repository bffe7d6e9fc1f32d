// Package cache keeps synthesized audio so repeated text is not synthesized
// twice. Memory is an in-process LRU; Disk persists zstd-compressed entries
// across runs. Tiered chains them.
package cache

import (
	"errors"
)

var (
	// ErrTooLarge is returned when an entry exceeds the store capacity.
	ErrTooLarge = errors.New("entry too large for cache")
	// ErrCorrupted is returned when a stored entry cannot be decoded.
	ErrCorrupted = errors.New("cache entry corrupted")
)

// Store is a size bounded byte store.
type Store interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
}

// Stats holds cache performance counters.
type Stats struct {
	Capacity  int64
	Size      int64
	Items     int64
	Hits      int64
	Misses    int64
	Evictions int64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	if s.Hits+s.Misses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}

// Tiered looks stores up in order and copies a hit into every faster store.
type Tiered []Store

// Get returns the value from the first store that has it.
func (t Tiered) Get(key string) ([]byte, bool) {
	for i, s := range t {
		v, ok := s.Get(key)
		if !ok {
			continue
		}
		for _, faster := range t[:i] {
			_ = faster.Put(key, v)
		}
		return v, true
	}
	return nil, false
}

// Put writes value to every store and joins their errors.
func (t Tiered) Put(key string, value []byte) error {
	var errs []error
	for _, s := range t {
		if err := s.Put(key, value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
