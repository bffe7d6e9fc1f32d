package cache

import (
	"container/list"
	"sync"
)

// Memory is an LRU cache bounded by the total size of its values.
type Memory struct {
	capacity int64
	size     int64

	items    map[string]*list.Element
	eviction *list.List

	mu    sync.Mutex
	stats Stats
}

type memoryEntry struct {
	key   string
	value []byte
}

// NewMemory creates a memory cache holding up to capacity bytes.
func NewMemory(capacity int64) *Memory {
	return &Memory{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
	}
}

// Get retrieves a value and marks it most recently used.
func (c *Memory) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	c.eviction.MoveToFront(elem)
	c.stats.Hits++
	return elem.Value.(*memoryEntry).value, true
}

// Put stores a value, evicting least recently used entries to make room.
func (c *Memory) Put(key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := int64(len(value))
	if n > c.capacity {
		return ErrTooLarge
	}
	if elem, ok := c.items[key]; ok {
		c.remove(elem)
	}
	for c.size+n > c.capacity && c.eviction.Len() > 0 {
		c.remove(c.eviction.Back())
		c.stats.Evictions++
	}

	c.items[key] = c.eviction.PushFront(&memoryEntry{key: key, value: value})
	c.size += n
	return nil
}

// Delete removes key if present.
func (c *Memory) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		c.remove(elem)
	}
}

// Stats returns a snapshot of the counters.
func (c *Memory) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Capacity = c.capacity
	s.Size = c.size
	s.Items = int64(len(c.items))
	return s
}

// remove must be called with mu held.
func (c *Memory) remove(elem *list.Element) {
	c.eviction.Remove(elem)
	e := elem.Value.(*memoryEntry)
	delete(c.items, e.key)
	c.size -= int64(len(e.value))
}
