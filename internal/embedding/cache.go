package embedding

import (
	"container/list"
	"sync"
)

// QueryCache keeps the encodings of recent query texts, least recently used
// evicted first. Vectors are copied on the way in and on the way out, so a
// caller that mutates a returned vector cannot corrupt later hits.
//
// A nil *QueryCache is valid and caches nothing.
type QueryCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List // front is most recently used
}

type queryEntry struct {
	text string
	vec  []float32
}

// NewQueryCache returns a cache holding up to capacity encodings, or nil when
// capacity <= 0.
func NewQueryCache(capacity int) *QueryCache {
	if capacity <= 0 {
		return nil
	}
	return &QueryCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get returns a copy of the encoding cached for text.
func (c *QueryCache) Get(text string) ([]float32, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.entries[text]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return cloneVector(elem.Value.(*queryEntry).vec), true
}

// Put caches a copy of vec for text.
func (c *QueryCache) Put(text string, vec []float32) {
	if c == nil {
		return
	}
	stored := cloneVector(vec)
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[text]; ok {
		elem.Value.(*queryEntry).vec = stored
		c.order.MoveToFront(elem)
		return
	}
	c.entries[text] = c.order.PushFront(&queryEntry{text: text, vec: stored})
	for c.order.Len() > c.capacity {
		last := c.order.Back()
		c.order.Remove(last)
		delete(c.entries, last.Value.(*queryEntry).text)
	}
}

// Len returns the number of cached encodings.
func (c *QueryCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
