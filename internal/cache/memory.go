package cache

import (
	"container/list"
	"fmt"
	"regexp"
	"sync"
	"time"
)

type entry struct {
	key      string
	value    any
	storedAt time.Time
	ttl      time.Duration
}

// Memory is a process-local key/value store with a fixed entry limit.
// Entries expire by TTL comparison at read time; there is no background
// sweep. When full, the oldest inserted entry is evicted.
type Memory struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List
	maxSize int
	now     func() time.Time
}

type Stats struct {
	Size    int `json:"size"`
	MaxSize int `json:"max_size"`
}

func NewMemory(maxSize int) *Memory {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Memory{
		items:   make(map[string]*list.Element, maxSize),
		order:   list.New(),
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Set stores value under key. A ttl of zero or less never expires.
func (m *Memory) Set(key string, value any, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.items[key]; ok {
		m.order.Remove(el)
		delete(m.items, key)
	}

	if len(m.items) >= m.maxSize {
		if oldest := m.order.Front(); oldest != nil {
			m.removeElement(oldest)
		}
	}

	m.items[key] = m.order.PushBack(&entry{
		key:      key,
		value:    value,
		storedAt: m.now(),
		ttl:      ttl,
	})
}

// Get returns the value stored under key if it has not expired. Expired
// entries are removed.
func (m *Memory) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.items[key]
	if !ok {
		return nil, false
	}

	e := el.Value.(*entry)
	if e.ttl > 0 && m.now().Sub(e.storedAt) > e.ttl {
		m.removeElement(el)
		return nil, false
	}
	return e.value, true
}

func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.items[key]; ok {
		m.removeElement(el)
	}
}

func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]*list.Element, m.maxSize)
	m.order.Init()
}

// DeleteByPattern removes every key matching the regular expression and
// returns how many were removed.
func (m *Memory) DeleteByPattern(pattern string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, fmt.Errorf("compile cache pattern %q: %w", pattern, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for el := m.order.Front(); el != nil; {
		next := el.Next()
		if re.MatchString(el.Value.(*entry).key) {
			m.removeElement(el)
			removed++
		}
		el = next
	}
	return removed, nil
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Memory) Stats() Stats {
	return Stats{Size: m.Len(), MaxSize: m.maxSize}
}

func (m *Memory) removeElement(el *list.Element) {
	m.order.Remove(el)
	delete(m.items, el.Value.(*entry).key)
}

// GetAs is Get with a type assertion. A stored value of another type is
// reported as a miss.
func GetAs[T any](m *Memory, key string) (T, bool) {
	var zero T
	v, ok := m.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
