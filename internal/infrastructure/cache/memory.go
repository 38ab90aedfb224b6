package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// KV is the process-wide cache contract. Implementations: Memory (lost on
// restart, per instance) and RedisKV (shared).
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

var (
	_ KV = (*Memory)(nil)
	_ KV = (*RedisKV)(nil)
)

type memEntry struct {
	key       string
	value     string
	expiresAt time.Time
}

// Memory is a bounded in-process KV. Past capacity the oldest inserted entry
// is evicted; entries also expire after their TTL.
type Memory struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	order    *list.List
	items    map[string]*list.Element
	now      func() time.Time
}

func NewMemory(capacity int, ttl time.Duration) *Memory {
	if capacity <= 0 {
		capacity = 100
	}
	return &Memory{
		capacity: capacity,
		ttl:      ttl,
		order:    list.New(),
		items:    make(map[string]*list.Element, capacity),
		now:      time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.items[key]
	if !ok {
		return "", false, nil
	}
	e := el.Value.(*memEntry)
	if !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		m.removeElement(el)
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.ttl
	}
	var exp time.Time
	if ttl > 0 {
		exp = m.now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.items[key]; ok {
		m.removeElement(el)
	}
	m.items[key] = m.order.PushBack(&memEntry{key: key, value: value, expiresAt: exp})
	for m.order.Len() > m.capacity {
		m.removeElement(m.order.Front())
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.items[key]; ok {
		m.removeElement(el)
	}
	return nil
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

func (m *Memory) removeElement(el *list.Element) {
	m.order.Remove(el)
	delete(m.items, el.Value.(*memEntry).key)
}
