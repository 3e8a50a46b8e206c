package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache implements Client interface using in-memory storage
type MemoryCache struct {
	data   map[string]*memoryItem
	mu     sync.RWMutex
	config *Config
	now    func() time.Time
	stopCh chan struct{}
	once   sync.Once
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time
	createdAt time.Time
}

func NewMemoryCache(config *Config) *MemoryCache {
	setMemoryDefaults(config)
	cache := &MemoryCache{
		data:   make(map[string]*memoryItem),
		config: config,
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
	go cache.cleanupExpired()
	return cache
}

func (m *MemoryCache) cleanupExpired() {
	ticker := time.NewTicker(m.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup()
		case <-m.stopCh:
			return
		}
	}
}

func (m *MemoryCache) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, item := range m.data {
		if m.isExpired(item) {
			delete(m.data, key)
		}
	}
}

func (m *MemoryCache) isExpired(item *memoryItem) bool {
	return !item.expiresAt.IsZero() && m.now().After(item.expiresAt)
}

func (m *MemoryCache) expiry(ttl time.Duration) time.Time {
	if ttl == 0 {
		ttl = m.config.DefaultTTL
	}
	if ttl < 0 {
		return time.Time{}
	}
	return m.now().Add(ttl)
}

// evictOldest must be called with m.mu held.
func (m *MemoryCache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, item := range m.data {
		if oldestKey == "" || item.createdAt.Before(oldest) {
			oldestKey, oldest = key, item.createdAt
		}
	}
	delete(m.data, oldestKey)
}

func (m *MemoryCache) store(key string, value []byte, expiresAt time.Time) {
	if _, exists := m.data[key]; !exists && len(m.data) >= m.config.MaxSize {
		m.evictOldest()
	}
	m.data[key] = &memoryItem{value: value, expiresAt: expiresAt, createdAt: m.now()}
}

func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	item, exists := m.data[key]
	m.mu.RUnlock()

	if !exists || m.isExpired(item) {
		return nil, ErrKeyNotFound
	}

	result := make([]byte, len(item.value))
	copy(result, item.value)
	return result, nil
}

func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	m.mu.Lock()
	m.store(key, valueCopy, m.expiry(ttl))
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	for _, key := range keys {
		delete(m.data, key)
	}
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	item, exists := m.data[key]
	m.mu.RUnlock()

	return exists && !m.isExpired(item), nil
}

func (m *MemoryCache) Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if item, exists := m.data[key]; exists && !m.isExpired(item) {
		current, err := parseInt64(item.value)
		if err != nil {
			return 0, &Error{Operation: "increment", Key: key, Err: err}
		}
		item.value = formatInt64(current + delta)
		return current + delta, nil
	}

	m.store(key, formatInt64(delta), m.expiry(ttl))
	return delta, nil
}

func (m *MemoryCache) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	m.mu.RLock()
	item, exists := m.data[key]
	m.mu.RUnlock()

	if !exists || m.isExpired(item) {
		return 0, ErrKeyNotFound
	}
	if item.expiresAt.IsZero() {
		return -1, nil
	}
	return item.expiresAt.Sub(m.now()), nil
}

func (m *MemoryCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := marshal(key, value)
	if err != nil {
		return err
	}
	return m.Set(ctx, key, data, ttl)
}

func (m *MemoryCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := m.Get(ctx, key)
	if err != nil {
		return err
	}
	return unmarshal(key, data, dest)
}

func (m *MemoryCache) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryCache) Close() error {
	m.once.Do(func() { close(m.stopCh) })
	return nil
}
