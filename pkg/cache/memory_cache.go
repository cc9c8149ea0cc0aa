package cache

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryCache implements Client in process. It is meant for tests and
// single-instance deployments.
type MemoryCache struct {
	data      map[string]*memoryItem
	mu        sync.RWMutex
	config    *Config
	logger    Logger
	stopCh    chan struct{}
	closeOnce sync.Once
	hits      int64
	misses    int64
	startTime time.Time
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time
	createdAt time.Time
}

func (i *memoryItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && !now.Before(i.expiresAt)
}

func NewMemoryCache(config *Config, logger Logger) *MemoryCache {
	setMemoryDefaults(config)
	cache := &MemoryCache{
		data:      make(map[string]*memoryItem),
		config:    config,
		logger:    logger,
		stopCh:    make(chan struct{}),
		startTime: time.Now(),
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
			m.mu.Lock()
			n := m.removeExpiredLocked(time.Now())
			m.mu.Unlock()
			if n > 0 && m.logger != nil {
				m.logger.Debugf("Cleaned up expired cache items: expired_count=%d", n)
			}
		case <-m.stopCh:
			return
		}
	}
}

func (m *MemoryCache) removeExpiredLocked(now time.Time) int {
	n := 0
	for key, item := range m.data {
		if item.expired(now) {
			delete(m.data, key)
			n++
		}
	}
	return n
}

// evictLocked makes room for one more key, dropping expired items first and
// then the oldest one.
func (m *MemoryCache) evictLocked(now time.Time) {
	if len(m.data) < m.config.MaxSize {
		return
	}
	if m.removeExpiredLocked(now) > 0 {
		return
	}
	var oldestKey string
	var oldest time.Time
	for key, item := range m.data {
		if oldestKey == "" || item.createdAt.Before(oldest) {
			oldestKey, oldest = key, item.createdAt
		}
	}
	delete(m.data, oldestKey)
}

func (m *MemoryCache) key(k string) string {
	return m.config.Prefix + k
}

func (m *MemoryCache) expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl == 0 {
		ttl = m.config.DefaultTTL
	}
	if ttl < 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, exists := m.data[m.key(key)]
	if !exists || item.expired(time.Now()) {
		m.misses++
		return nil, ErrKeyNotFound
	}
	m.hits++

	result := make([]byte, len(item.value))
	copy(result, item.value)
	return result, nil
}

// Set stores value. ttl == 0 uses the default TTL, ttl < 0 never expires.
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := time.Now()
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	m.mu.Lock()
	defer m.mu.Unlock()

	k := m.key(key)
	if _, exists := m.data[k]; !exists {
		m.evictLocked(now)
	}
	m.data[k] = &memoryItem{
		value:     valueCopy,
		expiresAt: m.expiry(now, ttl),
		createdAt: now,
	}
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, m.key(key))
	}
	return nil
}

func (m *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, exists := m.data[m.key(key)]
	return exists && !item.expired(time.Now()), nil
}

// DeletePattern accepts glob patterns (*, ?, [..]) like Redis SCAN MATCH.
func (m *MemoryCache) DeletePattern(ctx context.Context, pattern string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	full := m.key(pattern)
	var n int64
	for key := range m.data {
		if matched, _ := filepath.Match(full, key); matched {
			delete(m.data, key)
			n++
		}
	}
	return n, nil
}

func (m *MemoryCache) Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	k := m.key(key)
	item, exists := m.data[k]
	if exists && !item.expired(now) {
		current, err := parseInt64(item.value)
		if err != nil {
			return 0, &Error{Operation: "increment", Key: key, Err: err}
		}
		current += delta
		item.value = formatInt64(current)
		return current, nil
	}

	m.evictLocked(now)
	m.data[k] = &memoryItem{
		value:     formatInt64(delta),
		expiresAt: m.expiry(now, ttl),
		createdAt: now,
	}
	return delta, nil
}

// GetTTL returns -1 for keys without expiry, matching Redis.
func (m *MemoryCache) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, exists := m.data[m.key(key)]
	now := time.Now()
	if !exists || item.expired(now) {
		return 0, ErrKeyNotFound
	}
	if item.expiresAt.IsZero() {
		return -1, nil
	}
	return item.expiresAt.Sub(now), nil
}

func (m *MemoryCache) Lock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	k := m.key(LockKey(key))
	if item, exists := m.data[k]; exists && !item.expired(now) {
		return "", false, nil
	}

	token := uuid.NewString()
	m.data[k] = &memoryItem{
		value:     []byte(token),
		expiresAt: m.expiry(now, ttl),
		createdAt: now,
	}
	return token, true, nil
}

func (m *MemoryCache) Unlock(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := m.key(LockKey(key))
	item, exists := m.data[k]
	if !exists || item.expired(time.Now()) || string(item.value) != token {
		return ErrLockNotHeld
	}
	delete(m.data, k)
	return nil
}

func (m *MemoryCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return &Error{Operation: "serialize", Key: key, Err: ErrSerialization}
	}
	return m.Set(ctx, key, data, ttl)
}

func (m *MemoryCache) GetJSON(ctx context.Context, key string, dest any) error {
	data, err := m.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (m *MemoryCache) Close() error {
	m.closeOnce.Do(func() { close(m.stopCh) })
	return nil
}

func (m *MemoryCache) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryCache) Stats(ctx context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var hitRate float64
	if total := m.hits + m.misses; total > 0 {
		hitRate = float64(m.hits) / float64(total)
	}

	return Stats{
		Hits:    m.hits,
		Misses:  m.misses,
		HitRate: hitRate,
		Keys:    int64(len(m.data)),
		Uptime:  time.Since(m.startTime),
		Metadata: map[string]string{
			"type":        "memory",
			"default_ttl": m.config.DefaultTTL.String(),
		},
	}, nil
}
