package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	key      string
	data     []byte
	expireAt time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

// MemoryCache implements Service in process. Values are stored encoded,
// so Get behaves like the Redis backend and callers never share memory.
type MemoryCache struct {
	mu         sync.Mutex
	items      map[string]*list.Element
	order      *list.List // front = most recently used
	maxSize    int
	defaultTTL time.Duration
	now        func() time.Time
	stop       chan struct{}
	closeOnce  sync.Once
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:         1000,
		DefaultTTL:      7 * 24 * time.Hour,
		CleanupInterval: 5 * time.Minute,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	mc := &MemoryCache{
		items:      make(map[string]*list.Element),
		order:      list.New(),
		maxSize:    cfg.MaxSize,
		defaultTTL: cfg.DefaultTTL,
		now:        time.Now,
		stop:       make(chan struct{}),
	}

	go mc.cleanupLoop(cfg.CleanupInterval)
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.put(key, data, expiration)
	return nil
}

func (mc *MemoryCache) put(key string, data []byte, expiration time.Duration) {
	if expiration <= 0 {
		expiration = mc.defaultTTL
	}
	expireAt := mc.now().Add(expiration)

	if el, ok := mc.items[key]; ok {
		e := el.Value.(*memoryEntry)
		e.data, e.expireAt = data, expireAt
		mc.order.MoveToFront(el)
		return
	}

	for len(mc.items) >= mc.maxSize {
		mc.removeElement(mc.order.Back())
	}
	mc.items[key] = mc.order.PushFront(&memoryEntry{key: key, data: data, expireAt: expireAt})
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mu.Lock()
	el, ok := mc.items[key]
	if !ok {
		mc.mu.Unlock()
		return ErrCacheMiss
	}
	e := el.Value.(*memoryEntry)
	if e.expired(mc.now()) {
		mc.removeElement(el)
		mc.mu.Unlock()
		return ErrCacheMiss
	}
	mc.order.MoveToFront(el)
	data := e.data
	mc.mu.Unlock()

	return decode(data, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for _, key := range keys {
		if el, ok := mc.items[key]; ok {
			mc.removeElement(el)
		}
	}
	return nil
}

func (mc *MemoryCache) Exists(_ context.Context, keys ...string) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.now()
	for _, key := range keys {
		if el, ok := mc.items[key]; ok && !el.Value.(*memoryEntry).expired(now) {
			return true, nil
		}
	}
	return false, nil
}

func (mc *MemoryCache) TryLock(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if el, ok := mc.items[key]; ok && !el.Value.(*memoryEntry).expired(mc.now()) {
		return "", false, nil
	}
	token := uuid.NewString()
	mc.put(key, []byte(token), ttl)
	return token, true, nil
}

func (mc *MemoryCache) Unlock(_ context.Context, key, token string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if el, ok := mc.items[key]; ok && string(el.Value.(*memoryEntry).data) == token {
		mc.removeElement(el)
	}
	return nil
}

func (mc *MemoryCache) Ping(context.Context) error { return nil }

// Len reports the number of stored entries, expired ones included until swept.
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return len(mc.items)
}

func (mc *MemoryCache) removeElement(el *list.Element) {
	if el == nil {
		return
	}
	mc.order.Remove(el)
	delete(mc.items, el.Value.(*memoryEntry).key)
}

func (mc *MemoryCache) sweep() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.now()
	for el := mc.order.Back(); el != nil; {
		prev := el.Prev()
		if el.Value.(*memoryEntry).expired(now) {
			mc.removeElement(el)
		}
		el = prev
	}
}

func (mc *MemoryCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-mc.stop:
			return
		case <-ticker.C:
			mc.sweep()
		}
	}
}

// Close stops the cleanup goroutine.
func (mc *MemoryCache) Close() error {
	mc.closeOnce.Do(func() { close(mc.stop) })
	return nil
}
