package cache

import (
	"sync"
	"time"
)

// MemCache is an in-memory store of expiring counters backed by sync.Map.
// A background cleanup goroutine runs when NewMemCache is given a positive
// cleanupInterval.
type MemCache struct {
	items sync.Map
	now   func() time.Time
	stop  chan struct{}
	wg    sync.WaitGroup
}

type counter struct {
	mu         sync.Mutex
	value      int64
	expiration int64 // unix nano; 0 means no expiration
}

func NewMemCache(cleanupInterval time.Duration) *MemCache {
	m := &MemCache{
		now:  time.Now,
		stop: make(chan struct{}),
	}
	if cleanupInterval > 0 {
		m.wg.Add(1)
		go func() {
			ticker := time.NewTicker(cleanupInterval)
			defer ticker.Stop()
			defer m.wg.Done()
			for {
				select {
				case <-ticker.C:
					m.cleanup()
				case <-m.stop:
					return
				}
			}
		}()
	}
	return m
}

// Increment adds delta to the counter at key and returns the new value. A
// missing or expired counter starts from zero with a fresh ttl window; an
// existing one keeps its original expiry.
func (m *MemCache) Increment(key string, delta int64, ttl time.Duration) int64 {
	for {
		actual, _ := m.items.LoadOrStore(key, &counter{})
		c := actual.(*counter)

		c.mu.Lock()
		// cleanup may have dropped c between LoadOrStore and Lock.
		if cur, ok := m.items.Load(key); !ok || cur != c {
			c.mu.Unlock()
			continue
		}

		now := m.now().UnixNano()
		if c.expired(now) || (c.value == 0 && c.expiration == 0) {
			c.value = 0
			c.expiration = 0
			if ttl > 0 {
				c.expiration = now + int64(ttl)
			}
		}
		c.value += delta
		v := c.value
		c.mu.Unlock()
		return v
	}
}

func (m *MemCache) Get(key string) (int64, bool) {
	v, ok := m.items.Load(key)
	if !ok {
		return 0, false
	}
	c := v.(*counter)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.expired(m.now().UnixNano()) {
		m.items.CompareAndDelete(key, c)
		return 0, false
	}
	return c.value, true
}

func (m *MemCache) Delete(key string) {
	m.items.Delete(key)
}

func (m *MemCache) Close() {
	if m.stop == nil {
		return
	}
	close(m.stop)
	m.wg.Wait()
	m.stop = nil
}

func (c *counter) expired(now int64) bool {
	return c.expiration != 0 && now > c.expiration
}

func (m *MemCache) cleanup() {
	now := m.now().UnixNano()
	m.items.Range(func(k, v any) bool {
		c := v.(*counter)
		c.mu.Lock()
		expired := c.expired(now)
		c.mu.Unlock()
		if expired {
			m.items.CompareAndDelete(k, c)
		}
		return true
	})
}
