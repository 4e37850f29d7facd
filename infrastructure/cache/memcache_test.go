package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemCache_IncrementWithinWindow(t *testing.T) {
	m := NewMemCache(0)
	defer m.Close()

	now := time.Unix(1000, 0)
	m.now = func() time.Time { return now }

	require.EqualValues(t, 1, m.Increment("login:alice", 1, time.Minute))
	now = now.Add(30 * time.Second)
	require.EqualValues(t, 2, m.Increment("login:alice", 1, time.Minute))

	v, ok := m.Get("login:alice")
	require.True(t, ok)
	require.EqualValues(t, 2, v)

	// The window is anchored at the first increment.
	now = now.Add(31 * time.Second)
	_, ok = m.Get("login:alice")
	require.False(t, ok)
	require.EqualValues(t, 1, m.Increment("login:alice", 1, time.Minute))
}

func TestMemCache_Delete(t *testing.T) {
	m := NewMemCache(0)
	defer m.Close()

	m.Increment("k", 3, 0)
	m.Delete("k")

	_, ok := m.Get("k")
	require.False(t, ok)
}

func TestMemCache_ConcurrentIncrement(t *testing.T) {
	m := NewMemCache(0)
	defer m.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Increment("k", 1, time.Hour)
		}()
	}
	wg.Wait()

	v, ok := m.Get("k")
	require.True(t, ok)
	require.EqualValues(t, 50, v)
}

func TestMemCache_CleanupRemovesExpired(t *testing.T) {
	m := NewMemCache(0)
	defer m.Close()

	now := time.Unix(1000, 0)
	m.now = func() time.Time { return now }
	m.Increment("old", 1, time.Second)
	m.Increment("forever", 1, 0)

	now = now.Add(time.Minute)
	m.cleanup()

	_, loaded := m.items.Load("old")
	require.False(t, loaded)
	_, loaded = m.items.Load("forever")
	require.True(t, loaded)
}

func TestMemCache_IncrementSurvivesConcurrentCleanup(t *testing.T) {
	m := NewMemCache(0)
	defer m.Close()

	now := time.Unix(1000, 0)
	m.now = func() time.Time { return now }
	m.Increment("login:alice", 1, time.Second)
	now = now.Add(time.Minute)

	v, _ := m.items.Load("login:alice")
	stale := v.(*counter)

	// Hold the expired counter so Increment blocks after picking it up, then
	// drop it from the map the way cleanup does.
	stale.mu.Lock()
	done := make(chan int64)
	go func() { done <- m.Increment("login:alice", 1, time.Minute) }()
	time.Sleep(20 * time.Millisecond)
	m.items.CompareAndDelete("login:alice", stale)
	stale.mu.Unlock()

	require.EqualValues(t, 1, <-done)
	got, ok := m.Get("login:alice")
	require.True(t, ok)
	require.EqualValues(t, 1, got)
}
