package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestStore_SessionIsReused(t *testing.T) {
	s := NewStore(nil)

	a := s.Session("u1")
	b := s.Session("u1")
	assert.Same(t, a, b)
	assert.NotSame(t, a, s.Session("u2"))
	assert.Equal(t, 2, s.Len())
}

func TestStore_PruneIdle(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewStore(clock.Now)

	s.Session("guest:old")
	clock.Advance(2 * time.Hour)
	s.Session("u1")
	clock.Advance(30 * time.Minute)

	assert.Equal(t, 1, s.PruneIdle(time.Hour))
	assert.Equal(t, 1, s.Len())

	// touching a session keeps it alive
	s.Session("u1")
	clock.Advance(45 * time.Minute)
	assert.Equal(t, 0, s.PruneIdle(time.Hour))
}

func TestStore_RunPruner(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	s := NewStore(clock.Now)
	s.Session("guest:a")
	s.Session("guest:b")
	clock.Advance(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	total := 0
	done := make(chan struct{})
	go func() {
		s.RunPruner(ctx, 5*time.Millisecond, time.Minute, func(n int) {
			mu.Lock()
			total += n
			mu.Unlock()
		})
		close(done)
	}()

	require.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, total)
}
