package scheduler

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

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recorder struct {
	mu   sync.Mutex
	runs []int
}

func (r *recorder) update(_ context.Context, days int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, days)
}

func (r *recorder) Runs() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.runs...)
}

func TestTick_FiresDueTrigger(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 12, 9, 0, 30, 0, time.UTC)}
	rec := &recorder{}

	s := New(rec.update, WithClock(clock))
	s.Add(Daily("daily-morning", 9, 0, 2))

	s.Tick(context.Background())
	require.Equal(t, []int{2}, rec.Runs())
}

func TestTick_DoesNotDoubleFireWithinMinute(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 12, 9, 0, 0, 0, time.UTC)}
	rec := &recorder{}

	s := New(rec.update, WithClock(clock))
	s.Add(Daily("daily-morning", 9, 0, 2))

	s.Tick(context.Background())
	clock.Set(time.Date(2025, 6, 12, 9, 0, 45, 0, time.UTC))
	s.Tick(context.Background())
	require.Equal(t, []int{2}, rec.Runs(), "same minute must fire once")

	// Next day, same wall-clock time: fires again.
	clock.Set(time.Date(2025, 6, 13, 9, 0, 0, 0, time.UTC))
	s.Tick(context.Background())
	require.Equal(t, []int{2, 2}, rec.Runs())
}

func TestTick_SkipsNonMatchingTime(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 12, 10, 30, 0, 0, time.UTC)}
	rec := &recorder{}

	s := New(rec.update, WithClock(clock))
	s.RegisterDefaults()

	s.Tick(context.Background())
	assert.Empty(t, rec.Runs())
}

func TestWeeklyAndMonthlyTriggers(t *testing.T) {
	// 2025-06-01 is both a Sunday and the 1st of the month.
	clock := &fakeClock{now: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)}
	rec := &recorder{}

	s := New(rec.update, WithClock(clock))
	s.Add(Weekly("weekly", time.Sunday, 8, 0, 7))
	s.Add(Monthly("monthly", 1, 7, 0, 30))

	s.Tick(context.Background())
	require.Equal(t, []int{7}, rec.Runs(), "only the weekly trigger matches 08:00")

	clock.Set(time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC))
	s.Tick(context.Background())
	require.Equal(t, []int{7, 30}, rec.Runs())
}

func TestRun_StopsOnCancel(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 12, 12, 0, 0, 0, time.UTC)}
	rec := &recorder{}

	s := New(rec.update, WithClock(clock), WithPollInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}
