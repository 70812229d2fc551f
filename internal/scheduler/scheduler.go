// Package scheduler fires collection cycles at fixed wall-clock times. It
// polls its trigger list at a coarse interval; missed triggers are not
// replayed after a restart.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Clock abstracts time.Now so trigger matching can be tested without real
// wall-clock sleeps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Trigger is a wall-clock condition bound to a lookback window.
type Trigger struct {
	Name    string
	Days    int
	matches func(t time.Time) bool
}

// Daily fires every day at hour:minute.
func Daily(name string, hour, minute, days int) Trigger {
	return Trigger{
		Name: name,
		Days: days,
		matches: func(t time.Time) bool {
			return t.Hour() == hour && t.Minute() == minute
		},
	}
}

// Weekly fires on the given weekday at hour:minute.
func Weekly(name string, weekday time.Weekday, hour, minute, days int) Trigger {
	return Trigger{
		Name: name,
		Days: days,
		matches: func(t time.Time) bool {
			return t.Weekday() == weekday && t.Hour() == hour && t.Minute() == minute
		},
	}
}

// Monthly fires on the given day of the month at hour:minute.
func Monthly(name string, day, hour, minute, days int) Trigger {
	return Trigger{
		Name: name,
		Days: days,
		matches: func(t time.Time) bool {
			return t.Day() == day && t.Hour() == hour && t.Minute() == minute
		},
	}
}

// UpdateFunc runs one collection cycle with the given lookback window.
type UpdateFunc func(ctx context.Context, days int)

type Scheduler struct {
	update       UpdateFunc
	clock        Clock
	pollInterval time.Duration

	mu        sync.Mutex
	triggers  []Trigger
	lastFired map[string]time.Time
}

func New(update UpdateFunc, opts ...Option) *Scheduler {
	s := &Scheduler{
		update:       update,
		clock:        systemClock{},
		pollInterval: time.Minute,
		lastFired:    make(map[string]time.Time),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type Option func(*Scheduler)

// WithClock replaces the wall clock, for tests.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithPollInterval sets how often the trigger list is checked.
func WithPollInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.pollInterval = d }
}

// Add registers a trigger.
func (s *Scheduler) Add(t Trigger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.triggers = append(s.triggers, t)
}

// RegisterDefaults installs the standard refresh plan: twice-daily short
// refresh, weekly refresh on Sunday morning, monthly backfill on the 1st.
func (s *Scheduler) RegisterDefaults() {
	s.Add(Daily("daily-morning", 9, 0, 2))
	s.Add(Daily("daily-evening", 18, 0, 2))
	s.Add(Weekly("weekly", time.Sunday, 8, 0, 7))
	s.Add(Monthly("monthly", 1, 7, 0, 30))
}

// Run polls the trigger list until ctx is cancelled, firing any due trigger.
// A trigger fires at most once per matching minute.
func (s *Scheduler) Run(ctx context.Context) {
	slog.Info("scheduler started", "pollInterval", s.pollInterval.String())

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		s.Tick(ctx)

		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}

// Tick checks every trigger against the current clock and runs the due ones.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.clock.Now().Truncate(time.Minute)

	for _, t := range s.due(now) {
		slog.Info("trigger fired", "trigger", t.Name, "days", t.Days)
		s.update(ctx, t.Days)
	}
}

func (s *Scheduler) due(now time.Time) []Trigger {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []Trigger
	for _, t := range s.triggers {
		if !t.matches(now) || s.lastFired[t.Name].Equal(now) {
			continue
		}
		s.lastFired[t.Name] = now
		due = append(due, t)
	}
	return due
}
