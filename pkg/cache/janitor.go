package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Janitor removes cache entries older than a retention window on a cron
// schedule. With a zero retention it does nothing; the cache itself defines
// no expiry.
type Janitor struct {
	cache     Cache
	retention time.Duration
	schedule  string
	logger    *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewJanitor creates a janitor sweeping cache on the given cron schedule.
func NewJanitor(cache Cache, retention time.Duration, schedule string) *Janitor {
	return &Janitor{
		cache:     cache,
		retention: retention,
		schedule:  schedule,
		logger:    slog.Default().With("component", "cache.janitor"),
	}
}

// Start begins the scheduled sweep. It returns immediately; the sweep stops
// when ctx is cancelled or Stop is called.
func (j *Janitor) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.retention <= 0 {
		j.logger.Info("cache retention not configured, janitor disabled")
		return nil
	}
	if j.running {
		return fmt.Errorf("janitor already running")
	}

	if _, err := cron.ParseStandard(j.schedule); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", j.schedule, err)
	}

	j.cron = cron.New()
	if _, err := j.cron.AddFunc(j.schedule, func() { j.sweep(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule cache sweep: %w", err)
	}
	j.cron.Start()
	j.running = true

	j.logger.Info("cache janitor started", "schedule", j.schedule, "retention", j.retention.String())

	go func() {
		<-ctx.Done()
		j.Stop()
	}()
	return nil
}

// Stop halts the scheduled sweep. It is safe to call more than once.
func (j *Janitor) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.running {
		return
	}
	j.cron.Stop()
	j.running = false
	j.logger.Info("cache janitor stopped")
}

func (j *Janitor) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-j.retention)
	removed, err := j.cache.Cleanup(ctx, cutoff)
	if err != nil {
		j.logger.Warn("cache sweep failed", "error", err)
		return
	}
	if removed > 0 {
		j.logger.Info("cache sweep completed", "removed", removed)
	}
}
