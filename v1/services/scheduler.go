package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	svcerrors "github.com/wazadio/bot/pkg/errors"
	"github.com/wazadio/bot/v1/models"
)

// Scheduler fires one eviction pass per day at a configured time of day. It
// polls the clock at a coarse interval on a single background goroutine, so
// trigger times are accurate to about a minute.
type Scheduler struct {
	eviction     *EvictionService
	hour, minute int
	pollInterval time.Duration
	now          func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	// guards the single-pass-in-flight rule for both scheduled ticks and
	// manual triggers
	passInFlight atomic.Bool
}

// NewScheduler creates a scheduler firing daily at timeOfDay ("HH:MM")
func NewScheduler(eviction *EvictionService, timeOfDay string) (*Scheduler, error) {
	at, err := time.Parse("15:04", timeOfDay)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule time %q: %w", timeOfDay, err)
	}

	return &Scheduler{
		eviction:     eviction,
		hour:         at.Hour(),
		minute:       at.Minute(),
		pollInterval: 60 * time.Second,
		now:          time.Now,
	}, nil
}

// Start launches the background trigger loop. Calling Start on a running
// scheduler is a warned no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		slog.Warn("Scheduler is already running")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go func() {
		defer close(s.done)
		s.loop(ctx)
	}()

	slog.Info("Scheduler started", "nextRun", s.nextAfter(s.now()))
}

// Stop cancels future triggers and waits for the background goroutine with a
// bounded timeout. An in-flight pass is not aborted mid-member; it stops at
// its next page boundary.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.cancel()
	done := s.done
	s.running = false
	s.mu.Unlock()

	select {
	case <-done:
		slog.Info("Scheduler stopped")
	case <-time.After(5 * time.Second):
		slog.Warn("Timed out waiting for scheduler goroutine to exit")
	}
}

// RunNow triggers one eviction pass synchronously, outside the schedule. It
// refuses to overlap a pass that is already running.
func (s *Scheduler) RunNow(ctx context.Context) (models.EvictionStats, error) {
	if !s.passInFlight.CompareAndSwap(false, true) {
		return models.EvictionStats{}, svcerrors.NewServiceError(
			svcerrors.ErrorTypeBusiness, "PASS_IN_FLIGHT", "an eviction pass is already running")
	}
	defer s.passInFlight.Store(false)

	slog.Info("Manually triggering eviction pass")
	return s.eviction.RunEvictionPass(ctx, startOfDay(s.now()))
}

// NextRunTime returns the next scheduled trigger, or nil when the scheduler
// is not running.
func (s *Scheduler) NextRunTime() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	next := s.nextAfter(s.now())
	return &next
}

func (s *Scheduler) loop(ctx context.Context) {
	next := s.nextAfter(s.now())
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := s.now()
			if now.Before(next) {
				continue
			}
			s.runScheduledPass(ctx)
			next = s.nextAfter(now)
		}
	}
}

// runScheduledPass runs one pass under the in-flight guard. A tick arriving
// while a previous pass is still running is skipped, not queued.
func (s *Scheduler) runScheduledPass(ctx context.Context) {
	if !s.passInFlight.CompareAndSwap(false, true) {
		slog.Warn("Previous eviction pass still running, skipping scheduled trigger")
		return
	}
	defer s.passInFlight.Store(false)

	slog.Info("Running scheduled eviction pass")
	stats, err := s.eviction.RunEvictionPass(ctx, startOfDay(s.now()))
	if err != nil {
		slog.Error("Scheduled eviction pass ended early", "error", err,
			"evicted", stats.Evicted, "failed", stats.Failed)
		return
	}
	slog.Info("Scheduled eviction pass completed", "evicted", stats.Evicted, "failed", stats.Failed)
}

// nextAfter returns the first scheduled trigger strictly after t
func (s *Scheduler) nextAfter(t time.Time) time.Time {
	next := time.Date(t.Year(), t.Month(), t.Day(), s.hour, s.minute, 0, 0, t.Location())
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
