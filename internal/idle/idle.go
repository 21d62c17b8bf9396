// Package idle flags running timers that have seen no activity for longer
// than their user's idle threshold. The detector only reports; resolving an
// idle event is up to the timer controller.
package idle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ayoisaiah/workstate/internal/config"
	"github.com/ayoisaiah/workstate/internal/models"
)

// Timers lists the running timers.
type Timers interface {
	Active(ctx context.Context) ([]models.ActiveTimer, error)
}

// Sink receives idle events.
type Sink interface {
	Post(ctx context.Context, ev models.IdleEvent) error
}

// Detector sweeps the running timers on a fixed interval.
type Detector struct {
	timers   Timers
	prefs    config.Provider
	sink     Sink
	log      *slog.Logger
	now      func() time.Time
	flagged  map[string]time.Time // timer id → activity marker it was flagged at
	interval time.Duration
	mu       sync.Mutex
}

// Option configures a Detector.
type Option func(*Detector)

// WithInterval sets how often Run sweeps.
func WithInterval(d time.Duration) Option {
	return func(det *Detector) {
		det.interval = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(det *Detector) {
		det.log = l
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(det *Detector) {
		det.now = now
	}
}

// NewDetector returns a Detector that reports to sink.
func NewDetector(timers Timers, prefs config.Provider, sink Sink, opts ...Option) *Detector {
	d := &Detector{
		timers:   timers,
		prefs:    prefs,
		sink:     sink,
		log:      slog.Default(),
		now:      time.Now,
		flagged:  make(map[string]time.Time),
		interval: time.Minute,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (d *Detector) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.log.InfoContext(ctx, "idle detector started",
		slog.Duration("interval", d.interval),
	)

	d.Sweep(ctx, d.now())

	for {
		select {
		case <-ctx.Done():
			d.log.InfoContext(ctx, "idle detector stopped")
			return nil
		case <-ticker.C:
			d.Sweep(ctx, d.now())
		}
	}
}

// Sweep checks every running timer at now and posts an event for each one
// that just went idle. A timer is reported once per activity marker.
func (d *Detector) Sweep(ctx context.Context, now time.Time) []models.IdleEvent {
	timers, err := d.timers.Active(ctx)
	if err != nil {
		d.log.ErrorContext(ctx, "listing running timers failed",
			slog.Any("error", err),
		)

		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	seen := make(map[string]bool, len(timers))

	var events []models.IdleEvent

	for i := range timers {
		t := &timers[i]
		seen[t.ID] = true

		ev, err := d.check(t, now)
		if err != nil {
			d.log.ErrorContext(ctx, "idle check failed",
				slog.String("user_id", t.UserID),
				slog.String("timer_id", t.ID),
				slog.Any("error", err),
			)

			continue
		}

		if ev == nil {
			continue
		}

		if err := d.sink.Post(ctx, *ev); err != nil {
			d.log.WarnContext(ctx, "idle event not delivered",
				slog.String("user_id", t.UserID),
				slog.Any("error", err),
			)

			// try again on the next sweep
			delete(d.flagged, t.ID)

			continue
		}

		events = append(events, *ev)
	}

	for id := range d.flagged {
		if !seen[id] {
			delete(d.flagged, id)
		}
	}

	return events
}

// check isolates one timer so that a failing preference lookup cannot stop
// the sweep.
func (d *Detector) check(t *models.ActiveTimer, now time.Time) (ev *models.IdleEvent, err error) {
	defer func() {
		if r := recover(); r != nil {
			ev, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	threshold := d.prefs.Preferences(t.UserID).IdleThreshold
	marker := t.ActivityMarker()

	if threshold <= 0 || now.Sub(marker) <= threshold {
		delete(d.flagged, t.ID)
		return nil, nil
	}

	if at, ok := d.flagged[t.ID]; ok && at.Equal(marker) {
		return nil, nil
	}

	d.flagged[t.ID] = marker

	return &models.IdleEvent{
		UserID:     t.UserID,
		TimerID:    t.ID,
		IdleStart:  marker,
		DetectedAt: now,
		Resolution: models.Unresolved,
	}, nil
}
