package tracker

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/ayoisaiah/workstate/internal/models"
	"github.com/ayoisaiah/workstate/store"
)

// IdleResult is the outcome of resolving an idle event.
type IdleResult struct {
	Event *models.IdleEvent `json:"event,omitempty"`
	// Entry is the recorded time, if the timer was stopped.
	Entry *models.TimeEntry `json:"entry,omitempty"`
	// Timer is the timer after resolution, if it is still running.
	Timer *models.ActiveTimer `json:"timer,omitempty"`
	// Stale is set when the event no longer applied and nothing changed.
	Stale bool `json:"stale"`
}

// Post queues an idle event for acceptance. It never blocks; a full inbox is
// reported as an error so that the detector retries later.
func (c *Controller) Post(ctx context.Context, ev models.IdleEvent) error {
	select {
	case c.inbox <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errInboxFull
	}
}

// Run accepts queued idle events until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-c.inbox:
			c.accept(ctx, ev)
		}
	}
}

// Drain accepts every queued idle event and returns how many were taken.
func (c *Controller) Drain(ctx context.Context) int {
	var n int

	for {
		select {
		case ev := <-c.inbox:
			if c.accept(ctx, ev) {
				n++
			}
		default:
			return n
		}
	}
}

// accept stores ev as the user's pending idle event. Events for timers that
// are gone, replaced or active again are dropped, as are duplicates.
func (c *Controller) accept(ctx context.Context, ev models.IdleEvent) bool {
	unlock := c.locks.Lock(ev.UserID)
	defer unlock()

	log := c.log.With(
		slog.String("user_id", ev.UserID),
		slog.String("timer_id", ev.TimerID),
	)

	if log.Enabled(ctx, slog.LevelDebug) {
		log.DebugContext(ctx, "idle event received", slog.String("event", spew.Sdump(ev)))
	}

	t, err := c.timers.Get(ctx, ev.UserID)
	if err != nil {
		log.ErrorContext(ctx, "checking idle timer failed", slog.Any("error", err))
		return false
	}

	if t == nil || t.ID != ev.TimerID || t.ActivityMarker().After(ev.IdleStart) {
		log.DebugContext(ctx, "dropping stale idle event")
		return false
	}

	err = c.ledger.InsertIdleEvent(&ev)
	if errors.Is(err, store.ErrConflict) {
		pending, perr := c.ledger.GetIdleEvent(ev.UserID)
		if perr != nil || pending == nil || pending.TimerID == ev.TimerID {
			return false
		}

		// left behind by an earlier timer
		if err = c.ledger.DeleteIdleEvent(ev.UserID); err == nil {
			err = c.ledger.InsertIdleEvent(&ev)
		}
	}

	if err != nil {
		log.ErrorContext(ctx, "saving idle event failed", slog.Any("error", err))
		return false
	}

	log.InfoContext(ctx, "timer went idle", slog.Time("idle_start", ev.IdleStart))

	c.notifier.IdleDetected(ctx, ev, t)

	return true
}

// PendingIdle returns the unresolved idle event of userID, or nil. Events
// whose timer has ended are cleared on the way.
func (c *Controller) PendingIdle(ctx context.Context, userID string) (*models.IdleEvent, error) {
	unlock := c.locks.Lock(userID)
	defer unlock()

	ev, t, err := c.pending(ctx, userID)
	if err != nil {
		return nil, err
	}

	if ev != nil && t == nil {
		return nil, c.dropEvent(userID)
	}

	return ev, nil
}

// pending returns the user's idle event and, if it still applies, its timer.
func (c *Controller) pending(ctx context.Context, userID string) (*models.IdleEvent, *models.ActiveTimer, error) {
	ev, err := c.ledger.GetIdleEvent(userID)
	if err != nil {
		return nil, nil, ErrPersistence.Wrap(err)
	}

	if ev == nil {
		return nil, nil, nil
	}

	t, err := c.timers.Get(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	if t == nil || t.ID != ev.TimerID {
		return ev, nil, nil
	}

	return ev, t, nil
}

func (c *Controller) dropEvent(userID string) error {
	if err := c.ledger.DeleteIdleEvent(userID); err != nil {
		return ErrPersistence.Wrap(err)
	}

	return nil
}

// ResolveIdle applies the user's answer to their pending idle event:
//   - keep: the idle time stays on the timer
//   - discard-idle: only the time before the idle start is kept
//   - stop-at-idle-start: the timer is recorded as ending at the idle start
//
// Resolving when no event applies any more is a no-op and reported as stale.
func (c *Controller) ResolveIdle(
	ctx context.Context,
	userID string,
	action models.IdleResolution,
) (*IdleResult, error) {
	if !slices.Contains(models.IdleResolutions, action) {
		return nil, ErrInvalidAction.Fmt(action)
	}

	unlock := c.locks.Lock(userID)
	defer unlock()

	ev, t, err := c.pending(ctx, userID)
	if err != nil {
		return nil, err
	}

	if t == nil {
		if ev != nil {
			if err := c.dropEvent(userID); err != nil {
				return nil, err
			}
		}

		return &IdleResult{Event: ev, Stale: true}, nil
	}

	now := c.now()
	res := &IdleResult{Event: ev}

	switch action {
	case models.KeepIdle:
		t.LastActivity = now
		if err := c.timers.Update(ctx, t); err != nil {
			return nil, err
		}

		res.Timer = t
	case models.DiscardIdle:
		res.Entry, res.Timer, err = c.discardIdle(ctx, t, ev, now)
	case models.StopAtIdleStart:
		res.Entry, err = c.stopAt(ctx, t, ev)
	}

	if err != nil {
		return nil, err
	}

	if err := c.dropEvent(userID); err != nil {
		return nil, err
	}

	ev.Resolution = action

	c.log.InfoContext(ctx, "idle event resolved",
		slog.String("user_id", userID),
		slog.String("timer_id", t.ID),
		slog.String("resolution", string(action)),
	)

	return res, nil
}

// discardIdle drops the idle gap. By default the timer stops and only the
// time before the gap is recorded, rounded like a normal stop but never past
// the idle start. When
// configured to continue, the start moves forward by the gap and the timer
// keeps running.
func (c *Controller) discardIdle(
	ctx context.Context,
	t *models.ActiveTimer,
	ev *models.IdleEvent,
	now time.Time,
) (*models.TimeEntry, *models.ActiveTimer, error) {
	gap := now.Sub(ev.IdleStart)

	if c.discardContinues {
		t.StartTime = t.StartTime.Add(gap)
		t.LastActivity = now

		if err := c.timers.Update(ctx, t); err != nil {
			return nil, nil, err
		}

		return nil, t, nil
	}

	span := max(ev.IdleStart.Sub(t.StartTime), 0)

	length, err := c.prefs.Preferences(t.UserID).Rounding.Round(span)
	if err != nil {
		return nil, nil, err
	}

	// rounding never reaches into the idle gap
	length = min(length, span)

	res, err := c.stop(ctx, t, &length, ev.IdleStart)
	if err != nil {
		return nil, nil, err
	}

	return res.Entry, nil, nil
}

// stopAt records the timer as ending exactly at the idle start, unrounded.
func (c *Controller) stopAt(
	ctx context.Context,
	t *models.ActiveTimer,
	ev *models.IdleEvent,
) (*models.TimeEntry, error) {
	var (
		entry *models.TimeEntry
		err   error
	)

	if span := ev.IdleStart.Sub(t.StartTime); span > 0 {
		entry, err = c.record(ctx, t, models.ModeStartEnd, ev.IdleStart, span)
		if err != nil {
			return nil, err
		}
	}

	if err := c.clear(ctx, t.UserID); err != nil {
		return nil, err
	}

	return entry, nil
}
