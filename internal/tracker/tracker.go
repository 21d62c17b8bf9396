// Package tracker is the only writer of timer state. It starts, stops and
// discards timers, turns finished timers into time entries and resolves the
// idle events raised by the idle detector.
package tracker

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ayoisaiah/workstate/internal/config"
	"github.com/ayoisaiah/workstate/internal/models"
	"github.com/ayoisaiah/workstate/internal/tasks"
)

// Timers is the running timer store.
type Timers interface {
	Get(ctx context.Context, userID string) (*models.ActiveTimer, error)
	Set(ctx context.Context, t *models.ActiveTimer) error
	Update(ctx context.Context, t *models.ActiveTimer) error
	MarkActivity(ctx context.Context, userID string, when time.Time) error
	Clear(ctx context.Context, userID string) error
}

// Entries records finished timers.
type Entries interface {
	Record(ctx context.Context, e *models.TimeEntry) error
}

// IdleLedger keeps the pending idle event of each user.
type IdleLedger interface {
	InsertIdleEvent(ev *models.IdleEvent) error
	GetIdleEvent(userID string) (*models.IdleEvent, error)
	DeleteIdleEvent(userID string) error
}

// Replace says what Start does with a timer that is already running.
type Replace string

const (
	// ReplaceNone refuses to start while another timer runs.
	ReplaceNone Replace = ""
	// ReplaceStop stops the running timer and records it.
	ReplaceStop Replace = "stop"
	// ReplaceDiscard throws the running timer away.
	ReplaceDiscard Replace = "discard"
)

// StartRequest describes a new timer.
type StartRequest struct {
	TaskID      string  `json:"task_id"     binding:"required"`
	Description string  `json:"description"`
	Replace     Replace `json:"replace"     binding:"omitempty,oneof=stop discard"`
	Pomodoro    bool    `json:"pomodoro"`
}

// StartResult is the outcome of Start.
type StartResult struct {
	Timer *models.ActiveTimer `json:"timer"`
	// Stopped is set when a running timer was stopped to make room.
	Stopped *StopResult `json:"stopped,omitempty"`
	// Discarded is set when a running timer was thrown away.
	Discarded *models.ActiveTimer `json:"discarded,omitempty"`
}

// StopRequest carries an optional duration to record instead of the rounded
// one.
type StopRequest struct {
	Override *time.Duration
}

// StopPreview is what Stop would record right now.
type StopPreview struct {
	Timer   *models.ActiveTimer `json:"timer"`
	Policy  string              `json:"policy"`
	Raw     time.Duration       `json:"raw"`
	Rounded time.Duration       `json:"rounded"`
}

// StopResult is the outcome of stopping a timer. Entry is nil when the
// recorded duration came out as zero.
type StopResult struct {
	Entry   *models.TimeEntry  `json:"entry"`
	Timer   models.ActiveTimer `json:"timer"`
	Raw     time.Duration      `json:"raw"`
	Rounded time.Duration      `json:"rounded"`
}

// DiscardResult is the outcome of Discard.
type DiscardResult struct {
	Timer                models.ActiveTimer `json:"timer"`
	Elapsed              time.Duration      `json:"elapsed"`
	ConfirmationRequired bool               `json:"confirmation_required"`
}

// Controller runs the timer state machine of every user.
type Controller struct {
	timers           Timers
	entries          Entries
	tasks            tasks.Resolver
	prefs            config.Provider
	ledger           IdleLedger
	notifier         Notifier
	log              *slog.Logger
	now              func() time.Time
	newID            func() string
	locks            *keyedMutex
	inbox            chan models.IdleEvent
	discardContinues bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.log = l
	}
}

// WithNotifier sets who is told about accepted idle events.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		c.notifier = n
	}
}

// WithDiscardContinues makes the discard-idle resolution keep the timer
// running from the idle boundary instead of stopping it.
func WithDiscardContinues(v bool) Option {
	return func(c *Controller) {
		c.discardContinues = v
	}
}

// WithInboxSize sets how many idle events may wait to be accepted.
func WithInboxSize(n int) Option {
	return func(c *Controller) {
		c.inbox = make(chan models.IdleEvent, n)
	}
}

// New returns a Controller.
func New(
	timers Timers,
	entries Entries,
	resolver tasks.Resolver,
	prefs config.Provider,
	ledger IdleLedger,
	opts ...Option,
) *Controller {
	c := &Controller{
		timers:   timers,
		entries:  entries,
		tasks:    resolver,
		prefs:    prefs,
		ledger:   ledger,
		notifier: nopNotifier{},
		log:      slog.Default(),
		now:      time.Now,
		newID:    uuid.NewString,
		locks:    newKeyedMutex(),
		inbox:    make(chan models.IdleEvent, 64),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Active returns the running timer of userID.
func (c *Controller) Active(ctx context.Context, userID string) (*models.ActiveTimer, error) {
	t, err := c.timers.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if t == nil {
		return nil, ErrNoActiveTimer
	}

	return t, nil
}

// Start starts a timer on req.TaskID. If another timer is running, req.Replace
// decides whether it is stopped or discarded first; without a choice Start
// returns a *ConfirmationRequiredError and changes nothing.
func (c *Controller) Start(ctx context.Context, userID string, req StartRequest) (*StartResult, error) {
	unlock := c.locks.Lock(userID)
	defer unlock()

	task, err := c.tasks.Resolve(ctx, userID, req.TaskID)
	if err != nil {
		return nil, err
	}

	running, err := c.timers.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := c.now()
	res := &StartResult{}

	if running != nil {
		switch req.Replace {
		case ReplaceNone:
			return nil, &ConfirmationRequiredError{
				Running: *running,
				Elapsed: running.Elapsed(now),
			}
		case ReplaceStop:
			res.Stopped, err = c.stop(ctx, running, nil, now)
		case ReplaceDiscard:
			err = c.clear(ctx, userID)
			res.Discarded = running
		default:
			return nil, ErrInvalidAction.Fmt(req.Replace)
		}

		if err != nil {
			return nil, err
		}
	}

	t := &models.ActiveTimer{
		ID:           c.newID(),
		UserID:       userID,
		TaskID:       task.ID,
		ProjectID:    task.ProjectID,
		Description:  strings.TrimSpace(req.Description),
		Pomodoro:     req.Pomodoro,
		StartTime:    now,
		LastActivity: now,
	}

	if err := c.timers.Set(ctx, t); err != nil {
		return nil, err
	}

	c.log.InfoContext(ctx, "timer started",
		slog.String("user_id", userID),
		slog.String("timer_id", t.ID),
		slog.String("task_id", t.TaskID),
	)

	res.Timer = t

	return res, nil
}

// Preview reports the raw and rounded duration Stop would record now.
func (c *Controller) Preview(ctx context.Context, userID string) (*StopPreview, error) {
	t, err := c.Active(ctx, userID)
	if err != nil {
		return nil, err
	}

	policy := c.prefs.Preferences(userID).Rounding
	raw := t.Elapsed(c.now())

	rounded, err := policy.Round(raw)
	if err != nil {
		return nil, err
	}

	return &StopPreview{
		Timer:   t,
		Policy:  policy.String(),
		Raw:     raw,
		Rounded: rounded,
	}, nil
}

// Stop finishes the running timer and records it as a time entry. The
// elapsed time is rounded with the user's policy unless req.Override is set.
func (c *Controller) Stop(ctx context.Context, userID string, req StopRequest) (*StopResult, error) {
	if req.Override != nil && *req.Override <= 0 {
		return nil, ErrInvalidDuration
	}

	unlock := c.locks.Lock(userID)
	defer unlock()

	t, err := c.Active(ctx, userID)
	if err != nil {
		return nil, err
	}

	return c.stop(ctx, t, req.Override, c.now())
}

func (c *Controller) stop(
	ctx context.Context,
	t *models.ActiveTimer,
	override *time.Duration,
	now time.Time,
) (*StopResult, error) {
	raw := t.Elapsed(now)

	rounded, err := c.prefs.Preferences(t.UserID).Rounding.Round(raw)
	if err != nil {
		return nil, err
	}

	res := &StopResult{
		Timer:   *t,
		Raw:     raw,
		Rounded: rounded,
	}

	length := rounded
	if override != nil {
		length = *override
	}

	if length > 0 {
		res.Entry, err = c.record(ctx, t, models.ModeStartDuration, t.StartTime.Add(length), raw)
		if err != nil {
			return nil, err
		}
	}

	if err := c.clear(ctx, t.UserID); err != nil {
		return nil, err
	}

	c.log.InfoContext(ctx, "timer stopped",
		slog.String("user_id", t.UserID),
		slog.String("timer_id", t.ID),
		slog.Duration("raw", raw),
		slog.Duration("recorded", length),
	)

	return res, nil
}

// record stores the entry for t ending at end. The entry id is the timer id
// so recording twice does not duplicate it.
func (c *Controller) record(
	ctx context.Context,
	t *models.ActiveTimer,
	mode models.EntryMode,
	end time.Time,
	raw time.Duration,
) (*models.TimeEntry, error) {
	start := t.StartTime
	now := c.now()

	e := &models.TimeEntry{
		ID:          t.ID,
		TimerID:     t.ID,
		UserID:      t.UserID,
		TaskID:      t.TaskID,
		ProjectID:   t.ProjectID,
		Description: t.Description,
		StartTime:   &start,
		EndTime:     &end,
		Duration:    end.Sub(start),
		RawDuration: raw,
		Mode:        mode,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	fallback := c.prefs.Preferences(t.UserID).DefaultRate

	rate, err := tasks.ResolveRate(ctx, c.tasks, t.UserID, t.TaskID, fallback)

	switch {
	case errors.Is(err, ErrTaskNotFound):
		// the task went away while the timer ran; keep the time, bill nothing
		c.log.WarnContext(ctx, "task of running timer is gone",
			slog.String("user_id", t.UserID),
			slog.String("task_id", t.TaskID),
		)
	case err != nil:
		return nil, ErrPersistence.Wrap(err)
	}

	e.BillableRate = rate.Amount
	e.Currency = rate.Currency
	e.Billable = rate.Billable()

	if e.Currency == "" {
		e.Currency = fallback.Currency
	}

	if err := c.entries.Record(ctx, e); err != nil {
		return nil, err
	}

	return e, nil
}

// clear removes the user's timer and any idle event pending for it.
func (c *Controller) clear(ctx context.Context, userID string) error {
	if err := c.timers.Clear(ctx, userID); err != nil {
		return err
	}

	if err := c.ledger.DeleteIdleEvent(userID); err != nil {
		return ErrPersistence.Wrap(err)
	}

	return nil
}

// Discard throws the running timer away without recording it. Unless
// confirmed, nothing changes and the result asks for confirmation.
func (c *Controller) Discard(ctx context.Context, userID string, confirmed bool) (*DiscardResult, error) {
	unlock := c.locks.Lock(userID)
	defer unlock()

	t, err := c.Active(ctx, userID)
	if err != nil {
		return nil, err
	}

	res := &DiscardResult{
		Timer:   *t,
		Elapsed: t.Elapsed(c.now()),
	}

	if !confirmed {
		res.ConfirmationRequired = true
		return res, nil
	}

	if err := c.clear(ctx, userID); err != nil {
		return nil, err
	}

	c.log.InfoContext(ctx, "timer discarded",
		slog.String("user_id", userID),
		slog.String("timer_id", t.ID),
		slog.Duration("elapsed", res.Elapsed),
	)

	return res, nil
}

// UpdateDescription replaces the description of the running timer.
func (c *Controller) UpdateDescription(ctx context.Context, userID, text string) (*models.ActiveTimer, error) {
	unlock := c.locks.Lock(userID)
	defer unlock()

	t, err := c.Active(ctx, userID)
	if err != nil {
		return nil, err
	}

	t.Description = strings.TrimSpace(text)

	if err := c.timers.Update(ctx, t); err != nil {
		return nil, err
	}

	return t, nil
}

// Touch records user activity on the running timer.
func (c *Controller) Touch(ctx context.Context, userID string) error {
	unlock := c.locks.Lock(userID)
	defer unlock()

	return c.timers.MarkActivity(ctx, userID, c.now())
}
