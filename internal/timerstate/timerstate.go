// Package timerstate keeps track of the running timer of every user. Reads
// are served from a fast cache with the durable store behind it; the durable
// store decides whether a user already has a running timer.
package timerstate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ayoisaiah/workstate/internal/apperr"
	"github.com/ayoisaiah/workstate/internal/models"
	"github.com/ayoisaiah/workstate/store"
)

var (
	ErrTimerAlreadyActive = &apperr.Error{
		Message: "a timer is already running",
	}

	ErrNoActiveTimer = &apperr.Error{
		Message: "no timer is running",
	}

	ErrPersistence = apperr.ErrPersistence
)

// Durable is the persistent side of the store.
type Durable interface {
	InsertTimer(t *models.ActiveTimer) error
	ReplaceTimer(t *models.ActiveTimer) error
	GetTimer(userID string) (*models.ActiveTimer, error)
	DeleteTimer(userID string) error
	Timers() ([]models.ActiveTimer, error)
}

// Store is the authoritative lookup of running timers.
type Store struct {
	cache   Cache
	durable Durable
	log     *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithCache replaces the default in-process cache.
func WithCache(c Cache) Option {
	return func(s *Store) {
		s.cache = c
	}
}

// WithLogger sets the logger used to report cache failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// New returns a Store backed by durable.
func New(durable Durable, opts ...Option) *Store {
	s := &Store{
		cache:   NewMemoryCache(),
		durable: durable,
		log:     slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Store) cacheFailed(ctx context.Context, op, userID string, err error) {
	s.log.WarnContext(ctx, "timer cache unavailable",
		slog.String("op", op),
		slog.String("user_id", userID),
		slog.Any("error", err),
	)
}

// Get returns the running timer of userID, or nil if there is none.
func (s *Store) Get(ctx context.Context, userID string) (*models.ActiveTimer, error) {
	t, err := s.cache.Get(userID)
	if err == nil && t != nil {
		return t, nil
	}

	if err != nil {
		s.cacheFailed(ctx, "get", userID, err)
	}

	t, err = s.durable.GetTimer(userID)
	if err != nil {
		return nil, ErrPersistence.Wrap(err)
	}

	if t != nil {
		if cerr := s.cache.Add(t); cerr != nil && !errors.Is(cerr, errCacheConflict) {
			s.cacheFailed(ctx, "fill", userID, cerr)
		}
	}

	return t, nil
}

// Set makes t the running timer of its user. It fails with
// ErrTimerAlreadyActive if the user already has one; callers must stop or
// discard the old timer first.
func (s *Store) Set(ctx context.Context, t *models.ActiveTimer) error {
	err := s.cache.Add(t)

	switch {
	case errors.Is(err, errCacheConflict):
		existing, derr := s.durable.GetTimer(t.UserID)
		if derr != nil {
			return ErrPersistence.Wrap(derr)
		}

		if existing != nil {
			return ErrTimerAlreadyActive
		}

		s.log.InfoContext(ctx, "evicting stale cached timer",
			slog.String("user_id", t.UserID),
		)

		if cerr := s.cache.Set(t); cerr != nil {
			s.cacheFailed(ctx, "set", t.UserID, cerr)
		}
	case err != nil:
		s.cacheFailed(ctx, "add", t.UserID, err)
	}

	err = s.durable.InsertTimer(t)
	if err == nil {
		return nil
	}

	if cerr := s.cache.DeleteIf(t.UserID, t.ID); cerr != nil {
		s.cacheFailed(ctx, "rollback", t.UserID, cerr)
	}

	if errors.Is(err, store.ErrConflict) {
		return ErrTimerAlreadyActive
	}

	return ErrPersistence.Wrap(err)
}

// Update replaces the mutable fields of the user's running timer. t must
// carry the id of the running timer.
func (s *Store) Update(ctx context.Context, t *models.ActiveTimer) error {
	err := s.durable.ReplaceTimer(t)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNoActiveTimer
	}

	if err != nil {
		return ErrPersistence.Wrap(err)
	}

	if cerr := s.cache.Set(t); cerr != nil {
		s.cacheFailed(ctx, "set", t.UserID, cerr)
	}

	return nil
}

// MarkActivity records user activity on the running timer at when. The write
// only reaches the cache; Reconcile flushes it to the durable store. A timer
// that was stopped in the meantime is never written back. When the cache is
// unavailable or no longer holds the timer, the durable copy is updated
// directly.
func (s *Store) MarkActivity(ctx context.Context, userID string, when time.Time) error {
	t, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}

	if t == nil {
		return ErrNoActiveTimer
	}

	if when.After(t.LastActivity) {
		t.LastActivity = when
	}

	err = s.cache.Replace(t)

	switch {
	case err == nil:
		return nil
	case !errors.Is(err, errCacheMiss):
		s.cacheFailed(ctx, "touch", userID, err)
	}

	// Update only succeeds while the same timer is still running.
	return s.Update(ctx, t)
}

// Clear removes the running timer of userID. Clearing an empty slot is not
// an error.
func (s *Store) Clear(ctx context.Context, userID string) error {
	if err := s.durable.DeleteTimer(userID); err != nil {
		return ErrPersistence.Wrap(err)
	}

	if err := s.cache.Delete(userID); err != nil {
		s.cacheFailed(ctx, "delete", userID, err)
	}

	return nil
}

// Active returns every running timer. Durable records decide which timers
// exist; cached copies of the same timer win because they may carry newer
// activity.
func (s *Store) Active(ctx context.Context) ([]models.ActiveTimer, error) {
	timers, err := s.durable.Timers()
	if err != nil {
		return nil, ErrPersistence.Wrap(err)
	}

	cached, err := s.cache.Items()
	if err != nil {
		s.cacheFailed(ctx, "items", "", err)
		return timers, nil
	}

	byUser := make(map[string]models.ActiveTimer, len(cached))
	for _, t := range cached {
		byUser[t.UserID] = t
	}

	for i := range timers {
		if c, ok := byUser[timers[i].UserID]; ok && c.ID == timers[i].ID {
			timers[i] = c
		}
	}

	return timers, nil
}

// Reconcile brings the two layers back in line: cached changes to a timer
// are written to its durable copy, cached timers unknown to the durable
// store are evicted and durable timers missing from the cache are loaded.
func (s *Store) Reconcile(ctx context.Context) error {
	timers, err := s.durable.Timers()
	if err != nil {
		return ErrPersistence.Wrap(err)
	}

	cached, err := s.cache.Items()
	if err != nil {
		s.cacheFailed(ctx, "items", "", err)
		return nil
	}

	durable := make(map[string]models.ActiveTimer, len(timers))
	for _, t := range timers {
		durable[t.UserID] = t
	}

	var flushed, evicted, loaded int

	for i := range cached {
		c := cached[i]

		d, ok := durable[c.UserID]
		delete(durable, c.UserID)

		if !ok || d.ID != c.ID {
			if err := s.cache.DeleteIf(c.UserID, c.ID); err != nil {
				s.cacheFailed(ctx, "evict", c.UserID, err)
			}

			evicted++

			if ok {
				durable[d.UserID] = d
			}

			continue
		}

		if sameState(&c, &d) {
			continue
		}

		err := s.durable.ReplaceTimer(&c)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}

		if err != nil {
			return ErrPersistence.Wrap(err)
		}

		flushed++
	}

	for _, d := range durable {
		if err := s.cache.Set(&d); err != nil {
			s.cacheFailed(ctx, "load", d.UserID, err)
			continue
		}

		loaded++
	}

	if flushed+evicted+loaded > 0 {
		s.log.DebugContext(ctx, "timer state reconciled",
			slog.Int("flushed", flushed),
			slog.Int("evicted", evicted),
			slog.Int("loaded", loaded),
		)
	}

	return nil
}

func sameState(a, b *models.ActiveTimer) bool {
	return a.Description == b.Description &&
		a.Pomodoro == b.Pomodoro &&
		a.StartTime.Equal(b.StartTime) &&
		a.LastActivity.Equal(b.LastActivity)
}

// Rehydrate loads every durable running timer into the cache. It runs once
// when the process starts.
func (s *Store) Rehydrate(ctx context.Context) error {
	timers, err := s.durable.Timers()
	if err != nil {
		return ErrPersistence.Wrap(err)
	}

	for i := range timers {
		if err := s.cache.Set(&timers[i]); err != nil {
			s.cacheFailed(ctx, "load", timers[i].UserID, err)
		}
	}

	s.log.InfoContext(ctx, "timer state rehydrated",
		slog.Int("timers", len(timers)),
	)

	return nil
}

// RunReconciler calls Reconcile every interval until ctx is done.
func (s *Store) RunReconciler(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return s.Reconcile(context.WithoutCancel(ctx))
		case <-ticker.C:
			if err := s.Reconcile(ctx); err != nil {
				s.log.ErrorContext(ctx, "reconciling timer state failed",
					slog.Any("error", err),
				)
			}
		}
	}
}
