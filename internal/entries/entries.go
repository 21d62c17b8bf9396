// Package entries stores finalized time entries and validates the ones users
// enter by hand
package entries

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ayoisaiah/workstate/internal/apperr"
	"github.com/ayoisaiah/workstate/internal/config"
	"github.com/ayoisaiah/workstate/internal/models"
	"github.com/ayoisaiah/workstate/internal/tasks"
	"github.com/ayoisaiah/workstate/store"
)

var (
	ErrInvalidTimeEntry = &apperr.Error{
		Message: "invalid time entry",
	}

	ErrEntryNotFound = &apperr.Error{
		Message: "time entry %q not found",
	}

	ErrEntryRunning = &apperr.Error{
		Message: "time entry %q belongs to a running timer, stop it first",
	}
)

// Store is the persistence the repository needs.
type Store interface {
	PutEntry(e *models.TimeEntry) error
	GetEntry(userID, id string) (*models.TimeEntry, error)
	DeleteEntry(userID, id string) error
	Entries(userID string) ([]models.TimeEntry, error)
	GetTimer(userID string) (*models.ActiveTimer, error)
}

// NewEntry is a manually entered time entry.
type NewEntry struct {
	Span         Span     `validate:"required"`
	Billable     *bool    `json:"billable"`
	UserID       string   `json:"user_id"       validate:"required"`
	TaskID       string   `json:"task_id"       validate:"required"`
	Description  string   `json:"description"   validate:"max=1000"`
	Currency     string   `json:"currency"      validate:"omitempty,len=3,alpha"`
	Tags         []string `json:"tags"          validate:"max=20,dive,required,max=50"`
	BillableRate float64  `json:"billable_rate" validate:"gte=0"`
}

// Changes lists the fields of an entry to edit. Nil fields are left alone.
type Changes struct {
	Span         Span      `validate:"-"`
	TaskID       *string   `json:"task_id"       validate:"omitempty,min=1"`
	Description  *string   `json:"description"   validate:"omitempty,max=1000"`
	Currency     *string   `json:"currency"      validate:"omitempty,len=3,alpha"`
	Tags         *[]string `json:"tags"          validate:"omitempty,max=20,dive,required,max=50"`
	Billable     *bool     `json:"billable"`
	BillableRate *float64  `json:"billable_rate" validate:"omitempty,gte=0"`
}

// Filter narrows a listing. Zero fields match everything.
type Filter struct {
	From      time.Time
	To        time.Time
	Billable  *bool
	TaskID    string
	ProjectID string
}

// Repository is the durable log of time entries.
type Repository struct {
	store    Store
	tasks    tasks.Resolver
	prefs    config.Provider
	validate *validator.Validate
	now      func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock replaces the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// New returns a Repository.
func New(s Store, resolver tasks.Resolver, prefs config.Provider, opts ...Option) *Repository {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return strings.ToLower(f.Name)
		}

		return name
	})

	r := &Repository{
		store:    s,
		tasks:    resolver,
		prefs:    prefs,
		validate: v,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Create validates and stores a manual entry. The project comes from the
// task; the rate falls back to the task, project and user default in turn.
func (r *Repository) Create(ctx context.Context, in NewEntry) (*models.TimeEntry, error) {
	if err := r.check(in); err != nil {
		return nil, err
	}

	if err := in.Span.validate(); err != nil {
		return nil, ErrInvalidTimeEntry.Wrap(err)
	}

	now := r.now()

	e := &models.TimeEntry{
		ID:          uuid.NewString(),
		UserID:      in.UserID,
		TaskID:      in.TaskID,
		Description: strings.TrimSpace(in.Description),
		Tags:        in.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	in.Span.apply(e)

	err := r.bill(ctx, e, in.Billable, in.BillableRate, in.Currency)
	if err != nil {
		return nil, err
	}

	if err := r.store.PutEntry(e); err != nil {
		return nil, apperr.ErrPersistence.Wrap(err)
	}

	return e, nil
}

// bill resolves the project and rate of e. Explicit values win over the
// resolved ones.
func (r *Repository) bill(
	ctx context.Context,
	e *models.TimeEntry,
	billable *bool,
	rate float64,
	currency string,
) error {
	task, err := r.tasks.Resolve(ctx, e.UserID, e.TaskID)
	if err != nil {
		return err
	}

	e.ProjectID = task.ProjectID

	resolved, err := tasks.ResolveRate(ctx, r.tasks, e.UserID, e.TaskID, r.prefs.Preferences(e.UserID).DefaultRate)
	if err != nil {
		return err
	}

	if rate > 0 {
		resolved.Amount = rate
	}

	if currency != "" {
		resolved.Currency = strings.ToUpper(currency)
	}

	if resolved.Currency == "" {
		resolved.Currency = r.prefs.Preferences(e.UserID).DefaultRate.Currency
	}

	e.BillableRate = resolved.Amount
	e.Currency = resolved.Currency
	e.Billable = resolved.Billable()

	if billable != nil {
		e.Billable = *billable
	}

	return nil
}

// Record stores an entry produced by a stopped timer. Recording the same
// entry twice overwrites it.
func (r *Repository) Record(_ context.Context, e *models.TimeEntry) error {
	if e.ID == "" || e.UserID == "" || e.TaskID == "" {
		return ErrInvalidTimeEntry.Wrap(errors.New("entry needs an id, a user and a task"))
	}

	if _, err := SpanOf(e); err != nil {
		return err
	}

	now := r.now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}

	e.UpdatedAt = now

	if err := r.store.PutEntry(e); err != nil {
		return apperr.ErrPersistence.Wrap(err)
	}

	return nil
}

// Get returns one of the user's entries.
func (r *Repository) Get(_ context.Context, userID, id string) (*models.TimeEntry, error) {
	e, err := r.store.GetEntry(userID, id)
	if err != nil {
		return nil, apperr.ErrPersistence.Wrap(err)
	}

	if e == nil {
		return nil, ErrEntryNotFound.Fmt(id)
	}

	return e, nil
}

// Update applies changes to an entry and validates the result as a whole.
func (r *Repository) Update(
	ctx context.Context,
	userID, id string,
	c Changes,
) (*models.TimeEntry, error) {
	if err := r.check(c); err != nil {
		return nil, err
	}

	e, err := r.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if e.TimerID != "" {
		t, err := r.store.GetTimer(userID)
		if err != nil {
			return nil, apperr.ErrPersistence.Wrap(err)
		}

		if t != nil && t.ID == e.TimerID {
			return nil, ErrEntryRunning.Fmt(id)
		}
	}

	span := c.Span
	if span == nil {
		span, err = SpanOf(e)
		if err != nil {
			return nil, err
		}
	}

	if err := span.validate(); err != nil {
		return nil, ErrInvalidTimeEntry.Wrap(err)
	}

	span.apply(e)

	if c.Span != nil {
		// a manual edit replaces the timer's measurement
		e.RawDuration = 0
	}

	if c.Description != nil {
		e.Description = strings.TrimSpace(*c.Description)
	}

	if c.Tags != nil {
		e.Tags = *c.Tags
	}

	if c.TaskID != nil || c.BillableRate != nil || c.Currency != nil || c.Billable != nil {
		if err := r.rebill(ctx, e, c); err != nil {
			return nil, err
		}
	}

	e.UpdatedAt = r.now()

	if err := r.store.PutEntry(e); err != nil {
		return nil, apperr.ErrPersistence.Wrap(err)
	}

	return e, nil
}

func (r *Repository) rebill(ctx context.Context, e *models.TimeEntry, c Changes) error {
	if c.TaskID != nil {
		task, err := r.tasks.Resolve(ctx, e.UserID, *c.TaskID)
		if err != nil {
			return err
		}

		e.TaskID = task.ID
		e.ProjectID = task.ProjectID

		if c.BillableRate == nil && c.Currency == nil {
			return r.bill(ctx, e, c.Billable, 0, "")
		}
	}

	if c.BillableRate != nil {
		e.BillableRate = *c.BillableRate
	}

	if c.Currency != nil {
		e.Currency = strings.ToUpper(*c.Currency)
	}

	if c.Billable != nil {
		e.Billable = *c.Billable
	}

	return nil
}

// Delete permanently removes an entry.
func (r *Repository) Delete(_ context.Context, userID, id string) error {
	err := r.store.DeleteEntry(userID, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrEntryNotFound.Fmt(id)
	}

	if err != nil {
		return apperr.ErrPersistence.Wrap(err)
	}

	return nil
}

// List returns the user's entries matching f, oldest first. The date range
// applies to the start time, or the creation time of entries without one.
func (r *Repository) List(_ context.Context, userID string, f Filter) ([]models.TimeEntry, error) {
	all, err := r.store.Entries(userID)
	if err != nil {
		return nil, apperr.ErrPersistence.Wrap(err)
	}

	matched := all[:0]

	for i := range all {
		if f.matches(&all[i]) {
			matched = append(matched, all[i])
		}
	}

	return matched, nil
}

func (f Filter) matches(e *models.TimeEntry) bool {
	at := e.CreatedAt
	if e.StartTime != nil {
		at = *e.StartTime
	}

	switch {
	case !f.From.IsZero() && at.Before(f.From):
		return false
	case !f.To.IsZero() && at.After(f.To):
		return false
	case f.TaskID != "" && e.TaskID != f.TaskID:
		return false
	case f.ProjectID != "" && e.ProjectID != f.ProjectID:
		return false
	case f.Billable != nil && e.Billable != *f.Billable:
		return false
	}

	return true
}

func (r *Repository) check(v any) error {
	err := r.validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ErrInvalidTimeEntry.Wrap(err)
	}

	msgs := make([]string, 0, len(verrs))

	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}

	return ErrInvalidTimeEntry.Wrap(errors.New(strings.Join(msgs, "; ")))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "len":
		return fmt.Sprintf("%s must be %s characters long", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s long", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must not be less than %s", fe.Field(), fe.Param())
	}

	return fmt.Sprintf("%s failed the %q check", fe.Field(), fe.Tag())
}
