package tracker

import (
	"fmt"
	"time"

	"github.com/ayoisaiah/workstate/internal/apperr"
	"github.com/ayoisaiah/workstate/internal/models"
	"github.com/ayoisaiah/workstate/internal/rounding"
	"github.com/ayoisaiah/workstate/internal/tasks"
	"github.com/ayoisaiah/workstate/internal/timerstate"
)

var (
	ErrTimerAlreadyActive = timerstate.ErrTimerAlreadyActive
	ErrNoActiveTimer      = timerstate.ErrNoActiveTimer
	ErrPersistence        = apperr.ErrPersistence
	ErrTaskNotFound       = tasks.ErrTaskNotFound
	ErrInvalidDuration    = rounding.ErrInvalidDuration

	ErrInvalidAction = &apperr.Error{
		Message: "unknown action %q",
	}

	errInboxFull = &apperr.Error{
		Message: "idle inbox is full",
	}
)

// ConfirmationRequiredError is returned by Start when the user already has a
// running timer and did not say what to do with it. Nothing was changed.
type ConfirmationRequiredError struct {
	Running models.ActiveTimer
	Elapsed time.Duration
}

func (e *ConfirmationRequiredError) Error() string {
	return fmt.Sprintf(
		"a timer is already running on task %s (%s elapsed): stop or discard it first",
		e.Running.TaskID,
		e.Elapsed.Truncate(time.Second),
	)
}

func (e *ConfirmationRequiredError) Unwrap() error {
	return ErrTimerAlreadyActive
}
