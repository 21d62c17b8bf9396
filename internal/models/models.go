// Package models defines the records shared by the timer engine, the entry
// repository and the storage layer
package models

import "time"

// ActiveTimer is the single in-progress tracking session of a user.
type ActiveTimer struct {
	StartTime time.Time `json:"start_time"`
	// LastActivity is the most recent time the user was seen interacting with
	// the running timer. It equals StartTime until the first heartbeat.
	LastActivity time.Time `json:"last_activity"`
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	TaskID       string    `json:"task_id"`
	ProjectID    string    `json:"project_id,omitempty"`
	Description  string    `json:"description,omitempty"`
	Pomodoro     bool      `json:"pomodoro,omitempty"`
}

// Elapsed returns the wall-clock time the timer has been running at now.
func (t *ActiveTimer) Elapsed(now time.Time) time.Duration {
	d := now.Sub(t.StartTime)
	if d < 0 {
		return 0
	}

	return d
}

// ActivityMarker returns the reference point for idle detection.
func (t *ActiveTimer) ActivityMarker() time.Time {
	if t.LastActivity.IsZero() || t.LastActivity.Before(t.StartTime) {
		return t.StartTime
	}

	return t.LastActivity
}

// EntryMode names the shape of a time entry.
type EntryMode string

const (
	// ModeStartEnd entries have both ends; the duration is derived.
	ModeStartEnd EntryMode = "start-end"
	// ModeStartDuration entries have a start and a duration; the end is
	// derived.
	ModeStartDuration EntryMode = "start-duration"
	// ModeDurationOnly entries are not anchored in time.
	ModeDurationOnly EntryMode = "duration-only"
)

// TimeEntry is a finalized record of time spent on a task.
type TimeEntry struct {
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	StartTime    *time.Time    `json:"start_time,omitempty"`
	EndTime      *time.Time    `json:"end_time,omitempty"`
	ID           string        `json:"id"`
	UserID       string        `json:"user_id"`
	TaskID       string        `json:"task_id"`
	ProjectID    string        `json:"project_id,omitempty"`
	Description  string        `json:"description,omitempty"`
	Currency     string        `json:"currency,omitempty"`
	Mode         EntryMode     `json:"mode"`
	TimerID      string        `json:"timer_id,omitempty"`
	Tags         []string      `json:"tags,omitempty"`
	Duration     time.Duration `json:"duration"`
	RawDuration  time.Duration `json:"raw_duration,omitempty"`
	BillableRate float64       `json:"billable_rate,omitempty"`
	Billable     bool          `json:"billable"`
}

// Revenue is the amount earned by the entry. Non-billable entries earn
// nothing regardless of their rate.
func (e *TimeEntry) Revenue() float64 {
	if !e.Billable {
		return 0
	}

	return e.Duration.Hours() * e.BillableRate
}

// IdleResolution is the outcome chosen by the user for an idle event.
type IdleResolution string

const (
	Unresolved      IdleResolution = "unresolved"
	KeepIdle        IdleResolution = "keep"
	DiscardIdle     IdleResolution = "discard-idle"
	StopAtIdleStart IdleResolution = "stop-at-idle-start"
)

// IdleResolutions lists the actions a user can take on an idle event.
var IdleResolutions = []IdleResolution{KeepIdle, DiscardIdle, StopAtIdleStart}

// IdleEvent flags a running timer that saw no activity for longer than the
// user's idle threshold.
type IdleEvent struct {
	IdleStart  time.Time      `json:"idle_start"`
	DetectedAt time.Time      `json:"detected_at"`
	UserID     string         `json:"user_id"`
	TimerID    string         `json:"timer_id"`
	Resolution IdleResolution `json:"resolution"`
}

// Project groups tasks and may carry a default billable rate.
type Project struct {
	CreatedAt    time.Time `json:"created_at"`
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Currency     string    `json:"currency,omitempty"`
	BillableRate float64   `json:"billable_rate,omitempty"`
}

// Task is the unit time is tracked against.
type Task struct {
	CreatedAt    time.Time `json:"created_at"`
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	ProjectID    string    `json:"project_id,omitempty"`
	Name         string    `json:"name"`
	Currency     string    `json:"currency,omitempty"`
	BillableRate float64   `json:"billable_rate,omitempty"`
}
