// Package rounding converts raw tracked durations into billable ones
package rounding

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ayoisaiah/workstate/internal/apperr"
)

// Method decides which interval boundary a duration snaps to.
type Method string

const (
	Up      Method = "up"
	Down    Method = "down"
	Nearest Method = "nearest"
)

// Interval is the rounding granularity in minutes. Zero disables rounding.
type Interval int

const (
	Off        Interval = 0
	Five       Interval = 5
	Ten        Interval = 10
	Fifteen    Interval = 15
	HalfAnHour Interval = 30
)

var (
	ErrInvalidDuration = &apperr.Error{
		Message: "duration must not be negative",
	}

	errUnknownMethod = &apperr.Error{
		Message: "unknown rounding method %q (expected up, down or nearest)",
	}

	errUnknownInterval = &apperr.Error{
		Message: "unsupported rounding interval %d (expected 0, 5, 10, 15 or 30)",
	}
)

var intervals = []Interval{Off, Five, Ten, Fifteen, HalfAnHour}

// Duration returns the interval as a time.Duration.
func (i Interval) Duration() time.Duration {
	return time.Duration(i) * time.Minute
}

// ParseMethod validates a configured method name.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))

	switch m {
	case Up, Down, Nearest:
		return m, nil
	}

	return "", errUnknownMethod.Fmt(s)
}

// ParseInterval validates a configured interval in minutes.
func ParseInterval(minutes int) (Interval, error) {
	i := Interval(minutes)
	if !slices.Contains(intervals, i) {
		return Off, errUnknownInterval.Fmt(minutes)
	}

	return i, nil
}

// Policy is a user's rounding preference.
type Policy struct {
	Method   Method
	Interval Interval
}

func (p Policy) String() string {
	if p.Interval == Off {
		return "off"
	}

	return fmt.Sprintf("%s to %d minutes", p.Method, p.Interval)
}

// Round snaps d to the policy's interval. Ties round up when the method is
// Nearest.
func (p Policy) Round(d time.Duration) (time.Duration, error) {
	if d < 0 {
		return 0, ErrInvalidDuration
	}

	if p.Interval == Off || d == 0 {
		return d, nil
	}

	step := p.Interval.Duration()
	whole := d / step
	rest := d % step

	switch p.Method {
	case Up:
		if rest > 0 {
			whole++
		}
	case Down:
	case Nearest:
		if rest*2 >= step {
			whole++
		}
	default:
		return 0, errUnknownMethod.Fmt(p.Method)
	}

	return whole * step, nil
}
