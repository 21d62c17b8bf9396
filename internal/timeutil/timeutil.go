// Package timeutil provides utility functions and types for working with
// time-related operations.
package timeutil

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	dps "github.com/markusmobius/go-dateparser"

	"github.com/ayoisaiah/workstate/internal/apperr"
)

const minutesInAnHour = 60

type Period string

const (
	PeriodAllTime   Period = "all-time"
	PeriodToday     Period = "today"
	PeriodYesterday Period = "yesterday"
	Period7Days     Period = "7days"
	Period14Days    Period = "14days"
	Period30Days    Period = "30days"
	Period90Days    Period = "90days"
	Period365Days   Period = "365days"
)

var Range = map[Period]int{
	PeriodAllTime:   0,
	PeriodToday:     0,
	PeriodYesterday: -1,
	Period7Days:     -6,
	Period14Days:    -13,
	Period30Days:    -29,
	Period90Days:    -89,
	Period365Days:   -364,
}

var PeriodCollection = []Period{
	PeriodAllTime,
	PeriodToday,
	PeriodYesterday,
	Period7Days,
	Period14Days,
	Period30Days,
	Period90Days,
	Period365Days,
}

var (
	errUnknownPeriod = &apperr.Error{
		Message: "unknown period %q",
	}

	errParseTime = &apperr.Error{
		Message: "could not understand the time %q",
	}

	errParseDuration = &apperr.Error{
		Message: "could not understand the duration %q",
	}
)

// layouts are tried before natural language parsing.
var layouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// FromStr parses an absolute or relative time ("2024-05-01 09:30",
// "10 minutes ago", "yesterday 5pm") relative to the current time.
func FromStr(s string) (time.Time, error) {
	return FromStrAt(s, time.Now())
}

// FromStrAt is FromStr with an explicit reference time.
func FromStrAt(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)

	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, s, now.Location())
		if err == nil {
			return t, nil
		}
	}

	cfg := &dps.Configuration{
		CurrentTime: now,
	}

	dt, err := dps.Parse(cfg, s)
	if err != nil || dt.Time.IsZero() {
		return time.Time{}, errParseTime.Fmt(s)
	}

	return dt.Time, nil
}

// PeriodBounds returns the start and end of period p as of now. A zero start
// means unbounded.
func PeriodBounds(p Period, now time.Time) (start, end time.Time, err error) {
	if !slices.Contains(PeriodCollection, p) {
		return start, end, errUnknownPeriod.Fmt(p)
	}

	end = RoundToEnd(now)

	switch p {
	case PeriodAllTime:
		return time.Time{}, end, nil
	case PeriodYesterday:
		y := now.AddDate(0, 0, -1)
		return RoundToStart(y), RoundToEnd(y), nil
	}

	return RoundToStart(now.AddDate(0, 0, Range[p])), end, nil
}

// MinsToHoursAndMins expresses a minutes value in hours and mins.
func MinsToHoursAndMins(val int) (hrs, mins int) {
	hrs = int(math.Floor(float64(val) / float64(minutesInAnHour)))
	mins = val % minutesInAnHour

	return
}

// FormatDuration renders d as "1h 05m", dropping seconds.
func FormatDuration(d time.Duration) string {
	hrs, mins := MinsToHoursAndMins(int(d.Minutes()))
	if hrs == 0 {
		return fmt.Sprintf("%dm", mins)
	}

	return fmt.Sprintf("%dh %02dm", hrs, mins)
}

// ParseDuration accepts Go duration strings ("1h30m") and bare minute
// counts ("90").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	d, err := time.ParseDuration(s)
	if err == nil {
		return d, nil
	}

	d, err = time.ParseDuration(s + "m")
	if err != nil {
		return 0, errParseDuration.Fmt(s)
	}

	return d, nil
}

// RoundToStart resets the given time to the start of the day.
func RoundToStart(t time.Time) time.Time {
	return time.Date(
		t.Year(),
		t.Month(),
		t.Day(),
		0,
		0,
		0,
		0,
		t.Location(),
	)
}

// RoundToEnd resets the given time to the end of the day.
func RoundToEnd(t time.Time) time.Time {
	return time.Date(
		t.Year(),
		t.Month(),
		t.Day(),
		23,
		59,
		59,
		0,
		t.Location(),
	)
}
