package entries

import (
	"time"

	"github.com/ayoisaiah/workstate/internal/apperr"
	"github.com/ayoisaiah/workstate/internal/models"
)

var (
	errShape = &apperr.Error{
		Message: "provide start and end, start and duration, or duration only",
	}

	errEndBeforeStart = &apperr.Error{
		Message: "end time must be after start time",
	}

	errNonPositiveDuration = &apperr.Error{
		Message: "duration must be greater than zero",
	}
)

// Span is where an entry sits in time. It is one of StartEnd, StartDuration
// or DurationOnly.
type Span interface {
	Mode() models.EntryMode
	// Duration is the length of the span.
	Duration() time.Duration
	validate() error
	apply(e *models.TimeEntry)
}

// StartEnd is a span with both ends known.
type StartEnd struct {
	Start time.Time
	End   time.Time
}

func (s StartEnd) Mode() models.EntryMode { return models.ModeStartEnd }

func (s StartEnd) Duration() time.Duration { return s.End.Sub(s.Start) }

func (s StartEnd) validate() error {
	if !s.End.After(s.Start) {
		return errEndBeforeStart
	}

	return nil
}

func (s StartEnd) apply(e *models.TimeEntry) {
	start, end := s.Start, s.End
	e.StartTime = &start
	e.EndTime = &end
	e.Duration = s.Duration()
	e.Mode = models.ModeStartEnd
}

// StartDuration is a span with a start and a length. The end is derived.
type StartDuration struct {
	Start  time.Time
	Length time.Duration
}

func (s StartDuration) Mode() models.EntryMode { return models.ModeStartDuration }

func (s StartDuration) Duration() time.Duration { return s.Length }

func (s StartDuration) validate() error {
	if s.Length <= 0 {
		return errNonPositiveDuration
	}

	return nil
}

func (s StartDuration) apply(e *models.TimeEntry) {
	start, end := s.Start, s.Start.Add(s.Length)
	e.StartTime = &start
	e.EndTime = &end
	e.Duration = s.Length
	e.Mode = models.ModeStartDuration
}

// DurationOnly is a length that is not anchored in time.
type DurationOnly struct {
	Length time.Duration
}

func (s DurationOnly) Mode() models.EntryMode { return models.ModeDurationOnly }

func (s DurationOnly) Duration() time.Duration { return s.Length }

func (s DurationOnly) validate() error {
	if s.Length <= 0 {
		return errNonPositiveDuration
	}

	return nil
}

func (s DurationOnly) apply(e *models.TimeEntry) {
	e.StartTime = nil
	e.EndTime = nil
	e.Duration = s.Length
	e.Mode = models.ModeDurationOnly
}

// ParseSpan builds a span from the optional inputs of an entry form. Exactly
// one of the combinations start+end, start+duration or duration alone must
// be given.
func ParseSpan(start, end *time.Time, duration *time.Duration) (Span, error) {
	var s Span

	switch {
	case start != nil && end != nil && duration == nil:
		s = StartEnd{Start: *start, End: *end}
	case start != nil && end == nil && duration != nil:
		s = StartDuration{Start: *start, Length: *duration}
	case start == nil && end == nil && duration != nil:
		s = DurationOnly{Length: *duration}
	default:
		return nil, ErrInvalidTimeEntry.Wrap(errShape)
	}

	if err := s.validate(); err != nil {
		return nil, ErrInvalidTimeEntry.Wrap(err)
	}

	return s, nil
}

// SpanOf recovers the span of a stored entry. Entries written without a
// mode are classified by the fields they carry.
func SpanOf(e *models.TimeEntry) (Span, error) {
	mode := e.Mode
	if mode == "" {
		mode = guessMode(e)
	}

	var s Span

	switch {
	case mode == models.ModeStartEnd && e.StartTime != nil && e.EndTime != nil:
		s = StartEnd{Start: *e.StartTime, End: *e.EndTime}
	case mode == models.ModeStartDuration && e.StartTime != nil:
		s = StartDuration{Start: *e.StartTime, Length: e.Duration}
	case mode == models.ModeDurationOnly && e.StartTime == nil && e.EndTime == nil:
		s = DurationOnly{Length: e.Duration}
	default:
		return nil, ErrInvalidTimeEntry.Wrap(errShape)
	}

	if err := s.validate(); err != nil {
		return nil, ErrInvalidTimeEntry.Wrap(err)
	}

	return s, nil
}

func guessMode(e *models.TimeEntry) models.EntryMode {
	switch {
	case e.StartTime != nil && e.EndTime != nil:
		return models.ModeStartEnd
	case e.StartTime != nil:
		return models.ModeStartDuration
	}

	return models.ModeDurationOnly
}
