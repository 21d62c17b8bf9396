package idle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/workstate/internal/config"
	"github.com/ayoisaiah/workstate/internal/logging"
	"github.com/ayoisaiah/workstate/internal/models"
)

var t0 = time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)

type fakeTimers struct {
	timers []models.ActiveTimer
	mu     sync.Mutex
}

func (f *fakeTimers) Active(context.Context) ([]models.ActiveTimer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]models.ActiveTimer(nil), f.timers...), nil
}

func (f *fakeTimers) set(timers ...models.ActiveTimer) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.timers = timers
}

type recordingSink struct {
	err    error
	events []models.IdleEvent
	mu     sync.Mutex
}

func (s *recordingSink) Post(_ context.Context, ev models.IdleEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}

	s.events = append(s.events, ev)

	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.events)
}

// thresholds maps users to idle thresholds in minutes; "panic" panics.
type thresholds map[string]int

func (th thresholds) Preferences(userID string) config.Preferences {
	if userID == "panic" {
		panic("preferences unavailable")
	}

	return config.Preferences{IdleThreshold: time.Duration(th[userID]) * time.Minute}
}

func timer(id, user string, start time.Time) models.ActiveTimer {
	return models.ActiveTimer{
		ID:           id,
		UserID:       user,
		TaskID:       "task-1",
		StartTime:    start,
		LastActivity: start,
	}
}

func newDetector(timers *fakeTimers, prefs config.Provider, sink Sink) *Detector {
	return NewDetector(timers, prefs, sink, WithLogger(logging.Discard()))
}

func TestSweepReportsOncePerTimer(t *testing.T) {
	ctx := context.Background()
	timers := &fakeTimers{}
	timers.set(timer("t1", "alice", t0))

	sink := &recordingSink{}
	d := newDetector(timers, thresholds{"alice": 5}, sink)

	assert.Empty(t, d.Sweep(ctx, t0.Add(4*time.Minute)))
	assert.Empty(t, d.Sweep(ctx, t0.Add(5*time.Minute)), "idle time must exceed the threshold")

	events := d.Sweep(ctx, t0.Add(6*time.Minute))
	require.Len(t, events, 1)
	assert.Equal(t, "t1", events[0].TimerID)
	assert.Equal(t, "alice", events[0].UserID)
	assert.True(t, events[0].IdleStart.Equal(t0))
	assert.True(t, events[0].DetectedAt.Equal(t0.Add(6*time.Minute)))
	assert.Equal(t, models.Unresolved, events[0].Resolution)

	assert.Empty(t, d.Sweep(ctx, t0.Add(7*time.Minute)))
	assert.Equal(t, 1, sink.count())
}

func TestSweepReportsAgainAfterActivity(t *testing.T) {
	ctx := context.Background()
	timers := &fakeTimers{}
	timers.set(timer("t1", "alice", t0))

	d := newDetector(timers, thresholds{"alice": 5}, &recordingSink{})

	require.Len(t, d.Sweep(ctx, t0.Add(6*time.Minute)), 1)

	touched := timer("t1", "alice", t0)
	touched.LastActivity = t0.Add(8 * time.Minute)
	timers.set(touched)

	assert.Empty(t, d.Sweep(ctx, t0.Add(9*time.Minute)))

	events := d.Sweep(ctx, t0.Add(14*time.Minute))
	require.Len(t, events, 1)
	assert.True(t, events[0].IdleStart.Equal(t0.Add(8*time.Minute)))
}

func TestZeroThresholdDisablesDetection(t *testing.T) {
	timers := &fakeTimers{}
	timers.set(timer("t1", "bob", t0))

	d := newDetector(timers, thresholds{"bob": 0}, &recordingSink{})

	assert.Empty(t, d.Sweep(context.Background(), t0.Add(24*time.Hour)))
}

func TestSweepIsolatesFailingUsers(t *testing.T) {
	timers := &fakeTimers{}
	timers.set(timer("t0", "panic", t0), timer("t1", "alice", t0))

	d := newDetector(timers, thresholds{"alice": 5}, &recordingSink{})

	events := d.Sweep(context.Background(), t0.Add(time.Hour))
	require.Len(t, events, 1)
	assert.Equal(t, "alice", events[0].UserID)
}

func TestUndeliveredEventIsRetried(t *testing.T) {
	ctx := context.Background()
	timers := &fakeTimers{}
	timers.set(timer("t1", "alice", t0))

	sink := &recordingSink{err: errors.New("inbox full")}
	d := newDetector(timers, thresholds{"alice": 5}, sink)

	assert.Empty(t, d.Sweep(ctx, t0.Add(6*time.Minute)))

	sink.err = nil

	assert.Len(t, d.Sweep(ctx, t0.Add(7*time.Minute)), 1)
}

func TestStaleFlagsArePruned(t *testing.T) {
	ctx := context.Background()
	timers := &fakeTimers{}
	timers.set(timer("t1", "alice", t0))

	d := newDetector(timers, thresholds{"alice": 5}, &recordingSink{})

	require.Len(t, d.Sweep(ctx, t0.Add(6*time.Minute)), 1)
	assert.Len(t, d.flagged, 1)

	timers.set()
	d.Sweep(ctx, t0.Add(7*time.Minute))

	assert.Empty(t, d.flagged)
}

func TestRunSweepsImmediately(t *testing.T) {
	timers := &fakeTimers{}
	timers.set(timer("t1", "alice", t0))

	sink := &recordingSink{}
	d := NewDetector(
		timers,
		thresholds{"alice": 5},
		sink,
		WithLogger(logging.Discard()),
		WithInterval(time.Hour),
		WithClock(func() time.Time { return t0.Add(time.Hour) }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- d.Run(ctx)
	}()

	assert.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
