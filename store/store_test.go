package store

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/workstate/internal/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	c, err := NewClient(filepath.Join(t.TempDir(), "workstate.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
	})

	return c
}

func TestSecondOpenReportsRunningInstance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workstate.db")

	c, err := NewClient(path)
	require.NoError(t, err)

	defer c.Close()

	_, err = NewClient(path)
	assert.ErrorIs(t, err, errWorkstateRunning)
}

func TestInsertTimerIsUniquePerUser(t *testing.T) {
	c := newTestClient(t)

	now := time.Now()

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
	)

	for i := 0; i < 20; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			err := c.InsertTimer(&models.ActiveTimer{
				ID:        string(rune('a' + i)),
				UserID:    "alice",
				TaskID:    "task-1",
				StartTime: now,
			})
			if err == nil {
				succeeded.Add(1)
			} else {
				assert.ErrorIs(t, err, ErrConflict)
			}
		}(i)
	}

	wg.Wait()

	assert.EqualValues(t, 1, succeeded.Load())

	timers, err := c.Timers()
	require.NoError(t, err)
	assert.Len(t, timers, 1)
}

func TestReplaceTimerRequiresSameTimer(t *testing.T) {
	c := newTestClient(t)

	timer := &models.ActiveTimer{ID: "t1", UserID: "alice", TaskID: "task-1"}
	require.NoError(t, c.InsertTimer(timer))

	other := *timer
	other.ID = "t2"
	assert.ErrorIs(t, c.ReplaceTimer(&other), ErrNotFound)

	timer.Description = "writing tests"
	require.NoError(t, c.ReplaceTimer(timer))

	got, err := c.GetTimer("alice")
	require.NoError(t, err)
	assert.Equal(t, "writing tests", got.Description)

	require.NoError(t, c.DeleteTimer("alice"))
	require.NoError(t, c.DeleteTimer("alice"))

	got, err = c.GetTimer("alice")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEntriesAreScopedAndSorted(t *testing.T) {
	c := newTestClient(t)

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	later := base.Add(2 * time.Hour)

	require.NoError(t, c.PutEntry(&models.TimeEntry{ID: "e2", UserID: "alice", StartTime: &later, Duration: time.Hour}))
	require.NoError(t, c.PutEntry(&models.TimeEntry{ID: "e1", UserID: "alice", StartTime: &base, Duration: time.Hour}))
	require.NoError(t, c.PutEntry(&models.TimeEntry{ID: "e3", UserID: "bob", Duration: time.Hour, CreatedAt: base}))

	entries, err := c.Entries("alice")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "e1", entries[0].ID)
	assert.Equal(t, "e2", entries[1].ID)

	e, err := c.GetEntry("bob", "e1")
	require.NoError(t, err)
	assert.Nil(t, e)

	assert.ErrorIs(t, c.DeleteEntry("bob", "e1"), ErrNotFound)
	require.NoError(t, c.DeleteEntry("alice", "e1"))

	entries, err = c.Entries("alice")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestIdleEventIsUniquePerUser(t *testing.T) {
	c := newTestClient(t)

	e := &models.IdleEvent{UserID: "alice", TimerID: "t1", Resolution: models.Unresolved}
	require.NoError(t, c.InsertIdleEvent(e))
	assert.ErrorIs(t, c.InsertIdleEvent(e), ErrConflict)

	got, err := c.GetIdleEvent("alice")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.TimerID)

	require.NoError(t, c.DeleteIdleEvent("alice"))

	got, err = c.GetIdleEvent("alice")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTasksFilteredByOwner(t *testing.T) {
	c := newTestClient(t)

	require.NoError(t, c.PutTask(&models.Task{ID: "1", UserID: "alice", Name: "Write report"}))
	require.NoError(t, c.PutTask(&models.Task{ID: "2", UserID: "bob", Name: "Review"}))
	require.NoError(t, c.PutProject(&models.Project{ID: "p1", UserID: "alice", Name: "Acme"}))

	tasks, err := c.Tasks("alice")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Write report", tasks[0].Name)

	p, err := c.GetProject("p1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", p.Name)
}
