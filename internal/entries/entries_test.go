package entries

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/workstate/internal/config"
	"github.com/ayoisaiah/workstate/internal/models"
	"github.com/ayoisaiah/workstate/internal/tasks"
	"github.com/ayoisaiah/workstate/internal/testutil"
	"github.com/ayoisaiah/workstate/store"
)

type staticPrefs config.Preferences

func (p staticPrefs) Preferences(string) config.Preferences {
	return config.Preferences(p)
}

var (
	ten     = time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)
	tenHalf = ten.Add(30 * time.Minute)
	halfHr  = 30 * time.Minute
)

type fixture struct {
	db      *store.Client
	catalog *tasks.Catalog
	repo    *Repository
	clock   *testutil.Clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := store.NewClient(filepath.Join(t.TempDir(), "workstate.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	clock := testutil.NewClock(time.Date(2024, time.May, 2, 8, 0, 0, 0, time.UTC))
	catalog := tasks.NewCatalog(db)
	prefs := staticPrefs{DefaultRate: tasks.Rate{Amount: 40, Currency: "USD"}}

	return &fixture{
		db:      db,
		catalog: catalog,
		clock:   clock,
		repo:    New(db, catalog, prefs, WithClock(clock.Now)),
	}
}

func (f *fixture) task(t *testing.T, user, projectID string, rate float64) string {
	t.Helper()

	task, err := f.catalog.AddTask(context.Background(), user, "Task", projectID, rate, "")
	require.NoError(t, err)

	return task.ID
}

func TestModeEquivalence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	taskID := f.task(t, "alice", "", 0)

	startEnd, err := ParseSpan(&ten, &tenHalf, nil)
	require.NoError(t, err)

	e, err := f.repo.Create(ctx, NewEntry{UserID: "alice", TaskID: taskID, Span: startEnd})
	require.NoError(t, err)
	assert.Equal(t, halfHr, e.Duration)
	assert.Equal(t, models.ModeStartEnd, e.Mode)

	startDur, err := ParseSpan(&ten, nil, &halfHr)
	require.NoError(t, err)

	e, err = f.repo.Create(ctx, NewEntry{UserID: "alice", TaskID: taskID, Span: startDur})
	require.NoError(t, err)
	require.NotNil(t, e.EndTime)
	assert.True(t, tenHalf.Equal(*e.EndTime))
	assert.Equal(t, models.ModeStartDuration, e.Mode)

	durOnly, err := ParseSpan(nil, nil, &halfHr)
	require.NoError(t, err)

	e, err = f.repo.Create(ctx, NewEntry{UserID: "alice", TaskID: taskID, Span: durOnly})
	require.NoError(t, err)
	assert.Nil(t, e.StartTime)
	assert.Nil(t, e.EndTime)
	assert.Equal(t, halfHr, e.Duration)
}

func TestParseSpanRejects(t *testing.T) {
	zero := time.Duration(0)
	negative := -time.Minute
	before := ten.Add(-time.Minute)

	testCases := []struct {
		Start    *time.Time
		End      *time.Time
		Duration *time.Duration
		Name     string
	}{
		{Name: "nothing"},
		{Name: "all three", Start: &ten, End: &tenHalf, Duration: &halfHr},
		{Name: "end only", End: &tenHalf},
		{Name: "start only", Start: &ten},
		{Name: "end and duration", End: &tenHalf, Duration: &halfHr},
		{Name: "end before start", Start: &ten, End: &before},
		{Name: "end equals start", Start: &ten, End: &ten},
		{Name: "zero duration", Duration: &zero},
		{Name: "negative duration with start", Start: &ten, Duration: &negative},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			_, err := ParseSpan(tc.Start, tc.End, tc.Duration)
			assert.ErrorIs(t, err, ErrInvalidTimeEntry)
		})
	}
}

func TestCreateValidates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	taskID := f.task(t, "alice", "", 0)
	bobTask := f.task(t, "bob", "", 0)
	span := DurationOnly{Length: time.Hour}

	tooMany := make([]string, 21)
	for i := range tooMany {
		tooMany[i] = "tag"
	}

	testCases := []struct {
		Want error
		In   NewEntry
		Name string
	}{
		{
			Name: "missing task",
			In:   NewEntry{UserID: "alice", Span: span},
			Want: ErrInvalidTimeEntry,
		},
		{
			Name: "missing span",
			In:   NewEntry{UserID: "alice", TaskID: taskID},
			Want: ErrInvalidTimeEntry,
		},
		{
			Name: "span built without ParseSpan is still checked",
			In:   NewEntry{UserID: "alice", TaskID: taskID, Span: StartEnd{Start: tenHalf, End: ten}},
			Want: ErrInvalidTimeEntry,
		},
		{
			Name: "bad currency",
			In:   NewEntry{UserID: "alice", TaskID: taskID, Span: span, Currency: "dollars"},
			Want: ErrInvalidTimeEntry,
		},
		{
			Name: "negative rate",
			In:   NewEntry{UserID: "alice", TaskID: taskID, Span: span, BillableRate: -5},
			Want: ErrInvalidTimeEntry,
		},
		{
			Name: "too many tags",
			In:   NewEntry{UserID: "alice", TaskID: taskID, Span: span, Tags: tooMany},
			Want: ErrInvalidTimeEntry,
		},
		{
			Name: "someone else's task",
			In:   NewEntry{UserID: "alice", TaskID: bobTask, Span: span},
			Want: tasks.ErrTaskNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			_, err := f.repo.Create(ctx, tc.In)
			assert.ErrorIs(t, err, tc.Want)
		})
	}

	list, err := f.repo.List(ctx, "alice", Filter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateResolvesBilling(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	acme, err := f.catalog.AddProject(ctx, "alice", "Acme", 80, "eur")
	require.NoError(t, err)

	internal, err := f.catalog.AddProject(ctx, "alice", "Internal", 0, "")
	require.NoError(t, err)

	no := false
	span := DurationOnly{Length: 90 * time.Minute}

	testCases := []struct {
		Name         string
		TaskID       string
		Billable     *bool
		WantProject  string
		WantCurrency string
		WantRate     float64
		WantBillable bool
	}{
		{
			Name:         "project rate",
			TaskID:       f.task(t, "alice", acme.ID, 0),
			WantProject:  acme.ID,
			WantRate:     80,
			WantCurrency: "EUR",
			WantBillable: true,
		},
		{
			Name:         "task rate wins",
			TaskID:       f.task(t, "alice", acme.ID, 120),
			WantProject:  acme.ID,
			WantRate:     120,
			WantCurrency: "USD",
			WantBillable: true,
		},
		{
			Name:         "user default for unpriced project",
			TaskID:       f.task(t, "alice", internal.ID, 0),
			WantProject:  internal.ID,
			WantRate:     40,
			WantCurrency: "USD",
			WantBillable: true,
		},
		{
			Name:         "no project and no rate is not billable",
			TaskID:       f.task(t, "alice", "", 0),
			WantCurrency: "USD",
		},
		{
			Name:         "explicit non-billable",
			TaskID:       f.task(t, "alice", acme.ID, 0),
			Billable:     &no,
			WantProject:  acme.ID,
			WantRate:     80,
			WantCurrency: "EUR",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			e, err := f.repo.Create(ctx, NewEntry{
				UserID:   "alice",
				TaskID:   tc.TaskID,
				Span:     span,
				Billable: tc.Billable,
			})
			require.NoError(t, err)

			assert.Equal(t, tc.WantProject, e.ProjectID)
			assert.InDelta(t, tc.WantRate, e.BillableRate, 0.001)
			assert.Equal(t, tc.WantCurrency, e.Currency)
			assert.Equal(t, tc.WantBillable, e.Billable)
		})
	}
}

func TestUpdateRevalidates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	taskID := f.task(t, "alice", "", 0)
	bobTask := f.task(t, "bob", "", 0)

	e, err := f.repo.Create(ctx, NewEntry{
		UserID: "alice",
		TaskID: taskID,
		Span:   StartEnd{Start: ten, End: tenHalf},
	})
	require.NoError(t, err)

	_, err = f.repo.Update(ctx, "alice", e.ID, Changes{Span: StartEnd{Start: tenHalf, End: ten}})
	assert.ErrorIs(t, err, ErrInvalidTimeEntry)

	_, err = f.repo.Update(ctx, "alice", e.ID, Changes{TaskID: &bobTask})
	assert.ErrorIs(t, err, tasks.ErrTaskNotFound)

	bad := "x"
	_, err = f.repo.Update(ctx, "alice", e.ID, Changes{Currency: &bad})
	assert.ErrorIs(t, err, ErrInvalidTimeEntry)

	stored, err := f.repo.Get(ctx, "alice", e.ID)
	require.NoError(t, err)

	if diff := cmp.Diff(e, stored); diff != "" {
		t.Fatalf("failed updates changed the entry (-want +got):\n%s", diff)
	}

	f.clock.Advance(time.Hour)

	desc := "  Planning  "
	updated, err := f.repo.Update(ctx, "alice", e.ID, Changes{
		Span:        DurationOnly{Length: 2 * time.Hour},
		Description: &desc,
	})
	require.NoError(t, err)

	assert.Equal(t, models.ModeDurationOnly, updated.Mode)
	assert.Nil(t, updated.StartTime)
	assert.Equal(t, 2*time.Hour, updated.Duration)
	assert.Equal(t, "Planning", updated.Description)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	_, err = f.repo.Update(ctx, "bob", e.ID, Changes{Description: &desc})
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestUpdateRejectsRunningTimerEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	start := ten
	end := tenHalf

	require.NoError(t, f.db.InsertTimer(&models.ActiveTimer{
		ID:        "timer-1",
		UserID:    "alice",
		TaskID:    "task-1",
		StartTime: ten,
	}))

	require.NoError(t, f.repo.Record(ctx, &models.TimeEntry{
		ID:        "timer-1",
		TimerID:   "timer-1",
		UserID:    "alice",
		TaskID:    "task-1",
		StartTime: &start,
		EndTime:   &end,
		Duration:  halfHr,
		Mode:      models.ModeStartEnd,
	}))

	desc := "edit"
	_, err := f.repo.Update(ctx, "alice", "timer-1", Changes{Description: &desc})
	assert.ErrorIs(t, err, ErrEntryRunning)

	require.NoError(t, f.db.DeleteTimer("alice"))

	_, err = f.repo.Update(ctx, "alice", "timer-1", Changes{Description: &desc})
	assert.NoError(t, err)
}

func TestRecordRejectsMalformedEntries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	start := ten

	err := f.repo.Record(ctx, &models.TimeEntry{UserID: "alice", TaskID: "t", Duration: time.Minute})
	assert.ErrorIs(t, err, ErrInvalidTimeEntry)

	err = f.repo.Record(ctx, &models.TimeEntry{
		ID:        "e1",
		UserID:    "alice",
		TaskID:    "t",
		StartTime: &start,
		Mode:      models.ModeStartDuration,
	})
	assert.ErrorIs(t, err, ErrInvalidTimeEntry)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	taskID := f.task(t, "alice", "", 0)

	e, err := f.repo.Create(ctx, NewEntry{UserID: "alice", TaskID: taskID, Span: DurationOnly{Length: time.Hour}})
	require.NoError(t, err)

	assert.ErrorIs(t, f.repo.Delete(ctx, "bob", e.ID), ErrEntryNotFound)
	require.NoError(t, f.repo.Delete(ctx, "alice", e.ID))
	assert.ErrorIs(t, f.repo.Delete(ctx, "alice", e.ID), ErrEntryNotFound)

	_, err = f.repo.Get(ctx, "alice", e.ID)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestListFilter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	acme, err := f.catalog.AddProject(ctx, "alice", "Acme", 80, "")
	require.NoError(t, err)

	billed := f.task(t, "alice", acme.ID, 0)
	free := f.task(t, "alice", "", 0)

	mk := func(taskID string, span Span) string {
		e, err := f.repo.Create(ctx, NewEntry{UserID: "alice", TaskID: taskID, Span: span})
		require.NoError(t, err)

		return e.ID
	}

	may1 := mk(billed, StartDuration{Start: ten, Length: time.Hour})
	may3 := mk(free, StartDuration{Start: ten.AddDate(0, 0, 2), Length: time.Hour})
	// no start: filtered on creation time, May 2nd
	floating := mk(free, DurationOnly{Length: time.Hour})

	yes := true

	testCases := []struct {
		Name   string
		Filter Filter
		Want   []string
	}{
		{Name: "everything", Want: []string{may1, floating, may3}},
		{Name: "from", Filter: Filter{From: ten.Add(time.Hour)}, Want: []string{floating, may3}},
		{Name: "to", Filter: Filter{To: ten.Add(time.Hour)}, Want: []string{may1}},
		{Name: "task", Filter: Filter{TaskID: free}, Want: []string{floating, may3}},
		{Name: "project", Filter: Filter{ProjectID: acme.ID}, Want: []string{may1}},
		{Name: "billable", Filter: Filter{Billable: &yes}, Want: []string{may1}},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			list, err := f.repo.List(ctx, "alice", tc.Filter)
			require.NoError(t, err)

			ids := make([]string, 0, len(list))
			for _, e := range list {
				ids = append(ids, e.ID)
			}

			assert.Equal(t, tc.Want, ids)
		})
	}
}

func TestRevenue(t *testing.T) {
	list := []models.TimeEntry{
		{Duration: 90 * time.Minute, Billable: true, BillableRate: 40, Currency: "USD"},
		{Duration: 30 * time.Minute, Billable: true, BillableRate: 100, Currency: "EUR"},
		{Duration: time.Hour, Billable: false, BillableRate: 500, Currency: "USD"},
		{Duration: time.Hour, Billable: true},
	}

	s := Revenue(list)

	assert.Equal(t, 4, s.Entries)
	assert.Equal(t, 4*time.Hour, s.Total)
	assert.Equal(t, 3*time.Hour, s.Billable)
	assert.Equal(t, []string{"EUR", "USD"}, s.Currencies())
	assert.InDelta(t, 60, s.Revenue["USD"], 0.001)
	assert.InDelta(t, 50, s.Revenue["EUR"], 0.001)
}

type listGolden struct {
	name string
	out  []byte
}

func (g listGolden) Output() ([]byte, string) {
	return g.out, g.name
}

func TestListGolden(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	start := time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(halfHr)

	require.NoError(t, f.repo.Record(ctx, &models.TimeEntry{
		ID:       "e2",
		UserID:   "alice",
		TaskID:   "task-2",
		Duration: 45 * time.Minute,
		Mode:     models.ModeDurationOnly,
	}))

	require.NoError(t, f.repo.Record(ctx, &models.TimeEntry{
		ID:           "e1",
		UserID:       "alice",
		TaskID:       "task-1",
		TimerID:      "timer-1",
		Description:  "Standup",
		StartTime:    &start,
		EndTime:      &end,
		Duration:     halfHr,
		RawDuration:  28 * time.Minute,
		Mode:         models.ModeStartEnd,
		Billable:     true,
		BillableRate: 50,
		Currency:     "USD",
	}))

	list, err := f.repo.List(ctx, "alice", Filter{})
	require.NoError(t, err)

	out, err := json.MarshalIndent(list, "", "  ")
	require.NoError(t, err)

	testutil.CompareGoldenFile(t, listGolden{name: "list", out: out})
}
