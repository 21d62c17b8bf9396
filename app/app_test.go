package app

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/workstate/internal/api"
	"github.com/ayoisaiah/workstate/internal/config"
	"github.com/ayoisaiah/workstate/internal/models"
	"github.com/ayoisaiah/workstate/internal/tracker"
)

// sandbox points every workstate path at a temporary directory and captures
// the output of the commands run through it.
type sandbox struct {
	out *bytes.Buffer
	dir string
}

func newSandbox(t *testing.T) *sandbox {
	t.Helper()

	dir := t.TempDir()

	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("WORKSTATE_USER", "alice")
	t.Setenv("WORKSTATE_ENV", "")
	t.Setenv("NO_COLOR", "1")
	xdg.Reload()

	out := &bytes.Buffer{}

	oldIn, oldOut := config.Stdin, config.Stdout
	config.Stdin, config.Stdout = strings.NewReader(""), out

	t.Cleanup(func() {
		config.Stdin, config.Stdout = oldIn, oldOut
		xdg.Reload()
	})

	return &sandbox{out: out, dir: dir}
}

func (s *sandbox) run(t *testing.T, args ...string) error {
	t.Helper()

	s.out.Reset()

	return Get().Run(append([]string{"workstate"}, args...))
}

func (s *sandbox) must(t *testing.T, args ...string) string {
	t.Helper()

	require.NoError(t, s.run(t, args...))

	return s.out.String()
}

func decodeOut[T any](t *testing.T, out string) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)

	return v
}

func (s *sandbox) addTask(t *testing.T, name string, flags ...string) string {
	t.Helper()

	s.must(t, append(append([]string{"task", "add"}, flags...), name)...)

	list := decodeOut[[]models.Task](t, s.must(t, "task", "list", "--json"))
	for _, task := range list {
		if task.Name == name {
			return task.ID
		}
	}

	require.FailNow(t, "task not found", name)

	return ""
}

func TestTimerCommands(t *testing.T) {
	s := newSandbox(t)
	taskID := s.addTask(t, "Writing")

	s.must(t, "start", "--description", "chapter one", taskID)

	running := decodeOut[models.ActiveTimer](t, s.must(t, "status", "--json"))
	assert.Equal(t, taskID, running.TaskID)
	assert.Equal(t, "chapter one", running.Description)

	s.must(t, "describe", "chapter", "two")
	s.must(t, "touch")

	running = decodeOut[models.ActiveTimer](t, s.must(t, "status", "--json"))
	assert.Equal(t, "chapter two", running.Description)

	err := s.run(t, "start", taskID)
	assert.ErrorIs(t, err, tracker.ErrTimerAlreadyActive)

	res := decodeOut[tracker.StopResult](t, s.must(t, "stop", "--duration", "45", "--json"))
	require.NotNil(t, res.Entry)
	assert.Equal(t, 45*time.Minute, res.Entry.Duration)
	assert.Equal(t, running.ID, res.Entry.ID)

	err = s.run(t, "stop")
	assert.ErrorIs(t, err, tracker.ErrNoActiveTimer)

	assert.Contains(t, s.must(t, "status"), noTimerMsg)
}

func TestStartReplace(t *testing.T) {
	s := newSandbox(t)
	taskID := s.addTask(t, "Writing")

	s.must(t, "start", taskID)
	s.must(t, "start", "--replace", "discard", taskID)

	list := decodeOut[[]models.TimeEntry](t, s.must(t, "entry", "list", "--json"))
	assert.Empty(t, list)

	err := s.run(t, "start", "--replace", "pause", taskID)
	assert.ErrorIs(t, err, errInvalidReplace)
}

func TestDiscardNeedsYes(t *testing.T) {
	s := newSandbox(t)
	taskID := s.addTask(t, "Writing")

	s.must(t, "start", taskID)

	err := s.run(t, "discard")
	assert.ErrorIs(t, err, errNeedsConfirmation)

	s.must(t, "status", "--json")
	assert.NotContains(t, s.out.String(), "null")

	s.must(t, "discard", "--yes")
	assert.Equal(t, "null\n", s.must(t, "status", "--json"))
}

func TestEntryCommands(t *testing.T) {
	s := newSandbox(t)
	taskID := s.addTask(t, "Consulting", "--rate", "80", "--currency", "eur")

	s.must(t, "entry", "add", "--task", taskID, "--duration", "90", "--tag", "client, remote")

	err := s.run(t, "entry", "add", "--task", taskID)
	assert.ErrorIs(t, err, errMissingArg)

	err = s.run(t, "entry", "add", "--task", taskID,
		"--start", "2024-05-01 10:00", "--end", "2024-05-01 09:00")
	require.Error(t, err)

	list := decodeOut[[]models.TimeEntry](t, s.must(t, "entry", "list", "--json"))
	require.Len(t, list, 1)

	e := list[0]
	assert.Equal(t, 90*time.Minute, e.Duration)
	assert.Equal(t, "EUR", e.Currency)
	assert.True(t, e.Billable)
	assert.Equal(t, []string{"client", "remote"}, e.Tags)

	s.must(t, "entry", "edit", "--description", "workshop", "--billable=false", shortID(e.ID))

	list = decodeOut[[]models.TimeEntry](t, s.must(t, "entry", "list", "--json"))
	require.Len(t, list, 1)
	assert.Equal(t, "workshop", list[0].Description)
	assert.False(t, list[0].Billable)

	list = decodeOut[[]models.TimeEntry](t, s.must(t, "entry", "list", "--billable", "--json"))
	assert.Empty(t, list)

	err = s.run(t, "entry", "delete", e.ID)
	assert.ErrorIs(t, err, errNeedsConfirmation)

	s.must(t, "entry", "delete", "--yes", e.ID)

	err = s.run(t, "entry", "delete", "--yes", e.ID)
	assert.Error(t, err)
}

func TestProjectRateApplies(t *testing.T) {
	s := newSandbox(t)

	s.must(t, "project", "add", "--rate", "100", "Client")

	out := s.out.String()
	idx := strings.LastIndex(out, "id ")
	require.Positive(t, idx, out)

	projectID := strings.TrimSpace(out[idx+3:])
	taskID := s.addTask(t, "Design", "--project", projectID)

	s.must(t, "entry", "add", "--task", taskID, "--duration", "30m")

	list := decodeOut[[]models.TimeEntry](t, s.must(t, "entry", "list", "--json"))
	require.Len(t, list, 1)
	assert.InDelta(t, 100.0, list[0].BillableRate, 0.001)
	assert.Equal(t, projectID, list[0].ProjectID)
}

func TestIdleCommands(t *testing.T) {
	s := newSandbox(t)

	assert.Contains(t, s.must(t, "idle"), "No idle time")

	s.must(t, "sweep")

	err := s.run(t, "idle", "resolve", "snooze")
	assert.ErrorIs(t, err, tracker.ErrInvalidAction)

	assert.Contains(t, s.must(t, "idle", "resolve", "keep"), "no longer applies")
}

func TestTokenCommand(t *testing.T) {
	s := newSandbox(t)

	err := s.run(t, "token")
	assert.ErrorIs(t, err, errMissingSecret)

	path := filepath.Join(s.dir, "config", "workstate", "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  jwt_secret: s3cret\n"), 0o600))

	out := strings.TrimSpace(s.must(t, "token", "--ttl", "10m"))
	lines := strings.Split(out, "\n")

	claims, err := api.ParseToken("s3cret", lines[len(lines)-1])
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.UserID)
}

func TestParseReplace(t *testing.T) {
	r, err := parseReplace(" Stop ")
	require.NoError(t, err)
	assert.Equal(t, tracker.ReplaceStop, r)

	r, err = parseReplace("")
	require.NoError(t, err)
	assert.Equal(t, tracker.ReplaceNone, r)

	_, err = parseReplace("later")
	assert.ErrorIs(t, err, errInvalidReplace)
}

func TestSplitTags(t *testing.T) {
	assert.Nil(t, splitTags(" "))
	assert.Equal(t, []string{"a", "b"}, splitTags("a, ,b,"))
}
