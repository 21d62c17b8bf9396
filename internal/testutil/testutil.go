// Package testutil holds helpers shared by the test suites
package testutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/ayoisaiah/workstate/internal/osutil"
)

// GoldenTest is a test case whose output is checked against a golden file
// under testdata.
type GoldenTest interface {
	Output() (out []byte, name string)
}

// CompareGoldenFile checks the output of tc against testdata/<name>.golden.
// A nil output asserts that no golden file exists. Run the tests with
// -update to rewrite the files.
func CompareGoldenFile(t *testing.T, tc GoldenTest) {
	t.Helper()

	if runtime.GOOS == osutil.Windows {
		t.Skip("line endings differ on Windows")
	}

	out, name := tc.Output()

	if out == nil {
		f := filepath.Join("testdata", name+".golden")
		if _, err := os.Stat(f); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("expected no output, but golden file exists: %s", f)
		}

		return
	}

	g := goldie.New(t, goldie.WithFixtureDir("testdata"))
	g.Assert(t, name, out)
}

// Clock is a settable time source for tests.
type Clock struct {
	now time.Time
	mu  sync.Mutex
}

// NewClock returns a Clock stopped at t.
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = t
}
