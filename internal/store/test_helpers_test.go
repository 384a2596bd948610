package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/slipstream/internal/clock"
)

var testEpoch = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

// createTestStore opens a store in a temp dir with a fake clock.
func createTestStore(t *testing.T, opts ...Option) (*Store, *clock.FakeClock) {
	t.Helper()
	fc := clock.Fake(testEpoch)
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, append([]Option{WithClock(fc)}, opts...)...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, fc
}
