package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/postsync/internal/testutil"
)

// createTestStore creates a new file-backed store with a deterministic clock.
func createTestStore(t *testing.T) (*Store, *testutil.StepClock) {
	t.Helper()
	clock := testutil.NewStepClock(time.Second)
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, clock
}
