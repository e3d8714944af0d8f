package store

import (
	"testing"

	"github.com/google/uuid"
)

// OpenTest opens a private in-memory database that is closed when t ends.
func OpenTest(t testing.TB) *Store {
	t.Helper()

	s, err := Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}
