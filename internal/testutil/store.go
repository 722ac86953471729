// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhle/kaizen/internal/store"
)

// NewTestStore opens a migrated in-memory sqlite SQLStore that is closed
// when the test ends.
func NewTestStore(t testing.TB) *store.SQLStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err, "opening in-memory store")
	t.Cleanup(func() {
		require.NoError(t, s.Close(), "closing in-memory store")
	})
	return s
}
