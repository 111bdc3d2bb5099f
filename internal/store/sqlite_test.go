package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestSQLiteStore_Contract(t *testing.T) {
	runDataStoreContract(t, newTestSQLiteStore(t), "")
}

func TestSQLiteStore_SchemaIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")

	first, err := NewSQLiteStore(context.Background(), path)
	require.NoError(t, err)
	first.Close()

	second, err := NewSQLiteStore(context.Background(), path)
	require.NoError(t, err)
	defer second.Close()

	require.NoError(t, second.Ping(context.Background()))
	require.Equal(t, "sqlite", second.Backend())
}
