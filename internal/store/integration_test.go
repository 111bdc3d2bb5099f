package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// These run only when a live server is provided, e.g.
// MONGO_TEST_URI=mongodb://localhost:27017 go test ./internal/store/...

func TestMongoStore_Contract(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbName := "jobsearch_test_" + uuid.NewString()[:8]
	s, err := NewMongoStore(ctx, uri, dbName)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.db.Drop(context.Background())
		s.Close()
	})

	runDataStoreContract(t, s, "")
}

func TestPostgresStore_Contract(t *testing.T) {
	url := os.Getenv("DATABASE_TEST_URL")
	if url == "" {
		t.Skip("DATABASE_TEST_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := NewPostgresStore(ctx, url)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.RunMigrations(ctx))

	// The schema is shared between runs; a per-run prefix keeps pairs and
	// emails unique.
	runDataStoreContract(t, s, uuid.NewString()[:8]+"-")
}
