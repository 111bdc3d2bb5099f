package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("MONGO_URI", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "3000", cfg.Port)
	require.Equal(t, 5*time.Second, cfg.StoreTimeout)
	require.Equal(t, "jobsearch", cfg.MongoDatabase)
	require.True(t, cfg.IsDevelopment())
}

func TestLoad_Whitelist(t *testing.T) {
	t.Setenv("RATE_LIMIT_WHITELIST", " 10.0.0.1 ,192.168.0.0/16,, ")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, []string{"10.0.0.1", "192.168.0.0/16"}, cfg.RateLimitWhitelist)
}

func TestLoad_ProductionRequiresDatabase(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("MONGO_URI", "")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	cfg, err := Load()
	require.NoError(t, err)
	require.False(t, cfg.IsDevelopment())
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("STORE_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
}
