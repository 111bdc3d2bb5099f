package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Options selects and configures the persistence backend.
type Options struct {
	MongoURI      string
	MongoDatabase string
	DatabaseURL   string
	SQLitePath    string
}

// Open connects to the first configured backend: MongoDB, then PostgreSQL,
// then a local SQLite file.
func Open(ctx context.Context, opts Options, logger zerolog.Logger) (DataStore, error) {
	switch {
	case opts.MongoURI != "":
		s, err := NewMongoStore(ctx, opts.MongoURI, opts.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("mongo connection failed: %w", err)
		}
		logger.Info().Str("database", opts.MongoDatabase).Msg("connected to MongoDB")
		return s, nil

	case opts.DatabaseURL != "":
		s, err := NewPostgresStore(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres connection failed: %w", err)
		}
		logger.Info().Msg("running database migrations...")
		if err := s.RunMigrations(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("migration failed: %w", err)
		}
		logger.Info().Msg("connected to PostgreSQL")
		return s, nil

	default:
		s, err := NewSQLiteStore(ctx, opts.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite open failed: %w", err)
		}
		logger.Info().Str("path", opts.SQLitePath).Msg("using SQLite store")
		return s, nil
	}
}
