package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/ledgerloom/ledgerloom/internal/config"
	"github.com/ledgerloom/ledgerloom/internal/storage"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	// Get database path from config
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/ledgerloom/ledgerloom.db"
	}

	// Expand tilde and environment variables
	dbPath = config.ExpandPath(dbPath)

	// Initialize storage
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// closeStorage closes the store, logging instead of failing the command.
func closeStorage(store *storage.SQLiteStorage) {
	if err := store.Close(); err != nil {
		slog.Error("failed to close storage", "error", err)
	}
}

// requireUser resolves the user ID from the --user flag or config.
func requireUser() (string, error) {
	userID := viper.GetString("user")
	if userID == "" {
		return "", fmt.Errorf("no user specified: pass --user or set 'user' in the config file")
	}
	return userID, nil
}

// detectionConfig builds detection settings from defaults overlaid with any
// configured overrides.
func detectionConfig() config.DetectionConfig {
	cfg := config.DefaultDetection()
	if viper.IsSet("detection.min_occurrences") {
		cfg.MinOccurrences = viper.GetInt("detection.min_occurrences")
	}
	if viper.IsSet("detection.min_confidence") {
		cfg.MinConfidence = viper.GetFloat64("detection.min_confidence")
	}
	if viper.IsSet("detection.eps") {
		cfg.Eps = viper.GetFloat64("detection.eps")
	}
	return cfg
}
