package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					hash TEXT UNIQUE NOT NULL,
					user_id TEXT NOT NULL,
					account_id TEXT,
					date INTEGER NOT NULL,
					description TEXT NOT NULL,
					amount TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_transactions_user_date ON transactions(user_id, date)`,
				`CREATE INDEX idx_transactions_hash ON transactions(hash)`,

				`CREATE TABLE IF NOT EXISTS accounts (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					name TEXT NOT NULL,
					institution TEXT,
					type TEXT NOT NULL,
					transaction_count INTEGER DEFAULT 0,
					age_days INTEGER DEFAULT 0,
					average_amount TEXT,
					is_active INTEGER DEFAULT 1
				)`,
				`CREATE INDEX idx_accounts_user ON accounts(user_id)`,
			}
			for _, q := range queries {
				if _, err := tx.Exec(q); err != nil {
					return fmt.Errorf("migration 1 failed: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Recurring patterns",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS recurring_patterns (
					id TEXT NOT NULL,
					user_id TEXT NOT NULL,
					status TEXT NOT NULL,
					is_active INTEGER NOT NULL DEFAULT 0,
					merchant_pattern TEXT NOT NULL,
					merchant_match_mode TEXT NOT NULL,
					exclude_terms TEXT,
					case_sensitive INTEGER NOT NULL DEFAULT 0,
					amount_mean TEXT NOT NULL,
					amount_std_dev TEXT,
					amount_min TEXT,
					amount_max TEXT,
					amount_tolerance_pct REAL NOT NULL,
					frequency TEXT NOT NULL,
					temporal_type TEXT NOT NULL,
					temporal_day INTEGER,
					temporal_tolerance_days INTEGER,
					confidence REAL NOT NULL,
					transaction_count INTEGER NOT NULL,
					first_occurrence INTEGER NOT NULL,
					last_occurrence INTEGER NOT NULL,
					cluster_label INTEGER,
					category TEXT,
					suggested_category_id TEXT,
					matched_transaction_ids TEXT NOT NULL,
					candidate_exclusions TEXT,
					criteria_validated INTEGER NOT NULL DEFAULT 0,
					criteria_validation_errors TEXT,
					reviewed_by TEXT,
					reviewed_at DATETIME,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL,
					PRIMARY KEY (user_id, id)
				)`,
				`CREATE INDEX idx_recurring_patterns_status ON recurring_patterns(user_id, status)`,
			}
			for _, q := range queries {
				if _, err := tx.Exec(q); err != nil {
					return fmt.Errorf("migration 2 failed: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate brings the database schema up to the expected version.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var current int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration transaction: %w", err)
		}

		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to set schema version %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}

		slog.Info("Applied migration", "version", m.Version, "description", m.Description)
	}

	return nil
}
