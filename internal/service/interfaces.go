// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/ledgerloom/ledgerloom/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

// PatternFilter defines filtering options for recurring pattern queries.
type PatternFilter struct {
	Status     *model.PatternStatus
	ActiveOnly bool
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Transaction operations
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	GetTransactions(ctx context.Context, userID string, filter TransactionFilter) ([]model.Transaction, error)
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)

	// Account operations
	SaveAccounts(ctx context.Context, accounts []model.Account) error
	GetAccounts(ctx context.Context, userID string) (map[string]model.Account, error)

	// Recurring pattern operations. Updates are last-writer-wins; callers
	// serialize writes per pattern id.
	CreateRecurringPattern(ctx context.Context, pattern *model.RecurringPattern) error
	GetRecurringPattern(ctx context.Context, userID, patternID string) (*model.RecurringPattern, error)
	UpdateRecurringPattern(ctx context.Context, pattern *model.RecurringPattern) error
	GetRecurringPatterns(ctx context.Context, userID string, filter PatternFilter) ([]model.RecurringPattern, error)

	// Close releases underlying resources.
	Close() error
}

// ProgressReporter receives fractional progress updates from a detection run.
// Implementations must tolerate out-of-order phase starts after cancellation.
type ProgressReporter interface {
	// StartPhase announces a named detection phase.
	StartPhase(name string)
	// Progress reports completion of the current phase in [0,1].
	Progress(fraction float64)
	// Done reports terminal success or failure for the whole run.
	Done(err error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
