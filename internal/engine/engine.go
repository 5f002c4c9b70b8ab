// Package engine orchestrates detection runs: loading data, driving the
// detector, validating emitted patterns, and persisting the results.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledgerloom/ledgerloom/internal/config"
	"github.com/ledgerloom/ledgerloom/internal/model"
	"github.com/ledgerloom/ledgerloom/internal/pattern"
	"github.com/ledgerloom/ledgerloom/internal/recurring"
	"github.com/ledgerloom/ledgerloom/internal/service"
)

// Phase names reported to the progress reporter, in execution order.
const (
	PhaseLoading     = "loading transactions"
	PhaseValidation  = "validating patterns"
	PhasePersistence = "persisting patterns"
)

// Summary describes the outcome of one detection run.
type Summary struct {
	Duration     time.Duration
	Transactions int
	Detected     int
	Valid        int
	Persisted    int
}

// DetectionEngine runs the recurring-charge pipeline for one user at a time.
// It holds no long-lived mutable state and is safe to run concurrently for
// different users. Activation never happens inside a run: a cancelled run
// leaves no partially-activated patterns.
type DetectionEngine struct {
	storage   service.Storage
	detector  *recurring.Detector
	validator *pattern.Validator
	matcher   *pattern.Matcher
	reporter  service.ProgressReporter
}

// New creates a detection engine.
func New(storage service.Storage, cfg config.DetectionConfig, reporter service.ProgressReporter) *DetectionEngine {
	e := &DetectionEngine{
		storage:   storage,
		detector:  recurring.NewDetector(cfg),
		validator: pattern.NewValidator(),
		matcher:   pattern.NewMatcher(),
		reporter:  reporter,
	}
	if reporter != nil {
		e.detector.Progress = func(phase string, fraction float64) {
			if fraction == 0 {
				reporter.StartPhase(phase)
			}
			reporter.Progress(fraction)
		}
	}
	return e
}

// Run executes one detection run over the user's stored transactions in the
// given window. Cancellation is cooperative: it is checked between phases,
// never mid-clustering.
func (e *DetectionEngine) Run(ctx context.Context, userID string, filter service.TransactionFilter) (summary *Summary, err error) {
	started := time.Now()
	defer func() {
		if e.reporter != nil {
			e.reporter.Done(err)
		}
	}()

	e.startPhase(PhaseLoading)
	transactions, err := e.storage.GetTransactions(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	accounts, err := e.storage.GetAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	e.progress(1)

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	patterns, err := e.detector.Detect(ctx, userID, transactions, accounts)
	if err != nil {
		return nil, fmt.Errorf("detection failed: %w", err)
	}

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	summary = &Summary{Transactions: len(transactions), Detected: len(patterns)}

	e.startPhase(PhaseValidation)
	for i := range patterns {
		p := &patterns[i]
		result, verr := e.validator.Validate(ctx, p, transactions)
		if verr != nil && result == nil {
			return nil, fmt.Errorf("failed to validate pattern %s: %w", p.ID, verr)
		}
		p.CriteriaValidated = result.IsValid
		p.CriteriaValidationErrors = result.Warnings
		if result.IsValid {
			summary.Valid++
		} else {
			// The detector's criteria must reproduce their own evidence;
			// anything else is a bug worth surfacing loudly.
			slog.Error("Freshly detected pattern failed its own validation",
				"pattern_id", p.ID, "missing", len(result.MissingIDs))
		}
		e.progress(float64(i+1) / float64(len(patterns)))
	}

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	e.startPhase(PhasePersistence)
	for i := range patterns {
		if perr := e.storage.CreateRecurringPattern(ctx, &patterns[i]); perr != nil {
			return nil, fmt.Errorf("failed to persist pattern %s: %w", patterns[i].ID, perr)
		}
		summary.Persisted++
		e.progress(float64(i+1) / float64(len(patterns)))
	}

	summary.Duration = time.Since(started)
	slog.Info("Detection run finished",
		"user_id", userID,
		"transactions", summary.Transactions,
		"patterns", summary.Persisted,
		"duration", summary.Duration.Round(time.Millisecond))
	return summary, nil
}

// FindMatches applies the user's active patterns to a single transaction,
// for ongoing auto-categorization of incoming data.
func (e *DetectionEngine) FindMatches(ctx context.Context, txn model.Transaction) ([]pattern.PatternMatch, error) {
	active, err := e.storage.GetRecurringPatterns(ctx, txn.UserID, service.PatternFilter{ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to load active patterns: %w", err)
	}
	return e.matcher.FindMatchingPatterns(ctx, txn, active)
}

func (e *DetectionEngine) startPhase(name string) {
	if e.reporter != nil {
		e.reporter.StartPhase(name)
	}
}

func (e *DetectionEngine) progress(fraction float64) {
	if e.reporter != nil {
		e.reporter.Progress(fraction)
	}
}
