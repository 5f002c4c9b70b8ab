package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgerloom/ledgerloom/internal/cli"
	"github.com/ledgerloom/ledgerloom/internal/common"
	"github.com/ledgerloom/ledgerloom/internal/engine"
	"github.com/ledgerloom/ledgerloom/internal/service"
)

func detectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect recurring charges in imported transactions",
		Long: `Analyze a user's transaction history and detect recurring charges like
subscriptions, bills, and regular income. Detected patterns are saved
for review with 'ledgerloom patterns'.`,
		RunE: runDetect,
	}

	cmd.Flags().String("since", "", "only analyze transactions on or after this date (YYYY-MM-DD)")
	cmd.Flags().String("until", "", "only analyze transactions on or before this date (YYYY-MM-DD)")
	cmd.Flags().Float64("min-confidence", 0, "override minimum confidence threshold")
	cmd.Flags().Int("min-occurrences", 0, "override minimum occurrences per pattern")
	cmd.Flags().Float64("eps", 0, "override clustering neighborhood radius")
	cmd.Flags().Bool("no-progress", false, "disable the progress bar")
	cmd.Flags().Int("retries", 1, "attempts for the whole run on transient storage failures")

	return cmd
}

func runDetect(cmd *cobra.Command, _ []string) error {
	userID, err := requireUser()
	if err != nil {
		return err
	}

	filter, err := parseDateFilter(cmd)
	if err != nil {
		return err
	}

	cfg := detectionConfig()
	if v, _ := cmd.Flags().GetFloat64("min-confidence"); v > 0 {
		cfg.MinConfidence = v
	}
	if v, _ := cmd.Flags().GetInt("min-occurrences"); v > 0 {
		cfg.MinOccurrences = v
	}
	if v, _ := cmd.Flags().GetFloat64("eps"); v > 0 {
		cfg.Eps = v
	}

	interrupts := cli.NewInterruptHandler(os.Stdout)
	ctx := interrupts.HandleInterrupts(cmd.Context())

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("failed to close storage", "error", closeErr)
		}
	}()

	var reporter service.ProgressReporter
	if noProgress, _ := cmd.Flags().GetBool("no-progress"); noProgress {
		reporter = cli.NoopReporter{}
	} else {
		reporter = cli.NewProgressBar(os.Stdout)
	}

	eng := engine.New(store, cfg, reporter)

	var summary *engine.Summary
	retries, _ := cmd.Flags().GetInt("retries")
	runOnce := func() error {
		var runErr error
		summary, runErr = eng.Run(ctx, userID, filter)
		return runErr
	}

	if retries > 1 {
		err = common.WithRetry(ctx, runOnce, service.RetryOptions{
			MaxAttempts:  retries,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		})
	} else {
		err = runOnce()
	}
	if err != nil {
		if interrupts.WasInterrupted() {
			return nil
		}
		return fmt.Errorf("detection failed: %w", err)
	}

	slog.Info("Detection complete",
		"transactions", summary.Transactions,
		"detected", summary.Detected,
		"valid", summary.Valid,
		"persisted", summary.Persisted,
		"duration", summary.Duration.Round(time.Millisecond))

	if summary.Persisted > 0 {
		fmt.Printf("\nDetected %d recurring patterns. Review them with 'ledgerloom patterns list'.\n", summary.Persisted)
	} else {
		fmt.Println("\nNo recurring patterns detected.")
	}

	return nil
}

func parseDateFilter(cmd *cobra.Command) (service.TransactionFilter, error) {
	var filter service.TransactionFilter

	if since, _ := cmd.Flags().GetString("since"); since != "" {
		t, err := time.Parse("2006-01-02", since)
		if err != nil {
			return filter, fmt.Errorf("invalid --since date %q: %w", since, err)
		}
		filter.StartDate = &t
	}
	if until, _ := cmd.Flags().GetString("until"); until != "" {
		t, err := time.Parse("2006-01-02", until)
		if err != nil {
			return filter, fmt.Errorf("invalid --until date %q: %w", until, err)
		}
		t = t.Add(24*time.Hour - time.Nanosecond)
		filter.EndDate = &t
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return filter, fmt.Errorf("--until must not be before --since")
	}

	return filter, nil
}
