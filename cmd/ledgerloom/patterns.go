package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ledgerloom/ledgerloom/internal/model"
	"github.com/ledgerloom/ledgerloom/internal/pattern"
	"github.com/ledgerloom/ledgerloom/internal/service"
	"github.com/ledgerloom/ledgerloom/internal/storage"
)

func patternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Review and manage detected recurring patterns",
		Long: `List, inspect, and review recurring patterns produced by 'ledgerloom detect'.

Detected patterns must be confirmed before they can be activated for
automatic transaction matching.`,
	}

	cmd.AddCommand(patternsListCmd())
	cmd.AddCommand(patternsShowCmd())
	cmd.AddCommand(patternsConfirmCmd())
	cmd.AddCommand(patternsRejectCmd())
	cmd.AddCommand(patternsEditCmd())
	cmd.AddCommand(patternsActivateCmd())
	cmd.AddCommand(patternsPauseCmd())
	cmd.AddCommand(patternsResumeCmd())
	cmd.AddCommand(patternsValidateCmd())
	cmd.AddCommand(patternsMatchCmd())

	return cmd
}

func patternsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recurring patterns",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			userID, err := requireUser()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			var filter service.PatternFilter
			if statusStr, _ := cmd.Flags().GetString("status"); statusStr != "" {
				status := model.PatternStatus(strings.ToUpper(statusStr))
				filter.Status = &status
			}
			filter.ActiveOnly, _ = cmd.Flags().GetBool("active")

			patterns, err := store.GetRecurringPatterns(ctx, userID, filter)
			if err != nil {
				return fmt.Errorf("failed to get patterns: %w", err)
			}

			if len(patterns) == 0 {
				fmt.Println("No recurring patterns found. Run 'ledgerloom detect' first.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "ID\tMERCHANT\tFREQUENCY\tAMOUNT\tCATEGORY\tSTATUS\tCONFIDENCE\tTXNS\n")
			for i := range patterns {
				p := &patterns[i]
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%.0f%%\t%d\n",
					shortID(p.ID),
					truncate(p.Criteria.MerchantPattern, 24),
					p.Criteria.Frequency,
					p.Criteria.AmountMean.StringFixed(2),
					p.Category,
					p.Status,
					p.Confidence*100,
					p.TransactionCount)
			}
			if err := w.Flush(); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().String("status", "", "filter by status (detected, confirmed, active, rejected, paused)")
	cmd.Flags().Bool("active", false, "show only active patterns")

	return cmd
}

func patternsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <pattern-id>",
		Short: "Show full details for one pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			userID, err := requireUser()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			p, err := resolvePattern(cmd, store, userID, args[0])
			if err != nil {
				return err
			}

			printPattern(p)
			return nil
		},
	}
}

func patternsConfirmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "confirm <pattern-id>",
		Short: "Confirm a detected pattern",
		Long: `Confirm that a detected pattern is a real recurring charge. The pattern's
criteria are re-validated against its source transactions; pass
--activate to also activate it when validation passes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			activate, _ := cmd.Flags().GetBool("activate")
			return runReview(cmd, args[0], model.ReviewAction{
				Action:              model.ReviewConfirm,
				ActivateImmediately: activate,
			})
		},
	}

	cmd.Flags().Bool("activate", false, "activate the pattern if its criteria validate")

	return cmd
}

func patternsRejectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject <pattern-id>",
		Short: "Reject a pattern as a false positive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReview(cmd, args[0], model.ReviewAction{
				Action: model.ReviewReject,
			})
		},
	}
}

func patternsEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <pattern-id>",
		Short: "Edit a pattern's matching criteria",
		Long: `Adjust a pattern's criteria before confirming it. Only the flags you pass
are changed; edited criteria are re-validated against the pattern's
source transactions and the pattern is confirmed only when they still
match every source transaction.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := collectOverrides(cmd)
			if err != nil {
				return err
			}
			activate, _ := cmd.Flags().GetBool("activate")
			return runReview(cmd, args[0], model.ReviewAction{
				Action:              model.ReviewEdit,
				Overrides:           overrides,
				ActivateImmediately: activate,
			})
		},
	}

	cmd.Flags().String("merchant", "", "merchant text pattern")
	cmd.Flags().String("match-mode", "", "merchant match mode (contains, prefix, suffix, exact, regex)")
	cmd.Flags().StringSlice("exclude", nil, "terms that disqualify a match (replaces the current list)")
	cmd.Flags().Bool("case-sensitive", false, "match merchant text case-sensitively")
	cmd.Flags().String("amount-mean", "", "expected amount")
	cmd.Flags().Float64("amount-tolerance", 0, "amount tolerance as a percentage of the mean")
	cmd.Flags().String("frequency", "", "expected frequency (e.g. monthly, weekly)")
	cmd.Flags().String("temporal-type", "", "temporal pattern type (day_of_month, day_of_week, first_working_day, last_working_day, flexible)")
	cmd.Flags().Int("temporal-day", 0, "expected day (day-of-month 1-31, or weekday 0=Sunday..6)")
	cmd.Flags().Int("temporal-tolerance", 0, "temporal tolerance in days")
	cmd.Flags().Bool("activate", false, "activate the pattern if its criteria validate")

	return cmd
}

func patternsActivateCmd() *cobra.Command {
	return lifecycleCmd("activate", "Activate a confirmed pattern for matching",
		func(l *pattern.Lifecycle, p *model.RecurringPattern, reviewer string) error {
			return l.Activate(p, reviewer)
		})
}

func patternsPauseCmd() *cobra.Command {
	return lifecycleCmd("pause", "Pause an active pattern",
		func(l *pattern.Lifecycle, p *model.RecurringPattern, reviewer string) error {
			return l.Pause(p, reviewer)
		})
}

func patternsResumeCmd() *cobra.Command {
	return lifecycleCmd("resume", "Resume a paused pattern",
		func(l *pattern.Lifecycle, p *model.RecurringPattern, reviewer string) error {
			return l.Resume(p, reviewer)
		})
}

// lifecycleCmd builds a single-pattern status transition command.
func lifecycleCmd(verb, short string, apply func(*pattern.Lifecycle, *model.RecurringPattern, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <pattern-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			userID, err := requireUser()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			p, err := resolvePattern(cmd, store, userID, args[0])
			if err != nil {
				return err
			}

			lifecycle := pattern.NewLifecycle(pattern.NewValidator())
			if err := apply(lifecycle, p, userID); err != nil {
				return err
			}

			if err := store.UpdateRecurringPattern(ctx, p); err != nil {
				return fmt.Errorf("failed to save pattern: %w", err)
			}

			slog.Info("Pattern updated", "pattern", shortID(p.ID), "status", p.Status, "active", p.Active)
			return nil
		},
	}
}

func patternsValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <pattern-id>",
		Short: "Re-check a pattern's criteria against its source transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			userID, err := requireUser()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			p, err := resolvePattern(cmd, store, userID, args[0])
			if err != nil {
				return err
			}

			transactions, err := store.GetTransactions(ctx, userID, service.TransactionFilter{})
			if err != nil {
				return fmt.Errorf("failed to load transactions: %w", err)
			}

			validator := pattern.NewValidator()
			result, err := validator.Validate(ctx, p, transactions)
			if result == nil && err != nil {
				return err
			}
			if err != nil {
				slog.Warn("Validation degraded", "error", err)
			}

			printValidation(result)
			return nil
		},
	}
}

func patternsMatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "match <transaction-id>",
		Short: "Show which active patterns match a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			userID, err := requireUser()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			txn, err := store.GetTransactionByID(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to load transaction: %w", err)
			}

			patterns, err := store.GetRecurringPatterns(ctx, userID, service.PatternFilter{ActiveOnly: true})
			if err != nil {
				return fmt.Errorf("failed to get patterns: %w", err)
			}

			matcher := pattern.NewMatcher()
			matches, err := matcher.FindMatchingPatterns(ctx, *txn, patterns)
			if err != nil {
				return err
			}

			if len(matches) == 0 {
				fmt.Printf("No active patterns match %q (%s).\n", txn.Description, txn.Amount.StringFixed(2))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "ID\tMERCHANT\tFREQUENCY\tCONFIDENCE\n")
			for _, m := range matches {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.0f%%\n",
					shortID(m.Pattern.ID),
					truncate(m.Pattern.Criteria.MerchantPattern, 24),
					m.Pattern.Criteria.Frequency,
					m.Confidence*100)
			}
			return w.Flush()
		},
	}
}

// runReview applies one review action and persists the result.
func runReview(cmd *cobra.Command, patternID string, action model.ReviewAction) error {
	ctx := cmd.Context()

	userID, err := requireUser()
	if err != nil {
		return err
	}
	action.ReviewerID = userID

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStorage(store)

	p, err := resolvePattern(cmd, store, userID, patternID)
	if err != nil {
		return err
	}

	transactions, err := store.GetTransactions(ctx, userID, service.TransactionFilter{})
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}

	lifecycle := pattern.NewLifecycle(pattern.NewValidator())
	result, err := lifecycle.Review(ctx, p, action, transactions)
	if err != nil {
		return err
	}

	if err := store.UpdateRecurringPattern(ctx, p); err != nil {
		return fmt.Errorf("failed to save pattern: %w", err)
	}

	slog.Info("Pattern reviewed",
		"pattern", shortID(p.ID),
		"action", action.Action,
		"status", p.Status,
		"active", p.Active)

	if result != nil {
		printValidation(result)
	}

	return nil
}

// collectOverrides builds criteria overrides from only the flags the user set.
func collectOverrides(cmd *cobra.Command) (*model.CriteriaOverrides, error) {
	o := &model.CriteriaOverrides{}
	changed := false

	if cmd.Flags().Changed("merchant") {
		v, _ := cmd.Flags().GetString("merchant")
		o.MerchantPattern = &v
		changed = true
	}
	if cmd.Flags().Changed("match-mode") {
		v, _ := cmd.Flags().GetString("match-mode")
		mode := model.MerchantMatchMode(v)
		switch mode {
		case model.MatchContains, model.MatchPrefix, model.MatchSuffix, model.MatchExact, model.MatchRegex:
		default:
			return nil, fmt.Errorf("invalid match mode: %s", v)
		}
		o.MerchantMatchMode = &mode
		changed = true
	}
	if cmd.Flags().Changed("exclude") {
		v, _ := cmd.Flags().GetStringSlice("exclude")
		o.ExcludeTerms = &v
		changed = true
	}
	if cmd.Flags().Changed("case-sensitive") {
		v, _ := cmd.Flags().GetBool("case-sensitive")
		o.CaseSensitive = &v
		changed = true
	}
	if cmd.Flags().Changed("amount-mean") {
		s, _ := cmd.Flags().GetString("amount-mean")
		v, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("invalid amount %q: %w", s, err)
		}
		o.AmountMean = &v
		changed = true
	}
	if cmd.Flags().Changed("amount-tolerance") {
		v, _ := cmd.Flags().GetFloat64("amount-tolerance")
		if v < 0 {
			return nil, fmt.Errorf("amount tolerance must not be negative")
		}
		o.AmountTolerancePct = &v
		changed = true
	}
	if cmd.Flags().Changed("frequency") {
		v, _ := cmd.Flags().GetString("frequency")
		freq := model.Frequency(v)
		o.Frequency = &freq
		changed = true
	}
	if cmd.Flags().Changed("temporal-type") {
		v, _ := cmd.Flags().GetString("temporal-type")
		tt := model.TemporalPatternType(v)
		o.TemporalType = &tt
		changed = true
	}
	if cmd.Flags().Changed("temporal-day") {
		v, _ := cmd.Flags().GetInt("temporal-day")
		o.TemporalDay = &v
		changed = true
	}
	if cmd.Flags().Changed("temporal-tolerance") {
		v, _ := cmd.Flags().GetInt("temporal-tolerance")
		o.TemporalToleranceDays = &v
		changed = true
	}

	if !changed {
		return nil, fmt.Errorf("no criteria flags given; see 'ledgerloom patterns edit --help'")
	}
	return o, nil
}

// resolvePattern looks up a pattern by full or unambiguous short id prefix.
func resolvePattern(cmd *cobra.Command, store *storage.SQLiteStorage, userID, id string) (*model.RecurringPattern, error) {
	ctx := cmd.Context()

	p, err := store.GetRecurringPattern(ctx, userID, id)
	if err == nil {
		return p, nil
	}

	patterns, listErr := store.GetRecurringPatterns(ctx, userID, service.PatternFilter{})
	if listErr != nil {
		return nil, err
	}

	var found *model.RecurringPattern
	for i := range patterns {
		if strings.HasPrefix(patterns[i].ID, id) {
			if found != nil {
				return nil, fmt.Errorf("pattern id %q is ambiguous", id)
			}
			found = &patterns[i]
		}
	}
	if found == nil {
		return nil, fmt.Errorf("pattern %q not found", id)
	}
	return found, nil
}

func printPattern(p *model.RecurringPattern) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "ID\t%s\n", p.ID)
	fmt.Fprintf(w, "Status\t%s\n", p.Status)
	fmt.Fprintf(w, "Active\t%v\n", p.Active)
	fmt.Fprintf(w, "Category\t%s\n", p.Category)
	fmt.Fprintf(w, "Confidence\t%.0f%%\n", p.Confidence*100)
	fmt.Fprintf(w, "Transactions\t%d\n", p.TransactionCount)
	fmt.Fprintf(w, "First seen\t%s\n", p.FirstOccurrence.Format("2006-01-02"))
	fmt.Fprintf(w, "Last seen\t%s\n", p.LastOccurrence.Format("2006-01-02"))
	fmt.Fprintf(w, "\t\n")
	fmt.Fprintf(w, "Merchant\t%q (%s)\n", p.Criteria.MerchantPattern, p.Criteria.MerchantMatchMode)
	if len(p.Criteria.ExcludeTerms) > 0 {
		fmt.Fprintf(w, "Exclusions\t%s\n", strings.Join(p.Criteria.ExcludeTerms, ", "))
	}
	if len(p.CandidateExclusions) > 0 {
		fmt.Fprintf(w, "Suggested exclusions\t%s\n", strings.Join(p.CandidateExclusions, ", "))
	}
	fmt.Fprintf(w, "Amount\t%s ±%.0f%%\n", p.Criteria.AmountMean.StringFixed(2), p.Criteria.AmountTolerancePct)
	fmt.Fprintf(w, "Frequency\t%s\n", p.Criteria.Frequency)
	fmt.Fprintf(w, "Timing\t%s", p.Criteria.TemporalType)
	switch p.Criteria.TemporalType {
	case model.TemporalDayOfMonth:
		fmt.Fprintf(w, " (day %d ±%d)", p.Criteria.TemporalDay, p.Criteria.TemporalToleranceDays)
	case model.TemporalDayOfWeek:
		fmt.Fprintf(w, " (%s ±%d)", time.Weekday(p.Criteria.TemporalDay), p.Criteria.TemporalToleranceDays)
	case model.TemporalFirstWorkingDay, model.TemporalLastWorkingDay:
		fmt.Fprintf(w, " (±%d)", p.Criteria.TemporalToleranceDays)
	}
	fmt.Fprintf(w, "\n")

	if p.ReviewedBy != "" && p.ReviewedAt != nil {
		fmt.Fprintf(w, "Reviewed\tby %s at %s\n", p.ReviewedBy, p.ReviewedAt.Format("2006-01-02 15:04"))
	}
	if len(p.CriteriaValidationErrors) > 0 {
		fmt.Fprintf(w, "Validation errors\t%s\n", strings.Join(p.CriteriaValidationErrors, "; "))
	}

	if err := w.Flush(); err != nil {
		slog.Warn("Failed to write output", "error", err)
	}
}

func printValidation(v *model.CriteriaValidation) {
	if v.IsValid {
		fmt.Printf("Criteria valid: all %d source transactions match", v.OriginalMatchCount)
		if len(v.ExtraIDs) > 0 {
			fmt.Printf(" (%d additional transactions also match)", len(v.ExtraIDs))
		}
		fmt.Println()
	} else {
		fmt.Printf("Criteria invalid: %d of %d source transactions do not match\n",
			len(v.MissingIDs), v.OriginalMatchCount)
	}
	for _, warning := range v.Warnings {
		fmt.Printf("  warning: %s\n", warning)
	}
	for _, suggestion := range v.Suggestions {
		fmt.Printf("  suggestion: %s\n", suggestion)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
