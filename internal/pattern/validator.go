package pattern

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ledgerloom/ledgerloom/internal/common"
	"github.com/ledgerloom/ledgerloom/internal/model"
)

// Validator re-derives a pattern's cluster membership from its stored
// criteria alone and compares the result to the original evidence. It is the
// correctness bridge between statistical detection and rule-based matching:
// whatever criteria get persisted must reproduce, at minimum, the exact
// evidence that justified the pattern's existence.
type Validator struct{}

// NewValidator creates a new criteria validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate applies only the pattern's declarative criteria to the supplied
// transaction universe, restricted to the pattern's occurrence window, and
// compares the matched id set to MatchedTransactionIDs. The result is
// recomputed on every call and never cached: the universe may have changed.
//
// When the pattern references transaction ids absent from the universe the
// validator degrades to best effort over the subset it found and returns a
// *common.ValidationInconsistencyError alongside the usable result.
func (v *Validator) Validate(ctx context.Context, p *model.RecurringPattern, all []model.Transaction) (*model.CriteriaValidation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &model.CriteriaValidation{PatternID: p.ID}

	universe := make(map[string]bool, len(all))
	original := make(map[string]bool, len(p.MatchedTransactionIDs))
	for _, id := range p.MatchedTransactionIDs {
		original[id] = true
	}

	var matched []string
	for i := range all {
		txn := &all[i]
		universe[txn.ID] = true
		if MatchesCriteriaInWindow(*txn, p.Criteria, p.FirstOccurrence, p.LastOccurrence) {
			matched = append(matched, txn.ID)
		}
	}

	var inconsistency *common.ValidationInconsistencyError
	var absentIDs []string
	for _, id := range p.MatchedTransactionIDs {
		if !universe[id] {
			absentIDs = append(absentIDs, id)
		}
	}
	if len(absentIDs) > 0 {
		inconsistency = &common.ValidationInconsistencyError{PatternID: p.ID, MissingIDs: absentIDs}
		slog.Warn("Pattern references transactions absent from supplied universe",
			"pattern_id", p.ID, "absent", len(absentIDs))
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d matched transactions are absent from the supplied data; validated against the remainder", len(absentIDs)))
		for _, id := range absentIDs {
			delete(original, id)
		}
	}

	matchedSet := make(map[string]bool, len(matched))
	for _, id := range matched {
		matchedSet[id] = true
	}

	for id := range original {
		if !matchedSet[id] {
			result.MissingIDs = append(result.MissingIDs, id)
		}
	}
	for _, id := range matched {
		if !original[id] {
			result.ExtraIDs = append(result.ExtraIDs, id)
		}
	}

	result.OriginalMatchCount = len(original)
	result.CriteriaMatchCount = len(matched)
	result.AllOriginalMatch = len(result.MissingIDs) == 0
	result.NoFalsePositives = len(result.ExtraIDs) == 0
	result.PerfectMatch = result.AllOriginalMatch && result.NoFalsePositives

	// Extra matches are tolerated with a warning; missing originals are not.
	result.IsValid = result.AllOriginalMatch

	if n := len(result.MissingIDs); n > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d original transactions don't match criteria", n))
		result.Suggestions = append(result.Suggestions,
			"loosen the amount or date tolerance so the original evidence matches")
	}
	if n := len(result.ExtraIDs); n > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("criteria match %d transactions outside the original cluster", n))
		result.Suggestions = append(result.Suggestions,
			"tighten the merchant pattern or add exclusion terms if these are unrelated charges")
	}

	if inconsistency != nil {
		return result, inconsistency
	}
	return result, nil
}
