package pattern

import (
	"context"
	"sort"

	"github.com/ledgerloom/ledgerloom/internal/model"
)

// PatternMatch pairs a matched pattern with the confidence of the match.
type PatternMatch struct {
	Pattern    *model.RecurringPattern
	Confidence float64
}

// Matcher applies active patterns' criteria to individual transactions for
// ongoing auto-categorization. It is stateless and safe for concurrent use:
// it only reads pattern state and evaluates the same deterministic matching
// function the validator uses.
type Matcher struct{}

// NewMatcher creates a new matching service.
func NewMatcher() *Matcher {
	return &Matcher{}
}

// FindMatchingPatterns returns the active patterns whose criteria match the
// transaction, sorted by confidence descending. Patterns that are not both
// status ACTIVE and flagged active are skipped.
func (m *Matcher) FindMatchingPatterns(ctx context.Context, txn model.Transaction, patterns []model.RecurringPattern) ([]PatternMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var matches []PatternMatch
	for i := range patterns {
		p := &patterns[i]
		if !p.IsActive() {
			continue
		}
		if MatchesCriteria(txn, p.Criteria) {
			matches = append(matches, PatternMatch{Pattern: p, Confidence: p.Confidence})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		return matches[i].Pattern.ID < matches[j].Pattern.ID
	})

	return matches, nil
}
