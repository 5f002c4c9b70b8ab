package pattern

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerloom/ledgerloom/internal/model"
)

func activePattern(id string, confidence float64, c model.MatchCriteria) model.RecurringPattern {
	return model.RecurringPattern{
		ID:         id,
		Status:     model.PatternStatusActive,
		Active:     true,
		Confidence: confidence,
		Criteria:   c,
	}
}

func TestFindMatchingPatterns(t *testing.T) {
	txn := txnOn(time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC), "NETFLIX.COM 884422", -15.99)

	broad := subscriptionCriteria()
	broad.MerchantPattern = "netflix"
	broad.MerchantMatchMode = model.MatchContains

	other := subscriptionCriteria()
	other.MerchantPattern = "spotify"

	patterns := []model.RecurringPattern{
		activePattern("pat-broad", 0.72, broad),
		activePattern("pat-exact", 0.91, subscriptionCriteria()),
		activePattern("pat-other", 0.95, other),
	}

	matches, err := NewMatcher().FindMatchingPatterns(context.Background(), txn, patterns)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	// Sorted by confidence descending.
	assert.Equal(t, "pat-exact", matches[0].Pattern.ID)
	assert.InDelta(t, 0.91, matches[0].Confidence, 1e-9)
	assert.Equal(t, "pat-broad", matches[1].Pattern.ID)
}

func TestFindMatchingPatternsSkipsInactive(t *testing.T) {
	txn := txnOn(time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC), "NETFLIX.COM", -15.99)

	detected := activePattern("pat-detected", 0.9, subscriptionCriteria())
	detected.Status = model.PatternStatusDetected

	paused := activePattern("pat-paused", 0.9, subscriptionCriteria())
	paused.Status = model.PatternStatusPaused
	paused.Active = false

	// ACTIVE status alone is not enough; the active flag gates matching too.
	flagged := activePattern("pat-flag-off", 0.9, subscriptionCriteria())
	flagged.Active = false

	matches, err := NewMatcher().FindMatchingPatterns(context.Background(), txn,
		[]model.RecurringPattern{detected, paused, flagged})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFindMatchingPatternsTieBreaksByID(t *testing.T) {
	txn := txnOn(time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC), "NETFLIX.COM", -15.99)

	patterns := []model.RecurringPattern{
		activePattern("pat-b", 0.8, subscriptionCriteria()),
		activePattern("pat-a", 0.8, subscriptionCriteria()),
	}

	matches, err := NewMatcher().FindMatchingPatterns(context.Background(), txn, patterns)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "pat-a", matches[0].Pattern.ID)
	assert.Equal(t, "pat-b", matches[1].Pattern.ID)
}

func TestFindMatchingPatternsNoMatches(t *testing.T) {
	txn := txnOn(time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC), "HARDWARE STORE", -42.17)

	matches, err := NewMatcher().FindMatchingPatterns(context.Background(), txn,
		[]model.RecurringPattern{activePattern("pat-1", 0.9, subscriptionCriteria())})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFindMatchingPatternsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	txn := model.Transaction{Amount: decimal.NewFromFloat(-15.99)}
	_, err := NewMatcher().FindMatchingPatterns(ctx, txn, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
