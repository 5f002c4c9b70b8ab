package recurring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerloom/ledgerloom/internal/model"
)

func TestExtractMerchantPrefix(t *testing.T) {
	shape, ok := extractMerchant([]string{
		"NETFLIX.COM 880-123456 CA",
		"NETFLIX.COM 880-654321 CA",
		"NETFLIX.COM RENEWAL",
	})

	require.True(t, ok)
	assert.Equal(t, model.MatchPrefix, shape.Mode)
	assert.Equal(t, "netflix com", shape.Pattern)
}

func TestExtractMerchantContains(t *testing.T) {
	shape, ok := extractMerchant([]string{
		"PAYMENT TO CITY WATER DEPT",
		"AUTOPAY CITY WATER DEPT CONF",
		"ONLINE CITY WATER DEPT",
	})

	require.True(t, ok)
	assert.Equal(t, model.MatchContains, shape.Mode)
	assert.Contains(t, shape.Pattern, "city water dept")
}

func TestExtractMerchantNoSharedText(t *testing.T) {
	_, ok := extractMerchant([]string{
		"ZZZZZ",
		"QQQQQ",
		"WWWWW",
	})

	assert.False(t, ok)
}

func TestExtractMerchantCandidateExclusions(t *testing.T) {
	shape, ok := extractMerchant([]string{
		"ACME SUBSCRIPTION",
		"ACME SUBSCRIPTION",
		"ACME SUBSCRIPTION REFUND",
		"ACME SUBSCRIPTION",
	})

	require.True(t, ok)
	// "refund" appears in one of four descriptions, at or below the half
	// threshold, so it becomes an advisory exclusion candidate.
	assert.Equal(t, []string{"refund"}, shape.CandidateExclusions)
}

func TestExtractMerchantExclusionsCapped(t *testing.T) {
	shape, ok := extractMerchant([]string{
		"GYMCO MEMBERSHIP alpha bravo charlie delta",
		"GYMCO MEMBERSHIP echo foxtrot golf hotel",
		"GYMCO MEMBERSHIP india juliet kilo lima",
	})

	require.True(t, ok)
	assert.Len(t, shape.CandidateExclusions, maxExclusions)
}

func TestCommonPrefix(t *testing.T) {
	assert.Equal(t, "spotify", commonPrefix([]string{"spotify usa", "spotify premium"}))
	assert.Equal(t, "", commonPrefix([]string{"abc", "xyz"}))
	assert.Equal(t, "whole", commonPrefix([]string{"whole", "wholefoods"}))
}

func TestLongestCommonSubstring(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected string
	}{
		{"shared middle", "pay city water bill", "autopay city water conf", "pay city water "},
		{"no overlap", "aaa", "bbb", ""},
		{"identical", "rent", "rent", "rent"},
		{"empty input", "", "anything", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, longestCommonSubstring(tt.a, tt.b))
		})
	}
}

func TestLeftoverTokens(t *testing.T) {
	candidates := leftoverTokens([]string{
		"acme subscription jan",
		"acme subscription feb",
		"acme subscription",
		"acme subscription",
	})

	assert.Equal(t, []string{"feb", "jan"}, candidates)
}
