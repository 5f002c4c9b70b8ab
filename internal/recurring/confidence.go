package recurring

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ledgerloom/ledgerloom/internal/config"
	"github.com/ledgerloom/ledgerloom/internal/model"
)

// Confidence score weights. Sub-scores are each normalized to [0,1].
const (
	weightIntervalRegularity  = 0.30
	weightAmountRegularity    = 0.20
	weightSampleSize          = 0.20
	weightTemporalConsistency = 0.30

	// adequateSampleSize is the occurrence count that earns a full
	// sample-size sub-score; a year of monthly charges.
	adequateSampleSize = 12.0
)

// baseConfidence computes the weighted confidence score of a cluster.
func baseConfidence(n int, intervals []float64, amount amountShape, temporal temporalShape) float64 {
	sample := float64(n) / adequateSampleSize
	if sample > 1 {
		sample = 1
	}

	score := weightIntervalRegularity*intervalRegularity(intervals) +
		weightAmountRegularity*amount.Regularity +
		weightSampleSize*sample +
		weightTemporalConsistency*temporal.Consistency

	return clamp01(score)
}

// adjustForAccount applies the configured account-aware adjustment when the
// cluster's dominant account is known. The final score stays in [0,1].
func adjustForAccount(score float64, acct *model.Account, freq model.Frequency, category model.PatternCategory, adjustments config.ConfidenceAdjustments) float64 {
	if acct == nil {
		return score
	}
	return clamp01(score + adjustments.Lookup(acct.Type, freq, category))
}

// categoryKeywords maps merchant text fragments to pattern categories.
// Checked in order; the first hit wins.
var categoryKeywords = []struct {
	category model.PatternCategory
	terms    []string
}{
	{model.CategorySubscription, []string{"netflix", "spotify", "hulu", "disney", "prime", "subscription", "membership"}},
	{model.CategoryUtility, []string{"electric", "water", "gas", "utility", "internet", "cable", "wireless", "phone"}},
	{model.CategoryContribution, []string{"401k", "ira", "contribution", "vanguard", "fidelity"}},
	{model.CategoryDividend, []string{"dividend", "div"}},
	{model.CategoryTransfer, []string{"transfer", "xfer"}},
	{model.CategoryFee, []string{"fee", "service charge"}},
	{model.CategoryBill, []string{"insurance", "mortgage", "rent", "loan"}},
}

// smallChargeThreshold separates subscription-sized monthly charges from
// bills when no keyword hits.
var smallChargeThreshold = decimal.NewFromInt(50)

// inferCategory tags the cluster with a pattern category for confidence
// adjustment. Heuristic and deterministic; never a substitute for the
// merchant criteria.
func inferCategory(descriptions []string, freq model.Frequency, meanAmount decimal.Decimal, income bool) model.PatternCategory {
	text := strings.ToLower(strings.Join(descriptions, " "))
	for _, entry := range categoryKeywords {
		for _, term := range entry.terms {
			if strings.Contains(text, term) {
				return entry.category
			}
		}
	}

	if income {
		return model.CategoryIncome
	}

	switch freq {
	case model.FrequencyMonthly, model.FrequencyAnnually:
		if meanAmount.Cmp(smallChargeThreshold) <= 0 {
			return model.CategorySubscription
		}
		return model.CategoryBill
	default:
		return model.CategoryExpense
	}
}
