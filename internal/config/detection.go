package config

import "github.com/ledgerloom/ledgerloom/internal/model"

// DetectionConfig holds the tunable parameters of a detection run. One
// canonical field set, no runtime aliasing; callers construct it explicitly
// (typically from the CLI config file) and pass it down.
type DetectionConfig struct {
	// MinOccurrences is the smallest cluster that can become a pattern.
	MinOccurrences int
	// MinConfidence discards patterns scoring below it.
	MinConfidence float64
	// Eps is the clustering neighborhood radius in feature space.
	Eps float64
	// Adjustments tunes account-aware confidence adjustment.
	Adjustments ConfidenceAdjustments
}

// DefaultDetection returns the default detection parameters.
func DefaultDetection() DetectionConfig {
	return DetectionConfig{
		MinOccurrences: 3,
		MinConfidence:  0.6,
		Eps:            0.5,
		Adjustments:    DefaultAdjustments(),
	}
}

// AdjustmentRule adds a bounded confidence delta when an (account type,
// frequency, pattern category) combination is expected or unusual. An empty
// frequency list matches any frequency.
type AdjustmentRule struct {
	AccountType model.AccountType
	Category    model.PatternCategory
	Frequencies []model.Frequency
	Delta       float64
}

// ConfidenceAdjustments is the account-aware confidence adjustment table.
// The deltas are empirically chosen and deliberately exposed as
// configuration rather than constants; Min and Max bound the applied delta.
type ConfidenceAdjustments struct {
	Rules []AdjustmentRule
	Min   float64
	Max   float64
}

// DefaultAdjustments returns the default adjustment table. Deltas stay
// within the observed range of roughly -0.15 to +0.20.
func DefaultAdjustments() ConfidenceAdjustments {
	monthly := []model.Frequency{model.FrequencyMonthly, model.FrequencyAnnually}
	payday := []model.Frequency{model.FrequencyMonthly, model.FrequencySemiMonthly, model.FrequencyBiWeekly, model.FrequencyWeekly}
	frequent := []model.Frequency{model.FrequencyDaily, model.FrequencyWeekly}

	return ConfidenceAdjustments{
		Min: -0.15,
		Max: 0.20,
		Rules: []AdjustmentRule{
			{AccountType: model.AccountTypeCredit, Category: model.CategorySubscription, Frequencies: monthly, Delta: 0.10},
			{AccountType: model.AccountTypeChecking, Category: model.CategoryIncome, Frequencies: payday, Delta: 0.10},
			{AccountType: model.AccountTypeChecking, Category: model.CategoryUtility, Delta: 0.05},
			{AccountType: model.AccountTypeChecking, Category: model.CategoryBill, Delta: 0.05},
			{AccountType: model.AccountTypeInvestment, Category: model.CategoryContribution, Delta: 0.10},
			{AccountType: model.AccountTypeInvestment, Category: model.CategoryDividend, Delta: 0.05},
			{AccountType: model.AccountTypeLoan, Category: model.CategoryPayment, Delta: 0.05},
			{AccountType: model.AccountTypeSavings, Category: model.CategoryExpense, Frequencies: frequent, Delta: -0.15},
			{AccountType: model.AccountTypeSavings, Category: model.CategorySubscription, Delta: -0.10},
			{AccountType: model.AccountTypeCredit, Category: model.CategoryIncome, Delta: -0.10},
		},
	}
}

// Lookup returns the first matching rule's delta, bounded to [Min, Max], or
// zero when no rule matches.
func (a ConfidenceAdjustments) Lookup(acctType model.AccountType, freq model.Frequency, category model.PatternCategory) float64 {
	for _, rule := range a.Rules {
		if rule.AccountType != acctType || rule.Category != category {
			continue
		}
		if len(rule.Frequencies) > 0 && !containsFrequency(rule.Frequencies, freq) {
			continue
		}
		delta := rule.Delta
		if delta < a.Min {
			delta = a.Min
		}
		if delta > a.Max {
			delta = a.Max
		}
		return delta
	}
	return 0
}

func containsFrequency(list []model.Frequency, freq model.Frequency) bool {
	for _, f := range list {
		if f == freq {
			return true
		}
	}
	return false
}
