package recurring

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ledgerloom/ledgerloom/internal/config"
	"github.com/ledgerloom/ledgerloom/internal/model"
)

func TestBaseConfidencePerfectPattern(t *testing.T) {
	amount := amountShape{Regularity: 1.0}
	temporal := temporalShape{Consistency: 1.0}
	intervals := []float64{30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30}

	score := baseConfidence(12, intervals, amount, temporal)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestBaseConfidenceSampleSizeCaps(t *testing.T) {
	amount := amountShape{Regularity: 1.0}
	temporal := temporalShape{Consistency: 1.0}
	intervals := []float64{30, 30, 30}

	atTwelve := baseConfidence(12, intervals, amount, temporal)
	atHundred := baseConfidence(100, intervals, amount, temporal)
	assert.InDelta(t, atTwelve, atHundred, 1e-9)
}

func TestBaseConfidenceSmallSamplePenalized(t *testing.T) {
	amount := amountShape{Regularity: 1.0}
	temporal := temporalShape{Consistency: 1.0}
	intervals := []float64{30, 30}

	three := baseConfidence(3, intervals, amount, temporal)
	twelve := baseConfidence(12, intervals, amount, temporal)
	assert.Less(t, three, twelve)
	// Only the 0.20-weight sample term differs.
	assert.InDelta(t, 0.20*(1-3.0/12.0), twelve-three, 1e-9)
}

func TestAdjustForAccount(t *testing.T) {
	adjustments := config.DefaultAdjustments()

	credit := &model.Account{Type: model.AccountTypeCredit}
	boosted := adjustForAccount(0.7, credit, model.FrequencyMonthly, model.CategorySubscription, adjustments)
	assert.InDelta(t, 0.8, boosted, 1e-9)

	// Clamped at 1.
	capped := adjustForAccount(0.95, credit, model.FrequencyMonthly, model.CategorySubscription, adjustments)
	assert.InDelta(t, 1.0, capped, 1e-9)

	// Nil account leaves the score untouched.
	assert.InDelta(t, 0.7, adjustForAccount(0.7, nil, model.FrequencyMonthly, model.CategorySubscription, adjustments), 1e-9)

	// No matching rule leaves the score untouched.
	other := &model.Account{Type: model.AccountTypeOther}
	assert.InDelta(t, 0.7, adjustForAccount(0.7, other, model.FrequencyMonthly, model.CategorySubscription, adjustments), 1e-9)
}

func TestInferCategory(t *testing.T) {
	tests := []struct {
		name         string
		descriptions []string
		freq         model.Frequency
		mean         float64
		income       bool
		expected     model.PatternCategory
	}{
		{
			name:         "streaming keyword",
			descriptions: []string{"NETFLIX.COM"},
			freq:         model.FrequencyMonthly,
			mean:         15.99,
			expected:     model.CategorySubscription,
		},
		{
			name:         "utility keyword",
			descriptions: []string{"CITY ELECTRIC AUTOPAY"},
			freq:         model.FrequencyMonthly,
			mean:         120,
			expected:     model.CategoryUtility,
		},
		{
			name:         "retirement contribution",
			descriptions: []string{"VANGUARD BUY"},
			freq:         model.FrequencySemiMonthly,
			mean:         400,
			expected:     model.CategoryContribution,
		},
		{
			name:         "rent is a bill",
			descriptions: []string{"OAKWOOD RENT PAYMENT"},
			freq:         model.FrequencyMonthly,
			mean:         1800,
			expected:     model.CategoryBill,
		},
		{
			name:         "income without keywords",
			descriptions: []string{"ACME CORP DIRECT DEP"},
			freq:         model.FrequencyBiWeekly,
			mean:         2500,
			income:       true,
			expected:     model.CategoryIncome,
		},
		{
			name:         "small monthly charge is a subscription",
			descriptions: []string{"SOMEAPP.IO"},
			freq:         model.FrequencyMonthly,
			mean:         9.99,
			expected:     model.CategorySubscription,
		},
		{
			name:         "large monthly charge is a bill",
			descriptions: []string{"BIGCO MONTHLY CHARGE"},
			freq:         model.FrequencyMonthly,
			mean:         450,
			expected:     model.CategoryBill,
		},
		{
			name:         "non-monthly fallback is expense",
			descriptions: []string{"CORNER GROCERY"},
			freq:         model.FrequencyWeekly,
			mean:         80,
			expected:     model.CategoryExpense,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := inferCategory(tt.descriptions, tt.freq, decimal.NewFromFloat(tt.mean), tt.income)
			assert.Equal(t, tt.expected, got)
		})
	}
}
