package pattern

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ledgerloom/ledgerloom/internal/model"
)

func txnOn(date time.Time, description string, amount float64) model.Transaction {
	return model.Transaction{
		ID:          "txn-1",
		Date:        date,
		Description: description,
		Amount:      decimal.NewFromFloat(amount),
	}
}

func subscriptionCriteria() model.MatchCriteria {
	return model.MatchCriteria{
		MerchantPattern:       "netflix com",
		MerchantMatchMode:     model.MatchPrefix,
		AmountMean:            decimal.NewFromFloat(15.99),
		AmountTolerancePct:    5,
		Frequency:             model.FrequencyMonthly,
		TemporalType:          model.TemporalDayOfMonth,
		TemporalDay:           15,
		TemporalToleranceDays: 1,
	}
}

func TestMatchesMerchant(t *testing.T) {
	tests := []struct {
		name        string
		description string
		pattern     string
		mode        model.MerchantMatchMode
		exclude     []string
		caseSens    bool
		want        bool
	}{
		{
			name:        "prefix strips reference digits",
			description: "NETFLIX.COM 884422",
			pattern:     "netflix com",
			mode:        model.MatchPrefix,
			want:        true,
		},
		{
			name:        "prefix rejects mid-string occurrence",
			description: "REFUND NETFLIX.COM",
			pattern:     "netflix com",
			mode:        model.MatchPrefix,
			want:        false,
		},
		{
			name:        "contains matches anywhere",
			description: "AUTOPAY CITY WATER DEPT CONF 99",
			pattern:     "city water",
			mode:        model.MatchContains,
			want:        true,
		},
		{
			name:        "suffix",
			description: "PAYROLL ACME CORP",
			pattern:     "acme corp",
			mode:        model.MatchSuffix,
			want:        true,
		},
		{
			name:        "exact requires full normalized text",
			description: "SPOTIFY 1234",
			pattern:     "spotify",
			mode:        model.MatchExact,
			want:        true,
		},
		{
			name:        "exact rejects extra tokens",
			description: "SPOTIFY PREMIUM",
			pattern:     "spotify",
			mode:        model.MatchExact,
			want:        false,
		},
		{
			name:        "regex is case insensitive by default",
			description: "Gym Membership Dues",
			pattern:     "^gym member",
			mode:        model.MatchRegex,
			want:        true,
		},
		{
			name:        "invalid regex never matches",
			description: "GYM MEMBERSHIP",
			pattern:     "gym [",
			mode:        model.MatchRegex,
			want:        false,
		},
		{
			name:        "case sensitive prefix",
			description: "NETFLIX.COM",
			pattern:     "netflix com",
			mode:        model.MatchPrefix,
			caseSens:    true,
			want:        false,
		},
		{
			name:        "exclusion term overrides a positive match",
			description: "NETFLIX.COM REFUND",
			pattern:     "netflix com",
			mode:        model.MatchPrefix,
			exclude:     []string{"refund"},
			want:        false,
		},
		{
			name:        "exclusion terms are case insensitive by default",
			description: "NETFLIX.COM Refund",
			pattern:     "netflix com",
			mode:        model.MatchPrefix,
			exclude:     []string{"REFUND"},
			want:        false,
		},
		{
			name:        "empty exclusion term is ignored",
			description: "NETFLIX.COM",
			pattern:     "netflix com",
			mode:        model.MatchPrefix,
			exclude:     []string{""},
			want:        true,
		},
		{
			name:        "empty pattern never matches",
			description: "NETFLIX.COM",
			pattern:     "",
			mode:        model.MatchContains,
			want:        false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := model.MatchCriteria{
				MerchantPattern:   tt.pattern,
				MerchantMatchMode: tt.mode,
				ExcludeTerms:      tt.exclude,
				CaseSensitive:     tt.caseSens,
			}
			assert.Equal(t, tt.want, matchesMerchant(tt.description, c))
		})
	}
}

func TestMatchesAmount(t *testing.T) {
	c := model.MatchCriteria{
		AmountMean:         decimal.NewFromFloat(15.99),
		AmountTolerancePct: 5,
	}

	tests := []struct {
		name   string
		amount float64
		want   bool
	}{
		{"exact debit", -15.99, true},
		{"exact credit", 15.99, true},
		{"within tolerance", -16.75, true},
		{"at tolerance boundary", -16.7895, true},
		{"just past tolerance", -16.80, false},
		{"far below", -10.00, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := model.Transaction{Amount: decimal.NewFromFloat(tt.amount)}
			assert.Equal(t, tt.want, matchesAmount(txn, c))
		})
	}
}

func TestMatchesTemporal(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		typ  model.TemporalPatternType
		day  int
		tol  int
		want bool
	}{
		{
			name: "day of month exact",
			date: time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC),
			typ:  model.TemporalDayOfMonth,
			day:  15, tol: 0,
			want: true,
		},
		{
			name: "day of month within tolerance",
			date: time.Date(2024, 4, 16, 0, 0, 0, 0, time.UTC),
			typ:  model.TemporalDayOfMonth,
			day:  15, tol: 1,
			want: true,
		},
		{
			name: "day of month outside tolerance",
			date: time.Date(2024, 4, 18, 0, 0, 0, 0, time.UTC),
			typ:  model.TemporalDayOfMonth,
			day:  15, tol: 2,
			want: false,
		},
		{
			name: "month-end wraps to day one",
			date: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			typ:  model.TemporalDayOfMonth,
			day:  1, tol: 1,
			want: true,
		},
		{
			name: "february wraps on its own ring",
			date: time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC),
			typ:  model.TemporalDayOfMonth,
			day:  1, tol: 1,
			want: true,
		},
		{
			name: "day of week match",
			date: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), // Monday
			typ:  model.TemporalDayOfWeek,
			day:  int(time.Monday), tol: 0,
			want: true,
		},
		{
			name: "day of week off by one rejected at zero tolerance",
			date: time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC), // Tuesday
			typ:  model.TemporalDayOfWeek,
			day:  int(time.Monday), tol: 0,
			want: false,
		},
		{
			name: "weekday ring wraps saturday to sunday",
			date: time.Date(2024, 4, 6, 0, 0, 0, 0, time.UTC), // Saturday
			typ:  model.TemporalDayOfWeek,
			day:  int(time.Sunday), tol: 1,
			want: true,
		},
		{
			name: "first working day after a weekend start",
			date: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), // Jun 1 is Saturday
			typ:  model.TemporalFirstWorkingDay,
			tol:  0,
			want: true,
		},
		{
			name: "first working day misses the calendar first",
			date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			typ:  model.TemporalFirstWorkingDay,
			tol:  1,
			want: false,
		},
		{
			name: "last working day before a weekend end",
			date: time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC), // Mar 31 is Sunday
			typ:  model.TemporalLastWorkingDay,
			tol:  0,
			want: true,
		},
		{
			name: "flexible always matches",
			date: time.Date(2024, 7, 19, 0, 0, 0, 0, time.UTC),
			typ:  model.TemporalFlexible,
			want: true,
		},
		{
			name: "unknown temporal type never matches",
			date: time.Date(2024, 7, 19, 0, 0, 0, 0, time.UTC),
			typ:  model.TemporalPatternType("lunar"),
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := model.MatchCriteria{
				TemporalType:          tt.typ,
				TemporalDay:           tt.day,
				TemporalToleranceDays: tt.tol,
			}
			assert.Equal(t, tt.want, matchesTemporal(tt.date, c))
		})
	}
}

func TestMatchesCriteriaRequiresAllDimensions(t *testing.T) {
	c := subscriptionCriteria()
	base := txnOn(time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC), "NETFLIX.COM 884422", -15.99)

	assert.True(t, MatchesCriteria(base, c))

	wrongMerchant := base
	wrongMerchant.Description = "HULU PREMIUM"
	assert.False(t, MatchesCriteria(wrongMerchant, c))

	wrongAmount := base
	wrongAmount.Amount = decimal.NewFromFloat(-29.99)
	assert.False(t, MatchesCriteria(wrongAmount, c))

	wrongDay := base
	wrongDay.Date = time.Date(2024, 4, 22, 0, 0, 0, 0, time.UTC)
	assert.False(t, MatchesCriteria(wrongDay, c))
}

func TestMatchesCriteriaInWindow(t *testing.T) {
	c := subscriptionCriteria()
	first := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	last := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	inside := txnOn(time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC), "NETFLIX.COM", -15.99)
	assert.True(t, MatchesCriteriaInWindow(inside, c, first, last))

	// Window boundaries are inclusive.
	assert.True(t, MatchesCriteriaInWindow(txnOn(first, "NETFLIX.COM", -15.99), c, first, last))
	assert.True(t, MatchesCriteriaInWindow(txnOn(last, "NETFLIX.COM", -15.99), c, first, last))

	before := txnOn(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "NETFLIX.COM", -15.99)
	assert.False(t, MatchesCriteriaInWindow(before, c, first, last))

	after := txnOn(time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC), "NETFLIX.COM", -15.99)
	assert.False(t, MatchesCriteriaInWindow(after, c, first, last))
}

func TestWorkingDayHelpers(t *testing.T) {
	tests := []struct {
		year      int
		month     time.Month
		wantFirst int
		wantLast  int
	}{
		{2024, time.January, 1, 31},  // Jan 1 2024 is a Monday
		{2024, time.June, 3, 28},     // Jun 1 Saturday, Jun 30 Sunday
		{2024, time.September, 2, 30},
		{2024, time.March, 1, 29}, // Mar 30/31 fall on a weekend
	}
	for _, tt := range tests {
		assert.Equal(t, tt.wantFirst, FirstWorkingDay(tt.year, tt.month), "first working day %v %d", tt.month, tt.year)
		assert.Equal(t, tt.wantLast, LastWorkingDay(tt.year, tt.month), "last working day %v %d", tt.month, tt.year)
	}
}

func TestCircularDayDistance(t *testing.T) {
	assert.Equal(t, 0, circularDayDistance(15, 15, 31))
	assert.Equal(t, 1, circularDayDistance(31, 1, 31))
	assert.Equal(t, 2, circularDayDistance(30, 1, 31))
	assert.Equal(t, 1, circularDayDistance(int(time.Saturday), int(time.Sunday), 7))
	assert.Equal(t, 3, circularDayDistance(int(time.Wednesday), int(time.Sunday), 7))
}
