package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PatternStatus tracks a recurring pattern through its review lifecycle.
type PatternStatus string

// Pattern lifecycle statuses.
const (
	PatternStatusDetected  PatternStatus = "DETECTED"
	PatternStatusConfirmed PatternStatus = "CONFIRMED"
	PatternStatusActive    PatternStatus = "ACTIVE"
	PatternStatusRejected  PatternStatus = "REJECTED"
	PatternStatusPaused    PatternStatus = "PAUSED"
)

// Frequency classifies how often a recurring charge occurs.
type Frequency string

// Frequency constants.
const (
	FrequencyDaily        Frequency = "daily"
	FrequencyWeekly       Frequency = "weekly"
	FrequencyBiWeekly     Frequency = "bi-weekly"
	FrequencySemiMonthly  Frequency = "semi-monthly"
	FrequencyMonthly      Frequency = "monthly"
	FrequencyBiMonthly    Frequency = "bi-monthly"
	FrequencyQuarterly    Frequency = "quarterly"
	FrequencySemiAnnually Frequency = "semi-annually"
	FrequencyAnnually     Frequency = "annually"
	FrequencyIrregular    Frequency = "irregular"
)

// TemporalPatternType describes the calendar shape of a recurring charge.
type TemporalPatternType string

// Temporal pattern constants.
const (
	TemporalDayOfMonth      TemporalPatternType = "day_of_month"
	TemporalDayOfWeek       TemporalPatternType = "day_of_week"
	TemporalFirstWorkingDay TemporalPatternType = "first_working_day"
	TemporalLastWorkingDay  TemporalPatternType = "last_working_day"
	TemporalFlexible        TemporalPatternType = "flexible"
)

// MerchantMatchMode selects how a merchant text pattern is applied.
type MerchantMatchMode string

// Merchant match modes.
const (
	MatchContains MerchantMatchMode = "contains"
	MatchPrefix   MerchantMatchMode = "prefix"
	MatchSuffix   MerchantMatchMode = "suffix"
	MatchExact    MerchantMatchMode = "exact"
	MatchRegex    MerchantMatchMode = "regex"
)

// PatternCategory tags the kind of recurring charge, used for
// account-aware confidence adjustment.
type PatternCategory string

// Pattern category constants.
const (
	CategorySubscription PatternCategory = "subscription"
	CategoryUtility      PatternCategory = "utility"
	CategoryBill         PatternCategory = "bill"
	CategoryIncome       PatternCategory = "income"
	CategoryContribution PatternCategory = "contribution"
	CategoryTransfer     PatternCategory = "transfer"
	CategoryFee          PatternCategory = "fee"
	CategoryDividend     PatternCategory = "dividend"
	CategoryPayment      PatternCategory = "payment"
	CategoryService      PatternCategory = "service"
	CategoryExpense      PatternCategory = "expense"
)

// MatchCriteria is the declarative, human-editable matching rule stored on a
// pattern. The criteria validator and the matching service both evaluate it
// with the same deterministic function.
type MatchCriteria struct {
	MerchantPattern       string
	MerchantMatchMode     MerchantMatchMode
	ExcludeTerms          []string
	CaseSensitive         bool
	AmountMean            decimal.Decimal
	AmountStdDev          decimal.Decimal
	AmountMin             decimal.Decimal
	AmountMax             decimal.Decimal
	AmountTolerancePct    float64 // Percentage of the mean, e.g. 10 for ±10%
	Frequency             Frequency
	TemporalType          TemporalPatternType
	TemporalDay           int // Day-of-month (1-31) or weekday (0=Sunday..6)
	TemporalToleranceDays int
}

// RecurringPattern is a recurring-charge matching rule derived from a
// transaction cluster. It is created by the detector in status DETECTED and
// mutated only by the review lifecycle manager.
type RecurringPattern struct {
	FirstOccurrence     time.Time
	LastOccurrence      time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	ReviewedAt          *time.Time
	ID                  string
	UserID              string
	ReviewedBy          string
	SuggestedCategoryID string
	Category            PatternCategory
	Status              PatternStatus
	Criteria            MatchCriteria

	// MatchedTransactionIDs is the exact set of transaction ids that produced
	// this pattern via clustering. Immutable after creation; it is the ground
	// truth the criteria validator checks against.
	MatchedTransactionIDs []string

	// CandidateExclusions are tokens seen inconsistently across the cluster's
	// descriptions, surfaced as suggestions for a reviewer's exclusion list.
	// They are advisory only and never applied during matching.
	CandidateExclusions []string

	CriteriaValidationErrors []string
	Confidence               float64
	TransactionCount         int
	ClusterLabel             int
	Active                   bool
	CriteriaValidated        bool
}

// patternTransitions is the legal lifecycle state machine. REJECTED is
// terminal; ACTIVE is reachable only from CONFIRMED.
var patternTransitions = map[PatternStatus][]PatternStatus{
	PatternStatusDetected:  {PatternStatusConfirmed, PatternStatusRejected},
	PatternStatusConfirmed: {PatternStatusActive, PatternStatusRejected},
	PatternStatusActive:    {PatternStatusPaused},
	PatternStatusPaused:    {PatternStatusActive},
	PatternStatusRejected:  {},
}

// CanTransitionTo reports whether moving from the pattern's current status to
// the target status is a legal lifecycle transition.
func (p *RecurringPattern) CanTransitionTo(target PatternStatus) bool {
	for _, s := range patternTransitions[p.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// IsActive reports whether the pattern may auto-categorize transactions.
func (p *RecurringPattern) IsActive() bool {
	return p.Status == PatternStatusActive && p.Active
}
