package model

import "github.com/shopspring/decimal"

// ReviewActionType identifies the kind of review decision a user made.
type ReviewActionType string

// Review action constants.
const (
	ReviewConfirm ReviewActionType = "confirm"
	ReviewReject  ReviewActionType = "reject"
	ReviewEdit    ReviewActionType = "edit"
)

// CriteriaOverrides carries optional field-level edits to a pattern's
// criteria. Nil fields are left unchanged.
type CriteriaOverrides struct {
	MerchantPattern       *string
	MerchantMatchMode     *MerchantMatchMode
	ExcludeTerms          *[]string
	CaseSensitive         *bool
	AmountMean            *decimal.Decimal
	AmountTolerancePct    *float64
	Frequency             *Frequency
	TemporalType          *TemporalPatternType
	TemporalDay           *int
	TemporalToleranceDays *int
}

// ReviewAction is the input value object for one review decision. It is not
// stored; it is consumed by the lifecycle manager.
type ReviewAction struct {
	Overrides           *CriteriaOverrides
	ReviewerID          string
	Action              ReviewActionType
	ActivateImmediately bool
}
