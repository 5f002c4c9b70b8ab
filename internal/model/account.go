package model

import "github.com/shopspring/decimal"

// AccountType classifies the kind of financial account a transaction belongs to.
type AccountType string

// Account type constants.
const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeCredit     AccountType = "credit"
	AccountTypeInvestment AccountType = "investment"
	AccountTypeLoan       AccountType = "loan"
	AccountTypeOther      AccountType = "other"
)

// AccountTypes lists all known account types in canonical order.
// Feature encoding relies on this ordering being stable.
var AccountTypes = []AccountType{
	AccountTypeChecking,
	AccountTypeSavings,
	AccountTypeCredit,
	AccountTypeInvestment,
	AccountTypeLoan,
	AccountTypeOther,
}

// Account carries optional metadata about a financial account. It is used
// only to enrich detection features; absence never breaks detection.
type Account struct {
	ID               string
	UserID           string
	Name             string // Display name, e.g. "Joint Checking"
	Institution      string
	Type             AccountType
	TransactionCount int
	AgeDays          int
	AverageAmount    decimal.Decimal
	Active           bool
}
