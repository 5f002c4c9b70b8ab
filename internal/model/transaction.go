// Package model defines the core data structures for the ledgerloom application.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a single financial transaction from any source.
// Transactions are immutable once handed to the detection engine.
type Transaction struct {
	Date        time.Time
	ID          string
	UserID      string
	AccountID   string
	Description string // Raw transaction description as delivered by the institution
	Hash        string
	Amount      decimal.Decimal // Signed: negative for debits, positive for credits
}

// GenerateHash creates a unique hash for duplicate detection.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount.StringFixed(2),
		t.Description,
		t.AccountID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// AbsAmount returns the magnitude of the transaction amount.
func (t *Transaction) AbsAmount() decimal.Decimal {
	return t.Amount.Abs()
}

// TimeFromMillis converts an epoch-milliseconds timestamp into a UTC time.
// Upstream feeds deliver dates as integer milliseconds since the epoch.
func TimeFromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// TimeToMillis converts a time into epoch milliseconds for wire/storage use.
func TimeToMillis(t time.Time) int64 {
	return t.UnixMilli()
}
