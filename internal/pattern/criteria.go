// Package pattern provides deterministic criteria matching, validation, and
// the review lifecycle for recurring-charge patterns.
package pattern

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerloom/ledgerloom/internal/common"
	"github.com/ledgerloom/ledgerloom/internal/model"
)

// MatchesCriteria reports whether a transaction satisfies a pattern's stored
// declarative criteria. This is the single matching function shared by the
// criteria validator and the online matching service; the two must never
// diverge.
func MatchesCriteria(txn model.Transaction, c model.MatchCriteria) bool {
	return matchesMerchant(txn.Description, c) &&
		matchesAmount(txn, c) &&
		matchesTemporal(txn.Date, c)
}

// MatchesCriteriaInWindow additionally restricts matching to the pattern's
// observed occurrence window. Used by validation, where only the evidence
// period is in scope.
func MatchesCriteriaInWindow(txn model.Transaction, c model.MatchCriteria, first, last time.Time) bool {
	if txn.Date.Before(first) || txn.Date.After(last) {
		return false
	}
	return MatchesCriteria(txn, c)
}

func matchesMerchant(description string, c model.MatchCriteria) bool {
	if c.MerchantPattern == "" {
		return false
	}

	text := common.NormalizeText(description)
	pat := c.MerchantPattern
	if !c.CaseSensitive {
		text = strings.ToLower(text)
		pat = strings.ToLower(pat)
	}

	for _, term := range c.ExcludeTerms {
		if term == "" {
			continue
		}
		if !c.CaseSensitive {
			term = strings.ToLower(term)
		}
		if strings.Contains(text, term) {
			return false
		}
	}

	switch c.MerchantMatchMode {
	case model.MatchContains:
		return strings.Contains(text, pat)
	case model.MatchPrefix:
		return strings.HasPrefix(text, pat)
	case model.MatchSuffix:
		return strings.HasSuffix(text, pat)
	case model.MatchExact:
		return text == pat
	case model.MatchRegex:
		expr := c.MerchantPattern
		if !c.CaseSensitive && !strings.HasPrefix(expr, "(?i)") {
			expr = "(?i)" + expr
		}
		ok, err := common.MatchRegex(expr, common.NormalizeText(description))
		if err != nil {
			return false
		}
		return ok
	}
	return false
}

func matchesAmount(txn model.Transaction, c model.MatchCriteria) bool {
	amount := txn.Amount.Abs()
	tolerance := c.AmountMean.Mul(decimal.NewFromFloat(c.AmountTolerancePct / 100.0))
	diff := amount.Sub(c.AmountMean).Abs()
	return diff.Cmp(tolerance) <= 0
}

func matchesTemporal(date time.Time, c model.MatchCriteria) bool {
	tol := c.TemporalToleranceDays

	switch c.TemporalType {
	case model.TemporalDayOfMonth:
		return circularDayDistance(date.Day(), c.TemporalDay, daysInMonth(date)) <= tol
	case model.TemporalDayOfWeek:
		return circularDayDistance(int(date.Weekday()), c.TemporalDay, 7) <= tol
	case model.TemporalFirstWorkingDay:
		return absInt(date.Day()-FirstWorkingDay(date.Year(), date.Month())) <= tol
	case model.TemporalLastWorkingDay:
		return absInt(date.Day()-LastWorkingDay(date.Year(), date.Month())) <= tol
	case model.TemporalFlexible:
		return true
	}
	return false
}

// circularDayDistance measures distance on a ring of the given length, so
// day 31 and day 1 of adjacent months count as close.
func circularDayDistance(a, b, ring int) int {
	d := absInt(a - b)
	if ring-d < d {
		d = ring - d
	}
	return d
}

// FirstWorkingDay returns the first non-weekend day of the given month.
func FirstWorkingDay(year int, month time.Month) int {
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d.Day()
}

// LastWorkingDay returns the last non-weekend day of the given month.
func LastWorkingDay(year int, month time.Month) int {
	d := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, -1)
	}
	return d.Day()
}

func daysInMonth(date time.Time) int {
	return time.Date(date.Year(), date.Month()+1, 0, 0, 0, 0, 0, date.Location()).Day()
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
