package feature

import (
	"sort"
	"strings"

	"github.com/ledgerloom/ledgerloom/internal/model"
)

// Account display-name keywords encoded as boolean flags, in fixed order.
var accountNameKeywords = []string{
	"business", "personal", "checking", "savings",
	"credit", "joint", "emergency", "investment",
}

const topInstitutions = 4

// accountEncoder holds the batch-scoped account encoding state: the account
// type ordering, the top institutions seen, and activity normalization bounds.
type accountEncoder struct {
	institutions []string
	instIndex    map[string]int
	maxTxnCount  float64
	maxAvgAmount float64
}

func newAccountEncoder(accounts map[string]model.Account) *accountEncoder {
	enc := &accountEncoder{instIndex: make(map[string]int)}

	instCount := make(map[string]int)
	for _, acct := range accounts {
		if acct.Institution != "" {
			instCount[acct.Institution]++
		}
		if c := float64(acct.TransactionCount); c > enc.maxTxnCount {
			enc.maxTxnCount = c
		}
		if a := acct.AverageAmount.Abs().InexactFloat64(); a > enc.maxAvgAmount {
			enc.maxAvgAmount = a
		}
	}

	names := make([]string, 0, len(instCount))
	for name := range instCount {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if instCount[names[i]] != instCount[names[j]] {
			return instCount[names[i]] > instCount[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > topInstitutions {
		names = names[:topInstitutions]
	}
	enc.institutions = names
	for i, name := range names {
		enc.instIndex[name] = i
	}

	return enc
}

// encode writes the 24-dimension account sub-vector: one-hot account type
// (6), display-name keyword flags (8), one-hot institution with an "other"
// slot (5), and activity features (5).
func (enc *accountEncoder) encode(dst []float64, acct model.Account) int {
	for i := range dst {
		dst[i] = 0
	}

	typeIdx := len(model.AccountTypes) - 1 // "other" fallback
	for i, t := range model.AccountTypes {
		if acct.Type == t {
			typeIdx = i
			break
		}
	}
	dst[typeIdx] = 1.0

	name := strings.ToLower(acct.Name)
	for i, kw := range accountNameKeywords {
		dst[len(model.AccountTypes)+i] = boolFeature(strings.Contains(name, kw))
	}

	instOffset := len(model.AccountTypes) + len(accountNameKeywords)
	if idx, ok := enc.instIndex[acct.Institution]; ok {
		dst[instOffset+idx] = 1.0
	} else {
		dst[instOffset+topInstitutions] = 1.0 // "other"
	}

	actOffset := instOffset + topInstitutions + 1
	if enc.maxTxnCount > 0 {
		dst[actOffset] = float64(acct.TransactionCount) / enc.maxTxnCount
	}
	if enc.maxAvgAmount > 0 {
		dst[actOffset+1] = acct.AverageAmount.Abs().InexactFloat64() / enc.maxAvgAmount
	}
	dst[actOffset+2] = clamp01(float64(acct.AgeDays) / 3650.0)
	if acct.AgeDays > 0 {
		dst[actOffset+3] = clamp01(float64(acct.TransactionCount) / float64(acct.AgeDays))
	}
	dst[actOffset+4] = boolFeature(acct.Active)

	return AccountDims
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
