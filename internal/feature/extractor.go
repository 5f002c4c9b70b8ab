// Package feature turns transaction batches into fixed-length numeric
// vectors for density clustering.
package feature

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ledgerloom/ledgerloom/internal/common"
	"github.com/ledgerloom/ledgerloom/internal/model"
)

// Sub-vector sizes. The dimension counts are a hard contract: every
// downstream consumer relies on them, and vectors of the wrong length must
// fail fast rather than be padded or truncated.
const (
	TemporalDims    = 17
	AmountDims      = 1
	DescriptionDims = 49
	AccountDims     = 24

	// BaseDims is the vector length without account enrichment.
	BaseDims = TemporalDims + AmountDims + DescriptionDims
	// FullDims is the vector length with account enrichment.
	FullDims = BaseDims + AccountDims
)

// Block weights applied to each sub-vector after encoding. The description
// block carries merchant identity and stays at full scale: two merchants with
// disjoint token support sit sqrt(2) apart on it alone. The calendar, amount,
// and account blocks only drift within a recurring charge, so they are scaled
// down until that drift stays inside the default clustering radius; unweighted,
// four full-amplitude sine/cosine pairs plus flag flips would push consecutive
// monthly occurrences of one charge outside any radius that still separates
// merchants.
const (
	temporalWeight = 0.1
	amountWeight   = 0.2
	accountWeight  = 0.2
)

// VectorizerState captures the batch-scoped fitting state produced by one
// Extract call. It is request-scoped by design: vocabulary and normalization
// bounds are fit per batch so they match the data being analyzed, and nothing
// is shared between users or calls.
type VectorizerState struct {
	HistoryStart time.Time
	HistoryEnd   time.Time
	Vocabulary   []string
	vocabIndex   map[string]int
	docFreq      []int
	Institutions []string
	numDocs      int
	AmountLogMin float64
	AmountLogMax float64
	Dims         int
}

// Extractor converts transactions into feature vectors.
type Extractor struct{}

// NewExtractor creates a new feature extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract builds the feature matrix for a transaction batch. When accounts is
// nil or empty the output rows have BaseDims columns; when accounts is
// supplied every transaction's account must be present and rows have FullDims
// columns. The extractor never zero-pads: callers must know which
// dimensionality they requested.
func (e *Extractor) Extract(transactions []model.Transaction, accounts map[string]model.Account) (*mat.Dense, *VectorizerState, error) {
	if len(transactions) == 0 {
		return nil, nil, common.NewFeatureExtractionError("empty transaction list")
	}

	withAccounts := len(accounts) > 0
	for i := range transactions {
		if transactions[i].Date.IsZero() {
			return nil, nil, common.NewFeatureExtractionError("transaction %s has a malformed date", transactions[i].ID)
		}
		if withAccounts {
			if _, ok := accounts[transactions[i].AccountID]; !ok {
				return nil, nil, common.NewFeatureExtractionError(
					"transaction %s references account %s absent from the accounts map",
					transactions[i].ID, transactions[i].AccountID)
			}
		}
	}

	dims := BaseDims
	if withAccounts {
		dims = FullDims
	}

	state := &VectorizerState{Dims: dims}
	state.fitHistory(transactions)
	state.fitAmounts(transactions)
	state.fitVocabulary(transactions)

	var acctEnc *accountEncoder
	if withAccounts {
		acctEnc = newAccountEncoder(accounts)
		state.Institutions = acctEnc.institutions
	}

	matrix := mat.NewDense(len(transactions), dims, nil)
	row := make([]float64, dims)
	for i := range transactions {
		txn := &transactions[i]
		off := 0
		off += encodeTemporal(row[off:off+TemporalDims], txn.Date, state)
		floats.Scale(temporalWeight, row[:TemporalDims])
		off += encodeAmount(row[off:off+AmountDims], txn.Amount, state)
		floats.Scale(amountWeight, row[TemporalDims:off])
		off += state.encodeDescription(row[off:off+DescriptionDims], txn.Description)
		if withAccounts {
			acct := accounts[txn.AccountID]
			off += acctEnc.encode(row[off:off+AccountDims], acct)
			floats.Scale(accountWeight, row[BaseDims:off])
		}
		matrix.SetRow(i, row)
	}

	return matrix, state, nil
}

func (s *VectorizerState) fitHistory(transactions []model.Transaction) {
	s.HistoryStart = transactions[0].Date
	s.HistoryEnd = transactions[0].Date
	for i := range transactions {
		d := transactions[i].Date
		if d.Before(s.HistoryStart) {
			s.HistoryStart = d
		}
		if d.After(s.HistoryEnd) {
			s.HistoryEnd = d
		}
	}
}

func (s *VectorizerState) fitAmounts(transactions []model.Transaction) {
	logs := make([]float64, len(transactions))
	for i := range transactions {
		logs[i] = signedLogAmount(transactions[i].Amount.InexactFloat64())
	}
	s.AmountLogMin = floats.Min(logs)
	s.AmountLogMax = floats.Max(logs)
}

// signedLogAmount compresses the heavy-tailed amount distribution so that
// clustering distance is not dominated by a few large transactions.
func signedLogAmount(amount float64) float64 {
	sign := 1.0
	if amount < 0 {
		sign = -1.0
	}
	return sign * math.Log1p(math.Abs(amount))
}

func encodeAmount(dst []float64, amount decimal.Decimal, state *VectorizerState) int {
	v := signedLogAmount(amount.InexactFloat64())
	span := state.AmountLogMax - state.AmountLogMin
	if span > 0 {
		dst[0] = (v - state.AmountLogMin) / span
	} else {
		dst[0] = 0.5
	}
	return AmountDims
}
