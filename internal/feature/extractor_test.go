package feature

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/ledgerloom/ledgerloom/internal/common"
	"github.com/ledgerloom/ledgerloom/internal/config"
	"github.com/ledgerloom/ledgerloom/internal/model"
)

func makeTransactions(n int) []model.Transaction {
	transactions := make([]model.Transaction, n)
	for i := range transactions {
		transactions[i] = model.Transaction{
			ID:          fmt.Sprintf("txn-%d", i),
			UserID:      "user-1",
			AccountID:   "acct-1",
			Date:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i*7),
			Description: fmt.Sprintf("MERCHANT %d PURCHASE", i),
			Amount:      decimal.NewFromFloat(-10.0 - float64(i)),
		}
	}
	return transactions
}

func makeAccounts() map[string]model.Account {
	return map[string]model.Account{
		"acct-1": {
			ID:          "acct-1",
			UserID:      "user-1",
			Name:        "Everyday Checking",
			Type:        model.AccountTypeChecking,
			Institution: "First Bank",
		},
	}
}

func TestExtractBaseDimensions(t *testing.T) {
	transactions := makeTransactions(5)

	matrix, state, err := NewExtractor().Extract(transactions, nil)
	require.NoError(t, err)

	rows, cols := matrix.Dims()
	assert.Equal(t, 5, rows)
	assert.Equal(t, BaseDims, cols)
	assert.Equal(t, BaseDims, state.Dims)
}

func TestExtractFullDimensions(t *testing.T) {
	transactions := makeTransactions(5)

	matrix, state, err := NewExtractor().Extract(transactions, makeAccounts())
	require.NoError(t, err)

	rows, cols := matrix.Dims()
	assert.Equal(t, 5, rows)
	assert.Equal(t, FullDims, cols)
	assert.Equal(t, FullDims, state.Dims)
}

func TestExtractEmptyInput(t *testing.T) {
	_, _, err := NewExtractor().Extract(nil, nil)

	var featureErr *common.FeatureExtractionError
	require.ErrorAs(t, err, &featureErr)
}

func TestExtractZeroDateFails(t *testing.T) {
	transactions := makeTransactions(3)
	transactions[1].Date = time.Time{}

	_, _, err := NewExtractor().Extract(transactions, nil)

	var featureErr *common.FeatureExtractionError
	require.ErrorAs(t, err, &featureErr)
	assert.Contains(t, err.Error(), "txn-1")
}

func TestExtractMissingAccountFails(t *testing.T) {
	transactions := makeTransactions(3)
	transactions[2].AccountID = "acct-unknown"

	_, _, err := NewExtractor().Extract(transactions, makeAccounts())

	var featureErr *common.FeatureExtractionError
	require.ErrorAs(t, err, &featureErr)
	assert.Contains(t, err.Error(), "acct-unknown")
}

func TestExtractDeterministic(t *testing.T) {
	transactions := makeTransactions(8)
	accounts := makeAccounts()

	first, _, err := NewExtractor().Extract(transactions, accounts)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, _, err := NewExtractor().Extract(transactions, accounts)
		require.NoError(t, err)
		assert.Equal(t, first.RawMatrix().Data, again.RawMatrix().Data)
	}
}

func TestExtractValuesBounded(t *testing.T) {
	transactions := makeTransactions(10)
	transactions[0].Amount = decimal.NewFromFloat(-5000)
	transactions[1].Amount = decimal.NewFromFloat(3000)

	matrix, _, err := NewExtractor().Extract(transactions, makeAccounts())
	require.NoError(t, err)

	rows, cols := matrix.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := matrix.At(i, j)
			assert.GreaterOrEqual(t, v, -1.0, "row %d col %d", i, j)
			assert.LessOrEqual(t, v, 1.0, "row %d col %d", i, j)
		}
	}
}

func TestSignedLogAmount(t *testing.T) {
	assert.InDelta(t, 0, signedLogAmount(0), 1e-9)
	assert.Greater(t, signedLogAmount(100), 0.0)
	assert.Less(t, signedLogAmount(-100), 0.0)
	assert.InDelta(t, -signedLogAmount(50), signedLogAmount(-50), 1e-9)
}

func TestEncodeAmountConstantBatch(t *testing.T) {
	state := &VectorizerState{AmountLogMin: 2.5, AmountLogMax: 2.5}
	dst := make([]float64, AmountDims)

	encodeAmount(dst, decimal.NewFromFloat(-11.18), state)
	assert.InDelta(t, 0.5, dst[0], 1e-9)
}

func TestExtractRecurringChargeDensityAtDefaultRadius(t *testing.T) {
	transactions := make([]model.Transaction, 0, 14)
	for month := 1; month <= 12; month++ {
		amount := -14.99
		if month%2 == 0 {
			amount = -15.99
		}
		transactions = append(transactions, model.Transaction{
			ID:          fmt.Sprintf("netflix-%d", month),
			UserID:      "user-1",
			AccountID:   "acct-1",
			Date:        time.Date(2024, time.Month(month), 15, 0, 0, 0, 0, time.UTC),
			Description: "NETFLIX.COM",
			Amount:      decimal.NewFromFloat(amount),
		})
	}
	transactions = append(transactions,
		model.Transaction{
			ID:          "grocer-1",
			UserID:      "user-1",
			AccountID:   "acct-1",
			Date:        time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
			Description: "CORNER GROCER",
			Amount:      decimal.NewFromFloat(-84.12),
		},
		model.Transaction{
			ID:          "grocer-2",
			UserID:      "user-1",
			AccountID:   "acct-1",
			Date:        time.Date(2024, 9, 21, 0, 0, 0, 0, time.UTC),
			Description: "CORNER GROCER",
			Amount:      decimal.NewFromFloat(-77.40),
		},
	)

	matrix, _, err := NewExtractor().Extract(transactions, makeAccounts())
	require.NoError(t, err)

	eps := config.DefaultDetection().Eps
	for i := 0; i < 12; i++ {
		for j := i + 1; j < 12; j++ {
			d := floats.Distance(matrix.RawRowView(i), matrix.RawRowView(j), 2)
			assert.Less(t, d, eps, "occurrences %d and %d of the same charge", i, j)
		}
	}
	cross := floats.Distance(matrix.RawRowView(0), matrix.RawRowView(12), 2)
	assert.Greater(t, cross, eps, "distinct merchants must stay separated")
}

func TestHistoryBounds(t *testing.T) {
	transactions := makeTransactions(4)

	_, state, err := NewExtractor().Extract(transactions, nil)
	require.NoError(t, err)

	assert.Equal(t, transactions[0].Date, state.HistoryStart)
	assert.Equal(t, transactions[3].Date, state.HistoryEnd)
}
