package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ledgerloom/ledgerloom/internal/common"
	"github.com/ledgerloom/ledgerloom/internal/model"
	"github.com/ledgerloom/ledgerloom/internal/service"
)

// SaveTransactions saves multiple transactions, ignoring duplicates by hash.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (id, hash, user_id, account_id, date, description, amount)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range transactions {
		txn := &transactions[i]
		if txn.Hash == "" {
			txn.Hash = txn.GenerateHash()
		}
		if _, err := stmt.ExecContext(ctx,
			txn.ID, txn.Hash, txn.UserID, txn.AccountID,
			model.TimeToMillis(txn.Date), txn.Description, txn.Amount.String(),
		); err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
		}
	}

	return tx.Commit()
}

// GetTransactions returns a user's transactions ordered by date ascending,
// optionally restricted to a date range and paged.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, userID string, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	query := `SELECT id, hash, user_id, account_id, date, description, amount
		FROM transactions WHERE user_id = ?`
	args := []any{userID}

	if filter.StartDate != nil {
		query += " AND date >= ?"
		args = append(args, model.TimeToMillis(*filter.StartDate))
	}
	if filter.EndDate != nil {
		query += " AND date <= ?"
		args = append(args, model.TimeToMillis(*filter.EndDate))
	}
	query += " ORDER BY date ASC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *txn)
	}
	return transactions, rows.Err()
}

// GetTransactionByID retrieves a single transaction.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, hash, user_id, account_id, date, description, amount
		FROM transactions WHERE id = ?`, id)

	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	return txn, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var txn model.Transaction
	var dateMillis int64
	var amountStr string
	var accountID sql.NullString

	if err := row.Scan(&txn.ID, &txn.Hash, &txn.UserID, &accountID, &dateMillis, &txn.Description, &amountStr); err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("corrupt amount for transaction %s: %w", txn.ID, err)
	}
	txn.Amount = amount
	txn.Date = model.TimeFromMillis(dateMillis)
	txn.AccountID = accountID.String
	return &txn, nil
}

// SaveAccounts upserts account metadata.
func (s *SQLiteStorage) SaveAccounts(ctx context.Context, accounts []model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO accounts (id, user_id, name, institution, type, transaction_count, age_days, average_amount, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			institution = excluded.institution,
			type = excluded.type,
			transaction_count = excluded.transaction_count,
			age_days = excluded.age_days,
			average_amount = excluded.average_amount,
			is_active = excluded.is_active
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare account upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range accounts {
		acct := &accounts[i]
		if _, err := stmt.ExecContext(ctx,
			acct.ID, acct.UserID, acct.Name, acct.Institution, string(acct.Type),
			acct.TransactionCount, acct.AgeDays, acct.AverageAmount.String(), acct.Active,
		); err != nil {
			return fmt.Errorf("failed to upsert account %s: %w", acct.ID, err)
		}
	}

	return tx.Commit()
}

// GetAccounts returns a user's accounts keyed by account id.
func (s *SQLiteStorage) GetAccounts(ctx context.Context, userID string) (map[string]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, institution, type, transaction_count, age_days, average_amount, is_active
		FROM accounts WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	accounts := make(map[string]model.Account)
	for rows.Next() {
		var acct model.Account
		var acctType string
		var institution, avgAmount sql.NullString
		if err := rows.Scan(&acct.ID, &acct.UserID, &acct.Name, &institution, &acctType,
			&acct.TransactionCount, &acct.AgeDays, &avgAmount, &acct.Active); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		acct.Type = model.AccountType(acctType)
		acct.Institution = institution.String
		if avgAmount.Valid && avgAmount.String != "" {
			amount, err := decimal.NewFromString(avgAmount.String)
			if err != nil {
				return nil, fmt.Errorf("corrupt average amount for account %s: %w", acct.ID, err)
			}
			acct.AverageAmount = amount
		}
		accounts[acct.ID] = acct
	}
	return accounts, rows.Err()
}
