package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ledgerloom/ledgerloom/internal/common"
	"github.com/ledgerloom/ledgerloom/internal/model"
	"github.com/ledgerloom/ledgerloom/internal/service"
)

// CreateRecurringPattern persists a freshly detected pattern.
func (s *SQLiteStorage) CreateRecurringPattern(ctx context.Context, p *model.RecurringPattern) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePattern(p); err != nil {
		return err
	}

	matchedIDs, err := json.Marshal(p.MatchedTransactionIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal matched transaction ids: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO recurring_patterns (
			id, user_id, status, is_active,
			merchant_pattern, merchant_match_mode, exclude_terms, case_sensitive,
			amount_mean, amount_std_dev, amount_min, amount_max, amount_tolerance_pct,
			frequency, temporal_type, temporal_day, temporal_tolerance_days,
			confidence, transaction_count, first_occurrence, last_occurrence,
			cluster_label, category, suggested_category_id,
			matched_transaction_ids, candidate_exclusions,
			criteria_validated, criteria_validation_errors,
			reviewed_by, reviewed_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, p.UserID, string(p.Status), p.Active,
		p.Criteria.MerchantPattern, string(p.Criteria.MerchantMatchMode),
		marshalStrings(p.Criteria.ExcludeTerms), p.Criteria.CaseSensitive,
		p.Criteria.AmountMean.String(), p.Criteria.AmountStdDev.String(),
		p.Criteria.AmountMin.String(), p.Criteria.AmountMax.String(), p.Criteria.AmountTolerancePct,
		string(p.Criteria.Frequency), string(p.Criteria.TemporalType),
		p.Criteria.TemporalDay, p.Criteria.TemporalToleranceDays,
		p.Confidence, p.TransactionCount,
		model.TimeToMillis(p.FirstOccurrence), model.TimeToMillis(p.LastOccurrence),
		p.ClusterLabel, string(p.Category), p.SuggestedCategoryID,
		string(matchedIDs), marshalStrings(p.CandidateExclusions),
		p.CriteriaValidated, marshalStrings(p.CriteriaValidationErrors),
		p.ReviewedBy, p.ReviewedAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create recurring pattern: %w", err)
	}
	return nil
}

// GetRecurringPattern retrieves one pattern by user and pattern id.
func (s *SQLiteStorage) GetRecurringPattern(ctx context.Context, userID, patternID string) (*model.RecurringPattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, selectPatternQuery+" WHERE user_id = ? AND id = ?", userID, patternID)
	p, err := scanPattern(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pattern %s: %w", patternID, common.ErrNotFound)
	}
	return p, err
}

// UpdateRecurringPattern overwrites a pattern's mutable state. Writes are
// last-writer-wins; the caller serializes writes per pattern id.
func (s *SQLiteStorage) UpdateRecurringPattern(ctx context.Context, p *model.RecurringPattern) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePattern(p); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE recurring_patterns SET
			status = ?, is_active = ?,
			merchant_pattern = ?, merchant_match_mode = ?, exclude_terms = ?, case_sensitive = ?,
			amount_mean = ?, amount_std_dev = ?, amount_min = ?, amount_max = ?, amount_tolerance_pct = ?,
			frequency = ?, temporal_type = ?, temporal_day = ?, temporal_tolerance_days = ?,
			confidence = ?, category = ?, suggested_category_id = ?,
			criteria_validated = ?, criteria_validation_errors = ?,
			reviewed_by = ?, reviewed_at = ?, updated_at = ?
		WHERE user_id = ? AND id = ?
	`,
		string(p.Status), p.Active,
		p.Criteria.MerchantPattern, string(p.Criteria.MerchantMatchMode),
		marshalStrings(p.Criteria.ExcludeTerms), p.Criteria.CaseSensitive,
		p.Criteria.AmountMean.String(), p.Criteria.AmountStdDev.String(),
		p.Criteria.AmountMin.String(), p.Criteria.AmountMax.String(), p.Criteria.AmountTolerancePct,
		string(p.Criteria.Frequency), string(p.Criteria.TemporalType),
		p.Criteria.TemporalDay, p.Criteria.TemporalToleranceDays,
		p.Confidence, string(p.Category), p.SuggestedCategoryID,
		p.CriteriaValidated, marshalStrings(p.CriteriaValidationErrors),
		p.ReviewedBy, p.ReviewedAt, p.UpdatedAt,
		p.UserID, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update recurring pattern: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("pattern %s: %w", p.ID, common.ErrNotFound)
	}
	return nil
}

// GetRecurringPatterns lists a user's patterns, optionally filtered by
// status or restricted to active ones.
func (s *SQLiteStorage) GetRecurringPatterns(ctx context.Context, userID string, filter service.PatternFilter) ([]model.RecurringPattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := selectPatternQuery + " WHERE user_id = ?"
	args := []any{userID}
	if filter.Status != nil {
		query += " AND status = ?"
		args = append(args, string(*filter.Status))
	}
	if filter.ActiveOnly {
		query += " AND status = ? AND is_active = 1"
		args = append(args, string(model.PatternStatusActive))
	}
	query += " ORDER BY confidence DESC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recurring patterns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var patterns []model.RecurringPattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, *p)
	}
	return patterns, rows.Err()
}

const selectPatternQuery = `
	SELECT id, user_id, status, is_active,
		merchant_pattern, merchant_match_mode, exclude_terms, case_sensitive,
		amount_mean, amount_std_dev, amount_min, amount_max, amount_tolerance_pct,
		frequency, temporal_type, temporal_day, temporal_tolerance_days,
		confidence, transaction_count, first_occurrence, last_occurrence,
		cluster_label, category, suggested_category_id,
		matched_transaction_ids, candidate_exclusions,
		criteria_validated, criteria_validation_errors,
		reviewed_by, reviewed_at, created_at, updated_at
	FROM recurring_patterns`

func scanPattern(row rowScanner) (*model.RecurringPattern, error) {
	var p model.RecurringPattern
	var status, matchMode, frequency, temporalType, category string
	var excludeTerms, matchedIDs, candidateExclusions, validationErrors sql.NullString
	var amountMean, amountStdDev, amountMin, amountMax string
	var firstMillis, lastMillis int64
	var reviewedBy, suggestedCategoryID sql.NullString
	var reviewedAt sql.NullTime

	if err := row.Scan(
		&p.ID, &p.UserID, &status, &p.Active,
		&p.Criteria.MerchantPattern, &matchMode, &excludeTerms, &p.Criteria.CaseSensitive,
		&amountMean, &amountStdDev, &amountMin, &amountMax, &p.Criteria.AmountTolerancePct,
		&frequency, &temporalType, &p.Criteria.TemporalDay, &p.Criteria.TemporalToleranceDays,
		&p.Confidence, &p.TransactionCount, &firstMillis, &lastMillis,
		&p.ClusterLabel, &category, &suggestedCategoryID,
		&matchedIDs, &candidateExclusions,
		&p.CriteriaValidated, &validationErrors,
		&reviewedBy, &reviewedAt, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	p.Status = model.PatternStatus(status)
	p.Criteria.MerchantMatchMode = model.MerchantMatchMode(matchMode)
	p.Criteria.Frequency = model.Frequency(frequency)
	p.Criteria.TemporalType = model.TemporalPatternType(temporalType)
	p.Category = model.PatternCategory(category)
	p.FirstOccurrence = model.TimeFromMillis(firstMillis)
	p.LastOccurrence = model.TimeFromMillis(lastMillis)
	p.ReviewedBy = reviewedBy.String
	p.SuggestedCategoryID = suggestedCategoryID.String
	if reviewedAt.Valid {
		t := reviewedAt.Time
		p.ReviewedAt = &t
	}

	var err error
	if p.Criteria.AmountMean, err = decimal.NewFromString(amountMean); err != nil {
		return nil, fmt.Errorf("corrupt amount mean for pattern %s: %w", p.ID, err)
	}
	if p.Criteria.AmountStdDev, err = decimal.NewFromString(amountStdDev); err != nil {
		return nil, fmt.Errorf("corrupt amount std dev for pattern %s: %w", p.ID, err)
	}
	if p.Criteria.AmountMin, err = decimal.NewFromString(amountMin); err != nil {
		return nil, fmt.Errorf("corrupt amount min for pattern %s: %w", p.ID, err)
	}
	if p.Criteria.AmountMax, err = decimal.NewFromString(amountMax); err != nil {
		return nil, fmt.Errorf("corrupt amount max for pattern %s: %w", p.ID, err)
	}

	if err := unmarshalStrings(excludeTerms, &p.Criteria.ExcludeTerms); err != nil {
		return nil, fmt.Errorf("corrupt exclude terms for pattern %s: %w", p.ID, err)
	}
	if err := unmarshalStrings(matchedIDs, &p.MatchedTransactionIDs); err != nil {
		return nil, fmt.Errorf("corrupt matched transaction ids for pattern %s: %w", p.ID, err)
	}
	if err := unmarshalStrings(candidateExclusions, &p.CandidateExclusions); err != nil {
		return nil, fmt.Errorf("corrupt candidate exclusions for pattern %s: %w", p.ID, err)
	}
	if err := unmarshalStrings(validationErrors, &p.CriteriaValidationErrors); err != nil {
		return nil, fmt.Errorf("corrupt validation errors for pattern %s: %w", p.ID, err)
	}

	return &p, nil
}

func validatePattern(p *model.RecurringPattern) error {
	if p == nil {
		return fmt.Errorf("pattern cannot be nil")
	}
	if p.ID == "" {
		return fmt.Errorf("pattern id cannot be empty")
	}
	if p.UserID == "" {
		return fmt.Errorf("pattern user id cannot be empty")
	}
	return nil
}

func marshalStrings(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func unmarshalStrings(column sql.NullString, dst *[]string) error {
	if !column.Valid || column.String == "" || column.String == "[]" {
		*dst = nil
		return nil
	}
	return json.Unmarshal([]byte(column.String), dst)
}
