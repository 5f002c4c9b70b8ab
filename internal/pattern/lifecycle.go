package pattern

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledgerloom/ledgerloom/internal/common"
	"github.com/ledgerloom/ledgerloom/internal/model"
)

// Lifecycle applies user review actions to patterns and enforces the legal
// state transitions. Patterns are mutated in place; persistence is the
// caller's concern, with last-writer-wins semantics per pattern id.
type Lifecycle struct {
	validator *Validator
}

// NewLifecycle creates a lifecycle manager backed by the given validator.
func NewLifecycle(validator *Validator) *Lifecycle {
	return &Lifecycle{validator: validator}
}

// Review applies one review action. Edits are re-validated immediately
// against the supplied transaction universe; a reject performs no validation.
func (l *Lifecycle) Review(ctx context.Context, p *model.RecurringPattern, action model.ReviewAction, all []model.Transaction) (*model.CriteriaValidation, error) {
	switch action.Action {
	case model.ReviewReject:
		return nil, l.reject(p, action)
	case model.ReviewConfirm:
		return l.confirm(ctx, p, action, all)
	case model.ReviewEdit:
		return l.edit(ctx, p, action, all)
	default:
		return nil, fmt.Errorf("unknown review action %q", action.Action)
	}
}

func (l *Lifecycle) reject(p *model.RecurringPattern, action model.ReviewAction) error {
	if !p.CanTransitionTo(model.PatternStatusRejected) {
		return &common.InvalidTransitionError{From: string(p.Status), To: string(model.PatternStatusRejected)}
	}
	p.Status = model.PatternStatusRejected
	p.Active = false
	stampReview(p, action.ReviewerID)
	slog.Info("Pattern rejected", "pattern_id", p.ID, "reviewer", action.ReviewerID)
	return nil
}

// confirm validates without modifying criteria. The validation outcome is
// recorded, not enforced, at confirm time; activation is the enforcement
// point.
func (l *Lifecycle) confirm(ctx context.Context, p *model.RecurringPattern, action model.ReviewAction, all []model.Transaction) (*model.CriteriaValidation, error) {
	if !p.CanTransitionTo(model.PatternStatusConfirmed) {
		return nil, &common.InvalidTransitionError{From: string(p.Status), To: string(model.PatternStatusConfirmed)}
	}

	result, err := l.runValidation(ctx, p, all)
	if err != nil {
		return result, err
	}

	p.Status = model.PatternStatusConfirmed
	stampReview(p, action.ReviewerID)

	if action.ActivateImmediately && result.IsValid {
		p.Status = model.PatternStatusActive
		p.Active = true
	}

	slog.Info("Pattern confirmed", "pattern_id", p.ID, "valid", result.IsValid, "active", p.Active)
	return result, nil
}

// edit applies field overrides to the criteria and re-validates. The pattern
// reaches CONFIRMED only when the edited criteria still reproduce the
// original evidence.
func (l *Lifecycle) edit(ctx context.Context, p *model.RecurringPattern, action model.ReviewAction, all []model.Transaction) (*model.CriteriaValidation, error) {
	if p.Status != model.PatternStatusDetected && p.Status != model.PatternStatusConfirmed {
		return nil, &common.InvalidTransitionError{
			From:   string(p.Status),
			To:     string(model.PatternStatusConfirmed),
			Reason: "criteria may only be edited before activation",
		}
	}

	if action.Overrides != nil {
		applyOverrides(&p.Criteria, action.Overrides)
	}

	result, err := l.runValidation(ctx, p, all)
	if err != nil {
		return result, err
	}

	stampReview(p, action.ReviewerID)

	if result.IsValid {
		p.Status = model.PatternStatusConfirmed
		if action.ActivateImmediately {
			p.Status = model.PatternStatusActive
			p.Active = true
		}
	}

	slog.Info("Pattern edited", "pattern_id", p.ID, "valid", result.IsValid, "status", p.Status)
	return result, nil
}

// Activate transitions a confirmed, validated pattern to ACTIVE. It fails
// for any pattern that has not passed criteria validation: no pattern ever
// reaches active without a successful validation run in its history.
func (l *Lifecycle) Activate(p *model.RecurringPattern, reviewerID string) error {
	if p.Status != model.PatternStatusConfirmed {
		return &common.InvalidTransitionError{
			From: string(p.Status),
			To:   string(model.PatternStatusActive),
		}
	}
	if !p.CriteriaValidated {
		return &common.InvalidTransitionError{
			From:   string(p.Status),
			To:     string(model.PatternStatusActive),
			Reason: "criteria have not passed validation",
		}
	}

	p.Status = model.PatternStatusActive
	p.Active = true
	stampReview(p, reviewerID)
	slog.Info("Pattern activated", "pattern_id", p.ID, "reviewer", reviewerID)
	return nil
}

// Pause suspends auto-categorization for an active pattern.
func (l *Lifecycle) Pause(p *model.RecurringPattern, reviewerID string) error {
	if !p.CanTransitionTo(model.PatternStatusPaused) {
		return &common.InvalidTransitionError{From: string(p.Status), To: string(model.PatternStatusPaused)}
	}
	p.Status = model.PatternStatusPaused
	p.Active = false
	stampReview(p, reviewerID)
	return nil
}

// Resume re-activates a paused pattern. Validation is not repeated: criteria
// are unchanged since activation.
func (l *Lifecycle) Resume(p *model.RecurringPattern, reviewerID string) error {
	if p.Status != model.PatternStatusPaused {
		return &common.InvalidTransitionError{From: string(p.Status), To: string(model.PatternStatusActive)}
	}
	p.Status = model.PatternStatusActive
	p.Active = true
	stampReview(p, reviewerID)
	return nil
}

// runValidation invokes the criteria validator and records its outcome on
// the pattern. Inconsistency errors degrade to warnings: the best-effort
// result still stands.
func (l *Lifecycle) runValidation(ctx context.Context, p *model.RecurringPattern, all []model.Transaction) (*model.CriteriaValidation, error) {
	result, err := l.validator.Validate(ctx, p, all)
	if err != nil {
		var inconsistency *common.ValidationInconsistencyError
		if result == nil || !errors.As(err, &inconsistency) {
			return nil, err
		}
		common.LogError(err, "Criteria validation degraded", common.Fields{"pattern_id": p.ID})
	}

	p.CriteriaValidated = result.IsValid
	p.CriteriaValidationErrors = result.Warnings
	return result, nil
}

func stampReview(p *model.RecurringPattern, reviewerID string) {
	now := time.Now().UTC()
	p.ReviewedBy = reviewerID
	p.ReviewedAt = &now
	p.UpdatedAt = now
}

func applyOverrides(c *model.MatchCriteria, o *model.CriteriaOverrides) {
	if o.MerchantPattern != nil {
		c.MerchantPattern = *o.MerchantPattern
	}
	if o.MerchantMatchMode != nil {
		c.MerchantMatchMode = *o.MerchantMatchMode
	}
	if o.ExcludeTerms != nil {
		c.ExcludeTerms = append([]string(nil), (*o.ExcludeTerms)...)
	}
	if o.CaseSensitive != nil {
		c.CaseSensitive = *o.CaseSensitive
	}
	if o.AmountMean != nil {
		c.AmountMean = *o.AmountMean
	}
	if o.AmountTolerancePct != nil {
		c.AmountTolerancePct = *o.AmountTolerancePct
	}
	if o.Frequency != nil {
		c.Frequency = *o.Frequency
	}
	if o.TemporalType != nil {
		c.TemporalType = *o.TemporalType
	}
	if o.TemporalDay != nil {
		c.TemporalDay = *o.TemporalDay
	}
	if o.TemporalToleranceDays != nil {
		c.TemporalToleranceDays = *o.TemporalToleranceDays
	}
}
