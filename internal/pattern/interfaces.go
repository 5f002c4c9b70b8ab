package pattern

import (
	"context"

	"github.com/ledgerloom/ledgerloom/internal/model"
)

// CriteriaValidator re-matches stored criteria against a transaction
// universe and compares with the original cluster membership.
type CriteriaValidator interface {
	Validate(ctx context.Context, p *model.RecurringPattern, all []model.Transaction) (*model.CriteriaValidation, error)
}

// Reviewer applies review actions and enforces lifecycle transitions.
type Reviewer interface {
	Review(ctx context.Context, p *model.RecurringPattern, action model.ReviewAction, all []model.Transaction) (*model.CriteriaValidation, error)
	Activate(p *model.RecurringPattern, reviewerID string) error
	Pause(p *model.RecurringPattern, reviewerID string) error
	Resume(p *model.RecurringPattern, reviewerID string) error
}

// TransactionMatcher finds the active patterns matching one transaction.
type TransactionMatcher interface {
	FindMatchingPatterns(ctx context.Context, txn model.Transaction, patterns []model.RecurringPattern) ([]PatternMatch, error)
}
