// Package recurring discovers recurring charges by clustering engineered
// transaction features and converting each cluster into a declarative,
// re-testable matching rule.
package recurring

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerloom/ledgerloom/internal/cluster"
	"github.com/ledgerloom/ledgerloom/internal/config"
	"github.com/ledgerloom/ledgerloom/internal/feature"
	"github.com/ledgerloom/ledgerloom/internal/model"
)

// ProgressFunc receives phase names and fractional completion in [0,1].
type ProgressFunc func(phase string, fraction float64)

// Detection phase names reported to progress callbacks.
const (
	PhaseFeatureExtraction = "feature extraction"
	PhaseClustering        = "clustering"
	PhaseClusterAnalysis   = "cluster analysis"
)

// Detector turns a user's transaction history into candidate recurring
// patterns. It holds no mutable state across runs and is safe to use
// concurrently for different users.
type Detector struct {
	Progress  ProgressFunc // optional
	extractor *feature.Extractor
	cfg       config.DetectionConfig
}

// NewDetector creates a detector with the given parameters.
func NewDetector(cfg config.DetectionConfig) *Detector {
	return &Detector{
		cfg:       cfg,
		extractor: feature.NewExtractor(),
	}
}

// Detect runs the full unsupervised pipeline: feature extraction, density
// clustering, and per-cluster analysis. Too little history is not an error;
// it yields an empty result. Cancellation is cooperative and checked between
// phases. Given identical input order and parameters the output is
// deterministic.
func (d *Detector) Detect(ctx context.Context, userID string, transactions []model.Transaction, accounts map[string]model.Account) ([]model.RecurringPattern, error) {
	if len(transactions) < d.cfg.MinOccurrences {
		slog.Debug("Not enough transactions for detection",
			"user_id", userID, "count", len(transactions), "min", d.cfg.MinOccurrences)
		return nil, nil
	}

	d.report(PhaseFeatureExtraction, 0)
	features, _, err := d.extractor.Extract(transactions, accounts)
	if err != nil {
		return nil, err
	}
	d.report(PhaseFeatureExtraction, 1)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.report(PhaseClustering, 0)
	labels := cluster.NewDBSCAN(d.cfg.Eps, len(transactions)).Fit(features)
	d.report(PhaseClustering, 1)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clusters := groupByLabel(labels)
	d.report(PhaseClusterAnalysis, 0)

	var patterns []model.RecurringPattern
	for i, label := range sortedLabels(clusters) {
		indices := clusters[label]
		if len(indices) >= d.cfg.MinOccurrences {
			if p := d.analyzeCluster(userID, label, indices, transactions, accounts); p != nil {
				if p.Confidence >= d.cfg.MinConfidence {
					patterns = append(patterns, *p)
				} else {
					slog.Debug("Discarding low-confidence cluster",
						"user_id", userID, "label", label, "confidence", p.Confidence)
				}
			}
		}
		d.report(PhaseClusterAnalysis, float64(i+1)/float64(len(clusters)))
	}

	slog.Info("Detection complete",
		"user_id", userID,
		"transactions", len(transactions),
		"clusters", len(clusters),
		"patterns", len(patterns))
	return patterns, nil
}

// analyzeCluster converts one cluster into a candidate pattern, or nil when
// the cluster has no usable merchant text.
func (d *Detector) analyzeCluster(userID string, label int, indices []int, transactions []model.Transaction, accounts map[string]model.Account) *model.RecurringPattern {
	members := make([]model.Transaction, len(indices))
	for i, idx := range indices {
		members[i] = transactions[idx]
	}
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Date.Before(members[j].Date)
	})

	descriptions := make([]string, len(members))
	ids := make([]string, len(members))
	incomeSum := members[0].Amount
	for i := range members {
		descriptions[i] = members[i].Description
		ids[i] = members[i].ID
		if i > 0 {
			incomeSum = incomeSum.Add(members[i].Amount)
		}
	}

	merchant, ok := extractMerchant(descriptions)
	if !ok {
		slog.Debug("Cluster has no shared merchant text", "user_id", userID, "label", label)
		return nil
	}

	dates := make([]time.Time, len(members))
	for i := range members {
		dates[i] = members[i].Date
	}
	intervals := intervalsDays(dates)
	freq, meanInterval := classifyFrequency(intervals)
	temporal := extractTemporal(dates, intervals)
	amount := extractAmount(members)

	category := inferCategory(descriptions, freq, amount.Mean, incomeSum.IsPositive())
	score := baseConfidence(len(members), intervals, amount, temporal)
	if acct := dominantAccount(members, accounts); acct != nil {
		score = adjustForAccount(score, acct, freq, category, d.cfg.Adjustments)
	}

	now := time.Now().UTC()
	p := &model.RecurringPattern{
		ID:                    uuid.NewString(),
		UserID:                userID,
		Status:                model.PatternStatusDetected,
		Active:                false,
		MatchedTransactionIDs: ids,
		CandidateExclusions:   merchant.CandidateExclusions,
		Confidence:            score,
		TransactionCount:      len(members),
		FirstOccurrence:       dates[0],
		LastOccurrence:        dates[len(dates)-1],
		ClusterLabel:          label,
		Category:              category,
		CreatedAt:             now,
		UpdatedAt:             now,
		Criteria: model.MatchCriteria{
			MerchantPattern:       merchant.Pattern,
			MerchantMatchMode:     merchant.Mode,
			CaseSensitive:         false,
			AmountMean:            amount.Mean,
			AmountStdDev:          amount.StdDev,
			AmountMin:             amount.Min,
			AmountMax:             amount.Max,
			AmountTolerancePct:    amount.TolerancePct,
			Frequency:             freq,
			TemporalType:          temporal.Type,
			TemporalDay:           temporal.Day,
			TemporalToleranceDays: temporal.ToleranceDays,
		},
	}

	slog.Debug("Cluster analyzed",
		"user_id", userID,
		"label", label,
		"merchant", merchant.Pattern,
		"frequency", freq,
		"mean_interval_days", meanInterval,
		"confidence", score)
	return p
}

// dominantAccount returns the account that owns the most cluster members,
// with a deterministic tie-break, or nil without account data.
func dominantAccount(members []model.Transaction, accounts map[string]model.Account) *model.Account {
	if len(accounts) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for i := range members {
		counts[members[i].AccountID]++
	}
	bestID, best := "", 0
	for id, c := range counts {
		if c > best || (c == best && id < bestID) {
			bestID, best = id, c
		}
	}
	acct, ok := accounts[bestID]
	if !ok {
		return nil
	}
	return &acct
}

func groupByLabel(labels []int) map[int][]int {
	clusters := make(map[int][]int)
	for idx, label := range labels {
		if label == cluster.Noise {
			continue
		}
		clusters[label] = append(clusters[label], idx)
	}
	return clusters
}

func sortedLabels(clusters map[int][]int) []int {
	labels := make([]int, 0, len(clusters))
	for label := range clusters {
		labels = append(labels, label)
	}
	sort.Ints(labels)
	return labels
}

func (d *Detector) report(phase string, fraction float64) {
	if d.Progress != nil {
		d.Progress(phase, fraction)
	}
}
