package model

// CriteriaValidation is the result of re-matching a pattern's stored criteria
// against a transaction universe and comparing with the original cluster
// membership. It is a pure computation result and is never persisted: the
// transaction universe may have changed between calls.
type CriteriaValidation struct {
	PatternID string

	// MissingIDs are original transaction ids the criteria failed to match.
	MissingIDs []string
	// ExtraIDs are criteria matches outside the original cluster.
	ExtraIDs []string

	Warnings    []string
	Suggestions []string

	OriginalMatchCount int
	CriteriaMatchCount int

	// AllOriginalMatch means every original transaction still matches the
	// criteria (no false negatives). This alone determines IsValid.
	AllOriginalMatch bool
	// NoFalsePositives means the criteria matched nothing outside the
	// original cluster.
	NoFalsePositives bool
	// PerfectMatch means both of the above hold.
	PerfectMatch bool
	IsValid      bool
}
