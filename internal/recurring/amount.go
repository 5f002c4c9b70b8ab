package recurring

import (
	"math"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/ledgerloom/ledgerloom/internal/model"
)

// amountShape is the extracted amount rule of a cluster.
type amountShape struct {
	Mean         decimal.Decimal
	StdDev       decimal.Decimal
	Min          decimal.Decimal
	Max          decimal.Decimal
	TolerancePct float64
	Regularity   float64 // 1 - coefficient of variation, clamped to [0,1]
}

const (
	toleranceStepPct = 5.0
	minTolerancePct  = 5.0
	maxTolerancePct  = 25.0
)

// extractAmount computes amount statistics over the cluster's absolute
// amounts and derives a tolerance percentage from the coefficient of
// variation, rounded up to the nearest 5% and clamped to [5%, 25%]. The
// tolerance is then widened, if necessary, until it covers every observed
// amount: the emitted criteria must reproduce their own evidence.
func extractAmount(transactions []model.Transaction) amountShape {
	abs := make([]decimal.Decimal, len(transactions))
	values := make([]float64, len(transactions))
	for i := range transactions {
		abs[i] = transactions[i].Amount.Abs()
		values[i] = abs[i].InexactFloat64()
	}

	shape := amountShape{Min: abs[0], Max: abs[0]}
	for _, a := range abs[1:] {
		if a.Cmp(shape.Min) < 0 {
			shape.Min = a
		}
		if a.Cmp(shape.Max) > 0 {
			shape.Max = a
		}
	}

	shape.Mean = decimal.Avg(abs[0], abs[1:]...).Round(4)
	std := stat.StdDev(values, nil)
	if math.IsNaN(std) {
		std = 0
	}
	shape.StdDev = decimal.NewFromFloat(std).Round(4)

	mean := stat.Mean(values, nil)
	cv := 0.0
	if mean > 0 {
		cv = std / mean
	}
	shape.Regularity = clamp01(1 - cv)

	shape.TolerancePct = roundUpToStep(cv*100, toleranceStepPct)
	if shape.TolerancePct < minTolerancePct {
		shape.TolerancePct = minTolerancePct
	}
	if shape.TolerancePct > maxTolerancePct {
		shape.TolerancePct = maxTolerancePct
	}

	// Widen past the cap only when an observed amount would otherwise fall
	// outside its own pattern.
	if mean > 0 {
		maxDevPct := 0.0
		for _, v := range values {
			devPct := math.Abs(v-mean) / mean * 100
			if devPct > maxDevPct {
				maxDevPct = devPct
			}
		}
		if maxDevPct > shape.TolerancePct {
			shape.TolerancePct = roundUpToStep(maxDevPct, toleranceStepPct)
		}
	}

	return shape
}

func roundUpToStep(v, step float64) float64 {
	return math.Ceil(v/step) * step
}
