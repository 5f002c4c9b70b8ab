package recurring

import (
	"math"
	"time"

	"github.com/ledgerloom/ledgerloom/internal/model"
	"github.com/ledgerloom/ledgerloom/internal/pattern"
)

// temporalShape is the extracted calendar shape of a cluster.
type temporalShape struct {
	Type          model.TemporalPatternType
	Day           int
	ToleranceDays int
	Consistency   float64 // Fraction of occurrences fitting the shape, in [0,1]
}

const (
	maxDayOfMonthDeviation = 5
	dayOfWeekConsistency   = 0.8
)

// extractTemporal derives the temporal pattern of a cluster's dates. The
// chosen tolerance always covers every observed date, so the emitted
// criteria reproduce the evidence that produced them.
func extractTemporal(dates []time.Time, intervals []float64) temporalShape {
	if shape, ok := workingDayShape(dates); ok {
		return shape
	}

	if shape, ok := dayOfMonthShape(dates); ok {
		return shape
	}

	if shape, ok := dayOfWeekShape(dates); ok {
		return shape
	}

	return flexibleShape(intervals)
}

// workingDayShape matches clusters anchored to the first or last working day
// of the month, common for salaries and rent.
func workingDayShape(dates []time.Time) (temporalShape, bool) {
	firstOK, lastOK := true, true
	for _, d := range dates {
		if absInt(d.Day()-pattern.FirstWorkingDay(d.Year(), d.Month())) > 1 {
			firstOK = false
		}
		if absInt(d.Day()-pattern.LastWorkingDay(d.Year(), d.Month())) > 1 {
			lastOK = false
		}
		if !firstOK && !lastOK {
			return temporalShape{}, false
		}
	}

	shape := temporalShape{Day: modalDayOfMonth(dates), ToleranceDays: 1, Consistency: 1.0}
	if firstOK {
		shape.Type = model.TemporalFirstWorkingDay
		return shape, true
	}
	shape.Type = model.TemporalLastWorkingDay
	return shape, true
}

func dayOfMonthShape(dates []time.Time) (temporalShape, bool) {
	mode := modalDayOfMonth(dates)

	maxDev := 0
	var sumSq float64
	for _, d := range dates {
		dev := circularDist(d.Day(), mode, 31)
		if dev > maxDev {
			maxDev = dev
		}
		sumSq += float64(dev * dev)
	}

	if maxDev > maxDayOfMonthDeviation {
		return temporalShape{}, false
	}

	tol := maxDev
	if tol < 1 {
		tol = 1
	}
	dispersion := math.Sqrt(sumSq / float64(len(dates)))
	return temporalShape{
		Type:          model.TemporalDayOfMonth,
		Day:           mode,
		ToleranceDays: tol,
		Consistency:   clamp01(1 - dispersion/float64(maxDayOfMonthDeviation)),
	}, true
}

func dayOfWeekShape(dates []time.Time) (temporalShape, bool) {
	counts := make([]int, 7)
	for _, d := range dates {
		counts[int(d.Weekday())]++
	}
	mode, best := 0, 0
	for wd, c := range counts {
		if c > best {
			mode, best = wd, c
		}
	}

	consistency := float64(best) / float64(len(dates))
	if consistency <= dayOfWeekConsistency {
		return temporalShape{}, false
	}

	maxDev := 0
	for _, d := range dates {
		if dev := circularDist(int(d.Weekday()), mode, 7); dev > maxDev {
			maxDev = dev
		}
	}
	tol := maxDev
	if tol < 1 {
		tol = 1
	}

	return temporalShape{
		Type:          model.TemporalDayOfWeek,
		Day:           mode,
		ToleranceDays: tol,
		Consistency:   consistency,
	}, true
}

// flexibleShape is the fallback when no calendar anchor fits; it matches any
// date, with a tolerance derived from the interval spread for display only.
func flexibleShape(intervals []float64) temporalShape {
	tol := 3
	if len(intervals) >= 2 {
		var mean, sumSq float64
		for _, v := range intervals {
			mean += v
		}
		mean /= float64(len(intervals))
		for _, v := range intervals {
			sumSq += (v - mean) * (v - mean)
		}
		tol = int(math.Ceil(math.Sqrt(sumSq / float64(len(intervals)))))
		if tol < 1 {
			tol = 1
		}
		if tol > 7 {
			tol = 7
		}
	}
	return temporalShape{
		Type:          model.TemporalFlexible,
		ToleranceDays: tol,
		Consistency:   0.5,
	}
}

func modalDayOfMonth(dates []time.Time) int {
	counts := make(map[int]int)
	for _, d := range dates {
		counts[d.Day()]++
	}
	mode, best := dates[0].Day(), 0
	for day := 1; day <= 31; day++ {
		if counts[day] > best {
			mode, best = day, counts[day]
		}
	}
	return mode
}

func circularDist(a, b, ring int) int {
	d := absInt(a - b)
	if ring-d < d {
		d = ring - d
	}
	return d
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
