package recurring

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ledgerloom/ledgerloom/internal/model"
)

// frequencyBands maps mean inter-arrival intervals (in days) onto frequency
// classes. Bands are checked in order and the first containing the mean
// wins; anything outside every band is irregular.
var frequencyBands = []struct {
	freq model.Frequency
	min  float64
	max  float64
}{
	{model.FrequencyDaily, 0.5, 1.5},
	{model.FrequencyWeekly, 5.5, 8.5},
	{model.FrequencyBiWeekly, 12.0, 15.0},
	{model.FrequencySemiMonthly, 15.0, 16.5},
	{model.FrequencyMonthly, 25.0, 35.0},
	{model.FrequencyBiMonthly, 50.0, 70.0},
	{model.FrequencyQuarterly, 80.0, 100.0},
	{model.FrequencySemiAnnually, 170.0, 190.0},
	{model.FrequencyAnnually, 350.0, 380.0},
}

// intervalsDays returns the inter-arrival intervals of sorted dates, in days.
func intervalsDays(dates []time.Time) []float64 {
	if len(dates) < 2 {
		return nil
	}
	intervals := make([]float64, 0, len(dates)-1)
	for i := 1; i < len(dates); i++ {
		intervals = append(intervals, dates[i].Sub(dates[i-1]).Hours()/24)
	}
	return intervals
}

// classifyFrequency classifies the mean inter-arrival interval into a
// frequency band.
func classifyFrequency(intervals []float64) (model.Frequency, float64) {
	if len(intervals) == 0 {
		return model.FrequencyIrregular, 0
	}
	mean := stat.Mean(intervals, nil)
	for _, band := range frequencyBands {
		if mean >= band.min && mean <= band.max {
			return band.freq, mean
		}
	}
	return model.FrequencyIrregular, mean
}

// intervalRegularity scores how evenly spaced the occurrences are, in [0,1].
// A coefficient of variation of zero is perfectly regular.
func intervalRegularity(intervals []float64) float64 {
	if len(intervals) < 2 {
		return 0.5
	}
	mean := stat.Mean(intervals, nil)
	if mean <= 0 {
		return 0
	}
	cv := stat.StdDev(intervals, nil) / mean
	return clamp01(1 - cv)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
