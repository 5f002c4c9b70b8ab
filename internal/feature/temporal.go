package feature

import (
	"math"
	"time"
)

// Fixed-date holidays used for the holiday-proximity flag. Thanksgiving is
// approximated by its most common date.
var holidayAnchors = []struct{ month time.Month; day int }{
	{time.January, 1},
	{time.July, 4},
	{time.November, 25},
	{time.December, 25},
}

// encodeTemporal writes the 17-dimension temporal sub-vector: four circular
// sine/cosine pairs (day-of-month, day-of-week, day-of-year, month), eight
// boolean calendar flags, and one position-within-history scalar. Circular
// encoding avoids the discontinuity between e.g. day 31 and day 1.
func encodeTemporal(dst []float64, date time.Time, state *VectorizerState) int {
	daysInMonth := float64(lastDayOfMonth(date))
	dayOfMonth := float64(date.Day() - 1)
	weekday := float64(date.Weekday())
	yearDay := float64(date.YearDay() - 1)
	daysInYear := 365.0
	if isLeapYear(date.Year()) {
		daysInYear = 366.0
	}
	month := float64(date.Month() - 1)

	dst[0] = math.Sin(2 * math.Pi * dayOfMonth / daysInMonth)
	dst[1] = math.Cos(2 * math.Pi * dayOfMonth / daysInMonth)
	dst[2] = math.Sin(2 * math.Pi * weekday / 7)
	dst[3] = math.Cos(2 * math.Pi * weekday / 7)
	dst[4] = math.Sin(2 * math.Pi * yearDay / daysInYear)
	dst[5] = math.Cos(2 * math.Pi * yearDay / daysInYear)
	dst[6] = math.Sin(2 * math.Pi * month / 12)
	dst[7] = math.Cos(2 * math.Pi * month / 12)

	dst[8] = boolFeature(date.Day() <= 3)
	dst[9] = boolFeature(date.Day() >= lastDayOfMonth(date)-2)
	dst[10] = boolFeature(date.Weekday() == time.Saturday || date.Weekday() == time.Sunday)
	dst[11] = boolFeature(date.Weekday() == time.Monday)
	dst[12] = boolFeature(date.Weekday() == time.Friday)
	dst[13] = boolFeature(date.Day() >= 14 && date.Day() <= 16)
	dst[14] = boolFeature(int(date.Month())%3 == 0 && date.Day() >= lastDayOfMonth(date)-2)
	dst[15] = boolFeature(nearHoliday(date, 3))

	dst[16] = historyPosition(date, state)

	return TemporalDims
}

func boolFeature(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}

// historyPosition places the date within the observed batch history as a
// scalar in [0,1].
func historyPosition(date time.Time, state *VectorizerState) float64 {
	span := state.HistoryEnd.Sub(state.HistoryStart)
	if span <= 0 {
		return 0.0
	}
	return float64(date.Sub(state.HistoryStart)) / float64(span)
}

func lastDayOfMonth(date time.Time) int {
	return time.Date(date.Year(), date.Month()+1, 0, 0, 0, 0, 0, date.Location()).Day()
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func nearHoliday(date time.Time, withinDays int) bool {
	for _, h := range holidayAnchors {
		anchor := time.Date(date.Year(), h.month, h.day, 0, 0, 0, 0, date.Location())
		diff := date.Sub(anchor).Hours() / 24
		if math.Abs(diff) <= float64(withinDays) {
			return true
		}
		// A date in late December is also near the following New Year.
		anchor = anchor.AddDate(1, 0, 0)
		diff = date.Sub(anchor).Hours() / 24
		if math.Abs(diff) <= float64(withinDays) {
			return true
		}
	}
	return false
}
