package models

import "time"

// Timeframe selects how much simulated performance history accompanies a
// generated portfolio. Values match the labels the form presents.
type Timeframe string

const (
	TimeframeMTD      Timeframe = "MTD"
	TimeframeQTD      Timeframe = "QTD"
	TimeframeYTD      Timeframe = "YTD"
	TimeframeOneYear  Timeframe = "1Y"
	TimeframeFiveYear Timeframe = "5Y"
	TimeframeCustom   Timeframe = "Since Custom Date"
)

// DefaultTimeframeDays is the day count used when a custom timeframe carries
// no start date.
const DefaultTimeframeDays = 365

// ValidTimeframes returns the accepted values in display order.
func ValidTimeframes() []Timeframe {
	return []Timeframe{
		TimeframeMTD,
		TimeframeQTD,
		TimeframeYTD,
		TimeframeOneYear,
		TimeframeFiveYear,
		TimeframeCustom,
	}
}

// IsValid reports whether t is one of the accepted timeframe values.
func (t Timeframe) IsValid() bool {
	switch t {
	case TimeframeMTD, TimeframeQTD, TimeframeYTD, TimeframeOneYear, TimeframeFiveYear, TimeframeCustom:
		return true
	}
	return false
}

// Days resolves the timeframe to a whole-day count against now. The count
// can be zero (MTD on the first of the month) but never negative. customStart
// is only consulted for TimeframeCustom; when nil the resolution falls back
// to DefaultTimeframeDays.
func (t Timeframe) Days(now time.Time, customStart *time.Time) int {
	switch t {
	case TimeframeMTD:
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return daysBetween(monthStart, now)
	case TimeframeQTD:
		quarterMonth := time.Month(3*((int(now.Month())-1)/3) + 1)
		quarterStart := time.Date(now.Year(), quarterMonth, 1, 0, 0, 0, 0, now.Location())
		return daysBetween(quarterStart, now)
	case TimeframeYTD:
		yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		return daysBetween(yearStart, now)
	case TimeframeOneYear:
		return 365
	case TimeframeFiveYear:
		return 5 * 365
	case TimeframeCustom:
		if customStart == nil {
			return DefaultTimeframeDays
		}
		days := daysBetween(*customStart, now)
		if days < 0 {
			return 0
		}
		return days
	default:
		return DefaultTimeframeDays
	}
}

// daysBetween counts whole calendar days from a to b, ignoring clock time.
func daysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
