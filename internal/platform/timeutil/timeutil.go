// Package timeutil holds the date and duration arithmetic shared by the
// attendance lifecycle and the pay calculator. Everything here is pure.
package timeutil

import (
	"math"
	"time"
)

const DateLayout = "2006-01-02"

// DayStamp returns the UTC calendar day of t as YYYY-MM-DD.
// It is the attendance partition key and never depends on local time.
func DayStamp(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDay parses a YYYY-MM-DD key as UTC midnight.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// ProjectToLocal shifts t by a fixed offset. The result is still tagged UTC;
// its wall clock reads as local time and is only used for shift comparisons.
func ProjectToLocal(t time.Time, offset time.Duration) time.Time {
	return t.UTC().Add(offset)
}

// StartOfDay truncates a (projected) instant to its wall-clock midnight.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// RoundToStep rounds minutes to the nearest multiple of step.
// Halves round away from zero: 45 -> 60, 44 -> 30 for step 30.
func RoundToStep(minutes float64, step int) float64 {
	if step <= 0 {
		return minutes
	}
	s := float64(step)
	return math.Round(minutes/s) * s
}

// Overlap returns the length of [aStart,aEnd] ∩ [bStart,bEnd], never negative.
func Overlap(aStart, aEnd, bStart, bEnd time.Time) time.Duration {
	start := maxTime(aStart, bStart)
	end := minTime(aEnd, bEnd)
	if d := end.Sub(start); d > 0 {
		return d
	}
	return 0
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// Hours converts a duration to fractional hours.
func Hours(d time.Duration) float64 {
	return d.Hours()
}
