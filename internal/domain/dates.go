package domain

import "time"

// DateOnly normalizes an instant to its UTC calendar date (midnight).
// All stay boundaries are stored in this form.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NightsBetween returns the whole calendar days between two dates.
// Inputs are normalized first, so month and year boundaries are handled by
// real calendar arithmetic.
func NightsBetween(checkIn, checkOut time.Time) int {
	return int(DateOnly(checkOut).Sub(DateOnly(checkIn)).Hours() / 24)
}

// RangesOverlap reports whether the half-open intervals [aIn, aOut) and
// [bIn, bOut) intersect. A stay ending on day D never conflicts with a stay
// starting on day D.
func RangesOverlap(aIn, aOut, bIn, bOut time.Time) bool {
	return aIn.Before(bOut) && bIn.Before(aOut)
}
