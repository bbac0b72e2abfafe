package planner

import "time"

const isoDate = "2006-01-02"

// DaysInMonth returns the number of days in the given month (UTC).
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// NextDayOfMonth returns the next UTC date on or after reference whose
// day-of-month equals dayOfMonth, clamped to the last valid day of the target
// month (day 31 in April yields April 30). Values outside 1-31 are clamped
// into range rather than rejected. Pure: same inputs, same output.
func NextDayOfMonth(dayOfMonth int, reference time.Time) time.Time {
	if dayOfMonth < 1 {
		dayOfMonth = 1
	}
	if dayOfMonth > 31 {
		dayOfMonth = 31
	}

	ref := reference.UTC()
	year, month, day := ref.Date()
	today := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

	clamped := min(dayOfMonth, DaysInMonth(year, month))
	candidate := time.Date(year, month, clamped, 0, 0, 0, 0, time.UTC)
	if !candidate.Before(today) {
		return candidate
	}

	next := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	nextYear, nextMonth, _ := next.Date()
	nextDay := min(dayOfMonth, DaysInMonth(nextYear, nextMonth))
	return time.Date(nextYear, nextMonth, nextDay, 0, 0, 0, 0, time.UTC)
}

// NextDayOfMonthISO is NextDayOfMonth formatted as YYYY-MM-DD.
func NextDayOfMonthISO(dayOfMonth int, reference time.Time) string {
	return NextDayOfMonth(dayOfMonth, reference).Format(isoDate)
}
