package core

import "time"

// DaysInMonth returns the length of month in year, accounting for leap years.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths moves base by n calendar months (n may be negative). The day of
// month is clamped to the target month's length, so Jan 31 + 1 month is the
// last day of February.
func AddMonths(base Date, n int) Date {
	yearOffset, month0 := floorDivMod(base.Month()-1+n, 12)
	year := base.Year() + yearOffset
	month := time.Month(month0 + 1)
	day := min(base.Day(), DaysInMonth(year, month))
	return NewDate(year, int(month), day)
}

// AddYears moves base by n years; Feb 29 lands on Feb 28 in non-leap years.
func AddYears(base Date, n int) Date {
	year := base.Year() + n
	month := time.Month(base.Month())
	day := min(base.Day(), DaysInMonth(year, month))
	return NewDate(year, int(month), day)
}

func AddDays(base Date, n int) Date {
	return Date{Time: base.Time.AddDate(0, 0, n)}
}

// DaysBetween returns the number of calendar days from a to b. Counted in
// Unix seconds; a time.Duration overflows past roughly 292 years.
func DaysBetween(a, b Date) int {
	return int((b.Unix() - a.Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

// StartOfDay and EndOfDay bound a calendar day inclusively. EndOfDay is the
// last representable instant of the day.
func StartOfDay(d Date) time.Time {
	return d.Time
}

func EndOfDay(d Date) time.Time {
	return time.Date(d.Year(), time.Month(d.Month()), d.Day(), 23, 59, 59, 999999999, time.UTC)
}

func floorDivMod(a, b int) (q, r int) {
	q, r = a/b, a%b
	if r < 0 {
		q--
		r += b
	}
	return q, r
}
