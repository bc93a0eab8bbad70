package services

import (
	"fmt"
	"time"

	"tracker/internal/core"
)

const (
	minPeriodYear = 2000
	maxPeriodYear = 2100
)

// ValidatePeriodParams checks the optional year/month overrides of an
// analytics query. ResolvePeriod assumes they have been validated.
func ValidatePeriodParams(year, month *int) error {
	if year != nil && (*year < minPeriodYear || *year > maxPeriodYear) {
		return fmt.Errorf("%w: %d", core.ErrInvalidYear, *year)
	}
	if month != nil && (*month < 1 || *month > 12) {
		return fmt.Errorf("%w: %d", core.ErrInvalidMonth, *month)
	}
	return nil
}

// ResolvePeriod maps a period to an inclusive range. End bounds are the last
// instant of the final day. The daily period always means now's day; the
// year/month overrides apply to monthly and yearly only.
func ResolvePeriod(p core.Period, year, month *int, now time.Time) core.PeriodRange {
	now = now.UTC()
	y, m := now.Year(), int(now.Month())
	if year != nil {
		y = *year
	}
	if month != nil {
		m = *month
	}

	switch p {
	case core.PeriodDaily:
		today := core.DateOf(now)
		return core.PeriodRange{Start: core.StartOfDay(today), End: core.EndOfDay(today)}
	case core.PeriodMonthly:
		first := core.NewDate(y, m, 1)
		last := core.NewDate(y, m, core.DaysInMonth(y, time.Month(m)))
		return core.PeriodRange{Start: core.StartOfDay(first), End: core.EndOfDay(last)}
	case core.PeriodYearly:
		return core.PeriodRange{
			Start: core.StartOfDay(core.NewDate(y, 1, 1)),
			End:   core.EndOfDay(core.NewDate(y, 12, 31)),
		}
	default:
		return core.PeriodRange{
			Start: core.StartOfDay(core.NewDate(minPeriodYear, 1, 1)),
			End:   core.EndOfDay(core.NewDate(maxPeriodYear, 12, 31)),
		}
	}
}
