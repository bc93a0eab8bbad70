// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for recurring transaction
// occurrences. Each frequency (daily, weekly, monthly, yearly) has its own
// strategy that computes, in closed form, the first occurrence on or after a
// given day.

package services

import (
	"fmt"

	"tracker/internal/core"
)

// OccurrenceStrategy computes the next occurrence of a rule anchored at anchor.
// Implementations may assume anchor < today and interval >= 1.
type OccurrenceStrategy interface {
	Next(anchor, today core.Date, interval int) core.Date
}

// DailyStrategy steps in whole days.
type DailyStrategy struct{}

func (DailyStrategy) Next(anchor, today core.Date, interval int) core.Date {
	return stepDays(anchor, today, interval)
}

// WeeklyStrategy steps in blocks of seven days.
type WeeklyStrategy struct{}

func (WeeklyStrategy) Next(anchor, today core.Date, interval int) core.Date {
	return stepDays(anchor, today, 7*interval)
}

// MonthlyStrategy steps in calendar months, clamping the day of month.
type MonthlyStrategy struct{}

// Next estimates the step count from whole months elapsed and corrects by one
// step when clamping or a partial month leaves the candidate before today.
func (MonthlyStrategy) Next(anchor, today core.Date, interval int) core.Date {
	elapsed := (today.Year()-anchor.Year())*12 + (today.Month() - anchor.Month())
	steps := elapsed / interval
	candidate := core.AddMonths(anchor, steps*interval)
	if candidate.Before(today) {
		candidate = core.AddMonths(anchor, (steps+1)*interval)
	}
	return candidate
}

// YearlyStrategy steps in calendar years; Feb 29 anchors fall on Feb 28 in
// non-leap years.
type YearlyStrategy struct{}

func (YearlyStrategy) Next(anchor, today core.Date, interval int) core.Date {
	elapsed := today.Year() - anchor.Year()
	steps := elapsed / interval
	candidate := core.AddYears(anchor, steps*interval)
	if candidate.Before(today) {
		candidate = core.AddYears(anchor, (steps+1)*interval)
	}
	return candidate
}

func stepDays(anchor, today core.Date, step int) core.Date {
	days := core.DaysBetween(anchor, today)
	steps := (days + step - 1) / step
	return core.AddDays(anchor, steps*step)
}

// occurrenceStrategies maps frequencies to their strategies. It is read-only
// after init so concurrent lookups need no locking.
var occurrenceStrategies = map[core.Frequency]OccurrenceStrategy{
	core.Daily:   DailyStrategy{},
	core.Weekly:  WeeklyStrategy{},
	core.Monthly: MonthlyStrategy{},
	core.Yearly:  YearlyStrategy{},
}

// GetOccurrenceStrategy returns the strategy for a frequency.
// Returns an error if the frequency is not supported.
func GetOccurrenceStrategy(freq core.Frequency) (OccurrenceStrategy, error) {
	s, ok := occurrenceStrategies[freq]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidFrequency, freq)
	}
	return s, nil
}

// NextOccurrence returns the first occurrence on or after today of a rule
// anchored at anchor. The boolean is false for malformed rules: a non-positive
// interval or an unknown frequency.
func NextOccurrence(anchor core.Date, freq core.Frequency, interval int, today core.Date) (core.Date, bool) {
	if interval <= 0 {
		return core.Date{}, false
	}
	strategy, err := GetOccurrenceStrategy(freq)
	if err != nil {
		return core.Date{}, false
	}
	if !anchor.Before(today) {
		return anchor, true
	}
	return strategy.Next(anchor, today, interval), true
}
