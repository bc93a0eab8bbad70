package core

import (
	"testing"
	"time"
)

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.February, 29},
		{2023, time.February, 28},
		{1900, time.February, 28},
		{2000, time.February, 29},
		{2024, time.April, 30},
		{2024, time.December, 31},
	}
	for _, tt := range tests {
		if got := DaysInMonth(tt.year, tt.month); got != tt.want {
			t.Errorf("DaysInMonth(%d, %v) = %d, want %d", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name string
		base Date
		n    int
		want Date
	}{
		{"simple", NewDate(2024, 3, 15), 1, NewDate(2024, 4, 15)},
		{"clamp to leap february", NewDate(2024, 1, 31), 1, NewDate(2024, 2, 29)},
		{"clamp to february", NewDate(2023, 1, 31), 1, NewDate(2023, 2, 28)},
		{"clamp to 30 day month", NewDate(2024, 3, 31), 1, NewDate(2024, 4, 30)},
		{"december rollover", NewDate(2024, 12, 15), 1, NewDate(2025, 1, 15)},
		{"multi year", NewDate(2024, 11, 30), 27, NewDate(2027, 2, 28)},
		{"negative", NewDate(2024, 1, 31), -2, NewDate(2023, 11, 30)},
		{"zero", NewDate(2024, 5, 5), 0, NewDate(2024, 5, 5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddMonths(tt.base, tt.n)
			if !got.Equal(tt.want.Time) {
				t.Errorf("AddMonths(%s, %d) = %s, want %s", tt.base.ISO(), tt.n, got.ISO(), tt.want.ISO())
			}
		})
	}
}

func TestAddMonthsNeverOverflows(t *testing.T) {
	base := NewDate(2020, 1, 31)
	for n := 0; n < 60; n++ {
		got := AddMonths(base, n)
		wantMonth := time.Month((n % 12) + 1)
		if time.Month(got.Month()) != wantMonth {
			t.Fatalf("AddMonths(+%d) landed in month %d, want %v", n, got.Month(), wantMonth)
		}
		if got.Day() > DaysInMonth(got.Year(), wantMonth) {
			t.Fatalf("AddMonths(+%d) produced invalid day %d", n, got.Day())
		}
	}
}

func TestAddYears(t *testing.T) {
	tests := []struct {
		name string
		base Date
		n    int
		want Date
	}{
		{"leap day to non-leap", NewDate(2024, 2, 29), 1, NewDate(2025, 2, 28)},
		{"leap day to leap", NewDate(2024, 2, 29), 4, NewDate(2028, 2, 29)},
		{"ordinary", NewDate(2023, 7, 4), 2, NewDate(2025, 7, 4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddYears(tt.base, tt.n)
			if !got.Equal(tt.want.Time) {
				t.Errorf("AddYears(%s, %d) = %s, want %s", tt.base.ISO(), tt.n, got.ISO(), tt.want.ISO())
			}
		})
	}
}

func TestDaysBetween(t *testing.T) {
	if got := DaysBetween(NewDate(2024, 2, 28), NewDate(2024, 3, 1)); got != 2 {
		t.Errorf("DaysBetween across leap day = %d, want 2", got)
	}
	if got := DaysBetween(NewDate(2024, 3, 1), NewDate(2024, 3, 1)); got != 0 {
		t.Errorf("DaysBetween same day = %d, want 0", got)
	}
	if got := DaysBetween(NewDate(1700, 1, 1), NewDate(2024, 6, 20)); got != 118509 {
		t.Errorf("DaysBetween over three centuries = %d, want 118509", got)
	}
	if got := DaysBetween(NewDate(2024, 6, 20), NewDate(1700, 1, 1)); got != -118509 {
		t.Errorf("DaysBetween backwards = %d, want -118509", got)
	}
}

func TestEndOfDay(t *testing.T) {
	got := EndOfDay(NewDate(2024, 2, 29))
	want := time.Date(2024, 2, 29, 23, 59, 59, 999999999, time.UTC)
	if !got.Equal(want) {
		t.Errorf("EndOfDay = %v, want %v", got, want)
	}
	if !got.Add(time.Nanosecond).Equal(NewDate(2024, 3, 1).Time) {
		t.Errorf("EndOfDay + 1ns should be the next midnight")
	}
}
