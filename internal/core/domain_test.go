package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseFrequency(t *testing.T) {
	for _, s := range []string{"daily", "weekly", "monthly", "yearly", " Monthly "} {
		if _, err := ParseFrequency(s); err != nil {
			t.Errorf("ParseFrequency(%q) unexpected error %v", s, err)
		}
	}
	for _, s := range []string{"", "biweekly", "hourly"} {
		if _, err := ParseFrequency(s); !errors.Is(err, ErrInvalidFrequency) {
			t.Errorf("ParseFrequency(%q) = %v, want ErrInvalidFrequency", s, err)
		}
	}
}

func TestParsePeriod(t *testing.T) {
	if p, err := ParsePeriod("monthly"); err != nil || p != PeriodMonthly {
		t.Fatalf("ParsePeriod(monthly) = %v, %v", p, err)
	}
	if _, err := ParsePeriod("weekly"); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	if err != nil || d.ISO() != "2024-02-29" {
		t.Fatalf("ParseDate = %v, %v", d, err)
	}
	d, err = ParseDate("2024-06-03T23:30:00+00:00")
	if err != nil || d.ISO() != "2024-06-03" {
		t.Fatalf("ParseDate timestamp = %v, %v", d, err)
	}
	if _, err := ParseDate("03/06/2024"); err == nil {
		t.Fatal("expected error for dd/mm/yyyy")
	}
}

func TestTransactionTitle(t *testing.T) {
	cases := []struct {
		txn  Transaction
		want string
	}{
		{Transaction{MerchantName: "Netflix", Description: "streaming"}, "Netflix"},
		{Transaction{MerchantName: "  ", Description: "rent"}, "rent"},
		{Transaction{}, "Transaction"},
	}
	for _, tc := range cases {
		if got := tc.txn.Title(); got != tc.want {
			t.Errorf("Title() = %q, want %q", got, tc.want)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	date := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	end := NewDate(2024, 12, 31)
	before := NewDate(2024, 1, 1)
	good := Transaction{
		Type:        Expense,
		Amount:      MustParseAmount("9.99"),
		Date:        date,
		IsRecurring: true,
		Recurrence:  &RecurrenceRule{Frequency: Monthly, Interval: 1, EndDate: &end},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"bad type", func(t *Transaction) { t.Type = "transfer" }, ErrInvalidType},
		{"zero amount", func(t *Transaction) { t.Amount = Zero }, ErrInvalidAmount},
		{"zero date", func(t *Transaction) { t.Date = time.Time{} }, ErrZeroDate},
		{"missing rule", func(t *Transaction) { t.Recurrence = nil }, ErrMissingRule},
		{"bad frequency", func(t *Transaction) { t.Recurrence = &RecurrenceRule{Frequency: "hourly", Interval: 1} }, ErrInvalidFrequency},
		{"bad interval", func(t *Transaction) { t.Recurrence = &RecurrenceRule{Frequency: Daily, Interval: 0} }, ErrInvalidInterval},
		{"end before anchor", func(t *Transaction) {
			t.Recurrence = &RecurrenceRule{Frequency: Daily, Interval: 1, EndDate: &before}
		}, ErrEndBeforeStart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := good
			tt.mutate(&txn)
			if err := txn.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCategoryValidate(t *testing.T) {
	good := Category{Name: "Food", Color: "#FFAA00", Type: Expense}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bad := good
	bad.Color = "orange"
	if err := bad.Validate(); !errors.Is(err, ErrInvalidColor) {
		t.Fatalf("expected ErrInvalidColor, got %v", err)
	}
	bad = good
	bad.Name = " "
	if err := bad.Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestSettingsValidate(t *testing.T) {
	s := DefaultSettings("u1")
	if err := s.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	s.Theme = "solarized"
	if err := s.Validate(); !errors.Is(err, ErrInvalidTheme) {
		t.Fatalf("expected ErrInvalidTheme, got %v", err)
	}
}
