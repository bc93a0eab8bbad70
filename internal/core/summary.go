package core

import "time"

// PeriodRange is an inclusive datetime window.
type PeriodRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls within [Start, End].
func (r PeriodRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// AnalyticsSummary holds the totals for a period. Monetary fields are rounded
// to cents and Net is always TotalIncome minus TotalExpenses.
type AnalyticsSummary struct {
	TotalIncome      Money
	TotalExpenses    Money
	Net              Money
	TransactionCount int
}

// CategoryBreakdownEntry is one category's share of a transaction type's total.
type CategoryBreakdownEntry struct {
	CategoryID   *string // nil for the uncategorized bucket
	CategoryName string
	Amount       Money
	Percentage   float64 // 0-100, two decimals
	Color        string
}

// AnalyticsReport is the full analytics answer for a period.
type AnalyticsReport struct {
	Period           Period
	Range            PeriodRange
	Stats            AnalyticsSummary
	ExpenseBreakdown []CategoryBreakdownEntry
	IncomeBreakdown  []CategoryBreakdownEntry
}

// Notification is a reminder for one upcoming occurrence.
type Notification struct {
	ID            string // transaction id + ISO due date
	TransactionID string
	Message       string
	Time          string // dd/mm/yyyy
	DueDate       Date
}
