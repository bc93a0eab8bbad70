package services

import (
	"sort"

	"github.com/shopspring/decimal"

	"tracker/internal/core"
)

var hundred = decimal.NewFromInt(100)

// Summarize totals the transactions dated within rng. Totals are rounded to
// cents and Net is computed from the rounded totals so that it always equals
// TotalIncome minus TotalExpenses.
func Summarize(txns []core.Transaction, rng core.PeriodRange) core.AnalyticsSummary {
	income, expenses := core.Zero, core.Zero
	count := 0
	for _, txn := range txns {
		if !rng.Contains(txn.Date) {
			continue
		}
		count++
		if txn.Type == core.Income {
			income = income.Add(txn.Amount)
		} else {
			expenses = expenses.Add(txn.Amount)
		}
	}
	income, expenses = income.Round2(), expenses.Round2()
	return core.AnalyticsSummary{
		TotalIncome:      income,
		TotalExpenses:    expenses,
		Net:              income.Sub(expenses),
		TransactionCount: count,
	}
}

// Breakdown groups the transactions of type typ dated within rng by category,
// largest amount first. Categories missing from lookup keep their id but are
// labelled Uncategorized with the neutral color.
func Breakdown(txns []core.Transaction, typ core.TransactionType, rng core.PeriodRange, lookup map[string]core.Category) []core.CategoryBreakdownEntry {
	totals := make(map[string]decimal.Decimal)
	total := decimal.Zero
	for _, txn := range txns {
		if txn.Type != typ || !rng.Contains(txn.Date) {
			continue
		}
		totals[txn.CategoryID] = totals[txn.CategoryID].Add(txn.Amount.Amount)
		total = total.Add(txn.Amount.Amount)
	}

	entries := make([]core.CategoryBreakdownEntry, 0, len(totals))
	for id, amount := range totals {
		entry := core.CategoryBreakdownEntry{
			CategoryName: core.UncategorizedName,
			Amount:       core.NewMoney(amount).Round2(),
			Color:        core.UncategorizedColor,
		}
		if id != "" {
			id := id
			entry.CategoryID = &id
			if cat, ok := lookup[id]; ok {
				entry.CategoryName = cat.Name
				if cat.Color != "" {
					entry.Color = cat.Color
				}
			}
		}
		if total.IsPositive() {
			entry.Percentage = amount.Div(total).Mul(hundred).RoundBank(2).InexactFloat64()
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if c := a.Amount.Amount.Cmp(b.Amount.Amount); c != 0 {
			return c > 0
		}
		switch {
		case a.CategoryID == nil:
			return false
		case b.CategoryID == nil:
			return true
		default:
			return *a.CategoryID < *b.CategoryID
		}
	})
	return entries
}

// BuildReport assembles the stats and both breakdowns for a resolved period.
func BuildReport(p core.Period, txns []core.Transaction, rng core.PeriodRange, lookup map[string]core.Category) core.AnalyticsReport {
	return core.AnalyticsReport{
		Period:           p,
		Range:            rng,
		Stats:            Summarize(txns, rng),
		ExpenseBreakdown: Breakdown(txns, core.Expense, rng, lookup),
		IncomeBreakdown:  Breakdown(txns, core.Income, rng, lookup),
	}
}
