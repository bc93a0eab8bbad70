package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"tracker/internal/core"
)

func TestAnalyticsService_Analytics(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.cats["food"] = core.Category{ID: "food", UserID: "u1", Name: "Food", Color: "#22C55E", Type: core.Expense}
	store.add(
		core.Transaction{ID: "a", UserID: "u1", Type: core.Income, Amount: core.MustParseAmount("2000"), Date: time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)},
		core.Transaction{ID: "b", UserID: "u1", Type: core.Expense, Amount: core.MustParseAmount("150.25"), CategoryID: "food", Date: time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC)},
		core.Transaction{ID: "c", UserID: "u1", Type: core.Expense, Amount: core.MustParseAmount("99"), Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		core.Transaction{ID: "d", UserID: "u2", Type: core.Expense, Amount: core.MustParseAmount("1"), Date: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)},
	)
	svc := NewAnalyticsService(store, NewCategoryService(store, time.Minute), 0)

	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	report, err := svc.Analytics(ctx, "u1", core.PeriodMonthly, intPtr(2024), intPtr(2), now)
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}

	if report.Stats.TransactionCount != 2 {
		t.Errorf("TransactionCount = %d, want 2", report.Stats.TransactionCount)
	}
	if report.Stats.Net.String() != "1849.75" {
		t.Errorf("Net = %s, want 1849.75", report.Stats.Net)
	}
	if len(report.ExpenseBreakdown) != 1 || report.ExpenseBreakdown[0].CategoryName != "Food" {
		t.Errorf("unexpected expense breakdown: %+v", report.ExpenseBreakdown)
	}
	if len(report.IncomeBreakdown) != 1 || report.IncomeBreakdown[0].CategoryID != nil {
		t.Errorf("income should be one uncategorized bucket: %+v", report.IncomeBreakdown)
	}
}

func TestAnalyticsService_AnalyticsRejectsBadParams(t *testing.T) {
	store := newMemStore()
	svc := NewAnalyticsService(store, NewCategoryService(store, 0), 0)
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	if _, err := svc.Analytics(context.Background(), "u1", core.PeriodMonthly, nil, intPtr(13), now); !errors.Is(err, core.ErrInvalidMonth) {
		t.Errorf("month 13: err = %v", err)
	}
	if _, err := svc.Analytics(context.Background(), "u1", core.PeriodYearly, intPtr(1999), nil, now); !errors.Is(err, core.ErrInvalidYear) {
		t.Errorf("year 1999: err = %v", err)
	}
}

func TestAnalyticsService_AnalyticsStoreError(t *testing.T) {
	store := newMemStore()
	store.failList = errors.New("disk I/O error")
	svc := NewAnalyticsService(store, NewCategoryService(store, 0), 0)

	_, err := svc.Analytics(context.Background(), "u1", core.PeriodAll, nil, nil, time.Now())
	if err == nil {
		t.Fatal("expected store error to propagate")
	}
}

func TestAnalyticsService_Notifications(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	today := core.NewDate(2024, 6, 10)

	rent := recurring("rent", core.NewDate(2024, 5, 12), core.Monthly, 1)
	rent.UserID = "u1"
	rent.MerchantName = "Landlord"
	broken := recurring("broken", core.NewDate(2024, 5, 1), "fortnightly", 1)
	broken.UserID = "u1"
	dinner := oneOff("dinner", core.AddDays(today, 1))
	dinner.UserID = "u1"
	old := oneOff("old", core.AddDays(today, -1))
	old.UserID = "u1"
	store.add(rent, broken, dinner, old)

	svc := NewAnalyticsService(store, NewCategoryService(store, 0), 30)
	now := today.Time.Add(8 * time.Hour)

	got, err := svc.Notifications(ctx, "u1", 3, now)
	if err != nil {
		t.Fatalf("Notifications: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d: %+v", len(got), got)
	}
	if got[0].TransactionID != "dinner" || got[1].TransactionID != "rent" {
		t.Errorf("unexpected order: %s, %s", got[0].TransactionID, got[1].TransactionID)
	}
	if got[1].Message != "Upcoming payment in 2 days: Landlord €10.00" {
		t.Errorf("rent message = %q", got[1].Message)
	}

	if _, err := svc.Notifications(ctx, "u1", 31, now); !errors.Is(err, ErrLookaheadOutOfRange) {
		t.Errorf("days above configured max: err = %v", err)
	}
	if _, err := svc.Notifications(ctx, "u1", -1, now); !errors.Is(err, ErrLookaheadOutOfRange) {
		t.Errorf("negative days: err = %v", err)
	}
}
