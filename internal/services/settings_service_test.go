package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"tracker/internal/core"
)

func TestSettingsService_DefaultsAndPatch(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewSettingsService(store)
	svc.now = fixedNow(time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC))

	got, err := svc.Get(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Theme != "dark" || got.DefaultCurrency != "€" || !got.BudgetAlerts {
		t.Errorf("unexpected defaults: %+v", got)
	}

	theme := "Light"
	budget := core.MustParseAmount("1500")
	alerts := false
	updated, err := svc.Update(ctx, "u1", SettingsPatch{Theme: &theme, MonthlyBudget: &budget, BudgetAlerts: &alerts})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Theme != "light" || updated.BudgetAlerts || updated.MonthlyBudget.String() != "1500.00" {
		t.Errorf("patch not applied: %+v", updated)
	}
	if updated.DefaultCurrency != "€" {
		t.Errorf("untouched field changed: %q", updated.DefaultCurrency)
	}
	if !updated.UpdatedAt.Equal(time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("UpdatedAt = %v", updated.UpdatedAt)
	}

	bad := "sepia"
	if _, err := svc.Update(ctx, "u1", SettingsPatch{Theme: &bad}); !errors.Is(err, core.ErrInvalidTheme) {
		t.Errorf("invalid theme error = %v", err)
	}
	stored, _ := svc.Get(ctx, "u1")
	if stored.Theme != "light" {
		t.Errorf("failed update must not be stored, theme = %q", stored.Theme)
	}
}
