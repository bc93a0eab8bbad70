package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tracker/internal/core"
)

// SettingsPatch carries the fields a caller wants to change; nil leaves the
// stored value as is.
type SettingsPatch struct {
	DefaultCurrency *string
	Theme           *string
	BudgetAlerts    *bool
	MonthlyBudget   *core.Money
	ScannerAPIKey   *string
}

type SettingsService struct {
	store SettingsStore
	now   func() time.Time
}

func NewSettingsService(store SettingsStore) *SettingsService {
	return &SettingsService{store: store, now: time.Now}
}

// Get returns the user's settings, falling back to defaults.
func (s *SettingsService) Get(ctx context.Context, userID string) (core.Settings, error) {
	return s.store.GetSettings(ctx, userID)
}

func (s *SettingsService) Update(ctx context.Context, userID string, p SettingsPatch) (core.Settings, error) {
	current, err := s.store.GetSettings(ctx, userID)
	if err != nil {
		return core.Settings{}, err
	}

	if p.DefaultCurrency != nil {
		if c := strings.TrimSpace(*p.DefaultCurrency); c != "" {
			current.DefaultCurrency = c
		}
	}
	if p.Theme != nil {
		current.Theme = strings.ToLower(strings.TrimSpace(*p.Theme))
	}
	if p.BudgetAlerts != nil {
		current.BudgetAlerts = *p.BudgetAlerts
	}
	if p.MonthlyBudget != nil {
		b := p.MonthlyBudget.Round2()
		current.MonthlyBudget = &b
	}
	if p.ScannerAPIKey != nil {
		current.ScannerAPIKey = strings.TrimSpace(*p.ScannerAPIKey)
	}
	if err := current.Validate(); err != nil {
		return core.Settings{}, err
	}

	current.UserID = userID
	current.UpdatedAt = s.now().UTC()
	if err := s.store.UpsertSettings(ctx, current); err != nil {
		return core.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	return current, nil
}
