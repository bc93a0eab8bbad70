package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"tracker/internal/core"
	"tracker/internal/metrics"
)

// AnalyticsService answers the read-side questions: period reports and
// upcoming notifications.
type AnalyticsService struct {
	store      TransactionStore
	categories *CategoryService
	maxDays    int
}

// NewAnalyticsService caps notification windows at maxDays (MaxLookaheadDays
// when maxDays <= 0).
func NewAnalyticsService(store TransactionStore, categories *CategoryService, maxDays int) *AnalyticsService {
	if maxDays <= 0 || maxDays > MaxLookaheadDays {
		maxDays = MaxLookaheadDays
	}
	return &AnalyticsService{store: store, categories: categories, maxDays: maxDays}
}

// Analytics builds the report for period p. year and month override the
// current period for monthly and yearly reports.
func (s *AnalyticsService) Analytics(ctx context.Context, userID string, p core.Period, year, month *int, now time.Time) (core.AnalyticsReport, error) {
	if err := ValidatePeriodParams(year, month); err != nil {
		return core.AnalyticsReport{}, err
	}
	rng := ResolvePeriod(p, year, month, now)

	var (
		txns   []core.Transaction
		lookup map[string]core.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txns, err = s.store.TransactionsInRange(gctx, userID, rng)
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		lookup, err = s.categories.Lookup(gctx, userID)
		if err != nil {
			return fmt.Errorf("load categories: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.AnalyticsReport{}, err
	}

	metrics.AnalyticsRequests.WithLabelValues(string(p)).Inc()
	report := BuildReport(p, txns, rng, lookup)
	slog.DebugContext(ctx, "Analytics computed",
		"user_id", userID,
		"period", p,
		"count", report.Stats.TransactionCount)
	return report, nil
}

// Notifications returns reminders due within days of now for userID.
func (s *AnalyticsService) Notifications(ctx context.Context, userID string, days int, now time.Time) ([]core.Notification, error) {
	if err := ValidateLookahead(days, s.maxDays); err != nil {
		return nil, err
	}
	scan, err := s.scan(ctx, userID, days, now)
	if err != nil {
		return nil, err
	}
	metrics.NotificationsBuilt.WithLabelValues(metrics.SourceAPI).Add(float64(len(scan.Notifications)))
	return scan.Notifications, nil
}

func (s *AnalyticsService) scan(ctx context.Context, userID string, days int, now time.Time) (NotificationScan, error) {
	today := core.DateOf(now.UTC())
	from := core.StartOfDay(today)
	to := core.EndOfDay(core.AddDays(today, days))

	txns, err := s.store.NotificationCandidates(ctx, userID, from, to)
	if err != nil {
		return NotificationScan{}, fmt.Errorf("load notification candidates: %w", err)
	}

	scan := ScanNotifications(txns, days, today)
	if scan.Skipped > 0 {
		metrics.RecurrenceRulesSkipped.Add(float64(scan.Skipped))
		slog.WarnContext(ctx, "Skipped recurring transactions with malformed rules",
			"user_id", userID,
			"skipped_rules", scan.Skipped)
	}
	return scan, nil
}
