package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/metrics"
)

// ReminderProcessorConfig holds configuration for the reminder processor
type ReminderProcessorConfig struct {
	// Interval is how often all users are swept for due reminders (default: 1h)
	Interval time.Duration

	// LookaheadDays is the notification window of each sweep (default: 3)
	LookaheadDays int
}

func DefaultReminderProcessorConfig() ReminderProcessorConfig {
	return ReminderProcessorConfig{
		Interval:      time.Hour,
		LookaheadDays: 3,
	}
}

// ReminderProcessor periodically builds notifications for every user and
// publishes them. Notification ids already published today are remembered
// so a sweep does not announce the same occurrence twice.
type ReminderProcessor struct {
	store     TransactionStore
	publisher NotificationPublisher
	config    ReminderProcessorConfig
	now       func() time.Time

	sentMu  sync.Mutex
	sentDay core.Date
	sent    map[string]struct{}

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewReminderProcessor(store TransactionStore, publisher NotificationPublisher, config ReminderProcessorConfig) *ReminderProcessor {
	if config.Interval <= 0 {
		config.Interval = DefaultReminderProcessorConfig().Interval
	}
	return &ReminderProcessor{
		store:     store,
		publisher: publisher,
		config:    config,
		now:       time.Now,
		sent:      make(map[string]struct{}),
	}
}

// Start begins the sweep loop. Returns an error if already running.
func (p *ReminderProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("reminder processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Reminder processor started",
		"interval", p.config.Interval,
		"lookahead_days", p.config.LookaheadDays)
	return nil
}

// Stop signals the loop and waits for the current sweep to finish. Calling it
// again, or after the loop ended with its context, is a no-op.
func (p *ReminderProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	stopCh, doneCh := p.stopCh, p.doneCh
	p.stopCh, p.doneCh = nil, nil
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Reminder processor stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Reminder processor stop timed out")
		return ctx.Err()
	}
}

func (p *ReminderProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *ReminderProcessor) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan struct{}) {
	defer close(doneCh)
	defer func() {
		p.mu.Lock()
		if p.doneCh == doneCh {
			p.running = false
			p.stopCh, p.doneCh = nil, nil
		}
		p.mu.Unlock()
	}()

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.sweep(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.sweep(ctx)
		}
	}
}

func (p *ReminderProcessor) sweep(ctx context.Context) {
	if _, err := p.ProcessDue(ctx, p.now()); err != nil {
		slog.ErrorContext(ctx, "Reminder sweep failed", "error", err)
	}
}

// ProcessDue publishes every not-yet-published reminder due within the
// lookahead window of now and returns how many were sent. A failure for one
// user or one message is logged and does not stop the sweep.
func (p *ReminderProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil || p.publisher == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}
	start := time.Now()
	defer func() { metrics.ReminderRunDuration.Observe(time.Since(start).Seconds()) }()

	userIDs, err := p.store.UserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	today := core.DateOf(now.UTC())
	p.resetIfNewDay(today)
	from := core.StartOfDay(today)
	to := core.EndOfDay(core.AddDays(today, p.config.LookaheadDays))

	published := 0
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return published, ctx.Err()
		}
		txns, err := p.store.NotificationCandidates(ctx, userID, from, to)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load notification candidates",
				"user_id", userID, "error", err)
			continue
		}

		scan := ScanNotifications(txns, p.config.LookaheadDays, today)
		if scan.Skipped > 0 {
			metrics.RecurrenceRulesSkipped.Add(float64(scan.Skipped))
			slog.WarnContext(ctx, "Skipped recurring transactions with malformed rules",
				"user_id", userID, "skipped_rules", scan.Skipped)
		}
		metrics.NotificationsBuilt.WithLabelValues(metrics.SourceReminder).Add(float64(len(scan.Notifications)))

		for _, n := range scan.Notifications {
			if p.wasSent(n.ID) {
				continue
			}
			if err := p.publisher.PublishNotification(ctx, amqp.NewNotificationMessage(userID, n)); err != nil {
				metrics.ReminderPublishErrors.Inc()
				slog.ErrorContext(ctx, "Failed to publish reminder",
					"user_id", userID,
					"notification_id", n.ID,
					"error", err)
				continue
			}
			p.markSent(n.ID)
			metrics.RemindersPublished.Inc()
			published++
		}
	}

	slog.InfoContext(ctx, "Reminder sweep complete",
		"users", len(userIDs),
		"published", published,
		"date", today.ISO())
	return published, nil
}

// HandleTransactionEvent forgets what was published for a changed or deleted
// transaction so the next sweep announces its current state.
func (p *ReminderProcessor) HandleTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	if ev.Action == amqp.ActionCreated {
		return nil
	}
	prefix := ev.TransactionID + "-"

	p.sentMu.Lock()
	forgotten := 0
	for id := range p.sent {
		if strings.HasPrefix(id, prefix) {
			delete(p.sent, id)
			forgotten++
		}
	}
	p.sentMu.Unlock()

	if forgotten > 0 {
		slog.DebugContext(ctx, "Forgot published reminders",
			"transaction_id", ev.TransactionID,
			"action", ev.Action,
			"count", forgotten)
	}
	return nil
}

func (p *ReminderProcessor) resetIfNewDay(today core.Date) {
	p.sentMu.Lock()
	defer p.sentMu.Unlock()
	if !p.sentDay.Equal(today.Time) {
		p.sentDay = today
		p.sent = make(map[string]struct{})
	}
}

func (p *ReminderProcessor) wasSent(id string) bool {
	p.sentMu.Lock()
	defer p.sentMu.Unlock()
	_, ok := p.sent[id]
	return ok
}

func (p *ReminderProcessor) markSent(id string) {
	p.sentMu.Lock()
	p.sent[id] = struct{}{}
	p.sentMu.Unlock()
}
