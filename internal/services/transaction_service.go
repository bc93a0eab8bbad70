package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/metrics"
)

// DefaultListLimit applies when a listing does not ask for a page size.
const DefaultListLimit = 100

var ErrUnknownCategory = errors.New("unknown category")

// TransactionPatch carries a partial update. Nil fields are left untouched;
// Recurrence replaces the whole rule when set.
type TransactionPatch struct {
	Type         *core.TransactionType
	Amount       *core.Money
	Currency     *string
	CategoryID   *string
	MerchantName *string
	Description  *string
	Date         *time.Time
	Items        *[]core.TransactionItem
	Tags         *[]string
	ReceiptID    *string
	IsRecurring  *bool
	Recurrence   *core.RecurrenceRule
}

// TransactionService saves transactions locally first and then announces the
// change over AMQP when a publisher is configured.
type TransactionService struct {
	store      TransactionStore
	categories *CategoryService
	publisher  EventPublisher
	currency   string
	now        func() time.Time
}

// NewTransactionService wires the service. publisher may be nil, in which
// case no events are sent.
func NewTransactionService(store TransactionStore, categories *CategoryService, publisher EventPublisher, defaultCurrency string) *TransactionService {
	if defaultCurrency == "" {
		defaultCurrency = core.DefaultCurrency
	}
	return &TransactionService{
		store:      store,
		categories: categories,
		publisher:  publisher,
		currency:   defaultCurrency,
		now:        time.Now,
	}
}

func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	normalize(&t, s.currency)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.resolveCategory(ctx, &t); err != nil {
		return core.Transaction{}, err
	}

	now := s.now().UTC()
	t.ID = uuid.NewString()
	t.CreatedAt = now
	t.UpdatedAt = now

	if err := s.store.CreateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.announce(ctx, amqp.ActionCreated, t)
	return t, nil
}

func (s *TransactionService) Update(ctx context.Context, userID, id string, p TransactionPatch) (core.Transaction, error) {
	t, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}
	categoryChanged := applyPatch(&t, p)
	normalize(&t, s.currency)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if categoryChanged {
		if err := s.resolveCategory(ctx, &t); err != nil {
			return core.Transaction{}, err
		}
	}

	t.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.announce(ctx, amqp.ActionUpdated, t)
	return t, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	t, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	s.announce(ctx, amqp.ActionDeleted, t)
	return nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, userID, id)
}

// List returns the user's transactions newest first, DefaultListLimit at a
// time unless the filter says otherwise.
func (s *TransactionService) List(ctx context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Skip < 0 {
		f.Skip = 0
	}
	return s.store.ListTransactions(ctx, userID, f)
}

func (s *TransactionService) resolveCategory(ctx context.Context, t *core.Transaction) error {
	if t.CategoryID == "" {
		t.CategoryName = ""
		return nil
	}
	if s.categories == nil {
		return nil
	}
	lookup, err := s.categories.Lookup(ctx, t.UserID)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	c, ok := lookup[t.CategoryID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, t.CategoryID)
	}
	t.CategoryName = c.Name
	return nil
}

// announce never fails the caller: the transaction is already stored.
func (s *TransactionService) announce(ctx context.Context, action string, t core.Transaction) {
	metrics.TransactionEvents.WithLabelValues(action).Inc()
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not configured, skipping transaction event",
			"action", action, "id", t.ID)
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(action, t)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"action", action,
			"id", t.ID,
			"user_id", t.UserID,
			"error", err)
	}
}

func normalize(t *core.Transaction, defaultCurrency string) {
	t.Description = strings.TrimSpace(t.Description)
	t.MerchantName = strings.TrimSpace(t.MerchantName)
	t.CategoryID = strings.TrimSpace(t.CategoryID)
	if strings.TrimSpace(t.Currency) == "" {
		t.Currency = defaultCurrency
	}
	t.Amount = t.Amount.Round2()
	t.Date = t.Date.UTC()
	if !t.IsRecurring {
		t.Recurrence = nil
	} else if t.Recurrence != nil && t.Recurrence.Interval == 0 {
		t.Recurrence.Interval = 1
	}
	for i, it := range t.Items {
		if it.TotalPrice.IsZero() {
			t.Items[i].TotalPrice = core.NewMoney(it.Quantity.Amount.Mul(it.UnitPrice.Amount)).Round2()
		}
	}
	tags := t.Tags[:0]
	for _, tag := range t.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	t.Tags = tags
}

// applyPatch reports whether the category id changed.
func applyPatch(t *core.Transaction, p TransactionPatch) bool {
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Currency != nil {
		t.Currency = *p.Currency
	}
	changed := false
	if p.CategoryID != nil && *p.CategoryID != t.CategoryID {
		t.CategoryID = *p.CategoryID
		changed = true
	}
	if p.MerchantName != nil {
		t.MerchantName = *p.MerchantName
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Items != nil {
		t.Items = *p.Items
	}
	if p.Tags != nil {
		t.Tags = *p.Tags
	}
	if p.ReceiptID != nil {
		t.ReceiptID = *p.ReceiptID
	}
	if p.IsRecurring != nil {
		t.IsRecurring = *p.IsRecurring
	}
	if p.Recurrence != nil {
		rule := *p.Recurrence
		t.Recurrence = &rule
	}
	return changed
}
