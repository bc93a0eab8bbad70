package services

import (
	"context"
	"time"

	"tracker/internal/amqp"
	"tracker/internal/core"
)

// TransactionStore is the persistence the transaction and analytics services
// need. *storage.SQLiteRepository implements it.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) error
	UpdateTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id string) error
	GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	ListTransactions(ctx context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, error)
	TransactionsInRange(ctx context.Context, userID string, rng core.PeriodRange) ([]core.Transaction, error)
	NotificationCandidates(ctx context.Context, userID string, from, to time.Time) ([]core.Transaction, error)
	UserIDs(ctx context.Context) ([]string, error)
}

type CategoryStore interface {
	ListCategories(ctx context.Context, userID string) ([]core.Category, error)
	GetCategory(ctx context.Context, userID, id string) (core.Category, error)
	CreateCategory(ctx context.Context, c core.Category) error
	DeleteCategory(ctx context.Context, userID, id string) error
}

type SettingsStore interface {
	GetSettings(ctx context.Context, userID string) (core.Settings, error)
	UpsertSettings(ctx context.Context, s core.Settings) error
}

// EventPublisher sends transaction change events. *amqp.Client implements it.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error
}

// NotificationPublisher sends due reminders. *amqp.Client implements it.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, msg *amqp.NotificationMessage) error
}
