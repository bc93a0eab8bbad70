// Package worker holds the AMQP consumers run by the reminder worker.
package worker

import (
	"context"
	"errors"
	"log/slog"

	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/storage"
)

// TransactionGetter loads a single transaction.
type TransactionGetter interface {
	GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
}

// EventHandler reacts to a transaction change.
type EventHandler interface {
	HandleTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error
}

// EventWorker consumes transaction events and fans them out to handlers,
// typically the reminder processor.
type EventWorker struct {
	store    TransactionGetter
	handlers []EventHandler
}

func NewEventWorker(store TransactionGetter, handlers ...EventHandler) *EventWorker {
	return &EventWorker{store: store, handlers: handlers}
}

// HandleTransactionEvent processes one event. Events for transactions that
// no longer exist are acknowledged; a later delete event follows them.
func (w *EventWorker) HandleTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"action", ev.Action,
		"transaction_id", ev.TransactionID,
		"user_id", ev.UserID)

	if ev.Action != amqp.ActionDeleted && w.store != nil {
		t, err := w.store.GetTransaction(ctx, ev.UserID, ev.TransactionID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			slog.WarnContext(ctx, "Transaction from event no longer exists",
				"transaction_id", ev.TransactionID)
			return nil
		case err != nil:
			return err
		case t.IsRecurring != ev.IsRecurring:
			slog.DebugContext(ctx, "Transaction changed since event was published",
				"transaction_id", ev.TransactionID)
		}
	}

	var errs []error
	for _, h := range w.handlers {
		if err := h.HandleTransactionEvent(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
