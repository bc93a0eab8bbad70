package services

import (
	"errors"
	"fmt"
	"sort"

	"tracker/internal/core"
)

// MaxLookaheadDays bounds the notification window accepted from callers.
const MaxLookaheadDays = 60

var ErrLookaheadOutOfRange = errors.New("lookahead days out of range")

// ValidateLookahead checks a requested window against limit (MaxLookaheadDays
// when limit <= 0).
func ValidateLookahead(days, limit int) error {
	if limit <= 0 {
		limit = MaxLookaheadDays
	}
	if days < 0 || days > limit {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrLookaheadOutOfRange, days, limit)
	}
	return nil
}

// NotificationScan is the result of scanning transactions for due reminders.
type NotificationScan struct {
	Notifications []core.Notification
	// Skipped counts recurring transactions whose rule was malformed: missing,
	// empty frequency, non-positive interval or unknown frequency.
	Skipped int
}

// BuildNotifications returns reminders for every transaction due between today
// and today+lookaheadDays inclusive, closest first. Malformed recurring rules
// are left out.
func BuildNotifications(txns []core.Transaction, lookaheadDays int, today core.Date) []core.Notification {
	return ScanNotifications(txns, lookaheadDays, today).Notifications
}

// ScanNotifications is BuildNotifications that also reports how many
// recurring transactions were dropped for having a malformed rule.
func ScanNotifications(txns []core.Transaction, lookaheadDays int, today core.Date) NotificationScan {
	latest := core.AddDays(today, lookaheadDays)
	var scan NotificationScan

	for _, txn := range txns {
		due, err := dueDate(txn, today)
		if err != nil {
			if errors.Is(err, errMalformedRule) {
				scan.Skipped++
			}
			continue
		}
		if due.After(latest) {
			continue
		}
		scan.Notifications = append(scan.Notifications, newNotification(txn, due, today))
	}

	sort.SliceStable(scan.Notifications, func(i, j int) bool {
		a, b := scan.Notifications[i], scan.Notifications[j]
		if !a.DueDate.Equal(b.DueDate.Time) {
			return a.DueDate.Before(b.DueDate)
		}
		return a.TransactionID < b.TransactionID
	})
	return scan
}

var (
	errMalformedRule = errors.New("malformed recurrence rule")
	errNotDue        = errors.New("no occurrence in window")
)

// dueDate returns the day a transaction is next due on or after today,
// ignoring the upper bound of the window.
func dueDate(txn core.Transaction, today core.Date) (core.Date, error) {
	if txn.Date.IsZero() {
		return core.Date{}, errNotDue
	}
	anchor := txn.Anchor()

	if !txn.IsRecurring {
		if anchor.Before(today) {
			return core.Date{}, errNotDue
		}
		return anchor, nil
	}

	rule := txn.Recurrence
	if rule == nil || rule.Frequency == "" {
		return core.Date{}, errMalformedRule
	}
	next, ok := NextOccurrence(anchor, rule.Frequency, rule.Interval, today)
	if !ok {
		return core.Date{}, errMalformedRule
	}
	if rule.EndDate != nil && next.After(*rule.EndDate) {
		return core.Date{}, errNotDue
	}
	return next, nil
}

func newNotification(txn core.Transaction, due, today core.Date) core.Notification {
	return core.Notification{
		ID:            fmt.Sprintf("%s-%s", txn.ID, due.ISO()),
		TransactionID: txn.ID,
		Message:       notificationMessage(txn, whenText(core.DaysBetween(today, due))),
		Time:          due.Format("02/01/2006"),
		DueDate:       due,
	}
}

func whenText(daysLeft int) string {
	switch daysLeft {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	default:
		return fmt.Sprintf("in %d days", daysLeft)
	}
}

func notificationMessage(txn core.Transaction, when string) string {
	kind := "Upcoming"
	if !txn.IsRecurring {
		kind = "One-off"
	}
	direction := "payment"
	if txn.Type == core.Income {
		direction = "income"
	}
	currency := txn.Currency
	if currency == "" {
		currency = core.DefaultCurrency
	}
	return fmt.Sprintf("%s %s %s: %s %s%s", kind, direction, when, txn.Title(), currency, txn.Amount.String())
}
