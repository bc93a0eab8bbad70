package amqp

import (
	"encoding/json"
	"time"

	"tracker/internal/core"
)

// Transaction event actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// NotificationMessage is a due reminder. ID is stable per occurrence
// (transaction id plus ISO due date) so consumers can deduplicate.
type NotificationMessage struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	TransactionID string    `json:"transaction_id"`
	Message       string    `json:"message"`
	Time          string    `json:"time"`
	DueDate       string    `json:"due_date"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewNotificationMessage wraps a notification for userID.
func NewNotificationMessage(userID string, n core.Notification) *NotificationMessage {
	return &NotificationMessage{
		ID:            n.ID,
		UserID:        userID,
		TransactionID: n.TransactionID,
		Message:       n.Message,
		Time:          n.Time,
		DueDate:       n.DueDate.ISO(),
		Timestamp:     time.Now().UTC(),
	}
}

// TransactionEvent is a lightweight change notice; consumers fetch the
// transaction from the database if they need more than the id.
type TransactionEvent struct {
	Action        string    `json:"action"`
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	IsRecurring   bool      `json:"is_recurring"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionEvent(action string, t core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		Action:        action,
		TransactionID: t.ID,
		UserID:        t.UserID,
		IsRecurring:   t.IsRecurring,
		Timestamp:     time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
