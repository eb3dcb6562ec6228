package outbox

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

// Notification is one row of the notification outbox. Rows are written to the
// same database as the product mutations and relayed to Kafka out of band, so
// the fulfillment path never blocks on the broker.
type Notification struct {
	ID           int64
	Type         string
	ProductName  string
	LeadTimeDays int
	ExpiredAt    *time.Time
	CreatedAt    time.Time
	Status       Status
	RelayID      string
	RetryCount   int
	LastError    *string
}
