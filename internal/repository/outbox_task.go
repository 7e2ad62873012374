package repository

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the delivery state of an outbox task.
type TaskStatus string

const (
	TaskStatusCreated    TaskStatus = "CREATED"
	TaskStatusProcessing TaskStatus = "PROCESSING"
	TaskStatusFailed     TaskStatus = "FAILED"
	TaskStatusDone       TaskStatus = "DONE"
)

// OutboxTask is a broker message stored in the same transaction as the
// listing change it announces.
type OutboxTask struct {
	ID          uuid.UUID       `db:"id"`
	Topic       string          `db:"topic"`
	Key         string          `db:"message_key"`
	Payload     json.RawMessage `db:"payload"`
	Status      TaskStatus      `db:"status"`
	Attempts    int             `db:"attempts"`
	LastError   *string         `db:"last_error"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
	CompletedAt *time.Time      `db:"completed_at"`
}

// MessageKey keeps messages about one listing on one partition. A task
// without a key is keyed by its own id.
func (t *OutboxTask) MessageKey() []byte {
	if t.Key != "" {
		return []byte(t.Key)
	}
	return []byte(t.ID.String())
}

// Exhausted reports whether a failed send now would use up the last attempt.
func (t *OutboxTask) Exhausted(maxAttempts int) bool {
	return t.Attempts+1 >= maxAttempts
}
