package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"

	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/storage"
)

const outboxColumns = "id, topic, message_key, payload, status, attempts, last_error, created_at, updated_at, completed_at"

type OutboxTaskRepo struct {
	timeNow func() time.Time
}

func NewOutboxTaskRepo() storage.OutboxTaskRepository {
	return &OutboxTaskRepo{timeNow: time.Now}
}

// CreateTx stores a new task in tx. The id is generated when unset.
func (r *OutboxTaskRepo) CreateTx(ctx context.Context, tx db.Tx, task *repository.OutboxTask) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	now := r.timeNow().UTC()
	task.Status = repository.TaskStatusCreated
	task.Attempts = 0
	task.CreatedAt, task.UpdatedAt = now, now

	_, err := tx.Exec(ctx, `
        INSERT INTO outbox_tasks (id, topic, message_key, payload, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		task.ID, task.Topic, task.Key, task.Payload, task.Status, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox task: %w", err)
	}
	return nil
}

// GetProcessableTasksTx locks up to limit new or retryable tasks for the
// lifetime of tx, skipping rows another publisher already holds. A PROCESSING
// task last touched before staleBefore belongs to a publisher that died or
// stopped mid-batch and is claimable again.
func (r *OutboxTaskRepo) GetProcessableTasksTx(ctx context.Context, tx db.Tx, limit, maxAttempts int, staleBefore time.Time) ([]*repository.OutboxTask, error) {
	query := "SELECT " + outboxColumns + `
        FROM outbox_tasks
        WHERE status = $1
           OR (status = $2 AND attempts < $3)
           OR (status = $5 AND updated_at < $6)
        ORDER BY updated_at ASC
        LIMIT $4
        FOR UPDATE SKIP LOCKED`

	var tasks []*repository.OutboxTask
	err := tx.Select(ctx, &tasks, query,
		repository.TaskStatusCreated, repository.TaskStatusFailed, maxAttempts, limit,
		repository.TaskStatusProcessing, staleBefore.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get processable outbox tasks: %w", err)
	}
	return tasks, nil
}

func (r *OutboxTaskRepo) UpdateTaskStatusTx(ctx context.Context, tx db.Tx, id uuid.UUID, status repository.TaskStatus, attempts int, lastError *string, completedAt *time.Time) error {
	return r.setStatus(ctx, tx.Exec, id, status, attempts, lastError, completedAt)
}

func (r *OutboxTaskRepo) UpdateTaskStatus(ctx context.Context, db db.DB, id uuid.UUID, status repository.TaskStatus, attempts int, lastError *string, completedAt *time.Time) error {
	return r.setStatus(ctx, db.Exec, id, status, attempts, lastError, completedAt)
}

type execFunc func(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)

func (r *OutboxTaskRepo) setStatus(ctx context.Context, exec execFunc, id uuid.UUID, status repository.TaskStatus, attempts int, lastError *string, completedAt *time.Time) error {
	tag, err := exec(ctx, `
        UPDATE outbox_tasks
        SET status = $2, attempts = $3, last_error = $4, completed_at = $5, updated_at = $6
        WHERE id = $1`,
		id, status, attempts, lastError, completedAt, r.timeNow().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to set outbox task %s to %s: %w", id, status, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}
