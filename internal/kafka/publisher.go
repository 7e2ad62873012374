package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/storage"
)

var errShuttingDown = errors.New("publisher shutdown during batch processing")

const defaultLease = 5 * time.Minute

type PublisherConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	// Lease is how long a claimed task may stay PROCESSING before another
	// poll takes it over.
	Lease time.Duration
}

// Publisher relays committed outbox tasks to the producer. A task whose send
// fails is retried on later polls until MaxAttempts is reached.
type Publisher struct {
	db             db.DB
	repo           storage.OutboxTaskRepository
	producer       Producer
	config         PublisherConfig
	logger         *zap.Logger
	timeNow        func() time.Time
	wg             sync.WaitGroup
	shutdownSignal chan struct{}
	stopOnce       sync.Once
}

func NewPublisher(db db.DB, repo storage.OutboxTaskRepository, producer Producer, config PublisherConfig, logger *zap.Logger) *Publisher {
	if config.Lease <= 0 {
		config.Lease = defaultLease
	}
	return &Publisher{
		db:             db,
		repo:           repo,
		producer:       producer,
		config:         config,
		logger:         logger.Named("outbox"),
		timeNow:        time.Now,
		shutdownSignal: make(chan struct{}),
	}
}

func (p *Publisher) Run(ctx context.Context) error {
	p.logger.Info("Starting outbox publisher", zap.Duration("poll_interval", p.config.PollInterval))
	p.wg.Add(1)
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := p.processBatch(ctx); err != nil && !errors.Is(err, errShuttingDown) && ctx.Err() == nil {
				p.logger.Error("failed to process outbox batch", zap.Error(err))
			}
		case <-p.shutdownSignal:
			p.logger.Info("Outbox publisher received shutdown signal, stopping")
			return nil
		case <-ctx.Done():
			p.logger.Info("Outbox publisher context cancelled, stopping")
			return nil
		}
	}
}

func (p *Publisher) Shutdown() {
	p.stopOnce.Do(func() {
		p.logger.Info("Initiating outbox publisher shutdown")
		close(p.shutdownSignal)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			p.logger.Info("Outbox publisher shutdown complete")
		case <-shutdownCtx.Done():
			p.logger.Warn("Outbox publisher shutdown timed out")
		}

		if err := p.producer.Close(); err != nil {
			p.logger.Error("failed to close producer", zap.Error(err))
		}
	})
}

// processBatch claims tasks inside one transaction by moving them to
// PROCESSING, then sends them after the claim commits.
func (p *Publisher) processBatch(ctx context.Context) error {
	tx, err := p.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for fetching tasks: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(context.Background())
		}
	}()

	staleBefore := p.timeNow().Add(-p.config.Lease)
	tasks, err := p.repo.GetProcessableTasksTx(ctx, tx, p.config.BatchSize, p.config.MaxAttempts, staleBefore)
	if err != nil {
		return fmt.Errorf("failed to get processable tasks: %w", err)
	}

	for _, task := range tasks {
		err := p.repo.UpdateTaskStatusTx(ctx, tx, task.ID, repository.TaskStatusProcessing, task.Attempts, task.LastError, nil)
		if err != nil {
			return fmt.Errorf("failed to mark task %s as PROCESSING: %w", task.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit claimed tasks: %w", err)
	}
	committed = true

	if len(tasks) == 0 {
		return nil
	}
	p.logger.Debug("fetched outbox tasks", zap.Int("count", len(tasks)))

	for i, task := range tasks {
		select {
		case <-p.shutdownSignal:
			p.release(ctx, tasks[i:])
			return errShuttingDown
		case <-ctx.Done():
			p.release(ctx, tasks[i:])
			return ctx.Err()
		default:
		}

		if err := p.processSingleTask(ctx, task); err != nil {
			p.logger.Error("failed to process task", zap.Stringer("task_id", task.ID), zap.Error(err))
		}
	}
	return nil
}

// release hands claimed but unsent tasks back so the next poll picks them up
// without waiting for the lease. A task that cannot be released is reclaimed
// once its lease expires.
func (p *Publisher) release(ctx context.Context, tasks []*repository.OutboxTask) {
	ctx = context.WithoutCancel(ctx)
	for _, task := range tasks {
		err := p.repo.UpdateTaskStatus(ctx, p.db, task.ID, releasedStatus(task), task.Attempts, task.LastError, nil)
		if err != nil {
			p.logger.Warn("failed to release task, it will be reclaimed after lease",
				zap.Stringer("task_id", task.ID), zap.Duration("lease", p.config.Lease), zap.Error(err))
			continue
		}
		p.logger.Info("released unsent task", zap.Stringer("task_id", task.ID))
	}
}

// releasedStatus is the status a task had before it was claimed. A task taken
// over after an expired lease never recorded it, so it is derived from the
// attempts made so far.
func releasedStatus(task *repository.OutboxTask) repository.TaskStatus {
	if task.Status != repository.TaskStatusProcessing {
		return task.Status
	}
	if task.Attempts == 0 {
		return repository.TaskStatusCreated
	}
	return repository.TaskStatusFailed
}

func (p *Publisher) processSingleTask(ctx context.Context, task *repository.OutboxTask) error {
	logger := p.logger.With(zap.Stringer("task_id", task.ID), zap.Int("attempt", task.Attempts+1))

	err := p.producer.SendMessage(ctx, task.Topic, task.MessageKey(), task.Payload)
	// The outcome is recorded even if ctx is cancelled after the send.
	statusCtx := context.WithoutCancel(ctx)
	if err != nil {
		metrics.OutboxSendsTotal.WithLabelValues("failed").Inc()
		attempts := task.Attempts + 1
		errMsg := err.Error()

		if task.Exhausted(p.config.MaxAttempts) {
			logger.Error("task reached max attempts, giving up", zap.Int("max_attempts", p.config.MaxAttempts), zap.Error(err))
		} else {
			logger.Warn("failed to send task", zap.Error(err))
		}

		if updateErr := p.repo.UpdateTaskStatus(statusCtx, p.db, task.ID, repository.TaskStatusFailed, attempts, &errMsg, nil); updateErr != nil {
			return fmt.Errorf("failed to update task status after send failure: %w", updateErr)
		}
		return err
	}

	metrics.OutboxSendsTotal.WithLabelValues("sent").Inc()
	now := p.timeNow().UTC()
	if err := p.repo.UpdateTaskStatus(statusCtx, p.db, task.ID, repository.TaskStatusDone, task.Attempts+1, nil, &now); err != nil {
		return fmt.Errorf("failed to update task status after successful send: %w", err)
	}
	logger.Debug("task sent")
	return nil
}
