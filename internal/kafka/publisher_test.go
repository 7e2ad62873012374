package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	mock_db "gitlab.ozon.dev/pupkingeorgij/rentwear/internal/db/mocks"
	mock_kafka "gitlab.ozon.dev/pupkingeorgij/rentwear/internal/kafka/mocks"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/repository"
	mock_storage "gitlab.ozon.dev/pupkingeorgij/rentwear/internal/storage/mocks"
)

type publisherEnv struct {
	publisher *Publisher
	db        *mock_db.MockDB
	tx        *mock_db.MockTx
	repo      *mock_storage.MockOutboxTaskRepository
	producer  *mock_kafka.MockProducer
	now       time.Time
}

func newPublisherEnv(t *testing.T) *publisherEnv {
	ctrl := gomock.NewController(t)
	env := &publisherEnv{
		db:       mock_db.NewMockDB(ctrl),
		tx:       mock_db.NewMockTx(ctrl),
		repo:     mock_storage.NewMockOutboxTaskRepository(ctrl),
		producer: mock_kafka.NewMockProducer(ctrl),
		now:      time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	env.publisher = NewPublisher(env.db, env.repo, env.producer, PublisherConfig{
		PollInterval: 10 * time.Millisecond,
		BatchSize:    10,
		MaxAttempts:  3,
		Lease:        time.Minute,
	}, zap.NewNop())
	env.publisher.timeNow = func() time.Time { return env.now }
	return env
}

func (e *publisherEnv) staleBefore() time.Time {
	return e.now.Add(-time.Minute)
}

func newTask(attempts int) *repository.OutboxTask {
	return &repository.OutboxTask{
		ID:       uuid.New(),
		Status:   repository.TaskStatusCreated,
		Topic:    "page_revalidation",
		Payload:  []byte(`{"paths":["/wishlist"],"reason":"wishlist_toggled"}`),
		Attempts: attempts,
	}
}

func TestPublisher_ProcessBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("sent task is marked done", func(t *testing.T) {
		env := newPublisherEnv(t)
		task := newTask(0)

		gomock.InOrder(
			env.db.EXPECT().BeginTx(ctx).Return(env.tx, nil),
			env.repo.EXPECT().GetProcessableTasksTx(ctx, env.tx, 10, 3, env.staleBefore()).Return([]*repository.OutboxTask{task}, nil),
			env.repo.EXPECT().UpdateTaskStatusTx(ctx, env.tx, task.ID, repository.TaskStatusProcessing, 0, nil, nil).Return(nil),
			env.tx.EXPECT().Commit(ctx).Return(nil),
			env.producer.EXPECT().SendMessage(ctx, "page_revalidation", []byte(task.ID.String()), []byte(task.Payload)).Return(nil),
			env.repo.EXPECT().UpdateTaskStatus(gomock.Any(), env.db, task.ID, repository.TaskStatusDone, 1, nil, &env.now).Return(nil),
		)

		require.NoError(t, env.publisher.processBatch(ctx))
	})

	t.Run("failed send is recorded for retry", func(t *testing.T) {
		env := newPublisherEnv(t)
		task := newTask(1)
		task.Key = "listing-7"

		env.db.EXPECT().BeginTx(ctx).Return(env.tx, nil)
		env.repo.EXPECT().GetProcessableTasksTx(ctx, env.tx, 10, 3, env.staleBefore()).Return([]*repository.OutboxTask{task}, nil)
		env.repo.EXPECT().UpdateTaskStatusTx(ctx, env.tx, task.ID, repository.TaskStatusProcessing, 1, nil, nil).Return(nil)
		env.tx.EXPECT().Commit(ctx).Return(nil)
		env.producer.EXPECT().SendMessage(ctx, "page_revalidation", []byte("listing-7"), gomock.Any()).Return(errors.New("broker unavailable"))
		env.repo.EXPECT().UpdateTaskStatus(gomock.Any(), env.db, task.ID, repository.TaskStatusFailed, 2, gomock.Any(), nil).
			DoAndReturn(func(_ context.Context, _ interface{}, _ uuid.UUID, _ repository.TaskStatus, _ int, lastError *string, _ *time.Time) error {
				require.NotNil(t, lastError)
				assert.Equal(t, "broker unavailable", *lastError)
				return nil
			})

		require.NoError(t, env.publisher.processBatch(ctx))
	})

	t.Run("nothing to send", func(t *testing.T) {
		env := newPublisherEnv(t)

		env.db.EXPECT().BeginTx(ctx).Return(env.tx, nil)
		env.repo.EXPECT().GetProcessableTasksTx(ctx, env.tx, 10, 3, env.staleBefore()).Return(nil, nil)
		env.tx.EXPECT().Commit(ctx).Return(nil)

		require.NoError(t, env.publisher.processBatch(ctx))
	})

	t.Run("fetch failure rolls back", func(t *testing.T) {
		env := newPublisherEnv(t)

		env.db.EXPECT().BeginTx(ctx).Return(env.tx, nil)
		env.repo.EXPECT().GetProcessableTasksTx(ctx, env.tx, 10, 3, env.staleBefore()).Return(nil, errors.New("relation does not exist"))
		env.tx.EXPECT().Rollback(gomock.Any()).Return(nil)

		err := env.publisher.processBatch(ctx)
		assert.ErrorContains(t, err, "failed to get processable tasks")
	})

	t.Run("claim failure sends nothing", func(t *testing.T) {
		env := newPublisherEnv(t)
		task := newTask(0)

		env.db.EXPECT().BeginTx(ctx).Return(env.tx, nil)
		env.repo.EXPECT().GetProcessableTasksTx(ctx, env.tx, 10, 3, env.staleBefore()).Return([]*repository.OutboxTask{task}, nil)
		env.repo.EXPECT().UpdateTaskStatusTx(ctx, env.tx, task.ID, repository.TaskStatusProcessing, 0, nil, nil).
			Return(repository.ErrObjectNotFound)
		env.tx.EXPECT().Rollback(gomock.Any()).Return(nil)

		err := env.publisher.processBatch(ctx)
		assert.ErrorIs(t, err, repository.ErrObjectNotFound)
	})
}

func TestPublisher_ShutdownMidBatchReleasesClaims(t *testing.T) {
	ctx := context.Background()
	env := newPublisherEnv(t)

	fresh := newTask(0)
	retried := newTask(1)
	retried.Status = repository.TaskStatusFailed
	lastErr := "broker unavailable"
	retried.LastError = &lastErr
	orphaned := newTask(0)
	orphaned.Status = repository.TaskStatusProcessing
	tasks := []*repository.OutboxTask{fresh, retried, orphaned}

	env.db.EXPECT().BeginTx(ctx).Return(env.tx, nil)
	env.repo.EXPECT().GetProcessableTasksTx(ctx, env.tx, 10, 3, env.staleBefore()).Return(tasks, nil)
	env.repo.EXPECT().UpdateTaskStatusTx(ctx, env.tx, gomock.Any(), repository.TaskStatusProcessing, gomock.Any(), gomock.Any(), nil).
		DoAndReturn(func(_ context.Context, _ interface{}, id uuid.UUID, _ repository.TaskStatus, _ int, _ *string, _ *time.Time) error {
			if id == orphaned.ID {
				close(env.publisher.shutdownSignal)
			}
			return nil
		}).Times(3)
	env.tx.EXPECT().Commit(ctx).Return(nil)
	env.producer.EXPECT().SendMessage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	env.repo.EXPECT().UpdateTaskStatus(gomock.Any(), env.db, fresh.ID, repository.TaskStatusCreated, 0, nil, nil).Return(nil)
	env.repo.EXPECT().UpdateTaskStatus(gomock.Any(), env.db, retried.ID, repository.TaskStatusFailed, 1, &lastErr, nil).Return(nil)
	env.repo.EXPECT().UpdateTaskStatus(gomock.Any(), env.db, orphaned.ID, repository.TaskStatusCreated, 0, nil, nil).Return(nil)

	err := env.publisher.processBatch(ctx)
	assert.ErrorIs(t, err, errShuttingDown)
}

func TestPublisher_CancelledMidBatchStillRecordsOutcome(t *testing.T) {
	env := newPublisherEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sent := newTask(0)
	pending := newTask(0)

	env.db.EXPECT().BeginTx(ctx).Return(env.tx, nil)
	env.repo.EXPECT().GetProcessableTasksTx(ctx, env.tx, 10, 3, env.staleBefore()).
		Return([]*repository.OutboxTask{sent, pending}, nil)
	env.repo.EXPECT().UpdateTaskStatusTx(ctx, env.tx, gomock.Any(), repository.TaskStatusProcessing, 0, nil, nil).Return(nil).Times(2)
	env.tx.EXPECT().Commit(ctx).Return(nil)
	env.producer.EXPECT().SendMessage(ctx, "page_revalidation", []byte(sent.ID.String()), gomock.Any()).
		DoAndReturn(func(context.Context, string, []byte, []byte) error {
			cancel()
			return nil
		})
	env.repo.EXPECT().UpdateTaskStatus(gomock.Any(), env.db, sent.ID, repository.TaskStatusDone, 1, nil, &env.now).
		DoAndReturn(func(statusCtx context.Context, _ interface{}, _ uuid.UUID, _ repository.TaskStatus, _ int, _ *string, _ *time.Time) error {
			assert.NoError(t, statusCtx.Err())
			return nil
		})
	env.repo.EXPECT().UpdateTaskStatus(gomock.Any(), env.db, pending.ID, repository.TaskStatusCreated, 0, nil, nil).
		DoAndReturn(func(statusCtx context.Context, _ interface{}, _ uuid.UUID, _ repository.TaskStatus, _ int, _ *string, _ *time.Time) error {
			assert.NoError(t, statusCtx.Err())
			return nil
		})

	err := env.publisher.processBatch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPublisher_RunStopsOnCancel(t *testing.T) {
	env := newPublisherEnv(t)

	env.db.EXPECT().BeginTx(gomock.Any()).Return(env.tx, nil).AnyTimes()
	env.repo.EXPECT().GetProcessableTasksTx(gomock.Any(), env.tx, 10, 3, gomock.Any()).Return(nil, nil).AnyTimes()
	env.tx.EXPECT().Commit(gomock.Any()).Return(nil).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.publisher.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("publisher did not stop")
	}
}

func TestPublisher_ShutdownClosesProducer(t *testing.T) {
	env := newPublisherEnv(t)
	env.producer.EXPECT().Close().Return(nil).Times(1)

	env.publisher.Shutdown()
	env.publisher.Shutdown()
}
