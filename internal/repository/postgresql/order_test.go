package postgresql_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	mock_database "gitlab.ozon.dev/pupkingeorgij/rentwear/internal/db/mocks"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/repository/postgresql"
)

func TestOrderRepo_ExistsForProductTx(t *testing.T) {
	ctx := context.Background()

	t.Run("status filtered", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockTx := mock_database.NewMockTx(ctrl)
		repo := postgresql.NewOrderRepo(mock_database.NewMockDB(ctrl))
		statuses := []string{"pending", "shipped"}

		mockTx.EXPECT().Get(ctx, gomock.Any(), gomock.Any(), "product-1", statuses).
			DoAndReturn(func(_ context.Context, dest *bool, query string, _ ...interface{}) error {
				assert.Contains(t, query, "status = ANY($2)")
				*dest = true
				return nil
			})

		exists, err := repo.ExistsForProductTx(ctx, mockTx, "product-1", statuses)
		assert.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("any status", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockTx := mock_database.NewMockTx(ctrl)
		repo := postgresql.NewOrderRepo(mock_database.NewMockDB(ctrl))

		mockTx.EXPECT().Get(ctx, gomock.Any(), gomock.Any(), "product-1").
			DoAndReturn(func(_ context.Context, dest *bool, query string, _ string) error {
				assert.NotContains(t, query, "status")
				*dest = false
				return nil
			})

		exists, err := repo.ExistsForProductTx(ctx, mockTx, "product-1", nil)
		assert.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("database error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockTx := mock_database.NewMockTx(ctrl)
		repo := postgresql.NewOrderRepo(mock_database.NewMockDB(ctrl))

		dbErr := errors.New("connection reset")
		mockTx.EXPECT().Get(ctx, gomock.Any(), gomock.Any(), "product-1").Return(dbErr)

		_, err := repo.ExistsForProductTx(ctx, mockTx, "product-1", nil)
		assert.ErrorIs(t, err, dbErr)
	})
}
