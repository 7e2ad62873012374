package postgresql_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	mock_database "gitlab.ozon.dev/pupkingeorgij/rentwear/internal/db/mocks"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/repository/postgresql"
)

func TestWishlistRepo_CreateTx(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		execErr     error
		expectedErr error
	}{
		{name: "inserted"},
		{
			name:        "unknown product",
			execErr:     &pgconn.PgError{Code: "23503", ConstraintName: "wishlist_product_id_fkey"},
			expectedErr: repository.ErrObjectNotFound,
		},
		{
			name:        "unknown user",
			execErr:     &pgconn.PgError{Code: "23503", ConstraintName: "wishlist_user_id_fkey"},
			expectedErr: repository.ErrUnknownUser,
		},
		{name: "other failure", execErr: errors.New("timeout"), expectedErr: errors.New("timeout")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockTx := mock_database.NewMockTx(ctrl)
			repo := postgresql.NewWishlistRepo(mock_database.NewMockDB(ctrl))

			mockTx.EXPECT().Exec(ctx, gomock.Any(), "user-1", "product-1", now).Return(pgconn.CommandTag("INSERT 0 1"), tc.execErr)

			err := repo.CreateTx(ctx, mockTx, "user-1", "product-1", now)
			assert.Equal(t, tc.expectedErr, err)
		})
	}
}

func TestWishlistRepo_ExistsTx(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTx := mock_database.NewMockTx(ctrl)
	repo := postgresql.NewWishlistRepo(mock_database.NewMockDB(ctrl))

	mockTx.EXPECT().Get(ctx, gomock.Any(), gomock.Any(), "user-1", "product-1").
		DoAndReturn(func(_ context.Context, dest *bool, _ string, _ ...interface{}) error {
			*dest = true
			return nil
		})

	exists, err := repo.ExistsTx(ctx, mockTx, "user-1", "product-1")
	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestWishlistRepo_GetByUser(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := mock_database.NewMockDB(ctrl)
	repo := postgresql.NewWishlistRepo(mockDB)

	mockDB.EXPECT().Select(ctx, gomock.Any(), gomock.Any(), "user-1").Return(errors.New("boom"))

	rows, err := repo.GetByUser(ctx, "user-1")
	assert.ErrorContains(t, err, "failed to get wishlist")
	assert.Nil(t, rows)
}
