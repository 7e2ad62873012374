package postgresql_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	mock_database "gitlab.ozon.dev/pupkingeorgij/rentwear/internal/db/mocks"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/repository/postgresql"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/sizing"
)

func TestProductRepo_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("product found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewProductRepo(mockDB)

		name := "Asha"
		expected := &repository.ProductRow{
			Product:       repository.Product{ID: "product-1", OwnerID: "owner-1", Title: "Red lehenga"},
			OwnerFullName: &name,
		}

		mockDB.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq("product-1")).
			DoAndReturn(func(_ context.Context, dest *repository.ProductRow, _ string, _ string) error {
				*dest = *expected
				return nil
			})

		row, err := repo.GetByID(ctx, "product-1")
		assert.NoError(t, err)
		assert.Equal(t, expected, row)
	})

	t.Run("product not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewProductRepo(mockDB)

		mockDB.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(pgx.ErrNoRows)

		row, err := repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, repository.ErrObjectNotFound)
		assert.Nil(t, row)
	})

	t.Run("database error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewProductRepo(mockDB)

		expectedErr := errors.New("database error")
		mockDB.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(expectedErr)

		row, err := repo.GetByID(ctx, "product-1")
		assert.Equal(t, expectedErr, err)
		assert.Nil(t, row)
	})
}

func TestProductRepo_List(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := mock_database.NewMockDB(ctrl)
	repo := postgresql.NewProductRepo(mockDB)

	t.Run("passes filter arguments", func(t *testing.T) {
		mockDB.EXPECT().Select(ctx, gomock.Any(), gomock.Any(), "gowns", 500.0).
			DoAndReturn(func(_ context.Context, dest *[]*repository.CatalogRow, query string, _ ...interface{}) error {
				assert.Contains(t, query, "COUNT(*) OVER()")
				*dest = []*repository.CatalogRow{{TotalCount: 7}}
				return nil
			})

		rows, err := repo.List(ctx, repository.CatalogFilter{Category: "gowns", MaxPrice: 500})
		assert.NoError(t, err)
		assert.Len(t, rows, 1)
		assert.EqualValues(t, 7, rows[0].TotalCount)
	})

	t.Run("database error", func(t *testing.T) {
		mockDB.EXPECT().Select(ctx, gomock.Any(), gomock.Any()).Return(errors.New("boom"))

		_, err := repo.List(ctx, repository.CatalogFilter{})
		assert.ErrorContains(t, err, "failed to list products")
	})
}

func TestProductRepo_LockOwnerTx(t *testing.T) {
	ctx := context.Background()

	t.Run("returns owner", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockTx := mock_database.NewMockTx(ctrl)
		repo := postgresql.NewProductRepo(mock_database.NewMockDB(ctrl))

		mockTx.EXPECT().Get(ctx, gomock.Any(), gomock.Any(), "product-1").
			DoAndReturn(func(_ context.Context, dest *string, query string, _ string) error {
				assert.Contains(t, query, "FOR UPDATE")
				*dest = "owner-1"
				return nil
			})

		owner, err := repo.LockOwnerTx(ctx, mockTx, "product-1")
		assert.NoError(t, err)
		assert.Equal(t, "owner-1", owner)
	})

	t.Run("missing listing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockTx := mock_database.NewMockTx(ctrl)
		repo := postgresql.NewProductRepo(mock_database.NewMockDB(ctrl))

		mockTx.EXPECT().Get(ctx, gomock.Any(), gomock.Any(), "missing").Return(pgx.ErrNoRows)

		_, err := repo.LockOwnerTx(ctx, mockTx, "missing")
		assert.ErrorIs(t, err, repository.ErrObjectNotFound)
	})
}

func TestProductRepo_UpdateTx(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTx := mock_database.NewMockTx(ctrl)
	repo := postgresql.NewProductRepo(mock_database.NewMockDB(ctrl))

	lo, hi := 30.0, 34.0
	changes := &repository.ProductChanges{
		Title:  "Blue gown",
		Ranges: map[sizing.Dimension]sizing.Range{sizing.Bust: {Min: &lo, Max: &hi}},
	}

	t.Run("row updated", func(t *testing.T) {
		mockTx.EXPECT().Exec(ctx, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, query string, args ...interface{}) (pgconn.CommandTag, error) {
				assert.Contains(t, query, "bust_min = $16")
				assert.Contains(t, query, "WHERE id = $18 AND owner_id = $19")
				assert.Equal(t, "product-1", args[17])
				assert.Equal(t, "owner-1", args[18])
				return pgconn.CommandTag("UPDATE 1"), nil
			})

		err := repo.UpdateTx(ctx, mockTx, "product-1", "owner-1", changes)
		assert.NoError(t, err)
	})

	t.Run("no matching row", func(t *testing.T) {
		mockTx.EXPECT().Exec(ctx, gomock.Any(), gomock.Any()).Return(pgconn.CommandTag("UPDATE 0"), nil)

		err := repo.UpdateTx(ctx, mockTx, "product-1", "intruder", changes)
		assert.ErrorIs(t, err, repository.ErrObjectNotFound)
	})
}

func TestProductRepo_DeleteTx(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTx := mock_database.NewMockTx(ctrl)
	repo := postgresql.NewProductRepo(mock_database.NewMockDB(ctrl))

	t.Run("deleted", func(t *testing.T) {
		mockTx.EXPECT().Exec(ctx, gomock.Any(), "product-1", "owner-1").Return(pgconn.CommandTag("DELETE 1"), nil)
		assert.NoError(t, repo.DeleteTx(ctx, mockTx, "product-1", "owner-1"))
	})

	t.Run("no matching row", func(t *testing.T) {
		mockTx.EXPECT().Exec(ctx, gomock.Any(), "product-1", "intruder").Return(pgconn.CommandTag("DELETE 0"), nil)
		assert.ErrorIs(t, repo.DeleteTx(ctx, mockTx, "product-1", "intruder"), repository.ErrObjectNotFound)
	})

	t.Run("database error", func(t *testing.T) {
		expectedErr := errors.New("database error")
		mockTx.EXPECT().Exec(ctx, gomock.Any(), "product-1", "owner-1").Return(nil, expectedErr)
		assert.Equal(t, expectedErr, repo.DeleteTx(ctx, mockTx, "product-1", "owner-1"))
	})
}
