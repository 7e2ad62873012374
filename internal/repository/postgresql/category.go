package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"

	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/storage"
)

type CategoryRepo struct {
	db db.DB
}

func NewCategoryRepo(db db.DB) storage.CategoryRepository {
	return &CategoryRepo{db: db}
}

func (r *CategoryRepo) GetAll(ctx context.Context) ([]*repository.Category, error) {
	var categories []*repository.Category
	err := r.db.Select(ctx, &categories, "SELECT id, name, slug FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to get all categories: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepo) GetByName(ctx context.Context, name string) (*repository.Category, error) {
	var category repository.Category
	err := r.db.Get(ctx, &category, "SELECT id, name, slug FROM categories WHERE name = $1", name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &category, nil
}
