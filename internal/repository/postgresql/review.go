package postgresql

import (
	"context"
	"fmt"

	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/storage"
)

type ReviewRepo struct {
	db db.DB
}

func NewReviewRepo(db db.DB) storage.ReviewRepository {
	return &ReviewRepo{db: db}
}

func (r *ReviewRepo) GetByProductID(ctx context.Context, productID string) ([]*repository.Review, error) {
	query := `
        SELECT r.id, r.product_id, r.user_id, r.rating, r.comment, r.images, r.created_at,
               u.full_name AS user_full_name, u.avatar_url AS user_avatar_url
        FROM reviews r
        LEFT JOIN profiles u ON u.id = r.user_id
        WHERE r.product_id = $1
        ORDER BY r.created_at DESC
    `
	var reviews []*repository.Review
	if err := r.db.Select(ctx, &reviews, query, productID); err != nil {
		return nil, fmt.Errorf("failed to get reviews for product %s: %w", productID, err)
	}
	return reviews, nil
}
