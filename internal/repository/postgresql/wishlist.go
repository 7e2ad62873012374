package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"

	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/storage"
)

const (
	foreignKeyViolation = "23503"

	wishlistUserFK    = "wishlist_user_id_fkey"
	wishlistProductFK = "wishlist_product_id_fkey"
)

type WishlistRepo struct {
	db db.DB
}

func NewWishlistRepo(db db.DB) storage.WishlistRepository {
	return &WishlistRepo{db: db}
}

func (r *WishlistRepo) ExistsTx(ctx context.Context, tx db.Tx, userID, productID string) (bool, error) {
	var exists bool
	err := tx.Get(ctx, &exists,
		"SELECT EXISTS (SELECT 1 FROM wishlist WHERE user_id = $1 AND product_id = $2)", userID, productID)
	if err != nil {
		return false, fmt.Errorf("failed to check wishlist: %w", err)
	}
	return exists, nil
}

// CreateTx returns repository.ErrObjectNotFound when the product does not
// exist and repository.ErrUnknownUser when the user does not.
func (r *WishlistRepo) CreateTx(ctx context.Context, tx db.Tx, userID, productID string, createdAt time.Time) error {
	_, err := tx.Exec(ctx, `
        INSERT INTO wishlist (user_id, product_id, created_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, product_id) DO NOTHING
    `, userID, productID, createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			switch pgErr.ConstraintName {
			case wishlistProductFK:
				return repository.ErrObjectNotFound
			case wishlistUserFK:
				return repository.ErrUnknownUser
			}
		}
		return err
	}
	return nil
}

func (r *WishlistRepo) DeleteTx(ctx context.Context, tx db.Tx, userID, productID string) error {
	_, err := tx.Exec(ctx, "DELETE FROM wishlist WHERE user_id = $1 AND product_id = $2", userID, productID)
	return err
}

func (r *WishlistRepo) GetByUser(ctx context.Context, userID string) ([]*repository.WishlistRow, error) {
	query := "SELECT w.id AS wishlist_id, w.created_at AS wishlist_created_at," + productColumns + `
    FROM wishlist w
    JOIN products p ON p.id = w.product_id
    LEFT JOIN profiles o ON o.id = p.owner_id
    LEFT JOIN categories c ON c.id = p.category_id
    WHERE w.user_id = $1
    ORDER BY w.created_at DESC`

	var rows []*repository.WishlistRow
	if err := r.db.Select(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get wishlist: %w", err)
	}
	return rows, nil
}
