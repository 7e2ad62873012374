package postgresql

import (
	"context"
	"fmt"

	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/storage"
)

type OrderRepo struct {
	db db.DB
}

func NewOrderRepo(db db.DB) storage.OrderRepository {
	return &OrderRepo{db: db}
}

// ExistsForProductTx reports whether any order references the product. A
// non-empty statuses restricts the check to orders in those statuses.
func (r *OrderRepo) ExistsForProductTx(ctx context.Context, tx db.Tx, productID string, statuses []string) (bool, error) {
	query := "SELECT EXISTS (SELECT 1 FROM orders WHERE product_id = $1"
	args := []interface{}{productID}

	if len(statuses) > 0 {
		query += " AND status = ANY($2)"
		args = append(args, statuses)
	}
	query += ")"

	var exists bool
	if err := tx.Get(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("failed to check orders for product %s: %w", productID, err)
	}
	return exists, nil
}
