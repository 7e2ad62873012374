package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"

	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/sizing"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/storage"
)

const productColumns = `
        p.id, p.owner_id, p.category_id, p.title, p.description, p.admin_description,
        p.short_description, p.brand, p.color, p.fabric, p.occasion,
        p.rental_price, p.security_deposit, p.original_price,
        p.bust, p.waist, p.hip, p.shoulder, p.length, p.sleeve_length,
        p.bust_min, p.bust_max, p.waist_min, p.waist_max,
        p.hip_min, p.hip_max, p.length_min, p.length_max,
        p.sleeve_length_min, p.sleeve_length_max, p.shoulder_min, p.shoulder_max,
        p.images, p.condition, p.status, p.is_available, p.total_rentals, p.average_rating,
        p.view_count, p.available_from, p.available_until, p.created_at, p.updated_at,
        o.full_name AS owner_full_name, o.avatar_url AS owner_avatar_url,
        o.city AS owner_city, o.state AS owner_state,
        c.name AS category_name, c.slug AS category_slug`

const productJoins = `
    FROM products p
    LEFT JOIN profiles o ON o.id = p.owner_id
    LEFT JOIN categories c ON c.id = p.category_id`

var catalogOrder = map[string]string{
	"price-low":  "p.rental_price ASC",
	"price-high": "p.rental_price DESC",
	"popular":    "p.total_rentals DESC",
	"rating":     "p.average_rating DESC",
}

type ProductRepo struct {
	db db.DB
}

func NewProductRepo(db db.DB) storage.ProductRepository {
	return &ProductRepo{db: db}
}

// buildCatalogQuery returns the approved, available listings matching filter
// together with the total match count in every row.
func buildCatalogQuery(filter repository.CatalogFilter) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString("SELECT" + productColumns + ",\n        COUNT(*) OVER() AS total_count")
	sb.WriteString(productJoins)
	sb.WriteString("\n    WHERE p.status = 'approved' AND p.is_available = TRUE")

	var args []interface{}
	next := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Category != "" {
		sb.WriteString(" AND c.slug = " + next(filter.Category))
	}
	if filter.Search != "" {
		p := next("%" + filter.Search + "%")
		sb.WriteString(fmt.Sprintf(" AND (p.title ILIKE %s OR p.description ILIKE %s OR p.admin_description ILIKE %s)", p, p, p))
	}
	if filter.MinPrice > 0 {
		sb.WriteString(" AND p.rental_price >= " + next(filter.MinPrice))
	}
	if filter.MaxPrice > 0 {
		sb.WriteString(" AND p.rental_price <= " + next(filter.MaxPrice))
	}

	order, ok := catalogOrder[filter.SortBy]
	if !ok {
		order = "p.created_at DESC"
	}
	sb.WriteString("\n    ORDER BY " + order + ", p.id")

	if filter.Limit > 0 {
		sb.WriteString(" LIMIT " + next(filter.Limit))
		if filter.Offset > 0 {
			sb.WriteString(" OFFSET " + next(filter.Offset))
		}
	}

	return sb.String(), args
}

func (r *ProductRepo) List(ctx context.Context, filter repository.CatalogFilter) ([]*repository.CatalogRow, error) {
	query, args := buildCatalogQuery(filter)

	var rows []*repository.CatalogRow
	if err := r.db.Select(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return rows, nil
}

func (r *ProductRepo) GetByID(ctx context.Context, id string) (*repository.ProductRow, error) {
	var row repository.ProductRow
	err := r.db.Get(ctx, &row, "SELECT"+productColumns+productJoins+"\n    WHERE p.id = $1", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *ProductRepo) GetByIDTx(ctx context.Context, tx db.Tx, id string) (*repository.ProductRow, error) {
	var row repository.ProductRow
	err := tx.Get(ctx, &row, "SELECT"+productColumns+productJoins+"\n    WHERE p.id = $1", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *ProductRepo) GetByOwner(ctx context.Context, ownerID string) ([]*repository.ProductRow, error) {
	var rows []*repository.ProductRow
	err := r.db.Select(ctx, &rows,
		"SELECT"+productColumns+productJoins+"\n    WHERE p.owner_id = $1 ORDER BY p.created_at DESC", ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get products by owner: %w", err)
	}
	return rows, nil
}

func (r *ProductRepo) IncrementViews(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, "UPDATE products SET view_count = view_count + 1 WHERE id = $1", id)
	return err
}

func (r *ProductRepo) CreateTx(ctx context.Context, tx db.Tx, p *repository.Product) error {
	_, err := tx.Exec(ctx, `
        INSERT INTO products (
            id, owner_id, category_id, title, description, short_description,
            brand, color, fabric, occasion, rental_price, security_deposit, original_price,
            sleeve_length, available_from, available_until, images, condition, status, is_available,
            bust_min, bust_max, waist_min, waist_max, hip_min, hip_max,
            length_min, length_max, sleeve_length_min, sleeve_length_max, shoulder_min, shoulder_max,
            created_at, updated_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
            $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34
        )
    `,
		p.ID, p.OwnerID, p.CategoryID, p.Title, p.Description, p.ShortDescription,
		p.Brand, p.Color, p.Fabric, p.Occasion, p.RentalPrice, p.SecurityDeposit, p.OriginalPrice,
		p.SleeveLength, p.AvailableFrom, p.AvailableUntil, p.Images, p.Condition, p.Status, p.IsAvailable,
		p.BustMin, p.BustMax, p.WaistMin, p.WaistMax, p.HipMin, p.HipMax,
		p.LengthMin, p.LengthMax, p.SleeveLengthMin, p.SleeveLengthMax, p.ShoulderMin, p.ShoulderMax,
		p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// LockOwnerTx locks the listing row for the rest of tx and returns its owner.
// Orders referencing the row cannot be inserted until tx ends.
func (r *ProductRepo) LockOwnerTx(ctx context.Context, tx db.Tx, id string) (string, error) {
	var ownerID string
	err := tx.Get(ctx, &ownerID, "SELECT owner_id FROM products WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", repository.ErrObjectNotFound
		}
		return "", err
	}
	return ownerID, nil
}

func buildUpdateQuery(id, ownerID string, c *repository.ProductChanges) (string, []interface{}) {
	args := []interface{}{
		c.Title, c.Description, c.ShortDescription, c.Brand, c.Color, c.Fabric, c.Occasion,
		c.RentalPrice, c.SecurityDeposit, c.OriginalPrice, c.SleeveLength,
		c.AvailableFrom, c.AvailableUntil, c.Images, c.UpdatedAt,
	}
	sets := []string{
		"title = $1", "description = $2", "short_description = $3", "brand = $4", "color = $5",
		"fabric = $6", "occasion = $7", "rental_price = $8", "security_deposit = $9",
		"original_price = $10", "sleeve_length = $11", "available_from = $12",
		"available_until = $13", "images = $14", "updated_at = $15",
	}

	for _, d := range sizing.Dimensions {
		rng, ok := c.Ranges[d]
		if !ok {
			continue
		}
		args = append(args, rng.Min, rng.Max)
		sets = append(sets,
			fmt.Sprintf("%s_min = $%d", d, len(args)-1),
			fmt.Sprintf("%s_max = $%d", d, len(args)),
		)
	}

	args = append(args, id, ownerID)
	query := fmt.Sprintf("UPDATE products SET %s WHERE id = $%d AND owner_id = $%d",
		strings.Join(sets, ", "), len(args)-1, len(args))
	return query, args
}

func (r *ProductRepo) UpdateTx(ctx context.Context, tx db.Tx, id, ownerID string, changes *repository.ProductChanges) error {
	query, args := buildUpdateQuery(id, ownerID, changes)
	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}

func (r *ProductRepo) DeleteTx(ctx context.Context, tx db.Tx, id, ownerID string) error {
	tag, err := tx.Exec(ctx, "DELETE FROM products WHERE id = $1 AND owner_id = $2", id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}
