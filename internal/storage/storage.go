package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/sizing"
)

// CategoryCache is consulted before the category repository when resolving
// a category name.
type CategoryCache interface {
	Get(name string) (*repository.Category, bool)
	Set(category *repository.Category)
}

type Repositories struct {
	Products   ProductRepository
	Orders     OrderRepository
	Categories CategoryRepository
	Wishlist   WishlistRepository
	Reviews    ReviewRepository
	Outbox     OutboxTaskRepository
}

type Storage struct {
	db           db.DB
	productRepo  ProductRepository
	categoryRepo CategoryRepository
	wishlistRepo WishlistRepository
	reviewRepo   ReviewRepository
	outboxRepo   OutboxTaskRepository
	categories   CategoryCache
	guard        *ListingGuard
	topic        string
	logger       *zap.Logger
	timeNow      func() time.Time
}

func NewStorage(database db.DB, repos Repositories, categories CategoryCache, topic string, logger *zap.Logger) *Storage {
	return &Storage{
		db:           database,
		productRepo:  repos.Products,
		categoryRepo: repos.Categories,
		wishlistRepo: repos.Wishlist,
		reviewRepo:   repos.Reviews,
		outboxRepo:   repos.Outbox,
		categories:   categories,
		guard:        NewListingGuard(repos.Products, repos.Orders),
		topic:        topic,
		logger:       logger,
		timeNow:      time.Now,
	}
}

func (s *Storage) inTx(ctx context.Context, fn func(tx db.Tx) error) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			s.logger.Warn("failed to rollback transaction", zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Storage) GetProducts(ctx context.Context, filter CatalogFilter) (ProductPage, error) {
	rows, err := s.productRepo.List(ctx, repository.CatalogFilter{
		Category: filter.Category,
		Search:   strings.TrimSpace(filter.Search),
		MinPrice: filter.MinPrice,
		MaxPrice: filter.MaxPrice,
		SortBy:   filter.SortBy,
		Limit:    max(filter.Limit, 0),
		Offset:   max(filter.Offset, 0),
	})
	if err != nil {
		return ProductPage{Products: []Product{}}, fmt.Errorf("failed to get products: %w", err)
	}

	page := ProductPage{Products: make([]Product, len(rows))}
	for i, row := range rows {
		page.Products[i] = toProduct(&row.ProductRow)
	}
	if len(rows) > 0 {
		page.Count = rows[0].TotalCount
	}
	return page, nil
}

// GetProductByID also counts the view. A failed view count is logged and
// does not fail the read.
func (s *Storage) GetProductByID(ctx context.Context, id string) (*ProductDetail, error) {
	row, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	reviews, err := s.reviewRepo.GetByProductID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product reviews: %w", err)
	}

	if err := s.productRepo.IncrementViews(ctx, id); err != nil {
		s.logger.Warn("failed to increment product views", zap.String("product_id", id), zap.Error(err))
	}

	detail := &ProductDetail{
		Product: toProduct(row),
		Reviews: make([]Review, len(reviews)),
	}
	for i, r := range reviews {
		detail.Reviews[i] = toReview(r)
	}
	return detail, nil
}

func (s *Storage) GetSizeChart(ctx context.Context, id string) (*SizeChart, error) {
	row, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &SizeChart{
		Sections: sizing.BuildSizeChart(sizeHistory(&row.Product)),
		Note:     sizing.ChartNote,
	}, nil
}

func (s *Storage) CreateProduct(ctx context.Context, userID string, form ProductForm) (*Product, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	fields, err := form.parse()
	if err != nil {
		return nil, err
	}

	category, err := s.resolveCategory(ctx, form.text("category"))
	if err != nil {
		return nil, err
	}

	now := s.timeNow().UTC()
	product := fields.newProduct(uuid.NewString(), userID, category.ID, now)

	err = s.inTx(ctx, func(tx db.Tx) error {
		if err := s.productRepo.CreateTx(ctx, tx, product); err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}
		return s.enqueueRevalidation(ctx, tx, "product_created", product.ID, PathManageListings)
	})
	if err != nil {
		return nil, err
	}
	metrics.ListingsCreatedTotal.Inc()

	created := toProduct(&repository.ProductRow{
		Product:      *product,
		CategoryName: &category.Name,
		CategorySlug: &category.Slug,
	})
	return &created, nil
}

func (s *Storage) resolveCategory(ctx context.Context, name string) (*repository.Category, error) {
	if category, ok := s.categories.Get(name); ok {
		return category, nil
	}

	invalid := &ValidationError{Field: "category", Message: fmt.Sprintf("Invalid category: %s", name)}
	if name == "" {
		return nil, invalid
	}

	category, err := s.categoryRepo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, invalid
		}
		return nil, fmt.Errorf("failed to look up category: %w", err)
	}
	s.categories.Set(category)
	return category, nil
}

// UpdateProduct writes the editable fields of a listing owned by userID.
// Measurement dimensions absent from the form keep their stored values.
func (s *Storage) UpdateProduct(ctx context.Context, userID, id string, form ProductForm) (*Product, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	fields, err := form.parse()
	if err != nil {
		return nil, err
	}

	var updated *repository.ProductRow
	err = s.inTx(ctx, func(tx db.Tx) error {
		decision, err := s.guard.AuthorizeUpdate(ctx, tx, id, userID)
		if err != nil {
			return err
		}
		if !decision.Permitted {
			return &DenialError{Reason: decision.Reason}
		}

		if err := s.productRepo.UpdateTx(ctx, tx, id, userID, fields.changes(s.timeNow().UTC())); err != nil {
			if errors.Is(err, repository.ErrObjectNotFound) {
				return ErrListingNotFound
			}
			return fmt.Errorf("failed to update product: %w", err)
		}

		updated, err = s.productRepo.GetByIDTx(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("failed to reload product: %w", err)
		}
		return s.enqueueRevalidation(ctx, tx, "product_updated", id, PathProfileListing, ProductPath(id))
	})
	if err != nil {
		return nil, err
	}
	metrics.ListingsUpdatedTotal.Inc()

	product := toProduct(updated)
	return &product, nil
}

func (s *Storage) DeleteProduct(ctx context.Context, userID, id string) error {
	if userID == "" {
		return ErrUnauthorized
	}

	err := s.inTx(ctx, func(tx db.Tx) error {
		decision, err := s.guard.AuthorizeDelete(ctx, tx, id, userID)
		if err != nil {
			return err
		}
		if !decision.Permitted {
			return &DenialError{Reason: decision.Reason}
		}

		if err := s.productRepo.DeleteTx(ctx, tx, id, userID); err != nil {
			if errors.Is(err, repository.ErrObjectNotFound) {
				return ErrListingNotFound
			}
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return s.enqueueRevalidation(ctx, tx, "product_deleted", id, PathManageListings)
	})
	if err != nil {
		return err
	}
	metrics.ListingsDeletedTotal.Inc()
	return nil
}

// ToggleWishlist adds the product to the user's wishlist or removes it and
// reports the resulting state. On failure the state before the call is
// returned with the error.
func (s *Storage) ToggleWishlist(ctx context.Context, userID, productID string) (bool, error) {
	if userID == "" {
		return false, ErrUnauthorized
	}

	var existed bool
	err := s.inTx(ctx, func(tx db.Tx) error {
		var err error
		existed, err = s.wishlistRepo.ExistsTx(ctx, tx, userID, productID)
		if err != nil {
			return err
		}

		if existed {
			if err := s.wishlistRepo.DeleteTx(ctx, tx, userID, productID); err != nil {
				return fmt.Errorf("failed to remove from wishlist: %w", err)
			}
		} else {
			if err := s.wishlistRepo.CreateTx(ctx, tx, userID, productID, s.timeNow().UTC()); err != nil {
				if errors.Is(err, repository.ErrObjectNotFound) {
					return ErrListingNotFound
				}
				if errors.Is(err, repository.ErrUnknownUser) {
					return ErrUnauthorized
				}
				return fmt.Errorf("failed to add to wishlist: %w", err)
			}
		}
		return s.enqueueRevalidation(ctx, tx, "wishlist_toggled", productID, PathWishlist)
	})
	if err != nil {
		return existed, err
	}

	state := "added"
	if existed {
		state = "removed"
	}
	metrics.WishlistTogglesTotal.WithLabelValues(state).Inc()
	return !existed, nil
}

func (s *Storage) GetWishlist(ctx context.Context, userID string) ([]WishlistItem, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	rows, err := s.wishlistRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wishlist: %w", err)
	}

	items := make([]WishlistItem, len(rows))
	for i, row := range rows {
		items[i] = WishlistItem{
			ID:        row.WishlistID,
			CreatedAt: row.AddedAt,
			Product:   toProduct(&row.ProductRow),
		}
	}
	return items, nil
}

func (s *Storage) GetUserProducts(ctx context.Context, userID string) ([]Product, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	rows, err := s.productRepo.GetByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user products: %w", err)
	}

	products := make([]Product, len(rows))
	for i, row := range rows {
		products[i] = toProduct(row)
	}
	return products, nil
}
