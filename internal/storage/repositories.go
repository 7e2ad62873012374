//go:generate mockgen -source ./repositories.go -destination=./mocks/repositories.go -package=mock_storage
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/repository"
)

type ProductRepository interface {
	List(ctx context.Context, filter repository.CatalogFilter) ([]*repository.CatalogRow, error)
	GetByID(ctx context.Context, id string) (*repository.ProductRow, error)
	GetByIDTx(ctx context.Context, tx db.Tx, id string) (*repository.ProductRow, error)
	GetByOwner(ctx context.Context, ownerID string) ([]*repository.ProductRow, error)
	IncrementViews(ctx context.Context, id string) error
	CreateTx(ctx context.Context, tx db.Tx, product *repository.Product) error
	LockOwnerTx(ctx context.Context, tx db.Tx, id string) (string, error)
	UpdateTx(ctx context.Context, tx db.Tx, id, ownerID string, changes *repository.ProductChanges) error
	DeleteTx(ctx context.Context, tx db.Tx, id, ownerID string) error
}

type OrderRepository interface {
	ExistsForProductTx(ctx context.Context, tx db.Tx, productID string, statuses []string) (bool, error)
}

type CategoryRepository interface {
	GetAll(ctx context.Context) ([]*repository.Category, error)
	GetByName(ctx context.Context, name string) (*repository.Category, error)
}

type WishlistRepository interface {
	ExistsTx(ctx context.Context, tx db.Tx, userID, productID string) (bool, error)
	CreateTx(ctx context.Context, tx db.Tx, userID, productID string, createdAt time.Time) error
	DeleteTx(ctx context.Context, tx db.Tx, userID, productID string) error
	GetByUser(ctx context.Context, userID string) ([]*repository.WishlistRow, error)
}

type ReviewRepository interface {
	GetByProductID(ctx context.Context, productID string) ([]*repository.Review, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, email, password, fullName string) (string, error)
	ValidateUser(ctx context.Context, email, password string) (string, error)
}

type OutboxTaskRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, task *repository.OutboxTask) error
	GetProcessableTasksTx(ctx context.Context, tx db.Tx, limit, maxAttempts int, staleBefore time.Time) ([]*repository.OutboxTask, error)
	UpdateTaskStatusTx(ctx context.Context, tx db.Tx, id uuid.UUID, status repository.TaskStatus, attempts int, lastError *string, completedAt *time.Time) error
	UpdateTaskStatus(ctx context.Context, db db.DB, id uuid.UUID, status repository.TaskStatus, attempts int, lastError *string, completedAt *time.Time) error
}
