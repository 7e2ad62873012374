package storage

import (
	"context"
	"errors"
	"fmt"

	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/repository"
)

type Mutation string

const (
	MutationUpdate Mutation = "update"
	MutationDelete Mutation = "delete"
)

const (
	ReasonActiveRentals = "Cannot edit product that has active rentals"
	ReasonHasBeenRented = "Cannot delete product that has been rented"
)

// activeRentalStatuses are the order states that block editing a listing.
var activeRentalStatuses = []string{"pending", "confirmed", "shipped", "delivered"}

type Decision struct {
	Permitted bool
	Reason    string
}

// ListingGuard decides whether a listing may be mutated given its orders. It
// runs inside the mutation transaction and locks the listing row, so no
// order can be placed on the listing between the check and the write.
type ListingGuard struct {
	products ProductRepository
	orders   OrderRepository
}

func NewListingGuard(products ProductRepository, orders OrderRepository) *ListingGuard {
	return &ListingGuard{products: products, orders: orders}
}

// AuthorizeUpdate denies while any order is pending, confirmed, shipped or
// delivered.
func (g *ListingGuard) AuthorizeUpdate(ctx context.Context, tx db.Tx, listingID, requesterID string) (Decision, error) {
	return g.authorize(ctx, tx, listingID, requesterID, MutationUpdate)
}

// AuthorizeDelete denies when any order at all references the listing.
func (g *ListingGuard) AuthorizeDelete(ctx context.Context, tx db.Tx, listingID, requesterID string) (Decision, error) {
	return g.authorize(ctx, tx, listingID, requesterID, MutationDelete)
}

func (g *ListingGuard) authorize(ctx context.Context, tx db.Tx, listingID, requesterID string, m Mutation) (Decision, error) {
	ownerID, err := g.products.LockOwnerTx(ctx, tx, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return Decision{}, ErrListingNotFound
		}
		return Decision{}, fmt.Errorf("failed to check product status: %w", err)
	}
	if ownerID != requesterID {
		return Decision{}, ErrNotOwner
	}

	statuses, reason := activeRentalStatuses, ReasonActiveRentals
	if m == MutationDelete {
		statuses, reason = nil, ReasonHasBeenRented
	}

	blocked, err := g.orders.ExistsForProductTx(ctx, tx, listingID, statuses)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to check product status: %w", err)
	}
	if blocked {
		metrics.GuardDenialsTotal.WithLabelValues(string(m)).Inc()
		return Decision{Reason: reason}, nil
	}
	return Decision{Permitted: true}, nil
}
