package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/repository"
)

const (
	PathManageListings = "/manage-listings"
	PathProfileListing = "/profile/listings"
	PathWishlist       = "/wishlist"
)

func ProductPath(id string) string {
	return "/products/" + id
}

// RevalidationEvent names the pages a committed mutation made stale.
type RevalidationEvent struct {
	Paths      []string  `json:"paths"`
	Reason     string    `json:"reason"`
	ProductID  string    `json:"product_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// enqueueRevalidation stores the event in the outbox within tx, so it is
// published only if the mutation commits.
func (s *Storage) enqueueRevalidation(ctx context.Context, tx db.Tx, reason, productID string, paths ...string) error {
	payload, err := json.Marshal(RevalidationEvent{
		Paths:      paths,
		Reason:     reason,
		ProductID:  productID,
		OccurredAt: s.timeNow().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal revalidation event: %w", err)
	}

	task := &repository.OutboxTask{
		Topic:   s.topic,
		Key:     productID,
		Payload: payload,
	}
	if err := s.outboxRepo.CreateTx(ctx, tx, task); err != nil {
		return fmt.Errorf("failed to enqueue revalidation: %w", err)
	}
	return nil
}
