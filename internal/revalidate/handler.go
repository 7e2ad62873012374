package revalidate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/kafka"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/storage"
)

type Store interface {
	MarkStale(ctx context.Context, paths []string, at time.Time) error
}

// Handler applies revalidation events read from the message bus.
type Handler struct {
	store  Store
	logger *zap.Logger
}

func NewHandler(store Store, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

func (h *Handler) Handle(ctx context.Context, key, value []byte) error {
	var event storage.RevalidationEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("%w: failed to decode revalidation event %s: %w", kafka.ErrSkipMessage, key, err)
	}

	paths := uniquePaths(event.Paths)
	if len(paths) == 0 {
		h.logger.Warn("revalidation event without paths", zap.ByteString("key", key), zap.String("reason", event.Reason))
		return nil
	}

	at := event.OccurredAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	if err := h.store.MarkStale(ctx, paths, at); err != nil {
		return err
	}

	h.logger.Info("pages marked stale",
		zap.Strings("paths", paths),
		zap.String("reason", event.Reason),
		zap.String("product_id", event.ProductID),
	)
	return nil
}

func uniquePaths(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	unique := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, p)
	}
	return unique
}
