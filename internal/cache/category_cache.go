package cache

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/repository"
)

type CategoryRepository interface {
	GetAll(ctx context.Context) ([]*repository.Category, error)
}

// CategoryCache keeps categories keyed by case-folded name.
type CategoryCache struct {
	mu     sync.RWMutex
	cache  map[string]*repository.Category
	repo   CategoryRepository
	logger *zap.Logger
}

func NewCategoryCache(repo CategoryRepository, logger *zap.Logger) *CategoryCache {
	return &CategoryCache{
		cache:  make(map[string]*repository.Category),
		repo:   repo,
		logger: logger,
	}
}

func (c *CategoryCache) LoadInitialData(ctx context.Context) error {
	c.logger.Info("Loading initial data into category cache...")
	categories, err := c.repo.GetAll(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, category := range categories {
		categoryCopy := *category
		c.cache[key(category.Name)] = &categoryCopy
	}
	metrics.CategoryCacheItems.Set(float64(len(c.cache)))
	c.logger.Info("Category cache loaded", zap.Int("count", len(c.cache)))
	return nil
}

func (c *CategoryCache) Get(name string) (*repository.Category, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	category, found := c.cache[key(name)]
	if !found {
		return nil, false
	}
	categoryCopy := *category
	return &categoryCopy, true
}

func (c *CategoryCache) Set(category *repository.Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	categoryCopy := *category
	c.cache[key(category.Name)] = &categoryCopy
	metrics.CategoryCacheItems.Set(float64(len(c.cache)))
	c.logger.Debug("Cache: set category", zap.String("name", category.Name))
}

func (c *CategoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
