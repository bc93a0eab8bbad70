package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"tracker/internal/cache"
	"tracker/internal/core"
	"tracker/internal/metrics"
)

const categoryCacheSize = 1000

// CategoryService manages a user's categories and keeps a per-user cache of
// the full list, dropped on every write for that user.
type CategoryService struct {
	store CategoryStore
	cache *cache.LRUCache[[]core.Category]
}

// NewCategoryService caches lookups for ttl; a ttl <= 0 disables caching.
func NewCategoryService(store CategoryStore, ttl time.Duration) *CategoryService {
	s := &CategoryService{store: store}
	if ttl > 0 {
		s.cache = cache.NewLRUCache[[]core.Category](categoryCacheSize, ttl)
	}
	return s
}

// Cache exposes the underlying cache so it can be registered for periodic
// cleanup. Nil when caching is disabled.
func (s *CategoryService) Cache() *cache.LRUCache[[]core.Category] {
	return s.cache
}

func (s *CategoryService) List(ctx context.Context, userID string) ([]core.Category, error) {
	if s.cache != nil {
		if cats, ok := s.cache.Get(userID); ok {
			metrics.CacheLookups.WithLabelValues("categories", "hit").Inc()
			return cats, nil
		}
		metrics.CacheLookups.WithLabelValues("categories", "miss").Inc()
	}
	cats, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(userID, cats)
	}
	return cats, nil
}

// Lookup returns the user's categories keyed by id.
func (s *CategoryService) Lookup(ctx context.Context, userID string) (map[string]core.Category, error) {
	cats, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	lookup := make(map[string]core.Category, len(cats))
	for _, c := range cats {
		lookup[c.ID] = c
	}
	return lookup, nil
}

func (s *CategoryService) Create(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	c.ID = uuid.NewString()
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}
	s.invalidate(c.UserID)
	return c, nil
}

func (s *CategoryService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteCategory(ctx, userID, id); err != nil {
		return err
	}
	s.invalidate(userID)
	slog.InfoContext(ctx, "Category deleted", "id", id, "user_id", userID)
	return nil
}

func (s *CategoryService) invalidate(userID string) {
	if s.cache != nil {
		s.cache.Delete(userID)
	}
}
