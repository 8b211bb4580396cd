package cache

import (
	"context"
	"errors"

	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/domain"
)

// CatalogSnapshot persists the last good product list so a cold process can
// serve the catalog before its first fetch completes.
type CatalogSnapshot interface {
	Get(ctx context.Context) ([]domain.Product, error)
	Set(ctx context.Context, products []domain.Product) error
	Delete(ctx context.Context) error
}

var ErrCacheMiss = errors.New("cache miss")
