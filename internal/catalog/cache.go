package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/cache"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/domain"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// Fetcher retrieves the full product list from the remote catalog.
type Fetcher interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

type Status struct {
	State      State     `json:"state"`
	Error      string    `json:"error,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
	Generation uint64    `json:"generation"`
	Count      int       `json:"count"`
}

// Cache holds the last fetched product list.
//
// Every Refresh is issued a generation number. A response is applied only when
// its generation is still the latest issued one; anything older is discarded,
// so the newest request always wins regardless of completion order.
type Cache struct {
	fetcher  Fetcher
	snapshot cache.CatalogSnapshot
	log      logrus.FieldLogger
	now      func() time.Time
	sfg      singleflight.Group

	mu        sync.RWMutex
	products  []domain.Product
	index     map[string]int
	state     State
	lastErr   string
	updatedAt time.Time
	latest    uint64
	// loaded is set once any product list was applied.
	loaded bool
}

type CacheOption func(*Cache)

// WithSnapshot enables the shared snapshot store. A nil store is ignored.
func WithSnapshot(s cache.CatalogSnapshot) CacheOption {
	return func(c *Cache) {
		if s != nil {
			c.snapshot = s
		}
	}
}

func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

func NewCache(fetcher Fetcher, log logrus.FieldLogger, opts ...CacheOption) *Cache {
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := &Cache{
		fetcher: fetcher,
		log:     log,
		now:     time.Now,
		index:   map[string]int{},
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh fetches the catalog and applies it if no newer refresh was issued
// meanwhile. A failed fetch keeps the previously loaded products.
func (c *Cache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.latest++
	gen := c.latest
	c.state = StateLoading
	c.mu.Unlock()

	products, err := c.fetcher.ListProducts(ctx)

	c.mu.Lock()
	if gen != c.latest {
		latest := c.latest
		c.mu.Unlock()
		c.log.WithFields(logrus.Fields{
			"generation": gen,
			"latest":     latest,
		}).Warn("discarding stale catalog response")
		return nil
	}
	if err != nil {
		c.state = StateFailed
		c.lastErr = err.Error()
		c.mu.Unlock()
		c.log.WithError(err).WithField("generation", gen).Error("catalog refresh failed")
		return err
	}
	c.setLocked(products)
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{
		"generation": gen,
		"count":      len(products),
	}).Info("catalog refreshed")

	if c.snapshot != nil {
		if err := c.snapshot.Set(ctx, products); err != nil {
			c.log.WithError(err).Warn("catalog snapshot write failed")
		}
	}
	return nil
}

// Products returns the loaded products, loading them first when the cache
// has never been populated.
func (c *Cache) Products(ctx context.Context) ([]domain.Product, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Product, len(c.products))
	for i, p := range c.products {
		out[i] = p.Clone()
	}
	return out, nil
}

// Product returns the live catalog entry for id.
func (c *Cache) Product(ctx context.Context, id string) (domain.Product, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return domain.Product{}, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.index[id]
	if !ok {
		return domain.Product{}, ErrProductNotFound
	}
	return c.products[idx].Clone(), nil
}

func (c *Cache) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Status{
		State:      c.state,
		Error:      c.lastErr,
		UpdatedAt:  c.updatedAt,
		Generation: c.latest,
		Count:      len(c.products),
	}
}

// Load populates a cache that holds no products yet, from the shared
// snapshot when one is available and from the remote catalog otherwise.
// Concurrent callers share one load.
func (c *Cache) Load(ctx context.Context) error {
	_, err := c.load(ctx)
	return err
}

// Warm runs Load and, when the products came from the snapshot, refreshes
// them from the remote catalog. Readers are served the snapshot meanwhile.
func (c *Cache) Warm(ctx context.Context) error {
	seeded, err := c.load(ctx)
	if err != nil || !seeded {
		return err
	}
	return c.Refresh(ctx)
}

func (c *Cache) load(ctx context.Context) (bool, error) {
	v, err, _ := c.sfg.Do("catalog", func() (interface{}, error) {
		if c.isLoaded() {
			return false, nil
		}
		if c.seed(ctx) {
			return true, nil
		}
		return false, c.Refresh(ctx)
	})
	seeded, _ := v.(bool)
	return seeded, err
}

// ensureLoaded blocks readers until some product list is available. After a
// failed first load it reports the catalog as unavailable without retrying.
func (c *Cache) ensureLoaded(ctx context.Context) error {
	loaded, failure := c.loadState()
	if loaded {
		return nil
	}
	if failure != nil {
		return failure
	}

	if err := c.Load(ctx); err != nil {
		return err
	}

	loaded, failure = c.loadState()
	switch {
	case loaded:
		return nil
	case failure != nil:
		return failure
	default:
		return fmt.Errorf("%w: catalog is still loading", ErrCatalogUnavailable)
	}
}

func (c *Cache) loadState() (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.loaded {
		return true, nil
	}
	if c.state == StateFailed {
		return false, fmt.Errorf("%w: %s", ErrCatalogUnavailable, c.lastErr)
	}
	return false, nil
}

func (c *Cache) isLoaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// seed loads the shared snapshot into a cache that holds no products.
func (c *Cache) seed(ctx context.Context) bool {
	if c.snapshot == nil {
		return false
	}

	products, err := c.snapshot.Get(ctx)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.log.WithError(err).Warn("catalog snapshot read failed")
		}
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return true
	}
	c.setLocked(products)
	c.log.WithField("count", len(products)).Info("catalog seeded from snapshot")
	return true
}

func (c *Cache) setLocked(products []domain.Product) {
	c.products = make([]domain.Product, len(products))
	c.index = make(map[string]int, len(products))
	for i, p := range products {
		c.products[i] = p.Clone()
		c.index[p.ID] = i
	}
	c.loaded = true
	c.state = StateReady
	c.lastErr = ""
	c.updatedAt = c.now()
}
