package service

import (
	"context"
	"errors"

	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/catalog"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/domain"
	"github.com/sirupsen/logrus"
)

type WishlistService struct {
	store   *Store
	catalog Catalog
	log     logrus.FieldLogger
}

func NewWishlistService(store *Store, catalog Catalog, log logrus.FieldLogger) *WishlistService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &WishlistService{store: store, catalog: catalog, log: log}
}

// Toggle flips membership and reports whether the product is now wishlisted.
// Adding requires the product to exist; removing never does.
func (s *WishlistService) Toggle(ctx context.Context, userID, productID string) (bool, error) {
	sess := s.store.Session(userID)

	sess.mu.Lock()
	present := sess.wishlist.Contains(productID)
	sess.mu.Unlock()

	if !present {
		if _, err := s.catalog.Product(ctx, productID); err != nil {
			return false, err
		}
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.wishlist.Contains(productID) != present {
		// another request toggled it meanwhile; report the current state
		return sess.wishlist.Contains(productID), nil
	}
	return sess.wishlist.Toggle(productID), nil
}

func (s *WishlistService) Contains(_ context.Context, userID, productID string) bool {
	sess := s.store.Session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.wishlist.Contains(productID)
}

// List resolves the wishlist against the live catalog. Products that left the
// catalog are skipped but stay in the wishlist.
func (s *WishlistService) List(ctx context.Context, userID string) ([]domain.Product, error) {
	sess := s.store.Session(userID)
	sess.mu.Lock()
	ids := sess.wishlist.ProductIDs()
	sess.mu.Unlock()

	products := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		p, err := s.catalog.Product(ctx, id)
		if errors.Is(err, catalog.ErrProductNotFound) {
			s.log.WithField("product_id", id).Debug("wishlisted product no longer in catalog")
			continue
		}
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}
