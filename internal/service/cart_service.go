package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/domain"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/pricing"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/pkg/logger"
	"github.com/sirupsen/logrus"
)

// CartView is a read-only copy of a cart with its derived totals.
type CartView struct {
	UserID    string            `json:"user_id"`
	Items     []domain.LineItem `json:"items"`
	Totals    domain.Totals     `json:"totals"`
	UnitCount int               `json:"unit_count"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type CartService struct {
	store   *Store
	catalog Catalog
	calc    *pricing.Calculator
	log     logrus.FieldLogger
	now     func() time.Time
}

func NewCartService(store *Store, catalog Catalog, calc *pricing.Calculator, log logrus.FieldLogger) *CartService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CartService{
		store:   store,
		catalog: catalog,
		calc:    calc,
		log:     log,
		now:     time.Now,
	}
}

func (s *CartService) GetCart(_ context.Context, userID string) (*CartView, error) {
	sess := s.store.Session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.view(sess.cart), nil
}

// AddItem adds one unit of the product in the given color. Products that
// define colors require one of them; products without colors ignore it.
func (s *CartService) AddItem(ctx context.Context, userID, productID, colorName string) (*CartView, error) {
	product, err := s.catalog.Product(ctx, productID)
	if err != nil {
		return nil, err
	}

	var variant *domain.ColorVariant
	if product.HasVariants() {
		if colorName == "" {
			return nil, domain.ErrVariantRequired
		}
		v, ok := product.Variant(colorName)
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownVariant, colorName)
		}
		variant = &v
	}

	sess := s.store.Session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	item := sess.cart.Add(product, variant, s.now())
	logger.FromContext(ctx, s.log).WithFields(logrus.Fields{
		"user_id":  userID,
		"item_id":  item.ID,
		"quantity": item.Quantity,
	}).Debug("item added to cart")
	return s.view(sess.cart), nil
}

// IncreaseQuantity is a no-op for an unknown item.
func (s *CartService) IncreaseQuantity(_ context.Context, userID, itemID string) (*CartView, error) {
	sess := s.store.Session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.cart.Increase(itemID, s.now())
	return s.view(sess.cart), nil
}

// DecreaseQuantity removes the item when its last unit is taken away and is a
// no-op for an unknown item.
func (s *CartService) DecreaseQuantity(_ context.Context, userID, itemID string) (*CartView, error) {
	sess := s.store.Session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.cart.Decrease(itemID, s.now())
	return s.view(sess.cart), nil
}

func (s *CartService) RemoveItem(_ context.Context, userID, itemID string) (*CartView, error) {
	sess := s.store.Session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.cart.Remove(itemID, s.now())
	return s.view(sess.cart), nil
}

func (s *CartService) ClearCart(_ context.Context, userID string) (*CartView, error) {
	sess := s.store.Session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.cart.Clear(s.now())
	return s.view(sess.cart), nil
}

// view must be called with the session locked.
func (s *CartService) view(cart *domain.Cart) *CartView {
	items := cart.Snapshot()
	return &CartView{
		UserID:    cart.UserID,
		Items:     items,
		Totals:    s.calc.Compute(items),
		UnitCount: cart.UnitCount(),
		UpdatedAt: cart.UpdatedAt,
	}
}
