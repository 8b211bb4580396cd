package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/domain"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/pricing"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/repository"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/pkg/logger"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CheckoutView is the current state of a session's checkout flow.
type CheckoutView struct {
	Step          domain.CheckoutStep  `json:"step"`
	Address       *domain.Address      `json:"address,omitempty"`
	PaymentMethod domain.PaymentMethod `json:"payment_method,omitempty"`
	PaymentLabel  string               `json:"payment_label,omitempty"`
	Totals        domain.Totals        `json:"totals"`
	UnitCount     int                  `json:"unit_count"`
	LastOrderID   *uuid.UUID           `json:"last_order_id,omitempty"`
}

type CheckoutService struct {
	store    *Store
	orders   repository.OrderRepository
	calc     *pricing.Calculator
	currency string
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewCheckoutService(
	store *Store,
	orders repository.OrderRepository,
	calc *pricing.Calculator,
	currency string,
	log logrus.FieldLogger) *CheckoutService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CheckoutService{
		store:    store,
		orders:   orders,
		calc:     calc,
		currency: currency,
		log:      log,
		now:      time.Now,
	}
}

func (s *CheckoutService) State(_ context.Context, userID string) (*CheckoutView, error) {
	sess := s.store.Session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.view(sess), nil
}

// Begin moves Cart → AddressEntry, or starts a new purchase after a
// confirmed one. The cart must not be empty. Calling it again while already
// entering the address is a no-op.
func (s *CheckoutService) Begin(_ context.Context, userID string) (*CheckoutView, error) {
	sess := s.store.Session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.checkout.step == domain.StepAddressEntry {
		return s.view(sess), nil
	}
	if err := transition(sess.checkout.step, domain.StepAddressEntry); err != nil {
		return nil, err
	}
	if sess.cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	if sess.checkout.step == domain.StepConfirmed {
		sess.checkout.payment = ""
	}
	sess.checkout.step = domain.StepAddressEntry
	return s.view(sess), nil
}

// SubmitAddress records the shipping address and moves AddressEntry →
// PaymentSelection. While selecting payment the address may be corrected
// without leaving the step. Only presence of every field is checked.
func (s *CheckoutService) SubmitAddress(_ context.Context, userID string, addr domain.Address) (*CheckoutView, error) {
	addr = trimAddress(addr)

	sess := s.store.Session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	step := sess.checkout.step
	if step != domain.StepPaymentSelection {
		if err := transition(step, domain.StepPaymentSelection); err != nil {
			return nil, err
		}
	}
	if err := addr.Validate(); err != nil {
		return nil, err
	}

	sess.checkout.address = &addr
	sess.checkout.step = domain.StepPaymentSelection
	return s.view(sess), nil
}

// SelectPayment records the payment method. It does not confirm.
func (s *CheckoutService) SelectPayment(_ context.Context, userID, method string) (*CheckoutView, error) {
	m, err := domain.ParsePaymentMethod(method)
	if err != nil {
		return nil, err
	}

	sess := s.store.Session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.checkout.step != domain.StepPaymentSelection {
		return nil, fmt.Errorf("%w: cannot select payment in step %s", domain.ErrIllegalTransition, sess.checkout.step)
	}
	sess.checkout.payment = m
	return s.view(sess), nil
}

// Confirm places the order: PaymentSelection → Confirmed. method, when not
// empty, replaces the selected payment method.
//
// Totals, order record, history append and cart clear happen under the
// session lock; if the order cannot be recorded the session is left exactly
// as it was.
func (s *CheckoutService) Confirm(ctx context.Context, userID, method string) (*domain.Order, error) {
	var override domain.PaymentMethod
	if strings.TrimSpace(method) != "" {
		m, err := domain.ParsePaymentMethod(method)
		if err != nil {
			return nil, err
		}
		override = m
	}

	sess := s.store.Session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := transition(sess.checkout.step, domain.StepConfirmed); err != nil {
		return nil, err
	}
	payment := sess.checkout.payment
	if override != "" {
		payment = override
	}
	if payment == "" {
		return nil, domain.ErrPaymentMethodRequired
	}
	if sess.checkout.address == nil {
		return nil, domain.ErrAddressIncomplete
	}
	if sess.cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	items := sess.cart.Snapshot()
	order := &domain.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Items:         items,
		Totals:        s.calc.Compute(items),
		Currency:      s.currency,
		Address:       *sess.checkout.address,
		PaymentMethod: payment,
		PaymentLabel:  payment.Label(),
		Status:        domain.OrderStatusConfirmed,
		CreatedAt:     s.now().UTC(),
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		logger.FromContext(ctx, s.log).WithError(err).WithField("user_id", userID).Error("failed to record order")
		return nil, fmt.Errorf("record order: %w", err)
	}

	sess.cart.Clear(s.now())
	sess.checkout.step = domain.StepConfirmed
	sess.checkout.payment = payment
	id := order.ID
	sess.checkout.lastOrderID = &id

	logger.FromContext(ctx, s.log).WithFields(logrus.Fields{
		"user_id":     userID,
		"order_id":    order.ID,
		"units":       order.UnitCount(),
		"grand_total": pricing.Format(order.Totals.GrandTotal),
	}).Info("order placed")
	return order.Clone(), nil
}

// Abandon returns the flow to Cart. The cart itself is untouched.
func (s *CheckoutService) Abandon(_ context.Context, userID string) (*CheckoutView, error) {
	sess := s.store.Session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.checkout.step != domain.StepCart {
		sess.checkout.step = domain.StepCart
		sess.checkout.payment = ""
	}
	return s.view(sess), nil
}

// ListOrders returns the user's order history, oldest first.
func (s *CheckoutService) ListOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	orders, err := s.orders.ListOrdersByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// GetOrder returns one of the user's orders. Orders of other users are
// reported as not found.
func (s *CheckoutService) GetOrder(ctx context.Context, userID string, id uuid.UUID) (*domain.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

// view must be called with the session locked.
func (s *CheckoutService) view(sess *Session) *CheckoutView {
	items := sess.cart.Snapshot()
	v := &CheckoutView{
		Step:          sess.checkout.step,
		PaymentMethod: sess.checkout.payment,
		PaymentLabel:  sess.checkout.payment.Label(),
		Totals:        s.calc.Compute(items),
		UnitCount:     sess.cart.UnitCount(),
		LastOrderID:   sess.checkout.lastOrderID,
	}
	if sess.checkout.address != nil {
		a := *sess.checkout.address
		v.Address = &a
	}
	return v
}

func transition(from, to domain.CheckoutStep) error {
	if !domain.CanTransitionTo(from, to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrIllegalTransition, from, to)
	}
	return nil
}

func trimAddress(a domain.Address) domain.Address {
	return domain.Address{
		FullName:   strings.TrimSpace(a.FullName),
		Street:     strings.TrimSpace(a.Street),
		City:       strings.TrimSpace(a.City),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Phone:      strings.TrimSpace(a.Phone),
	}
}
