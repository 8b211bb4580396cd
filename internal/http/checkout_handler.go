package http

import (
	"context"
	"net/http"
	"time"

	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/domain"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type CheckoutHandler struct {
	checkout *service.CheckoutService
	log      logrus.FieldLogger
	timeout  time.Duration
	maxBody  int64
}

func NewCheckoutHandler(checkout *service.CheckoutService, log logrus.FieldLogger, timeout time.Duration, maxBody int64) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		log:      log,
		timeout:  timeout,
		maxBody:  maxBody,
	}
}

type PaymentRequestDTO struct {
	PaymentMethod string `json:"payment_method"`
}

func (h *CheckoutHandler) GetState(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, http.StatusOK, h.checkout.State)
}

func (h *CheckoutHandler) Begin(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, http.StatusOK, h.checkout.Begin)
}

func (h *CheckoutHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, http.StatusOK, h.checkout.Abandon)
}

func (h *CheckoutHandler) PaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods := domain.PaymentMethods()
	out := make([]PaymentMethodDTO, len(methods))
	for i, m := range methods {
		out[i] = PaymentMethodDTO{ID: string(m), Label: m.Label()}
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *CheckoutHandler) SubmitAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req domain.Address
	if !decodeJSON(w, r, h.maxBody, &req) {
		return
	}

	view, err := h.checkout.SubmitAddress(ctx, id.UserID, req)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, toCheckoutDTO(view))
}

func (h *CheckoutHandler) SelectPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req PaymentRequestDTO
	if !decodeJSON(w, r, h.maxBody, &req) {
		return
	}

	view, err := h.checkout.SelectPayment(ctx, id.UserID, req.PaymentMethod)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, toCheckoutDTO(view))
}

// Confirm places the order. The body is optional; a payment_method in it
// replaces the one selected earlier.
func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req PaymentRequestDTO
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, h.maxBody, &req) {
			return
		}
	}

	order, err := h.checkout.Confirm(ctx, id.UserID, req.PaymentMethod)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, toOrderDTO(order))
}

func (h *CheckoutHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	orders, err := h.checkout.ListOrders(ctx, id.UserID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderDTOs(orders))
}

func (h *CheckoutHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return
	}

	order, err := h.checkout.GetOrder(ctx, id.UserID, orderID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderDTO(order))
}

func (h *CheckoutHandler) step(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	op func(ctx context.Context, userID string) (*service.CheckoutView, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	view, err := op(ctx, id.UserID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, status, toCheckoutDTO(view))
}
