package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/service"
	"github.com/sirupsen/logrus"
)

type CartHandler struct {
	carts   *service.CartService
	log     logrus.FieldLogger
	timeout time.Duration
	maxBody int64
}

func NewCartHandler(carts *service.CartService, log logrus.FieldLogger, timeout time.Duration, maxBody int64) *CartHandler {
	return &CartHandler{
		carts:   carts,
		log:     log,
		timeout: timeout,
		maxBody: maxBody,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Color     string `json:"color,omitempty"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	view, err := h.carts.GetCart(ctx, id.UserID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartDTO(view))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req AddItemRequestDTO
	if !decodeJSON(w, r, h.maxBody, &req) {
		return
	}
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	view, err := h.carts.AddItem(ctx, id.UserID, req.ProductID, strings.TrimSpace(req.Color))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, toCartDTO(view))
}

func (h *CartHandler) IncreaseQuantity(w http.ResponseWriter, r *http.Request) {
	h.updateItem(w, r, h.carts.IncreaseQuantity)
}

func (h *CartHandler) DecreaseQuantity(w http.ResponseWriter, r *http.Request) {
	h.updateItem(w, r, h.carts.DecreaseQuantity)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.updateItem(w, r, h.carts.RemoveItem)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	view, err := h.carts.ClearCart(ctx, id.UserID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartDTO(view))
}

// updateItem runs a per-item ledger operation. Unknown item ids leave the
// cart unchanged and still answer 200.
func (h *CartHandler) updateItem(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, userID, itemID string) (*service.CartView, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	itemID, ok := pathParam(w, r, "item_id")
	if !ok {
		return
	}

	view, err := op(ctx, id.UserID, itemID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartDTO(view))
}
