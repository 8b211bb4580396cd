package http

import (
	"context"
	"net/http"
	"time"

	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/service"
	"github.com/sirupsen/logrus"
)

type WishlistHandler struct {
	wishlist *service.WishlistService
	log      logrus.FieldLogger
	timeout  time.Duration
}

func NewWishlistHandler(wishlist *service.WishlistService, log logrus.FieldLogger, timeout time.Duration) *WishlistHandler {
	return &WishlistHandler{wishlist: wishlist, log: log, timeout: timeout}
}

type WishlistToggleResponse struct {
	ProductID  string `json:"product_id"`
	Wishlisted bool   `json:"wishlisted"`
}

func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	products, err := h.wishlist.List(ctx, id.UserID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, toProductDTOs(products))
}

func (h *WishlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	productID, ok := pathParam(w, r, "product_id")
	if !ok {
		return
	}

	added, err := h.wishlist.Toggle(ctx, id.UserID, productID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, WishlistToggleResponse{ProductID: productID, Wishlisted: added})
}
