package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/catalog"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/domain"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/imagehost"
	"github.com/sirupsen/logrus"
)

// CatalogReader is the catalog cache as seen by the API.
type CatalogReader interface {
	Products(ctx context.Context) ([]domain.Product, error)
	Product(ctx context.Context, id string) (domain.Product, error)
	Refresh(ctx context.Context) error
	Status() catalog.Status
}

type ProductManager interface {
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, id string, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

type ImageUploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

type ProductHandler struct {
	catalog  CatalogReader
	products ProductManager
	images   ImageUploader
	log      logrus.FieldLogger
	timeout  time.Duration
	maxBody  int64
}

func NewProductHandler(
	catalog CatalogReader,
	products ProductManager,
	images ImageUploader,
	log logrus.FieldLogger,
	timeout time.Duration,
	maxBody int64) *ProductHandler {
	return &ProductHandler{
		catalog:  catalog,
		products: products,
		images:   images,
		log:      log,
		timeout:  timeout,
		maxBody:  maxBody,
	}
}

type ImageUploadResponse struct {
	URL string `json:"url"`
}

// ListProducts returns the catalog together with its load state, so a failed
// refresh is visible next to the last good product list.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.Products(ctx)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, CatalogDTO{
		Status:   h.catalog.Status(),
		Products: toProductDTOs(products),
	})
}

func (h *ProductHandler) RefreshProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.catalog.Refresh(ctx); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	products, err := h.catalog.Products(ctx)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, CatalogDTO{
		Status:   h.catalog.Status(),
		Products: toProductDTOs(products),
	})
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	p, err := h.catalog.Product(ctx, productID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, toProductDTO(p))
}

// CreateProduct accepts the catalog API's product document.
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req domain.Product
	if !decodeJSON(w, r, h.maxBody, &req) {
		return
	}

	created, err := h.products.Create(ctx, req)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, toProductDTO(*created))
}

func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	var req domain.Product
	if !decodeJSON(w, r, h.maxBody, &req) {
		return
	}

	updated, err := h.products.Update(ctx, productID, req)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, toProductDTO(*updated))
}

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.products.Delete(ctx, productID); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadImage forwards the multipart "image" field to the image host.
func (h *ProductHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, imagehost.MaxImageSize+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handleError(w, r, h.log, imagehost.ErrImageTooLarge)
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "expected multipart form data")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing_image", "form field \"image\" is required")
		return
	}
	defer file.Close()

	url, err := h.images.Upload(ctx, header.Filename, file)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, ImageUploadResponse{URL: url})
}
