package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/auth"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/catalog"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/domain"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/imagehost"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/repository"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// statusClientClosedRequest is reported when the caller went away before the
// response was ready. Nothing reads it but the access log.
const statusClientClosedRequest = 499

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Error("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// decodeJSON reads a JSON body of at most maxBody bytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBody int64, v interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			respondError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large")
		case errors.Is(err, io.EOF):
			respondError(w, http.StatusBadRequest, "invalid_request", "request body is empty")
		default:
			respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		}
		return false
	}
	return true
}

// handleError maps service errors to HTTP statuses. Unexpected errors are
// logged and reported as 500 without their text.
func handleError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error) {
	var (
		httpStatus int
		code       string
		details    string
		message    = err.Error()
		missing    *domain.MissingFieldsError
		apiErr     *catalog.APIError
	)

	switch {
	case errors.As(err, &missing):
		httpStatus, code = http.StatusUnprocessableEntity, "validation_failed"
		message = missing.Err.Error()
		details = strings.Join(missing.Fields, ",")
	case errors.Is(err, domain.ErrEmptyCart):
		httpStatus, code = http.StatusConflict, "empty_cart"
	case errors.Is(err, domain.ErrIllegalTransition):
		httpStatus, code = http.StatusConflict, "illegal_transition"
	case errors.Is(err, domain.ErrPaymentMethodRequired),
		errors.Is(err, domain.ErrUnknownPaymentMethod):
		httpStatus, code = http.StatusUnprocessableEntity, "invalid_payment_method"
	case errors.Is(err, domain.ErrVariantRequired),
		errors.Is(err, domain.ErrUnknownVariant):
		httpStatus, code = http.StatusUnprocessableEntity, "invalid_variant"
	case errors.Is(err, domain.ErrInvalidProduct):
		httpStatus, code = http.StatusUnprocessableEntity, "invalid_product"
	case errors.Is(err, catalog.ErrProductNotFound):
		httpStatus, code = http.StatusNotFound, "product_not_found"
	case errors.Is(err, repository.ErrOrderNotFound):
		httpStatus, code = http.StatusNotFound, "order_not_found"
	case errors.Is(err, repository.ErrDuplicateOrder):
		httpStatus, code = http.StatusConflict, "duplicate_order"
	case errors.Is(err, catalog.ErrCatalogUnavailable):
		httpStatus, code = http.StatusServiceUnavailable, "catalog_unavailable"
	case errors.As(err, &apiErr):
		httpStatus, code = http.StatusBadGateway, "catalog_rejected"
		message = apiErr.Message
	case errors.Is(err, imagehost.ErrNotConfigured):
		httpStatus, code = http.StatusServiceUnavailable, "upload_not_configured"
	case errors.Is(err, imagehost.ErrEmptyImage):
		httpStatus, code = http.StatusBadRequest, "empty_image"
	case errors.Is(err, imagehost.ErrImageTooLarge):
		httpStatus, code = http.StatusRequestEntityTooLarge, "image_too_large"
	case errors.Is(err, imagehost.ErrUploadFailed):
		httpStatus, code = http.StatusBadGateway, "upload_failed"
	case errors.Is(err, auth.ErrEmailTaken):
		httpStatus, code = http.StatusConflict, "email_taken"
	case errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword):
		httpStatus, code = http.StatusUnprocessableEntity, "invalid_credentials_format"
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		httpStatus, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, auth.ErrUserNotFound):
		httpStatus, code = http.StatusNotFound, "user_not_found"
	case errors.Is(err, context.Canceled):
		httpStatus, code = statusClientClosedRequest, "client_closed_request"
		message = "request canceled"
	case errors.Is(err, context.DeadlineExceeded):
		httpStatus, code = http.StatusGatewayTimeout, "timeout"
		message = "request timed out"
	default:
		httpStatus, code = http.StatusInternalServerError, "internal_error"
		message = "internal server error"
	}

	if httpStatus == statusClientClosedRequest {
		logger.FromContext(r.Context(), log).WithField("path", r.URL.Path).Debug("client canceled request")
	}
	if httpStatus >= http.StatusInternalServerError {
		logger.FromContext(r.Context(), log).WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": httpStatus,
		}).Error("request failed")
	}

	respondJSON(w, httpStatus, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// pathParam returns the named route parameter decoded. chi routes on
// URL.RawPath when it is set, so values arrive still escaped.
func pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v, true
	}
	decoded, err := url.PathUnescape(v)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_path", "invalid escape in "+name)
		return "", false
	}
	return decoded, true
}

// requireIdentity writes 401 when the request has no resolved identity.
func requireIdentity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return auth.Identity{}, false
	}
	return id, true
}
