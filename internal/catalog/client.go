package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/domain"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/pkg/circuitbreaker"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultBaseURL = "https://backend-of-nemo.vercel.app"
	DefaultTimeout = 15 * time.Second

	maxResponseBody = 8 << 20
)

var (
	ErrCatalogUnavailable = errors.New("catalog service unavailable")
	ErrProductNotFound    = errors.New("product not found")
)

// APIError is a non-2xx answer from the catalog API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog: unexpected status %d: %s", e.Status, e.Message)
}

type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	Breaker circuitbreaker.Config
}

// Client talks to the remote product catalog REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*response]
	log        logrus.FieldLogger
}

type response struct {
	status int
	body   []byte
}

func NewClient(cfg ClientConfig, log logrus.FieldLogger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: circuitbreaker.New[*response]("catalog", cfg.Breaker, log),
		log:     log,
	}
}

// ListProducts fetches the full product list. The API answers either with a
// bare array or with an object wrapping the array in "data".
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	resp, err := c.do(ctx, http.MethodGet, "/products", nil)
	if err != nil {
		return nil, err
	}
	products, err := decodeProductList(resp.body)
	if err != nil {
		return nil, fmt.Errorf("%w: decode products: %v", ErrCatalogUnavailable, err)
	}
	return products, nil
}

func (c *Client) CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	resp, err := c.do(ctx, http.MethodPost, "/products", p)
	if err != nil {
		return nil, err
	}
	return decodeProduct(resp.body, p), nil
}

func (c *Client) UpdateProduct(ctx context.Context, id string, p domain.Product) (*domain.Product, error) {
	p.ID = ""
	resp, err := c.do(ctx, http.MethodPut, "/products/"+id, p)
	if err != nil {
		return nil, err
	}
	updated := decodeProduct(resp.body, p)
	if updated.ID == "" {
		updated.ID = id
	}
	return updated, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/products/"+id, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (*response, error) {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
	}

	resp, err := c.breaker.Execute(func() (*response, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		httpResp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer httpResp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
		if err != nil {
			return nil, err
		}
		if httpResp.StatusCode >= http.StatusInternalServerError {
			return nil, &APIError{Status: httpResp.StatusCode, Message: errorMessage(data, httpResp.Status)}
		}
		return &response{status: httpResp.StatusCode, body: data}, nil
	})
	if err != nil {
		if circuitbreaker.IsOpen(err) {
			c.log.WithField("path", path).Warn("catalog breaker open, failing fast")
		}
		return nil, fmt.Errorf("%w: %s %s: %v", ErrCatalogUnavailable, method, path, err)
	}

	switch {
	case resp.status == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, path)
	case resp.status >= http.StatusBadRequest:
		return nil, &APIError{Status: resp.status, Message: errorMessage(resp.body, http.StatusText(resp.status))}
	}
	return resp, nil
}

func decodeProductList(data []byte) ([]domain.Product, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var products []domain.Product
		if err := json.Unmarshal(trimmed, &products); err != nil {
			return nil, err
		}
		return products, nil
	}

	var wrapped struct {
		Data []domain.Product `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Data == nil {
		return []domain.Product{}, nil
	}
	return wrapped.Data, nil
}

// decodeProduct reads the product echoed by a write. Falls back to sent when
// the body carries no recognizable product.
func decodeProduct(data []byte, sent domain.Product) *domain.Product {
	var wrapped struct {
		Data    *domain.Product `json:"data"`
		Product *domain.Product `json:"product"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil {
		if wrapped.Data != nil && wrapped.Data.ID != "" {
			return wrapped.Data
		}
		if wrapped.Product != nil && wrapped.Product.ID != "" {
			return wrapped.Product
		}
	}

	var bare domain.Product
	if err := json.Unmarshal(data, &bare); err == nil && bare.ID != "" {
		return &bare
	}

	// some write endpoints answer with {"insertedId": "..."}
	var inserted struct {
		InsertedID string `json:"insertedId"`
	}
	if err := json.Unmarshal(data, &inserted); err == nil && inserted.InsertedID != "" {
		sent.ID = inserted.InsertedID
	}
	return &sent
}

func errorMessage(data []byte, fallback string) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	if s := strings.TrimSpace(string(data)); s != "" && len(s) < 200 {
		return s
	}
	return fallback
}
