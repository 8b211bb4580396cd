package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/auth"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/catalog"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/domain"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/pricing"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/repository"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/service"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type mockCatalog struct {
	m          sync.RWMutex
	products   []domain.Product
	err        error
	refreshErr error
	refreshes  int
}

func (c *mockCatalog) Products(context.Context) ([]domain.Product, error) {
	c.m.RLock()
	defer c.m.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	out := make([]domain.Product, len(c.products))
	for i, p := range c.products {
		out[i] = p.Clone()
	}
	return out, nil
}

func (c *mockCatalog) Product(_ context.Context, id string) (domain.Product, error) {
	c.m.RLock()
	defer c.m.RUnlock()
	if c.err != nil {
		return domain.Product{}, c.err
	}
	for _, p := range c.products {
		if p.ID == id {
			return p.Clone(), nil
		}
	}
	return domain.Product{}, catalog.ErrProductNotFound
}

func (c *mockCatalog) Refresh(context.Context) error {
	c.m.Lock()
	defer c.m.Unlock()
	c.refreshes++
	return c.refreshErr
}

func (c *mockCatalog) Status() catalog.Status {
	c.m.RLock()
	defer c.m.RUnlock()
	return catalog.Status{State: catalog.StateReady, Count: len(c.products), Generation: uint64(c.refreshes)}
}

type mockProductManager struct {
	m       sync.RWMutex
	created []domain.Product
	err     error
}

func (pm *mockProductManager) Create(_ context.Context, p domain.Product) (*domain.Product, error) {
	pm.m.Lock()
	defer pm.m.Unlock()
	if pm.err != nil {
		return nil, pm.err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.ID = "new-id"
	pm.created = append(pm.created, p)
	return &p, nil
}

func (pm *mockProductManager) Update(_ context.Context, id string, p domain.Product) (*domain.Product, error) {
	pm.m.RLock()
	defer pm.m.RUnlock()
	if pm.err != nil {
		return nil, pm.err
	}
	p.ID = id
	return &p, nil
}

func (pm *mockProductManager) Delete(context.Context, string) error {
	pm.m.RLock()
	defer pm.m.RUnlock()
	return pm.err
}

type mockUploader struct {
	m        sync.RWMutex
	filename string
	body     []byte
	err      error
}

func (u *mockUploader) Upload(_ context.Context, filename string, r io.Reader) (string, error) {
	u.m.Lock()
	defer u.m.Unlock()
	if u.err != nil {
		return "", u.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	u.filename, u.body = filename, data
	return "https://i.ibb.co/abc/" + filename, nil
}

type testServer struct {
	handler  http.Handler
	catalog  *mockCatalog
	products *mockProductManager
	uploader *mockUploader
	provider *auth.MemoryProvider
	orders   *repository.MemoryRepository
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := quietLogger()

	cat := &mockCatalog{products: []domain.Product{
		{ID: "A", Name: "Runner", Price: decimal.RequireFromString("10.00"), Brand: "Nemo", Category: "shoes", Images: []string{"a.png"}},
		{ID: "B", Name: "Hoodie", Price: decimal.RequireFromString("25.00"), Brand: "Nemo", Category: "tops", Images: []string{"b.png"}},
		{ID: "S", Name: "Shirt", Price: decimal.RequireFromString("20.00"), Brand: "Nemo", Category: "tops",
			Colors: []domain.ColorVariant{{Name: "Red", Value: "#f00"}, {Name: "Blue", Value: "#00f"}}},
	}}
	provider, err := auth.NewMemoryProvider("test-secret", time.Hour, auth.WithBcryptCost(4))
	require.NoError(t, err)

	store := service.NewStore(nil)
	calc := pricing.Default()
	orders := repository.NewMemoryRepository()
	pm := &mockProductManager{}
	up := &mockUploader{}
	timeout := 5 * time.Second
	maxBody := int64(1 << 20)

	handler := NewRouter(RouterConfig{
		Products: NewProductHandler(cat, pm, up, log, timeout, maxBody),
		Cart:     NewCartHandler(service.NewCartService(store, cat, calc, log), log, timeout, maxBody),
		Wishlist: NewWishlistHandler(service.NewWishlistService(store, cat, log), log, timeout),
		Checkout: NewCheckoutHandler(service.NewCheckoutService(store, orders, calc, "USD", log), log, timeout, maxBody),
		Auth:     NewAuthHandler(provider, log, timeout, maxBody),
		Provider: provider,
		Catalog:  cat,
		Log:      log,
		Timeout:  timeout,
	})

	return &testServer{
		handler:  handler,
		catalog:  cat,
		products: pm,
		uploader: up,
		provider: provider,
		orders:   orders,
	}
}

// do sends a JSON request as the given guest session ("" for none).
func (s *testServer) do(t *testing.T, method, path, session string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return s.doWithHeaders(t, method, path, body, map[string]string{auth.SessionHeader: session})
}

func (s *testServer) doWithHeaders(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	request := httptest.NewRequest(method, path, reader)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		if v != "" {
			request.Header.Set(k, v)
		}
	}
	recorder := httptest.NewRecorder()
	s.handler.ServeHTTP(recorder, request)
	return recorder
}

func decode[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&out), recorder.Body.String())
	return out
}
