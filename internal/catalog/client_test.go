package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/domain"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/pkg/circuitbreaker"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productsJSON = `[
	{"_id":"p1","productName":"Runner","price":10,"brandName":"Nemo","stock":"4","category":"shoes","images":["a.png"]},
	{"_id":"p2","productName":"Hoodie","price":"25.00","brandName":"Nemo","stock":2,"category":"tops","images":[],
	 "colors":[{"name":"Red","value":"#f00"},{"name":"Blue","value":"#00f"}]}
]`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewClient(ClientConfig{
		BaseURL: srv.URL + "/",
		Timeout: 2 * time.Second,
		Breaker: circuitbreaker.Config{ConsecutiveFailures: 2, OpenTimeout: time.Minute, HalfOpenRequests: 1},
	}, log)
}

func TestListProducts_BareArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/products", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, productsJSON)
	})

	products, err := client.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Runner", products[0].Name)
	assert.Equal(t, 4, products[0].Stock)
	assert.True(t, decimal.RequireFromString("25").Equal(products[1].Price))
	assert.Len(t, products[1].Colors, 2)
}

func TestListProducts_WrappedData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"data":`+productsJSON+`}`)
	})

	products, err := client.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestListProducts_MalformedJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":[{"_id":`)
	})

	_, err := client.ListProducts(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
	assert.Contains(t, err.Error(), "decode products")
}

func TestListProducts_ServerErrorCarriesMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"message":"database offline"}`)
	})

	_, err := client.ListProducts(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
	assert.Contains(t, err.Error(), "catalog: unexpected status 500: database offline")
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 2; i++ {
		_, err := client.ListProducts(context.Background())
		require.Error(t, err)
	}
	_, err := client.ListProducts(context.Background())
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
	assert.Equal(t, int32(2), calls.Load(), "open breaker must not reach the server")
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"bad payload"}`)
	})

	for i := 0; i < 4; i++ {
		_, err := client.CreateProduct(context.Background(), domain.Product{Name: "x"})
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.Status)
		assert.Equal(t, "bad payload", apiErr.Message)
	}
	assert.Equal(t, int32(4), calls.Load())
}

func TestCreateProduct(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Runner", body["productName"])
		assert.NotContains(t, body, "_id")

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"acknowledged":true,"insertedId":"new-id"}`)
	})

	created, err := client.CreateProduct(context.Background(), domain.Product{
		Name:  "Runner",
		Price: decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "new-id", created.ID)
	assert.Equal(t, "Runner", created.Name)
}

func TestUpdateProduct(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/products/p1", r.URL.Path)
		_, _ = io.WriteString(w, `{"data":{"_id":"p1","productName":"Runner 2","price":12}}`)
	})

	updated, err := client.UpdateProduct(context.Background(), "p1", domain.Product{ID: "p1", Name: "Runner 2"})
	require.NoError(t, err)
	assert.Equal(t, "p1", updated.ID)
	assert.Equal(t, "Runner 2", updated.Name)
}

func TestDeleteProduct_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNotFound)
	})

	err := client.DeleteProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProductNotFound)
}
