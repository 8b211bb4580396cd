package service

import (
	"context"
	"io"
	"sync"

	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/catalog"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/domain"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// mockCatalog implements Catalog over an in-memory product map.
type mockCatalog struct {
	m        sync.RWMutex
	products map[string]domain.Product
	order    []string
	err      error
}

func newMockCatalog(products ...domain.Product) *mockCatalog {
	c := &mockCatalog{products: map[string]domain.Product{}}
	for _, p := range products {
		c.put(p)
	}
	return c
}

func (m *mockCatalog) put(p domain.Product) {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		m.order = append(m.order, p.ID)
	}
	m.products[p.ID] = p
}

func (m *mockCatalog) remove(id string) {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.products, id)
}

func (m *mockCatalog) Products(context.Context) ([]domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Product
	for _, id := range m.order {
		if p, ok := m.products[id]; ok {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (m *mockCatalog) Product(_ context.Context, id string) (domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return domain.Product{}, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return domain.Product{}, catalog.ErrProductNotFound
	}
	return p.Clone(), nil
}

// failingRepository wraps a memory repository and fails CreateOrder on demand.
type failingRepository struct {
	*repository.MemoryRepository
	m         sync.RWMutex
	createErr error
	calls     int
}

func (f *failingRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	f.m.Lock()
	f.calls++
	err := f.createErr
	f.m.Unlock()
	if err != nil {
		return err
	}
	return f.MemoryRepository.CreateOrder(ctx, order)
}

func (f *failingRepository) setCreateErr(err error) {
	f.m.Lock()
	defer f.m.Unlock()
	f.createErr = err
}

type mockWriter struct {
	m         sync.RWMutex
	created   []domain.Product
	updated   map[string]domain.Product
	deleted   []string
	err       error
	refreshes int
	refErr    error
}

func (w *mockWriter) CreateProduct(_ context.Context, p domain.Product) (*domain.Product, error) {
	w.m.Lock()
	defer w.m.Unlock()
	if w.err != nil {
		return nil, w.err
	}
	p.ID = uuid.NewString()
	w.created = append(w.created, p)
	return &p, nil
}

func (w *mockWriter) UpdateProduct(_ context.Context, id string, p domain.Product) (*domain.Product, error) {
	w.m.Lock()
	defer w.m.Unlock()
	if w.err != nil {
		return nil, w.err
	}
	if w.updated == nil {
		w.updated = map[string]domain.Product{}
	}
	p.ID = id
	w.updated[id] = p
	return &p, nil
}

func (w *mockWriter) DeleteProduct(_ context.Context, id string) error {
	w.m.Lock()
	defer w.m.Unlock()
	if w.err != nil {
		return w.err
	}
	w.deleted = append(w.deleted, id)
	return nil
}

func (w *mockWriter) Refresh(context.Context) error {
	w.m.Lock()
	defer w.m.Unlock()
	w.refreshes++
	return w.refErr
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func product(id, price string, colors ...string) domain.Product {
	p := domain.Product{
		ID:       id,
		Name:     "Product " + id,
		Price:    decimal.RequireFromString(price),
		Brand:    "Nemo",
		Stock:    5,
		Category: "shoes",
		Images:   []string{"https://img/" + id + ".png"},
	}
	for _, c := range colors {
		p.Colors = append(p.Colors, domain.ColorVariant{Name: c, Value: "#" + c})
	}
	return p
}

func validAddress() domain.Address {
	return domain.Address{
		FullName:   "Jo Doe",
		Street:     "1 Main St",
		City:       "Dhaka",
		PostalCode: "1207",
		Phone:      "+880 1700 000000",
	}
}
