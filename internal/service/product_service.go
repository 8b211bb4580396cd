package service

import (
	"context"
	"strings"
	"time"

	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/domain"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/pkg/logger"
	"github.com/sirupsen/logrus"
)

// ProductWriter is the seller-side mutation API of the remote catalog.
type ProductWriter interface {
	CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, p domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type Refresher interface {
	Refresh(ctx context.Context) error
}

// ProductService handles seller product management. Every successful write
// is followed by a catalog refresh; carts keep their snapshots.
type ProductService struct {
	writer    ProductWriter
	refresher Refresher
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewProductService(writer ProductWriter, refresher Refresher, log logrus.FieldLogger) *ProductService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ProductService{
		writer:    writer,
		refresher: refresher,
		log:       log,
		now:       time.Now,
	}
}

func (s *ProductService) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	p = normalizeProduct(p)
	p.ID = ""
	if err := p.Validate(); err != nil {
		return nil, err
	}
	created := s.now().UTC()
	p.CreatedAt = &created

	out, err := s.writer.CreateProduct(ctx, p)
	if err != nil {
		return nil, err
	}
	s.refresh(ctx, "create", out.ID)
	return out, nil
}

func (s *ProductService) Update(ctx context.Context, id string, p domain.Product) (*domain.Product, error) {
	p = normalizeProduct(p)
	if err := p.Validate(); err != nil {
		return nil, err
	}

	out, err := s.writer.UpdateProduct(ctx, id, p)
	if err != nil {
		return nil, err
	}
	s.refresh(ctx, "update", id)
	return out, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.writer.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.refresh(ctx, "delete", id)
	return nil
}

// refresh failures are logged only; the write itself already succeeded.
func (s *ProductService) refresh(ctx context.Context, op, productID string) {
	if err := s.refresher.Refresh(ctx); err != nil {
		logger.FromContext(ctx, s.log).WithError(err).WithFields(logrus.Fields{
			"op":         op,
			"product_id": productID,
		}).Warn("catalog refresh after product write failed")
	}
}

func normalizeProduct(p domain.Product) domain.Product {
	p.Name = strings.TrimSpace(p.Name)
	p.Brand = strings.TrimSpace(p.Brand)
	p.Category = strings.TrimSpace(p.Category)
	p.Description = strings.TrimSpace(p.Description)

	images := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}
	p.Images = images

	colors := make([]domain.ColorVariant, 0, len(p.Colors))
	seen := make(map[string]bool, len(p.Colors))
	for _, c := range p.Colors {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" || seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		colors = append(colors, c)
	}
	p.Colors = colors
	return p
}
