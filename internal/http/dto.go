package http

import (
	"time"

	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/catalog"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/domain"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/pricing"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/service"
	"github.com/google/uuid"
)

// Money is always rendered with two decimals; the underlying values are exact.

type ProductDTO struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Price       string                `json:"price"`
	Description string                `json:"description,omitempty"`
	Brand       string                `json:"brand"`
	Stock       int                   `json:"stock"`
	Colors      []domain.ColorVariant `json:"colors"`
	Category    string                `json:"category"`
	Images      []string              `json:"images"`
	CreatedAt   *time.Time            `json:"created_at,omitempty"`
}

type CatalogDTO struct {
	Status   catalog.Status `json:"status"`
	Products []ProductDTO   `json:"products"`
}

type TotalsDTO struct {
	Subtotal    string `json:"subtotal"`
	ShippingFee string `json:"shipping_fee"`
	Tax         string `json:"tax"`
	GrandTotal  string `json:"grand_total"`
}

type LineItemDTO struct {
	ID        string               `json:"id"`
	ProductID string               `json:"product_id"`
	Name      string               `json:"name"`
	Price     string               `json:"price"`
	Image     string               `json:"image,omitempty"`
	Brand     string               `json:"brand,omitempty"`
	Category  string               `json:"category,omitempty"`
	Variant   *domain.ColorVariant `json:"variant,omitempty"`
	Quantity  int                  `json:"quantity"`
	LineTotal string               `json:"line_total"`
	AddedAt   time.Time            `json:"added_at"`
}

type CartDTO struct {
	UserID    string        `json:"user_id"`
	Items     []LineItemDTO `json:"items"`
	UnitCount int           `json:"unit_count"`
	Totals    TotalsDTO     `json:"totals"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type CheckoutDTO struct {
	Step          domain.CheckoutStep `json:"step"`
	Address       *domain.Address     `json:"address,omitempty"`
	PaymentMethod string              `json:"payment_method,omitempty"`
	PaymentLabel  string              `json:"payment_label,omitempty"`
	UnitCount     int                 `json:"unit_count"`
	Totals        TotalsDTO           `json:"totals"`
	LastOrderID   *uuid.UUID          `json:"last_order_id,omitempty"`
}

type OrderDTO struct {
	ID            uuid.UUID      `json:"id"`
	Items         []LineItemDTO  `json:"items"`
	UnitCount     int            `json:"unit_count"`
	Totals        TotalsDTO      `json:"totals"`
	Currency      string         `json:"currency"`
	Address       domain.Address `json:"shipping_address"`
	PaymentMethod string         `json:"payment_method"`
	PaymentLabel  string         `json:"payment_label"`
	Status        string         `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
}

type PaymentMethodDTO struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

func toProductDTO(p domain.Product) ProductDTO {
	colors := p.Colors
	if colors == nil {
		colors = []domain.ColorVariant{}
	}
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Price:       pricing.Format(p.Price),
		Description: p.Description,
		Brand:       p.Brand,
		Stock:       p.Stock,
		Colors:      colors,
		Category:    p.Category,
		Images:      images,
		CreatedAt:   p.CreatedAt,
	}
}

func toProductDTOs(products []domain.Product) []ProductDTO {
	out := make([]ProductDTO, len(products))
	for i, p := range products {
		out[i] = toProductDTO(p)
	}
	return out
}

func toTotalsDTO(t domain.Totals) TotalsDTO {
	return TotalsDTO{
		Subtotal:    pricing.Format(t.Subtotal),
		ShippingFee: pricing.Format(t.ShippingFee),
		Tax:         pricing.Format(t.Tax),
		GrandTotal:  pricing.Format(t.GrandTotal),
	}
}

func toLineItemDTOs(items []domain.LineItem) []LineItemDTO {
	out := make([]LineItemDTO, len(items))
	for i, item := range items {
		out[i] = LineItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     pricing.Format(item.Price),
			Image:     item.Image,
			Brand:     item.Brand,
			Category:  item.Category,
			Variant:   item.Variant,
			Quantity:  item.Quantity,
			LineTotal: pricing.Format(item.LineTotal()),
			AddedAt:   item.AddedAt,
		}
	}
	return out
}

func toCartDTO(v *service.CartView) CartDTO {
	return CartDTO{
		UserID:    v.UserID,
		Items:     toLineItemDTOs(v.Items),
		UnitCount: v.UnitCount,
		Totals:    toTotalsDTO(v.Totals),
		UpdatedAt: v.UpdatedAt,
	}
}

func toCheckoutDTO(v *service.CheckoutView) CheckoutDTO {
	return CheckoutDTO{
		Step:          v.Step,
		Address:       v.Address,
		PaymentMethod: string(v.PaymentMethod),
		PaymentLabel:  v.PaymentLabel,
		UnitCount:     v.UnitCount,
		Totals:        toTotalsDTO(v.Totals),
		LastOrderID:   v.LastOrderID,
	}
}

func toOrderDTO(o *domain.Order) OrderDTO {
	return OrderDTO{
		ID:            o.ID,
		Items:         toLineItemDTOs(o.Items),
		UnitCount:     o.UnitCount(),
		Totals:        toTotalsDTO(o.Totals),
		Currency:      o.Currency,
		Address:       o.Address,
		PaymentMethod: string(o.PaymentMethod),
		PaymentLabel:  o.PaymentLabel,
		Status:        string(o.Status),
		CreatedAt:     o.CreatedAt,
	}
}

func toOrderDTOs(orders []*domain.Order) []OrderDTO {
	out := make([]OrderDTO, len(orders))
	for i, o := range orders {
		out[i] = toOrderDTO(o)
	}
	return out
}
