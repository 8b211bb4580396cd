package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ColorVariant is a selectable color of a product. Name is unique within a product.
type ColorVariant struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Product mirrors the remote catalog API document.
type Product struct {
	ID          string          `json:"_id,omitempty"`
	Name        string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
	Brand       string          `json:"brandName"`
	Stock       int             `json:"stock"`
	Colors      []ColorVariant  `json:"colors"`
	Category    string          `json:"category"`
	Images      []string        `json:"images"`
	CreatedAt   *time.Time      `json:"createdAt,omitempty"`
}

// UnmarshalJSON accepts stock sent either as a number or as a numeric string,
// which is how the seller form posts it.
func (p *Product) UnmarshalJSON(data []byte) error {
	type alias Product
	aux := struct {
		*alias
		Stock json.RawMessage `json:"stock"`
	}{alias: (*alias)(p)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	raw := bytes.Trim(bytes.TrimSpace(aux.Stock), `"`)
	if len(raw) == 0 || string(raw) == "null" {
		p.Stock = 0
		return nil
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return fmt.Errorf("invalid stock %q: %w", string(raw), err)
	}
	p.Stock = n
	return nil
}

// Clone returns a copy that shares no slices with p.
func (p Product) Clone() Product {
	c := p
	c.Colors = append([]ColorVariant(nil), p.Colors...)
	c.Images = append([]string(nil), p.Images...)
	if p.CreatedAt != nil {
		t := *p.CreatedAt
		c.CreatedAt = &t
	}
	return c
}

func (p Product) HasVariants() bool {
	return len(p.Colors) > 0
}

func (p Product) Variant(name string) (ColorVariant, bool) {
	for _, c := range p.Colors {
		if c.Name == name {
			return c, true
		}
	}
	return ColorVariant{}, false
}

// PrimaryImage is images[0], or "" when the product has no images.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Validate applies the seller-side form rules.
func (p Product) Validate() error {
	var missing []string
	if strings.TrimSpace(p.Name) == "" {
		missing = append(missing, "productName")
	}
	if strings.TrimSpace(p.Brand) == "" {
		missing = append(missing, "brandName")
	}
	if strings.TrimSpace(p.Category) == "" {
		missing = append(missing, "category")
	}
	if len(p.Images) == 0 {
		missing = append(missing, "images")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Err: ErrInvalidProduct, Fields: missing}
	}
	if !p.Price.IsPositive() {
		return fmt.Errorf("%w: price must be greater than 0", ErrInvalidProduct)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrInvalidProduct)
	}
	return nil
}
