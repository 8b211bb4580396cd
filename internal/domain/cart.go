package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// NoVariant stands in for the variant name in line item keys of products added without a color.
const NoVariant = "no-variant"

// LineItemKey derives the line item identity from (productID, variant name).
// Product ids are catalog object ids and never contain a dash, so the first
// dash separates the id from the variant name.
func LineItemKey(productID string, variant *ColorVariant) string {
	name := NoVariant
	if variant != nil {
		name = variant.Name
	}
	return productID + "-" + name
}

// LineItem is one distinct (product, variant) combination. Product fields are a
// snapshot taken when the item was first added.
type LineItem struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	Brand     string          `json:"brand,omitempty"`
	Stock     int             `json:"stock"`
	Category  string          `json:"category,omitempty"`
	Variant   *ColorVariant   `json:"variant,omitempty"`
	Quantity  int             `json:"quantity"`
	AddedAt   time.Time       `json:"added_at"`
}

// LineTotal is price × quantity, unrounded.
func (i LineItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i LineItem) clone() LineItem {
	c := i
	if i.Variant != nil {
		v := *i.Variant
		c.Variant = &v
	}
	return c
}

// Cart is the session's ledger. Items keep insertion order.
type Cart struct {
	UserID    string     `json:"user_id"`
	Items     []LineItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func NewCart(userID string, now time.Time) *Cart {
	return &Cart{
		UserID:    userID,
		Items:     []LineItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Add merges into the existing line item for (product, variant) or appends a
// new one with quantity 1. Stock is not checked.
func (c *Cart) Add(p Product, variant *ColorVariant, now time.Time) LineItem {
	key := LineItemKey(p.ID, variant)
	if idx := c.indexOf(key); idx >= 0 {
		c.Items[idx].Quantity++
		c.touch(now)
		return c.Items[idx].clone()
	}

	item := LineItem{
		ID:        key,
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Image:     p.PrimaryImage(),
		Brand:     p.Brand,
		Stock:     p.Stock,
		Category:  p.Category,
		Quantity:  1,
		AddedAt:   now,
	}
	if variant != nil {
		v := *variant
		item.Variant = &v
	}
	c.Items = append(c.Items, item)
	c.touch(now)
	return item.clone()
}

// Increase adds one unit. Returns false when the item is absent.
func (c *Cart) Increase(itemID string, now time.Time) bool {
	idx := c.indexOf(itemID)
	if idx < 0 {
		return false
	}
	c.Items[idx].Quantity++
	c.touch(now)
	return true
}

// Decrease removes one unit; the item is removed when its quantity would reach 0.
// found is false when the item is absent, removed reports removal.
func (c *Cart) Decrease(itemID string, now time.Time) (found, removed bool) {
	idx := c.indexOf(itemID)
	if idx < 0 {
		return false, false
	}
	if c.Items[idx].Quantity > 1 {
		c.Items[idx].Quantity--
		c.touch(now)
		return true, false
	}
	c.removeAt(idx)
	c.touch(now)
	return true, true
}

func (c *Cart) Remove(itemID string, now time.Time) bool {
	idx := c.indexOf(itemID)
	if idx < 0 {
		return false
	}
	c.removeAt(idx)
	c.touch(now)
	return true
}

func (c *Cart) Clear(now time.Time) {
	c.Items = []LineItem{}
	c.touch(now)
}

func (c *Cart) Find(itemID string) (LineItem, bool) {
	idx := c.indexOf(itemID)
	if idx < 0 {
		return LineItem{}, false
	}
	return c.Items[idx].clone(), true
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// UnitCount is the sum of quantities over all line items.
func (c *Cart) UnitCount() int {
	n := 0
	for _, i := range c.Items {
		n += i.Quantity
	}
	return n
}

// Snapshot returns a deep copy of the line items.
func (c *Cart) Snapshot() []LineItem {
	out := make([]LineItem, len(c.Items))
	for i, item := range c.Items {
		out[i] = item.clone()
	}
	return out
}

func (c *Cart) indexOf(itemID string) int {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(idx int) {
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
}

func (c *Cart) touch(now time.Time) {
	c.UpdatedAt = now
}
