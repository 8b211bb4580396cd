package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProduct(id string, price string, colors ...ColorVariant) Product {
	return Product{
		ID:       id,
		Name:     "Product " + id,
		Price:    decimal.RequireFromString(price),
		Brand:    "Nemo",
		Stock:    3,
		Colors:   colors,
		Category: "shoes",
		Images:   []string{"https://img/" + id + "-1.png", "https://img/" + id + "-2.png"},
	}
}

func TestLineItemKey(t *testing.T) {
	assert.Equal(t, "p1-no-variant", LineItemKey("p1", nil))
	assert.Equal(t, "p1-Red", LineItemKey("p1", &ColorVariant{Name: "Red", Value: "#f00"}))

	key := LineItemKey("65f1c2a9e4b0d1a2b3c4d5e6", &ColorVariant{Name: "Navy-Blue"})
	id, variant, ok := strings.Cut(key, "-")
	require.True(t, ok)
	assert.Equal(t, "65f1c2a9e4b0d1a2b3c4d5e6", id)
	assert.Equal(t, "Navy-Blue", variant)
}

func TestAdd_SameProductAndVariantMerges(t *testing.T) {
	now := time.Now()
	red := ColorVariant{Name: "Red", Value: "#f00"}
	p := testProduct("p1", "10.00", red)

	c := NewCart("u1", now)
	c.Add(p, &red, now)
	c.Add(p, &red, now)

	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.Equal(t, "p1-Red", c.Items[0].ID)
}

func TestAdd_NoVariantTwiceMerges(t *testing.T) {
	now := time.Now()
	c := NewCart("u1", now)
	p := testProduct("p1", "10.00")
	c.Add(p, nil, now)
	c.Add(p, nil, now)

	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)
}

func TestAdd_DistinctVariantsAreDistinctItems(t *testing.T) {
	now := time.Now()
	red := ColorVariant{Name: "Red", Value: "#f00"}
	blue := ColorVariant{Name: "Blue", Value: "#00f"}
	p := testProduct("p1", "10.00", red, blue)

	c := NewCart("u1", now)
	c.Add(p, &red, now)
	c.Add(p, &blue, now)

	require.Len(t, c.Items, 2)
	assert.Equal(t, "p1-Red", c.Items[0].ID)
	assert.Equal(t, "p1-Blue", c.Items[1].ID)
	assert.Equal(t, 1, c.Items[0].Quantity)
	assert.Equal(t, 1, c.Items[1].Quantity)
}

func TestAdd_SnapshotsProductFields(t *testing.T) {
	now := time.Now()
	red := ColorVariant{Name: "Red", Value: "#f00"}
	p := testProduct("p1", "10.00", red)

	c := NewCart("u1", now)
	c.Add(p, &red, now)

	// later catalog changes must not leak into the cart
	p.Price = decimal.RequireFromString("99.00")
	p.Name = "Renamed"
	red.Name = "Crimson"

	item := c.Items[0]
	assert.True(t, decimal.RequireFromString("10.00").Equal(item.Price))
	assert.Equal(t, "Product p1", item.Name)
	assert.Equal(t, "https://img/p1-1.png", item.Image)
	assert.Equal(t, "Nemo", item.Brand)
	assert.Equal(t, 3, item.Stock)
	assert.Equal(t, "shoes", item.Category)
	require.NotNil(t, item.Variant)
	assert.Equal(t, "Red", item.Variant.Name)
}

func TestAdd_IgnoresStock(t *testing.T) {
	now := time.Now()
	p := testProduct("p1", "1.00")
	p.Stock = 0

	c := NewCart("u1", now)
	for i := 0; i < 5; i++ {
		c.Add(p, nil, now)
	}
	assert.Equal(t, 5, c.Items[0].Quantity)
}

func TestIncreaseAndDecrease(t *testing.T) {
	now := time.Now()
	c := NewCart("u1", now)
	item := c.Add(testProduct("a", "10.00"), nil, now)

	assert.True(t, c.Increase(item.ID, now))
	assert.True(t, c.Increase(item.ID, now))
	got, ok := c.Find(item.ID)
	require.True(t, ok)
	assert.Equal(t, 3, got.Quantity)

	found, removed := c.Decrease(item.ID, now)
	assert.True(t, found)
	assert.False(t, removed)
	found, removed = c.Decrease(item.ID, now)
	assert.True(t, found)
	assert.False(t, removed)

	got, ok = c.Find(item.ID)
	require.True(t, ok)
	assert.Equal(t, 1, got.Quantity)

	found, removed = c.Decrease(item.ID, now)
	assert.True(t, found)
	assert.True(t, removed)
	_, ok = c.Find(item.ID)
	assert.False(t, ok)
	assert.True(t, c.IsEmpty())
}

func TestMissingItemIsNoOp(t *testing.T) {
	now := time.Now()
	c := NewCart("u1", now)
	c.Add(testProduct("a", "10.00"), nil, now)

	assert.False(t, c.Increase("missing", now))
	found, removed := c.Decrease("missing", now)
	assert.False(t, found)
	assert.False(t, removed)
	assert.False(t, c.Remove("missing", now))
	assert.Len(t, c.Items, 1)
	assert.Equal(t, 1, c.Items[0].Quantity)
}

func TestRemoveKeepsInsertionOrder(t *testing.T) {
	now := time.Now()
	c := NewCart("u1", now)
	c.Add(testProduct("a", "1.00"), nil, now)
	c.Add(testProduct("b", "1.00"), nil, now)
	c.Add(testProduct("c", "1.00"), nil, now)

	require.True(t, c.Remove("b-no-variant", now))
	require.Len(t, c.Items, 2)
	assert.Equal(t, "a-no-variant", c.Items[0].ID)
	assert.Equal(t, "c-no-variant", c.Items[1].ID)
}

func TestClear(t *testing.T) {
	now := time.Now()
	c := NewCart("u1", now)
	c.Add(testProduct("a", "1.00"), nil, now)
	c.Add(testProduct("b", "1.00"), nil, now)

	c.Clear(now)
	assert.True(t, c.IsEmpty())
	assert.Equal(t, 0, c.UnitCount())
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	now := time.Now()
	red := ColorVariant{Name: "Red", Value: "#f00"}
	c := NewCart("u1", now)
	c.Add(testProduct("a", "1.00", red), &red, now)

	snap := c.Snapshot()
	snap[0].Quantity = 42
	snap[0].Variant.Name = "Green"

	assert.Equal(t, 1, c.Items[0].Quantity)
	assert.Equal(t, "Red", c.Items[0].Variant.Name)
}

func TestLineTotal(t *testing.T) {
	item := LineItem{Price: decimal.RequireFromString("2.35"), Quantity: 3}
	assert.Equal(t, "7.05", item.LineTotal().StringFixed(2))
}
