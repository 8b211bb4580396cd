package publisher

import (
	"time"

	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newOrder() *domain.Order {
	return &domain.Order{
		ID:     uuid.New(),
		UserID: "user-1",
		Items: []domain.LineItem{
			{ID: "a-no-variant", ProductID: "a", Name: "Runner", Price: decimal.RequireFromString("10"), Quantity: 1},
		},
		Totals: domain.Totals{
			Subtotal:    decimal.RequireFromString("10"),
			ShippingFee: decimal.RequireFromString("5.99"),
			Tax:         decimal.RequireFromString("1"),
			GrandTotal:  decimal.RequireFromString("16.99"),
		},
		Currency:      "USD",
		PaymentMethod: domain.PaymentCash,
		Status:        domain.OrderStatusConfirmed,
		CreatedAt:     time.Now().UTC(),
	}
}
