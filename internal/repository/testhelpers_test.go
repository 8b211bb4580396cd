package repository

import (
	"time"

	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newTestOrder(userID string, createdAt time.Time) *domain.Order {
	red := domain.ColorVariant{Name: "Red", Value: "#f00"}
	return &domain.Order{
		ID:     uuid.New(),
		UserID: userID,
		Items: []domain.LineItem{
			{ID: "a-no-variant", ProductID: "a", Name: "Runner", Price: decimal.RequireFromString("10.00"), Quantity: 2},
			{ID: "b-Red", ProductID: "b", Name: "Hoodie", Price: decimal.RequireFromString("25.00"), Quantity: 1, Variant: &red},
		},
		Totals: domain.Totals{
			Subtotal:    decimal.RequireFromString("45.00"),
			ShippingFee: decimal.RequireFromString("5.99"),
			Tax:         decimal.RequireFromString("4.5"),
			GrandTotal:  decimal.RequireFromString("55.49"),
		},
		Currency: "USD",
		Address: domain.Address{
			FullName: "Jo Doe", Street: "1 Main", City: "Dhaka", PostalCode: "1207", Phone: "555",
		},
		PaymentMethod: domain.PaymentCard,
		PaymentLabel:  domain.PaymentCard.Label(),
		Status:        domain.OrderStatusConfirmed,
		CreatedAt:     createdAt.UTC(),
	}
}
