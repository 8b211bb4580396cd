package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrDuplicateOrder = errors.New("order already exists")
	ErrEventNotFound  = errors.New("outbox event not found")
)

const EventOrderPlaced = "OrderPlaced"

type Credentials struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// OutboxEvent is a pending notification recorded together with the order it
// describes.
type OutboxEvent struct {
	ID          int64           `db:"id"`
	AggregateID string          `db:"aggregate_id"`
	EventType   string          `db:"event_type"`
	Payload     json.RawMessage `db:"payload"`
	CreatedAt   time.Time       `db:"created_at"`
	ProcessedAt *time.Time      `db:"processed_at"`
}

// OrderRepository stores order history. CreateOrder either records the order
// and its outbox event or fails without recording anything.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	// ListOrdersByUserID returns the user's orders oldest first.
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	Close() error
}

type OutboxRepository interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
}

type Store interface {
	OrderRepository
	OutboxRepository
}

type orderPlacedItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Variant   string `json:"variant,omitempty"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type orderPlacedPayload struct {
	OrderID       string            `json:"order_id"`
	UserID        string            `json:"user_id"`
	Items         []orderPlacedItem `json:"items"`
	Subtotal      string            `json:"subtotal"`
	ShippingFee   string            `json:"shipping_fee"`
	Tax           string            `json:"tax"`
	GrandTotal    string            `json:"grand_total"`
	Currency      string            `json:"currency"`
	PaymentMethod string            `json:"payment_method"`
	PlacedAt      time.Time         `json:"placed_at"`
}

// OrderPlacedPayload renders the outbox payload for a new order. Amounts are
// exact decimal strings.
func OrderPlacedPayload(order *domain.Order) ([]byte, error) {
	items := make([]orderPlacedItem, len(order.Items))
	for i, item := range order.Items {
		items[i] = orderPlacedItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.Price.String(),
		}
		if item.Variant != nil {
			items[i].Variant = item.Variant.Name
		}
	}

	payload, err := json.Marshal(orderPlacedPayload{
		OrderID:       order.ID.String(),
		UserID:        order.UserID,
		Items:         items,
		Subtotal:      order.Totals.Subtotal.String(),
		ShippingFee:   order.Totals.ShippingFee.String(),
		Tax:           order.Totals.Tax.String(),
		GrandTotal:    order.Totals.GrandTotal.String(),
		Currency:      order.Currency,
		PaymentMethod: string(order.PaymentMethod),
		PlacedAt:      order.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal order placed payload: %w", err)
	}
	return payload, nil
}
