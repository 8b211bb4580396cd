package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Address struct {
	FullName   string `json:"full_name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone"`
}

// Validate only checks presence; formats are not validated.
func (a Address) Validate() error {
	var missing []string
	for _, f := range []struct {
		name, value string
	}{
		{"full_name", a.FullName},
		{"street", a.Street},
		{"city", a.City},
		{"postal_code", a.PostalCode},
		{"phone", a.Phone},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Err: ErrAddressIncomplete, Fields: missing}
	}
	return nil
}

type PaymentMethod string

const (
	PaymentCard   PaymentMethod = "card"
	PaymentPayPal PaymentMethod = "paypal"
	PaymentApple  PaymentMethod = "apple"
	PaymentCash   PaymentMethod = "cash"
)

var paymentLabels = map[PaymentMethod]string{
	PaymentCard:   "Credit/Debit Card",
	PaymentPayPal: "PayPal",
	PaymentApple:  "Apple Pay",
	PaymentCash:   "Cash on Delivery",
}

// PaymentMethods lists the selectable methods in display order.
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{PaymentCard, PaymentPayPal, PaymentApple, PaymentCash}
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return "", ErrPaymentMethodRequired
	}
	m := PaymentMethod(s)
	if _, ok := paymentLabels[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, s)
	}
	return m, nil
}

func (m PaymentMethod) Label() string {
	return paymentLabels[m]
}

// Totals is derived from a ledger and never stored on the cart.
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Tax         decimal.Decimal `json:"tax"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
}

type OrderStatus string

const (
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
)

// Order is the immutable record of a completed checkout.
type Order struct {
	ID            uuid.UUID     `json:"id"`
	UserID        string        `json:"user_id"`
	Items         []LineItem    `json:"items"`
	Totals        Totals        `json:"totals"`
	Currency      string        `json:"currency"`
	Address       Address       `json:"shipping_address"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	PaymentLabel  string        `json:"payment_label"`
	Status        OrderStatus   `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Clone returns a deep copy so callers can never mutate a recorded order.
func (o *Order) Clone() *Order {
	c := *o
	c.Items = make([]LineItem, len(o.Items))
	for i, item := range o.Items {
		c.Items[i] = item.clone()
	}
	return &c
}

func (o *Order) UnitCount() int {
	n := 0
	for _, i := range o.Items {
		n += i.Quantity
	}
	return n
}
