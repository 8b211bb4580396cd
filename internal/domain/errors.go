package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyCart             = errors.New("cart is empty, nothing to checkout")
	ErrAddressIncomplete     = errors.New("please fill in all address fields")
	ErrPaymentMethodRequired = errors.New("please select a payment method")
	ErrUnknownPaymentMethod  = errors.New("unknown payment method")
	ErrVariantRequired       = errors.New("please select a color")
	ErrUnknownVariant        = errors.New("selected color is not available for this product")
	ErrInvalidProduct        = errors.New("invalid product")
	ErrIllegalTransition     = errors.New("illegal transition of checkout step")
)

// MissingFieldsError names the fields that failed a presence check.
type MissingFieldsError struct {
	Err    error
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("%v: missing %s", e.Err, strings.Join(e.Fields, ", "))
}

func (e *MissingFieldsError) Unwrap() error {
	return e.Err
}
