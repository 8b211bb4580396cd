package domain

type CheckoutStep string

const (
	StepCart             CheckoutStep = "CART"
	StepAddressEntry     CheckoutStep = "ADDRESS_ENTRY"
	StepPaymentSelection CheckoutStep = "PAYMENT_SELECTION"
	StepConfirmed        CheckoutStep = "CONFIRMED"
)

var allowedTransitions = map[CheckoutStep][]CheckoutStep{
	StepCart:             {StepAddressEntry},
	StepAddressEntry:     {StepPaymentSelection, StepCart},
	StepPaymentSelection: {StepConfirmed, StepCart},
	// a confirmed flow may start a new purchase
	StepConfirmed: {StepAddressEntry, StepCart},
}

// CanTransitionTo reports whether the flow may move from one step to another.
// Moving back to StepCart is abandoning the flow.
func CanTransitionTo(from, to CheckoutStep) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s CheckoutStep) String() string {
	return string(s)
}
