package domain

type CheckoutStatus string

const (
	CheckoutStatusEditing        CheckoutStatus = "EDITING"
	CheckoutStatusSubmitting     CheckoutStatus = "SUBMITTING"
	CheckoutStatusPaymentPending CheckoutStatus = "PAYMENT_PENDING"
	CheckoutStatusCompleted      CheckoutStatus = "COMPLETED"
	CheckoutStatusFailed         CheckoutStatus = "FAILED"
)

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusCompleted
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}

// CanTransitionTo encodes the legal submission flow: drafts are edited, then
// submitted; cash-on-delivery completes or fails directly, credit-card parks
// in PAYMENT_PENDING until capture succeeds. A declined capture stays in
// PAYMENT_PENDING so the buyer can retry without re-entering the draft, and a
// FAILED submission may be corrected and submitted again.
func CanTransitionTo(from, to CheckoutStatus) bool {
	switch from {
	case CheckoutStatusEditing:
		return to == CheckoutStatusSubmitting
	case CheckoutStatusSubmitting:
		return to == CheckoutStatusCompleted ||
			to == CheckoutStatusPaymentPending ||
			to == CheckoutStatusFailed
	case CheckoutStatusPaymentPending:
		return to == CheckoutStatusCompleted || to == CheckoutStatusPaymentPending
	case CheckoutStatusFailed:
		return to == CheckoutStatusSubmitting
	default:
		return false
	}
}
