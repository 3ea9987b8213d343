package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    CheckoutStatus
		to      CheckoutStatus
		allowed bool
	}{
		{"editing to submitting", CheckoutStatusEditing, CheckoutStatusSubmitting, true},
		{"editing straight to completed", CheckoutStatusEditing, CheckoutStatusCompleted, false},
		{"submitting to completed", CheckoutStatusSubmitting, CheckoutStatusCompleted, true},
		{"submitting to payment pending", CheckoutStatusSubmitting, CheckoutStatusPaymentPending, true},
		{"submitting to failed", CheckoutStatusSubmitting, CheckoutStatusFailed, true},
		{"payment pending to completed", CheckoutStatusPaymentPending, CheckoutStatusCompleted, true},
		{"payment pending retry", CheckoutStatusPaymentPending, CheckoutStatusPaymentPending, true},
		{"payment pending back to editing", CheckoutStatusPaymentPending, CheckoutStatusEditing, false},
		{"completed is terminal", CheckoutStatusCompleted, CheckoutStatusSubmitting, false},
		{"failed allows resubmission", CheckoutStatusFailed, CheckoutStatusSubmitting, true},
		{"failed straight to completed", CheckoutStatusFailed, CheckoutStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransitionTo(tt.from, tt.to))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, CheckoutStatusCompleted.IsTerminal())
	assert.False(t, CheckoutStatusFailed.IsTerminal(), "a failed submission can be corrected and resubmitted")
	assert.False(t, CheckoutStatusEditing.IsTerminal())
	assert.False(t, CheckoutStatusSubmitting.IsTerminal())
	assert.False(t, CheckoutStatusPaymentPending.IsTerminal())
}
