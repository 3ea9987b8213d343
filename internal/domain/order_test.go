package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft() OrderDraft {
	return OrderDraft{
		FirstName:     "Lina",
		LastName:      "Haddad",
		Email:         "lina@example.com",
		Phone:         "+961700000",
		AddressLine1:  "12 Bliss St",
		City:          "Beirut",
		State:         "Beirut",
		PostalCode:    "1103",
		Country:       "LB",
		PaymentMethod: PaymentMethodCashOnDelivery,
	}
}

func TestOrderDraftValidate_AllFieldsPresent(t *testing.T) {
	draft := validDraft()
	assert.Empty(t, draft.Validate())
}

func TestOrderDraftValidate_MissingRequiredFields(t *testing.T) {
	draft := validDraft()
	draft.Email = ""
	draft.City = ""

	problems := draft.Validate()
	require.Len(t, problems, 2)
	assert.Contains(t, problems, "email")
	assert.Contains(t, problems, "city")
}

func TestOrderDraftValidate_OptionalFieldsMayBeEmpty(t *testing.T) {
	draft := validDraft()
	draft.AddressLine2 = ""
	draft.Notes = ""
	draft.Location = nil
	assert.Empty(t, draft.Validate())
}

func TestOrderDraftValidate_UnknownPaymentMethod(t *testing.T) {
	draft := validDraft()
	draft.PaymentMethod = "bank_transfer"

	problems := draft.Validate()
	assert.Contains(t, problems, "payment_method")
}

func TestCartLineSubtotal(t *testing.T) {
	line := CartLine{
		UnitPrice: decimal.RequireFromString("19.90"),
		Quantity:  3,
	}
	assert.True(t, line.Subtotal().Equal(decimal.RequireFromString("59.70")))
}

func TestCartCountAndTotal(t *testing.T) {
	cart := Cart{
		Items: []CartLine{
			{ID: 1, UnitPrice: decimal.RequireFromString("10.00"), Quantity: 2},
			{ID: 2, UnitPrice: decimal.RequireFromString("4.25"), Quantity: 4},
		},
	}
	assert.Equal(t, 6, cart.Count())
	assert.True(t, cart.Total().Equal(decimal.RequireFromString("37.00")))
}
