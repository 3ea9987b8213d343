package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCreditCard     PaymentMethod = "credit_card"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCreditCard || m == PaymentMethodCashOnDelivery
}

// GeoPoint is the optional device-location enrichment attached to a draft.
// All three fields travel together; an absent point omits all of them.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Details   string  `json:"location_details,omitempty"`
}

// OrderDraft is the form-shaped record collected at checkout. Required fields
// must be non-empty before submission is attempted; Location and Notes are
// optional.
type OrderDraft struct {
	FirstName     string        `json:"first_name"`
	LastName      string        `json:"last_name"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone"`
	AddressLine1  string        `json:"address_line1"`
	AddressLine2  string        `json:"address_line2,omitempty"`
	City          string        `json:"city"`
	State         string        `json:"state"`
	PostalCode    string        `json:"postal_code"`
	Country       string        `json:"country"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Location      *GeoPoint     `json:"location,omitempty"`
	Notes         string        `json:"notes,omitempty"`
}

var ErrInvalidDraft = errors.New("order draft has missing or invalid fields")

// Validate returns per-field messages for every required field that is empty
// or invalid. An empty map means the draft may be submitted.
func (d *OrderDraft) Validate() map[string]string {
	problems := make(map[string]string)
	required := map[string]string{
		"first_name":    d.FirstName,
		"last_name":     d.LastName,
		"email":         d.Email,
		"phone":         d.Phone,
		"address_line1": d.AddressLine1,
		"city":          d.City,
		"state":         d.State,
		"postal_code":   d.PostalCode,
		"country":       d.Country,
	}
	for field, value := range required {
		if value == "" {
			problems[field] = "is required"
		}
	}
	if !d.PaymentMethod.Valid() {
		problems["payment_method"] = "must be credit_card or cash_on_delivery"
	}
	return problems
}

// TemporaryOrder is the server-issued handle created before payment capture on
// the credit-card path. It becomes a real order only after the capture step
// confirms; abandonment cleanup is the server's problem.
type TemporaryOrder struct {
	ID        string          `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}
