package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is the client's read-mostly copy of a server-owned cart line.
// Quantity is the last server-confirmed value; optimistic display quantities
// live in the cartstate package, not here.
type CartLine struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Stock     int             `json:"stock"`
	AddedAt   time.Time       `json:"added_at,omitempty"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Cart struct {
	SessionID string     `json:"session_id"`
	Items     []CartLine `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Count is the total item count across lines, the number the header badge shows.
func (c *Cart) Count() int {
	total := 0
	for _, l := range c.Items {
		total += l.Quantity
	}
	return total
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Items {
		total = total.Add(l.Subtotal())
	}
	return total
}
