package controller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Mohsen-it/beauty-store-sub000/internal/domain"
	"github.com/Mohsen-it/beauty-store-sub000/internal/gateway"
	"github.com/Mohsen-it/beauty-store-sub000/internal/geo"
)

// PaymentCapturer is the payment provider's client library, treated as opaque.
// A nil error means the charge was confirmed.
type PaymentCapturer interface {
	Capture(ctx context.Context, order *domain.TemporaryOrder) error
}

var (
	ErrNotEditing   = errors.New("checkout already submitted")
	ErrNoPaymentDue = errors.New("no payment is pending capture")
)

// Checkout drives one order submission through
// EDITING -> SUBMITTING -> {COMPLETED, PAYMENT_PENDING, FAILED}.
// Cash-on-delivery completes (or fails) directly; credit-card parks in
// PAYMENT_PENDING holding a TemporaryOrder until CapturePayment confirms.
type Checkout struct {
	gw       CartGateway
	payments PaymentCapturer
	locator  geo.Locator

	mu          sync.Mutex
	status      domain.CheckoutStatus
	draft       domain.OrderDraft
	temp        *domain.TemporaryOrder
	orderID     string
	fieldErrors map[string]string
}

// NewCheckout starts a checkout session in EDITING. payments may be nil when
// only cash-on-delivery is offered; Submit then rejects credit-card drafts.
func (c *Controller) NewCheckout(payments PaymentCapturer) *Checkout {
	return &Checkout{
		gw:       c.gw,
		payments: payments,
		locator:  c.locator,
		status:   domain.CheckoutStatusEditing,
	}
}

func (ck *Checkout) Status() domain.CheckoutStatus {
	ck.mu.Lock()
	defer ck.mu.Unlock()
	return ck.status
}

// FieldErrors returns per-field validation messages from the last failed
// submission attempt.
func (ck *Checkout) FieldErrors() map[string]string {
	ck.mu.Lock()
	defer ck.mu.Unlock()
	return ck.fieldErrors
}

func (ck *Checkout) OrderID() string {
	ck.mu.Lock()
	defer ck.mu.Unlock()
	return ck.orderID
}

func (ck *Checkout) TemporaryOrder() *domain.TemporaryOrder {
	ck.mu.Lock()
	defer ck.mu.Unlock()
	return ck.temp
}

// ResolveLocation asks the device for its position with high accuracy, a
// fixed timeout and no cached position. Strictly best-effort: any failure is
// logged and yields nil, which simply omits the optional fields from the
// draft. Never blocks checkout.
func (ck *Checkout) ResolveLocation(ctx context.Context) *domain.GeoPoint {
	if ck.locator == nil {
		return nil
	}
	pos, err := ck.locator.CurrentPosition(ctx, geo.DefaultOptions())
	if err != nil {
		log.Printf("geolocation unavailable: %v", err)
		return nil
	}
	return &domain.GeoPoint{
		Latitude:  pos.Latitude,
		Longitude: pos.Longitude,
		Details:   pos.Details,
	}
}

// Submit validates the draft and runs the branch its payment method selects.
// Cash-on-delivery never constructs a TemporaryOrder; credit-card holds one
// in PAYMENT_PENDING before any capture is attempted. After a server-side
// rejection the session lands in FAILED with field errors shown inline, and a
// corrected draft may be submitted again on the same session.
func (ck *Checkout) Submit(ctx context.Context, draft domain.OrderDraft) error {
	ck.mu.Lock()

	if ck.status != domain.CheckoutStatusEditing && ck.status != domain.CheckoutStatusFailed {
		ck.mu.Unlock()
		return ErrNotEditing
	}

	if problems := draft.Validate(); len(problems) > 0 {
		// The form shows the problems inline; no state change.
		ck.fieldErrors = problems
		ck.mu.Unlock()
		return domain.ErrInvalidDraft
	}
	if draft.PaymentMethod == domain.PaymentMethodCreditCard && ck.payments == nil {
		ck.fieldErrors = map[string]string{"payment_method": "credit card payments are not available"}
		ck.mu.Unlock()
		return domain.ErrInvalidDraft
	}
	ck.fieldErrors = nil
	ck.draft = draft
	ck.transition(domain.CheckoutStatusSubmitting)
	// Release the lock for the round-trip so Status and FieldErrors stay
	// responsive while the request is in flight.
	ck.mu.Unlock()

	switch draft.PaymentMethod {
	case domain.PaymentMethodCashOnDelivery:
		orderID, err := ck.gw.PlaceOrder(ctx, draft)

		ck.mu.Lock()
		defer ck.mu.Unlock()
		if err != nil {
			ck.fieldErrors = gateway.FieldErrors(err)
			ck.transition(domain.CheckoutStatusFailed)
			return err
		}
		ck.orderID = orderID
		ck.transition(domain.CheckoutStatusCompleted)
		return nil

	case domain.PaymentMethodCreditCard:
		temp, err := ck.gw.CreateTemporaryOrder(ctx, draft)

		ck.mu.Lock()
		defer ck.mu.Unlock()
		if err != nil {
			ck.fieldErrors = gateway.FieldErrors(err)
			ck.transition(domain.CheckoutStatusFailed)
			return err
		}
		ck.temp = temp
		ck.transition(domain.CheckoutStatusPaymentPending)
		return nil
	}

	// Validate() guarantees a known method; unreachable.
	return fmt.Errorf("unknown payment method %q", draft.PaymentMethod)
}

// CapturePayment hands the held TemporaryOrder to the payment provider. On
// decline the session stays in PAYMENT_PENDING so the buyer can retry without
// re-entering shipping details.
func (ck *Checkout) CapturePayment(ctx context.Context) error {
	ck.mu.Lock()
	if ck.status != domain.CheckoutStatusPaymentPending || ck.temp == nil {
		ck.mu.Unlock()
		return ErrNoPaymentDue
	}
	temp := ck.temp
	ck.mu.Unlock()

	if err := ck.payments.Capture(ctx, temp); err != nil {
		return fmt.Errorf("payment capture: %w", err)
	}

	ck.mu.Lock()
	defer ck.mu.Unlock()
	ck.transition(domain.CheckoutStatusCompleted)
	return nil
}

func (ck *Checkout) transition(to domain.CheckoutStatus) {
	if !domain.CanTransitionTo(ck.status, to) {
		// States are driven internally; an illegal hop is a programming error.
		log.Printf("illegal checkout transition %s -> %s", ck.status, to)
		return
	}
	ck.status = to
}
