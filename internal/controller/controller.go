// Package controller orchestrates user cart intents against the local state
// store and the remote gateway: optimistic write, network call, confirm or
// roll back, publish the confirmed count. The invariant defended here is that
// the UI never shows a quantity the server has not at least tentatively
// agreed to for longer than one failed round-trip.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Mohsen-it/beauty-store-sub000/internal/cartstate"
	"github.com/Mohsen-it/beauty-store-sub000/internal/domain"
	"github.com/Mohsen-it/beauty-store-sub000/internal/gateway"
	"github.com/Mohsen-it/beauty-store-sub000/internal/geo"
	"github.com/Mohsen-it/beauty-store-sub000/internal/notifier"
)

// CartGateway is the remote cart contract the controller drives. Satisfied by
// *gateway.Client; tests substitute mocks.
type CartGateway interface {
	AddItem(ctx context.Context, productID int64, quantity int) (int, error)
	UpdateItemQuantity(ctx context.Context, lineID int64, quantity int) (int, error)
	RemoveItem(ctx context.Context, lineID int64) (int, error)
	ClearCart(ctx context.Context) (int, error)
	CartCount(ctx context.Context) (int, error)
	PlaceOrder(ctx context.Context, draft domain.OrderDraft) (string, error)
	CreateTemporaryOrder(ctx context.Context, draft domain.OrderDraft) (*domain.TemporaryOrder, error)
}

// ErrReloadRequired is returned when the bulk clear path failed after the view
// was optimistically emptied. The bulk operation has no per-line rollback; the
// caller must re-seed from the server.
var ErrReloadRequired = errors.New("cart view may be stale, reload required")

type Controller struct {
	state  *cartstate.Store
	gw     CartGateway
	counts *notifier.CartCountNotifier

	locator geo.Locator

	onNotice       func(message string)
	onAuthRequired func()

	mu          sync.Mutex
	pendingAdds map[int64]struct{} // product ids with an add in flight
}

type Option func(*Controller)

// WithNotice installs the toast surface for user-visible failure messages.
func WithNotice(fn func(message string)) Option {
	return func(c *Controller) { c.onNotice = fn }
}

// WithAuthRedirect installs the redirect-to-login hook fired on auth failures.
func WithAuthRedirect(fn func()) Option {
	return func(c *Controller) { c.onAuthRequired = fn }
}

// WithLocator enables best-effort geolocation enrichment at checkout.
func WithLocator(l geo.Locator) Option {
	return func(c *Controller) { c.locator = l }
}

func New(state *cartstate.Store, gw CartGateway, counts *notifier.CartCountNotifier, opts ...Option) *Controller {
	c := &Controller{
		state:       state,
		gw:          gw,
		counts:      counts,
		pendingAdds: make(map[int64]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mount fetches the current count once at page load. Best effort: on failure
// the badge defaults to 0 rather than blocking the page.
func (c *Controller) Mount(ctx context.Context) {
	count, err := c.gw.CartCount(ctx)
	if err != nil {
		log.Printf("cart count fetch failed: %v", err)
		c.counts.Publish(0)
		return
	}
	c.counts.Publish(count)
}

// AddToCart puts quantity units of a product in the cart. Stock is a UX guard
// only; the server re-validates.
func (c *Controller) AddToCart(ctx context.Context, productID int64, quantity, stock int) error {
	if quantity < 1 {
		return nil
	}
	if stock > 0 && quantity > stock {
		c.notice(fmt.Sprintf("Only %d left in stock", stock))
		return nil
	}
	if !c.beginAdd(productID) {
		return nil // an add for this product is already in flight
	}
	defer c.endAdd(productID)

	count, err := c.gw.AddItem(ctx, productID, quantity)
	if err != nil {
		c.surface(err)
		return err
	}
	c.counts.Publish(count)
	return nil
}

// Increment raises the display quantity by one and confirms with the server.
func (c *Controller) Increment(ctx context.Context, lineID int64) error {
	line, ok := c.state.Line(lineID)
	if !ok {
		return nil
	}
	current, ok := c.state.DisplayQuantity(lineID)
	if !ok {
		return nil
	}
	target := current + 1
	if line.Stock > 0 && target > line.Stock {
		c.notice(fmt.Sprintf("Only %d left in stock", line.Stock))
		return nil
	}
	return c.changeQuantity(ctx, lineID, target)
}

// Decrement lowers the display quantity by one. At quantity 1 it is a no-op;
// removal is an explicit, separate intent.
func (c *Controller) Decrement(ctx context.Context, lineID int64) error {
	current, ok := c.state.DisplayQuantity(lineID)
	if !ok {
		return nil
	}
	target := current - 1
	if target < 1 {
		return nil
	}
	return c.changeQuantity(ctx, lineID, target)
}

// changeQuantity runs the optimistic mutation protocol for one line:
// Idle -> Pending (optimistic write) -> Idle on success, rolled back on
// failure. While Pending, further triggers for the line are suppressed.
func (c *Controller) changeQuantity(ctx context.Context, lineID int64, target int) error {
	if !c.state.BeginPending(lineID) {
		return nil // single-flight per line
	}
	defer c.state.EndPending(lineID)

	if !c.state.SetOverride(lineID, target) {
		return nil
	}

	count, err := c.gw.UpdateItemQuantity(ctx, lineID, target)
	if err != nil {
		if gateway.IsNotFound(err) {
			// The line vanished server-side; reconcile as removed. The
			// server's count did not change on our behalf, so publish nothing.
			c.state.RemoveLine(lineID)
			return nil
		}
		c.state.ClearOverride(lineID) // rollback to pre-mutation quantity
		c.surface(err)
		return err
	}

	c.state.ConfirmQuantity(lineID, target)
	c.counts.Publish(count)
	return nil
}

// Remove deletes a line. Idempotent from the caller's perspective: removing an
// already-removed line reconciles local state and reports success.
func (c *Controller) Remove(ctx context.Context, lineID int64) error {
	if _, ok := c.state.Line(lineID); !ok {
		return nil // already gone
	}
	if !c.state.BeginPending(lineID) {
		return nil
	}
	defer c.state.EndPending(lineID)

	count, err := c.gw.RemoveItem(ctx, lineID)
	if err != nil {
		if gateway.IsNotFound(err) {
			c.state.RemoveLine(lineID)
			return nil
		}
		// Line stays present; nothing to roll back for removal.
		c.surface(err)
		return err
	}

	c.state.RemoveLine(lineID)
	c.counts.Publish(count)
	return nil
}

// Clear empties the cart. The optimistic write is cart-granular and the
// source's bulk path has no per-line rollback: on failure the caller gets
// ErrReloadRequired and must re-seed the view.
func (c *Controller) Clear(ctx context.Context) error {
	c.state.Clear()

	count, err := c.gw.ClearCart(ctx)
	if err != nil {
		c.surface(err)
		return errors.Join(ErrReloadRequired, err)
	}
	c.counts.Publish(count)
	return nil
}

// Reload re-seeds the local view from server data (used after
// ErrReloadRequired; the lines come from a fresh page fetch).
func (c *Controller) Reload(lines []domain.CartLine) {
	c.state.Seed(lines)
}

func (c *Controller) beginAdd(productID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, inFlight := c.pendingAdds[productID]; inFlight {
		return false
	}
	c.pendingAdds[productID] = struct{}{}
	return true
}

func (c *Controller) endAdd(productID int64) {
	c.mu.Lock()
	delete(c.pendingAdds, productID)
	c.mu.Unlock()
}

// surface routes a gateway failure to the right user-visible outcome.
func (c *Controller) surface(err error) {
	if gateway.IsAuth(err) {
		if c.onAuthRequired != nil {
			c.onAuthRequired()
		}
		return
	}
	c.notice(userMessage(err))
}

func (c *Controller) notice(message string) {
	if c.onNotice != nil {
		c.onNotice(message)
	}
}

func userMessage(err error) string {
	var ge *gateway.Error
	if errors.As(err, &ge) && ge.Message != "" {
		return ge.Message
	}
	return "Something went wrong, please try again"
}
