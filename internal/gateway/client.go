// Package gateway is the HTTP client for the storefront cart and order
// endpoints. It normalizes the server's response shapes into typed results at
// the trust boundary, attaches the anti-forgery token to every mutating call
// and transparently refreshes it once on a 419 before failing.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Mohsen-it/beauty-store-sub000/internal/domain"
	"github.com/Mohsen-it/beauty-store-sub000/internal/token"
)

// StatusTokenExpired is the non-standard status the backend uses for a stale
// anti-forgery token.
const StatusTokenExpired = 419

const defaultTimeout = 15 * time.Second

// serverReply is the union of every payload the backend returns. Parsed once
// here so nothing downstream handles raw untyped data.
type serverReply struct {
	Success        bool                   `json:"success"`
	Count          int                    `json:"count"`
	Message        string                 `json:"message,omitempty"`
	Errors         map[string]string      `json:"errors,omitempty"`
	OrderID        string                 `json:"order_id,omitempty"`
	TemporaryOrder *domain.TemporaryOrder `json:"temporary_order,omitempty"`
}

type result struct {
	status int
	reply  serverReply
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     *token.Source
	breaker    *gobreaker.CircuitBreaker[result]
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(baseURL string, tokens *token.Source, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   defaultTimeout,
		},
		baseURL: baseURL,
		tokens:  tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker[result](gobreaker.Settings{
		Name: "cart-gateway",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return c
}

type addItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// AddItem puts quantity units of a product in the cart and returns the new
// total item count. The quantity floor is a UX guard; the server re-validates
// stock authoritatively.
func (c *Client) AddItem(ctx context.Context, productID int64, quantity int) (int, error) {
	if productID <= 0 {
		return 0, &Error{Kind: KindValidation, Message: "product_id must be positive"}
	}
	if quantity < 1 {
		return 0, &Error{Kind: KindValidation, Message: "quantity must be at least 1"}
	}
	reply, err := c.mutate(ctx, http.MethodPost, "/cart/add", addItemRequest{ProductID: productID, Quantity: quantity})
	if err != nil {
		return 0, err
	}
	return reply.Count, nil
}

// UpdateItemQuantity sets the quantity of an existing line and returns the new
// total count. Fails with KindNotFound when the line no longer exists
// server-side.
func (c *Client) UpdateItemQuantity(ctx context.Context, lineID int64, quantity int) (int, error) {
	if quantity < 1 {
		return 0, &Error{Kind: KindValidation, Message: "quantity must be at least 1"}
	}
	path := fmt.Sprintf("/cart/items/%d", lineID)
	reply, err := c.mutate(ctx, http.MethodPatch, path, updateQuantityRequest{Quantity: quantity})
	if err != nil {
		return 0, err
	}
	return reply.Count, nil
}

// RemoveItem deletes a line and returns the new total count.
func (c *Client) RemoveItem(ctx context.Context, lineID int64) (int, error) {
	path := fmt.Sprintf("/cart/items/%d", lineID)
	reply, err := c.mutate(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return 0, err
	}
	return reply.Count, nil
}

// ClearCart removes every line. Returns the new count, 0 on success.
func (c *Client) ClearCart(ctx context.Context) (int, error) {
	reply, err := c.mutate(ctx, http.MethodDelete, "/cart", nil)
	if err != nil {
		return 0, err
	}
	return reply.Count, nil
}

// CartCount reads the current total item count. Read-only, no token attached.
func (c *Client) CartCount(ctx context.Context) (int, error) {
	reply, err := c.send(ctx, http.MethodGet, "/cart/count", nil, "")
	if err != nil {
		return 0, err
	}
	return reply.Count, nil
}

// PlaceOrder submits a cash-on-delivery draft and returns the created order
// id. Validation failures carry per-field messages (see FieldErrors).
func (c *Client) PlaceOrder(ctx context.Context, draft domain.OrderDraft) (string, error) {
	reply, err := c.mutate(ctx, http.MethodPost, "/orders", draft)
	if err != nil {
		return "", err
	}
	return reply.OrderID, nil
}

// CreateTemporaryOrder submits a credit-card draft and returns the provisional
// order handle held until payment capture confirms.
func (c *Client) CreateTemporaryOrder(ctx context.Context, draft domain.OrderDraft) (*domain.TemporaryOrder, error) {
	reply, err := c.mutate(ctx, http.MethodPost, "/orders/temporary", draft)
	if err != nil {
		return nil, err
	}
	if reply.TemporaryOrder == nil {
		return nil, &Error{Kind: KindNetwork, Message: "server accepted draft without a temporary order"}
	}
	return reply.TemporaryOrder, nil
}

// mutate wraps send with the refresh-and-retry-once token decorator so the
// endpoint methods never see 419 mechanics.
func (c *Client) mutate(ctx context.Context, method, path string, body any) (*serverReply, error) {
	reply, err := c.send(ctx, method, path, body, c.tokens.Current())
	var ge *Error
	if err == nil || !errors.As(err, &ge) || ge.Kind != KindTokenExpired {
		return reply, err
	}

	// Token went stale mid-session: refresh once and replay the same call.
	fresh, refreshErr := c.tokens.Refresh(ctx)
	if refreshErr != nil {
		return nil, &Error{Kind: KindNetwork, Message: "anti-forgery token refresh failed", Err: refreshErr}
	}

	reply, err = c.send(ctx, method, path, body, fresh)
	if err != nil && errors.As(err, &ge) && ge.Kind == KindTokenExpired {
		// A fresh token was rejected too; the session itself is unusable.
		return nil, &Error{Kind: KindAuth, Message: "session expired", Err: err}
	}
	return reply, err
}

func (c *Client) send(ctx context.Context, method, path string, body any, csrf string) (*serverReply, error) {
	res, err := c.breaker.Execute(func() (result, error) {
		return c.roundTrip(ctx, method, path, body, csrf)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &Error{Kind: KindNetwork, Message: "cart service unavailable", Err: err}
		}
		return nil, &Error{Kind: KindNetwork, Message: "request failed", Err: err}
	}
	return interpret(res)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body any, csrf string) (result, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return result{}, fmt.Errorf("encode request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if csrf != "" {
		req.Header.Set("X-CSRF-Token", csrf)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return result{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var reply serverReply
	// Non-JSON bodies (proxies, panics) leave the zero reply; the status code
	// still drives classification.
	_ = json.NewDecoder(resp.Body).Decode(&reply)

	if resp.StatusCode >= 500 {
		// Count server errors against the breaker.
		return result{}, fmt.Errorf("server error: status %d", resp.StatusCode)
	}
	return result{status: resp.StatusCode, reply: reply}, nil
}

// interpret maps status codes to error kinds exactly once, at this boundary.
func interpret(res result) (*serverReply, error) {
	switch {
	case res.status == http.StatusUnauthorized:
		return nil, &Error{Kind: KindAuth, Message: messageOr(res.reply, "session expired")}
	case res.status == StatusTokenExpired:
		return nil, &Error{Kind: KindTokenExpired, Message: messageOr(res.reply, "anti-forgery token expired")}
	case res.status == http.StatusNotFound:
		return nil, &Error{Kind: KindNotFound, Message: messageOr(res.reply, "not found")}
	case res.status >= 400:
		return nil, &Error{
			Kind:    KindValidation,
			Message: messageOr(res.reply, "request rejected"),
			Fields:  res.reply.Errors,
		}
	case !res.reply.Success:
		return nil, &Error{
			Kind:    KindValidation,
			Message: messageOr(res.reply, "request rejected"),
			Fields:  res.reply.Errors,
		}
	}
	return &res.reply, nil
}

func messageOr(reply serverReply, fallback string) string {
	if reply.Message != "" {
		return reply.Message
	}
	return fallback
}
