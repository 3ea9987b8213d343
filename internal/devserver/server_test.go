package devserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsen-it/beauty-store-sub000/internal/cartstate"
	"github.com/Mohsen-it/beauty-store-sub000/internal/controller"
	"github.com/Mohsen-it/beauty-store-sub000/internal/domain"
	"github.com/Mohsen-it/beauty-store-sub000/internal/gateway"
	"github.com/Mohsen-it/beauty-store-sub000/internal/notifier"
	"github.com/Mohsen-it/beauty-store-sub000/internal/token"
)

func testCatalog() []Product {
	return []Product{
		{ID: 7, Name: "Rose Glow Serum", Price: decimal.RequireFromString("34.50"), Stock: 5},
		{ID: 8, Name: "Velvet Matte Lipstick", Price: decimal.RequireFromString("19.90"), Stock: 3},
	}
}

func setupBackend(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	backend := New(NewMemoryStore(), testCatalog())
	srv := httptest.NewServer(backend.Router())
	t.Cleanup(srv.Close)
	return backend, srv
}

func setupGateway(t *testing.T, srv *httptest.Server) *gateway.Client {
	t.Helper()
	tokens := token.NewSource(srv.Client(), srv.URL+"/csrf/token")
	_, err := tokens.Refresh(context.Background())
	require.NoError(t, err)
	return gateway.NewClient(srv.URL, tokens, gateway.WithHTTPClient(srv.Client()))
}

// fetchCart reads the full cart through the seed endpoint.
func fetchCart(t *testing.T, srv *httptest.Server) *domain.Cart {
	t.Helper()
	resp, err := srv.Client().Get(srv.URL + "/cart")
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	require.NotNil(t, env.Cart)
	return env.Cart
}

func validDraft(method domain.PaymentMethod) domain.OrderDraft {
	return domain.OrderDraft{
		FirstName:     "Lina",
		LastName:      "Haddad",
		Email:         "lina@example.com",
		Phone:         "+961700000",
		AddressLine1:  "12 Bliss St",
		City:          "Beirut",
		State:         "Beirut",
		PostalCode:    "1103",
		Country:       "LB",
		PaymentMethod: method,
	}
}

func TestCartFlow_EndToEnd(t *testing.T) {
	_, srv := setupBackend(t)
	gw := setupGateway(t, srv)
	ctx := context.Background()

	count, err := gw.AddItem(ctx, 7, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = gw.AddItem(ctx, 8, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = gw.CartCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	cart := fetchCart(t, srv)
	require.Len(t, cart.Items, 2)
	serumLine := cart.Items[0]
	lipstickLine := cart.Items[1]
	assert.Equal(t, "Rose Glow Serum", serumLine.Name)

	count, err = gw.UpdateItemQuantity(ctx, serumLine.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	count, err = gw.RemoveItem(ctx, lipstickLine.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = gw.ClearCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestAddItem_OutOfStock(t *testing.T) {
	_, srv := setupBackend(t)
	gw := setupGateway(t, srv)

	_, err := gw.AddItem(context.Background(), 7, 6) // stock is 5
	require.Error(t, err)
	assert.True(t, gateway.IsValidation(err))

	var ge *gateway.Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "Out of stock", ge.Message)
}

func TestAddItem_UnknownProduct(t *testing.T) {
	_, srv := setupBackend(t)
	gw := setupGateway(t, srv)

	_, err := gw.AddItem(context.Background(), 999, 1)
	assert.True(t, gateway.IsValidation(err))
}

func TestUpdateQuantity_LineVanished(t *testing.T) {
	_, srv := setupBackend(t)
	gw := setupGateway(t, srv)

	_, err := gw.UpdateItemQuantity(context.Background(), 999, 2)
	assert.True(t, gateway.IsNotFound(err))
}

func TestStaleToken_TransparentRefreshAndRetry(t *testing.T) {
	backend, srv := setupBackend(t)
	gw := setupGateway(t, srv)
	ctx := context.Background()

	_, err := gw.AddItem(ctx, 7, 1)
	require.NoError(t, err)

	// Invalidate every issued token; the next mutation gets a 419 and the
	// gateway must recover without the caller noticing.
	backend.ExpireAllTokens()

	cart := fetchCart(t, srv)
	require.Len(t, cart.Items, 1)

	count, err := gw.UpdateItemQuantity(ctx, cart.Items[0].ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMutationWithoutToken_Gets419(t *testing.T) {
	_, srv := setupBackend(t)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/cart", nil)
	require.NoError(t, err)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, StatusTokenExpired, resp.StatusCode)
}

func TestPlaceOrder_CashOnDelivery(t *testing.T) {
	_, srv := setupBackend(t)
	gw := setupGateway(t, srv)
	ctx := context.Background()

	_, err := gw.AddItem(ctx, 7, 2)
	require.NoError(t, err)

	orderID, err := gw.PlaceOrder(ctx, validDraft(domain.PaymentMethodCashOnDelivery))
	require.NoError(t, err)
	assert.NotEmpty(t, orderID)

	// Direct order creation consumed the cart.
	count, err := gw.CartCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestPlaceOrder_FieldErrors(t *testing.T) {
	_, srv := setupBackend(t)
	gw := setupGateway(t, srv)
	ctx := context.Background()

	_, err := gw.AddItem(ctx, 7, 1)
	require.NoError(t, err)

	draft := validDraft(domain.PaymentMethodCashOnDelivery)
	draft.Email = ""

	_, err = gw.PlaceOrder(ctx, draft)
	require.Error(t, err)
	assert.True(t, gateway.IsValidation(err))
	assert.Contains(t, gateway.FieldErrors(err), "email")
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	_, srv := setupBackend(t)
	gw := setupGateway(t, srv)

	_, err := gw.PlaceOrder(context.Background(), validDraft(domain.PaymentMethodCashOnDelivery))
	require.Error(t, err)
	assert.True(t, gateway.IsValidation(err))
}

func TestTemporaryOrder_CreditCard(t *testing.T) {
	_, srv := setupBackend(t)
	gw := setupGateway(t, srv)
	ctx := context.Background()

	_, err := gw.AddItem(ctx, 7, 2) // 2 x 34.50
	require.NoError(t, err)

	temp, err := gw.CreateTemporaryOrder(ctx, validDraft(domain.PaymentMethodCreditCard))
	require.NoError(t, err)
	assert.NotEmpty(t, temp.ID)
	assert.True(t, temp.Amount.Equal(decimal.RequireFromString("69.00")), "amount is the cart total, got %s", temp.Amount)

	// The cart survives until capture converts the temporary order.
	count, err := gw.CartCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

// The full client stack against the reference backend: optimistic update,
// confirmation, badge publication.
func TestControllerAgainstBackend(t *testing.T) {
	_, srv := setupBackend(t)
	gw := setupGateway(t, srv)
	ctx := context.Background()

	_, err := gw.AddItem(ctx, 7, 2)
	require.NoError(t, err)

	state := cartstate.NewStore(nil)
	counts := notifier.NewCartCountNotifier()
	var published []int
	counts.Subscribe(func(count int) { published = append(published, count) })

	ctrl := controller.New(state, gw, counts)
	ctrl.Mount(ctx)
	assert.Equal(t, []int{2}, published)

	state.Seed(fetchCart(t, srv).Items)
	lineID := state.Lines()[0].ID

	require.NoError(t, ctrl.Increment(ctx, lineID))
	q, ok := state.DisplayQuantity(lineID)
	require.True(t, ok)
	assert.Equal(t, 3, q)
	assert.Equal(t, []int{2, 3}, published)

	require.NoError(t, ctrl.Remove(ctx, lineID))
	assert.Empty(t, state.Lines())
	assert.Equal(t, []int{2, 3, 0}, published)
}
