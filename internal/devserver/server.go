// Package devserver is an in-process reference implementation of the
// storefront HTTP contract the gateway consumes: cart mutations with
// anti-forgery enforcement (419 on a stale token), a count endpoint, and the
// two order submission paths. It backs the integration tests and the
// cmd/devserver binary; it is a test collaborator, not a production backend.
package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Mohsen-it/beauty-store-sub000/internal/domain"
)

// StatusTokenExpired mirrors the backend's non-standard anti-forgery status.
const StatusTokenExpired = 419

const defaultTokenTTL = 30 * time.Minute

// Product is a catalog entry the dev backend sells.
type Product struct {
	ID    int64
	Name  string
	Price decimal.Decimal
	Stock int
}

type Server struct {
	store    CartStore
	catalog  map[int64]Product
	tokenTTL time.Duration

	mu     sync.Mutex
	tokens map[string]time.Time // token -> expiry

	lineSeq atomic.Int64
}

func New(store CartStore, products []Product) *Server {
	s := &Server{
		store:    store,
		catalog:  make(map[int64]Product, len(products)),
		tokenTTL: defaultTokenTTL,
		tokens:   make(map[string]time.Time),
	}
	for _, p := range products {
		s.catalog[p.ID] = p
	}
	return s
}

// ExpireAllTokens invalidates every issued token (test hook for the 419 path).
func (s *Server) ExpireAllTokens() {
	s.mu.Lock()
	s.tokens = make(map[string]time.Time)
	s.mu.Unlock()
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/csrf/token", s.issueToken)
	r.Get("/cart", s.getCart)
	r.Get("/cart/count", s.cartCount)

	// Mutating routes sit behind the anti-forgery check.
	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Post("/cart/add", s.addItem)
		r.Patch("/cart/items/{line_id}", s.updateQuantity)
		r.Delete("/cart/items/{line_id}", s.removeItem)
		r.Delete("/cart", s.clearCart)
		r.Post("/orders", s.placeOrder)
		r.Post("/orders/temporary", s.createTemporaryOrder)
	})

	return r
}

type envelope struct {
	Success        bool                   `json:"success"`
	Count          int                    `json:"count"`
	Message        string                 `json:"message,omitempty"`
	Errors         map[string]string      `json:"errors,omitempty"`
	OrderID        string                 `json:"order_id,omitempty"`
	TemporaryOrder *domain.TemporaryOrder `json:"temporary_order,omitempty"`
	Cart           *domain.Cart           `json:"cart,omitempty"`
}

func (s *Server) issueToken(w http.ResponseWriter, _ *http.Request) {
	token := uuid.New().String()
	s.mu.Lock()
	s.tokens[token] = time.Now().Add(s.tokenTTL)
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// requireToken rejects mutating requests whose X-CSRF-Token is absent,
// unknown or past its TTL.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-CSRF-Token")
		s.mu.Lock()
		expiry, known := s.tokens[token]
		if known && time.Now().After(expiry) {
			delete(s.tokens, token)
			known = false
		}
		s.mu.Unlock()

		if token == "" || !known {
			respondError(w, StatusTokenExpired, "anti-forgery token expired")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func sessionID(r *http.Request) string {
	if id := r.Header.Get("X-Session-ID"); id != "" {
		return id
	}
	return "local"
}

func (s *Server) loadCart(r *http.Request) (*domain.Cart, error) {
	cart, err := s.store.Get(r.Context(), sessionID(r))
	if errors.Is(err, ErrCartNotFound) {
		return &domain.Cart{SessionID: sessionID(r), UpdatedAt: time.Now()}, nil
	}
	return cart, err
}

func (s *Server) saveCart(r *http.Request, cart *domain.Cart) error {
	cart.UpdatedAt = time.Now()
	return s.store.Put(r.Context(), sessionID(r), cart)
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	cart, err := s.loadCart(r)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "cart store unavailable")
		return
	}
	respondJSON(w, http.StatusOK, envelope{Success: true, Count: cart.Count(), Cart: cart})
}

func (s *Server) cartCount(w http.ResponseWriter, r *http.Request) {
	cart, err := s.loadCart(r)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "cart store unavailable")
		return
	}
	respondJSON(w, http.StatusOK, envelope{Success: true, Count: cart.Count()})
}

type addItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Quantity < 1 {
		respondError(w, http.StatusBadRequest, "quantity must be at least 1")
		return
	}
	product, exists := s.catalog[req.ProductID]
	if !exists {
		respondError(w, http.StatusBadRequest, "invalid product")
		return
	}

	cart, err := s.loadCart(r)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "cart store unavailable")
		return
	}

	// Adding an already-carted product grows its line instead of duplicating.
	updated := false
	for i, line := range cart.Items {
		if line.ProductID != req.ProductID {
			continue
		}
		if line.Quantity+req.Quantity > product.Stock {
			respondError(w, http.StatusBadRequest, "Out of stock")
			return
		}
		cart.Items[i].Quantity += req.Quantity
		updated = true
		break
	}
	if !updated {
		if req.Quantity > product.Stock {
			respondError(w, http.StatusBadRequest, "Out of stock")
			return
		}
		cart.Items = append(cart.Items, domain.CartLine{
			ID:        s.lineSeq.Add(1),
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  req.Quantity,
			Stock:     product.Stock,
			AddedAt:   time.Now(),
		})
	}

	if err := s.saveCart(r, cart); err != nil {
		respondError(w, http.StatusInternalServerError, "cart store unavailable")
		return
	}
	respondJSON(w, http.StatusOK, envelope{Success: true, Count: cart.Count()})
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (s *Server) updateQuantity(w http.ResponseWriter, r *http.Request) {
	lineID, err := strconv.ParseInt(chi.URLParam(r, "line_id"), 10, 64)
	if err != nil || lineID <= 0 {
		respondError(w, http.StatusBadRequest, "line_id must be a positive integer")
		return
	}

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Quantity < 1 {
		respondError(w, http.StatusBadRequest, "quantity must be at least 1")
		return
	}

	cart, err := s.loadCart(r)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "cart store unavailable")
		return
	}

	for i, line := range cart.Items {
		if line.ID != lineID {
			continue
		}
		product := s.catalog[line.ProductID]
		if req.Quantity > product.Stock {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("Only %d in stock", product.Stock))
			return
		}
		cart.Items[i].Quantity = req.Quantity
		if err := s.saveCart(r, cart); err != nil {
			respondError(w, http.StatusInternalServerError, "cart store unavailable")
			return
		}
		respondJSON(w, http.StatusOK, envelope{Success: true, Count: cart.Count()})
		return
	}

	respondError(w, http.StatusNotFound, "cart line not found")
}

func (s *Server) removeItem(w http.ResponseWriter, r *http.Request) {
	lineID, err := strconv.ParseInt(chi.URLParam(r, "line_id"), 10, 64)
	if err != nil || lineID <= 0 {
		respondError(w, http.StatusBadRequest, "line_id must be a positive integer")
		return
	}

	cart, err := s.loadCart(r)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "cart store unavailable")
		return
	}

	for i, line := range cart.Items {
		if line.ID != lineID {
			continue
		}
		cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
		if err := s.saveCart(r, cart); err != nil {
			respondError(w, http.StatusInternalServerError, "cart store unavailable")
			return
		}
		respondJSON(w, http.StatusOK, envelope{Success: true, Count: cart.Count()})
		return
	}

	respondError(w, http.StatusNotFound, "cart line not found")
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), sessionID(r)); err != nil {
		respondError(w, http.StatusInternalServerError, "cart store unavailable")
		return
	}
	respondJSON(w, http.StatusOK, envelope{Success: true, Count: 0})
}

func (s *Server) placeOrder(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.decodeDraft(w, r, domain.PaymentMethodCashOnDelivery); !ok {
		return
	}

	// Direct order creation consumes the cart.
	if err := s.store.Delete(r.Context(), sessionID(r)); err != nil {
		respondError(w, http.StatusInternalServerError, "cart store unavailable")
		return
	}
	respondJSON(w, http.StatusCreated, envelope{
		Success: true,
		OrderID: uuid.New().String(),
		Count:   0,
	})
}

func (s *Server) createTemporaryOrder(w http.ResponseWriter, r *http.Request) {
	_, cart, ok := s.decodeDraft(w, r, domain.PaymentMethodCreditCard)
	if !ok {
		return
	}

	// The cart stays put until capture confirms; conversion and orphan
	// cleanup are this backend's responsibility, not the client's.
	respondJSON(w, http.StatusCreated, envelope{
		Success: true,
		TemporaryOrder: &domain.TemporaryOrder{
			ID:        uuid.New().String(),
			Amount:    cart.Total(),
			CreatedAt: time.Now(),
		},
	})
}

// decodeDraft parses and validates an order draft, enforcing the payment
// method the endpoint serves and a non-empty cart.
func (s *Server) decodeDraft(w http.ResponseWriter, r *http.Request, method domain.PaymentMethod) (*domain.OrderDraft, *domain.Cart, bool) {
	var draft domain.OrderDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return nil, nil, false
	}

	if problems := draft.Validate(); len(problems) > 0 {
		respondJSON(w, http.StatusUnprocessableEntity, envelope{
			Success: false,
			Message: "order draft is invalid",
			Errors:  problems,
		})
		return nil, nil, false
	}
	if draft.PaymentMethod != method {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("this endpoint serves %s orders", method))
		return nil, nil, false
	}

	cart, err := s.loadCart(r)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "cart store unavailable")
		return nil, nil, false
	}
	if len(cart.Items) == 0 {
		respondError(w, http.StatusBadRequest, "cart is empty, nothing to checkout")
		return nil, nil, false
	}
	return &draft, cart, true
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, envelope{Success: false, Message: message})
}
