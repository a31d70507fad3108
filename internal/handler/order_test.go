package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunchup/lunchup-be/internal/domain/order"
	"github.com/lunchup/lunchup-be/internal/domain/user"
)

// stubLedger serves a fixed set of orders and records nothing durable. Write
// methods mutate the in-memory orders so refreshed reads see the change.
type stubLedger struct {
	orders map[int64]*order.Order
	err    error
}

func (s *stubLedger) CreateFromCart(_ context.Context, draft order.Draft) (*order.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	o := &order.Order{
		ID:              100,
		Code:            draft.Code,
		BuyerID:         draft.BuyerID,
		BuyerName:       "budi",
		TotalAmount:     decimal.RequireFromString("35000.00"),
		Status:          order.StatusPending,
		PaymentMethod:   draft.PaymentMethod,
		QRISImage:       draft.QRISImage,
		DeliveryAddress: draft.DeliveryAddress,
		Notes:           draft.Notes,
		CreatedAt:       time.Now(),
		Items: []order.Item{{
			ID: 1, OrderID: 100, ProductID: 7, ProductName: "Nasi Goreng",
			Quantity: 2, PriceAtTime: decimal.RequireFromString("17500.00"),
			Subtotal: decimal.RequireFromString("35000.00"),
		}},
	}
	s.orders[o.ID] = o
	return o, nil
}

func (s *stubLedger) GetByID(_ context.Context, id int64) (*order.Order, error) {
	if o, ok := s.orders[id]; ok {
		return o, nil
	}
	return nil, order.ErrNotFound
}

func (s *stubLedger) Accept(_ context.Context, orderID, jastiperID int64, at time.Time) error {
	if s.err != nil {
		return s.err
	}
	o, ok := s.orders[orderID]
	if !ok {
		return order.ErrNotFound
	}
	if o.Status != order.StatusPending {
		return order.ErrAlreadyTaken
	}
	o.JastiperID = &jastiperID
	o.Status = order.StatusAccepted
	o.AcceptedAt = &at
	return nil
}

func (s *stubLedger) AdvanceStatus(_ context.Context, orderID, _ int64, from, to order.Status) error {
	o, ok := s.orders[orderID]
	if !ok || o.Status != from {
		return order.ErrConcurrentModification
	}
	o.Status = to
	return nil
}

func (s *stubLedger) Complete(_ context.Context, orderID, _ int64, commission decimal.Decimal, at time.Time) error {
	o := s.orders[orderID]
	if o.Status != order.StatusHeadingToCustomer {
		return order.ErrNotReady
	}
	o.Status = order.StatusCompleted
	o.Commission = decimal.NewNullDecimal(commission)
	o.CompletedAt = &at
	return nil
}

func (s *stubLedger) ListByBuyer(_ context.Context, buyerID int64, _ order.Page) ([]order.Order, int, error) {
	var out []order.Order
	for _, o := range s.orders {
		if o.BuyerID == buyerID {
			out = append(out, *o)
		}
	}
	return out, len(out), nil
}

func (s *stubLedger) ListPending(_ context.Context, _ order.Page) ([]order.Order, int, error) {
	var out []order.Order
	for _, o := range s.orders {
		if o.Status == order.StatusPending {
			out = append(out, *o)
		}
	}
	return out, len(out), nil
}

func (s *stubLedger) ListActiveByJastiper(_ context.Context, jastiperID int64, _ order.Page) ([]order.Order, int, error) {
	var out []order.Order
	for _, o := range s.orders {
		if o.JastiperID != nil && *o.JastiperID == jastiperID && o.Status.Active() {
			out = append(out, *o)
		}
	}
	return out, len(out), nil
}

func (s *stubLedger) ListCompletedByJastiper(_ context.Context, jastiperID int64, _ order.Page) ([]order.Order, int, error) {
	var out []order.Order
	for _, o := range s.orders {
		if o.JastiperID != nil && *o.JastiperID == jastiperID && o.Status == order.StatusCompleted {
			out = append(out, *o)
		}
	}
	return out, len(out), nil
}

func (s *stubLedger) EarningsByJastiper(context.Context, int64) (decimal.Decimal, error) {
	return decimal.RequireFromString("3500.00"), nil
}

// newTestServer wires a chi router with the real order service over the stub
// ledger. Auth is replaced by a middleware that injects the given user.
func newTestServer(t *testing.T, ledger *stubLedger, caller user.User) *chi.Mux {
	t.Helper()
	h := New(Config{AssetBaseURL: "https://cdn.test/storage"},
		order.NewService(ledger), nil, nil)

	r := chi.NewRouter()
	h.Register(r, func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), userKey{}, caller)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestCheckoutEndpoint(t *testing.T) {
	buyer := user.User{ID: 3, Username: "budi", Role: user.RoleUser}

	t.Run("creates order", func(t *testing.T) {
		ledger := &stubLedger{orders: map[int64]*order.Order{}}
		srv := newTestServer(t, ledger, buyer)

		w, env := doJSON(t, srv, http.MethodPost, "/api/orders/checkout",
			`{"delivery_address":"Gedung H lantai 2, ruang 204","payment_method":"qris","notes":"jangan pedas"}`)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, env.Success)
		assert.Equal(t, "Order berhasil dibuat", env.Message)

		data := env.Data.(map[string]any)
		assert.Equal(t, "pending", data["status"])
		assert.Equal(t, "Menunggu Jastiper", data["status_label"])
		assert.Equal(t, 35000.0, data["total_amount"])
		assert.Len(t, data["items"], 1)

		payment := data["payment_detail"].(map[string]any)
		assert.Equal(t, "QRIS", payment["metode_pembayaran"])
		assert.Equal(t, "Rp 35.000", payment["total_yang_harus_dibayar_formatted"])
	})

	t.Run("validation error is 422", func(t *testing.T) {
		ledger := &stubLedger{orders: map[int64]*order.Order{}}
		srv := newTestServer(t, ledger, buyer)

		w, env := doJSON(t, srv, http.MethodPost, "/api/orders/checkout",
			`{"delivery_address":"short","payment_method":"cash"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.False(t, env.Success)
		assert.Contains(t, env.Message, "delivery_address")
	})

	t.Run("empty cart is 400", func(t *testing.T) {
		ledger := &stubLedger{orders: map[int64]*order.Order{}, err: order.ErrCartEmpty}
		srv := newTestServer(t, ledger, buyer)

		w, env := doJSON(t, srv, http.MethodPost, "/api/orders/checkout",
			`{"delivery_address":"Gedung H lantai 2, ruang 204","payment_method":"cash"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Keranjang masih kosong", env.Message)
	})

	t.Run("insufficient stock is 409", func(t *testing.T) {
		ledger := &stubLedger{
			orders: map[int64]*order.Order{},
			err:    &order.InsufficientStockError{ProductName: "Es Teh"},
		}
		srv := newTestServer(t, ledger, buyer)

		w, env := doJSON(t, srv, http.MethodPost, "/api/orders/checkout",
			`{"delivery_address":"Gedung H lantai 2, ruang 204","payment_method":"cash"}`)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, env.Message, "Es Teh")
	})

	t.Run("jastiper cannot checkout", func(t *testing.T) {
		ledger := &stubLedger{orders: map[int64]*order.Order{}}
		srv := newTestServer(t, ledger, user.User{ID: 7, Role: user.RoleJastiper})

		w, _ := doJSON(t, srv, http.MethodPost, "/api/orders/checkout",
			`{"delivery_address":"Gedung H lantai 2, ruang 204","payment_method":"cash"}`)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestOrderLifecycleEndpoints(t *testing.T) {
	buyer := user.User{ID: 3, Username: "budi", Role: user.RoleUser}
	jastiper := user.User{ID: 7, Username: "joko", Role: user.RoleJastiper}

	pending := func() *stubLedger {
		return &stubLedger{orders: map[int64]*order.Order{
			50: {
				ID: 50, Code: "ORD1700000000123", BuyerID: buyer.ID, BuyerName: "budi",
				TotalAmount: decimal.RequireFromString("50000.00"),
				Status:      order.StatusPending, PaymentMethod: order.PaymentCash,
				DeliveryAddress: "Gedung H lantai 2, ruang 204",
				CreatedAt:       time.Now(),
			},
		}}
	}

	t.Run("accept assigns jastiper", func(t *testing.T) {
		srv := newTestServer(t, pending(), jastiper)

		w, env := doJSON(t, srv, http.MethodPost, "/api/orders/50/accept", "")

		require.Equal(t, http.StatusOK, w.Code)
		data := env.Data.(map[string]any)
		assert.Equal(t, "accepted", data["status"])
		assert.Equal(t, "Order berhasil diambil", env.Message)
	})

	t.Run("accept lost race is 409", func(t *testing.T) {
		ledger := pending()
		ledger.orders[50].Status = order.StatusAccepted
		srv := newTestServer(t, ledger, jastiper)

		w, env := doJSON(t, srv, http.MethodPost, "/api/orders/50/accept", "")

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "Order sudah diambil jastiper lain", env.Message)
	})

	t.Run("full advance and confirm", func(t *testing.T) {
		ledger := pending()
		jSrv := newTestServer(t, ledger, jastiper)
		bSrv := newTestServer(t, ledger, buyer)

		_, _ = doJSON(t, jSrv, http.MethodPost, "/api/orders/50/accept", "")
		_, _ = doJSON(t, jSrv, http.MethodPost, "/api/orders/50/status", "")

		w, env := doJSON(t, jSrv, http.MethodPost, "/api/orders/50/status", "")
		require.Equal(t, http.StatusOK, w.Code)
		data := env.Data.(map[string]any)
		assert.Equal(t, "heading_to_customer", data["status"])

		payment := data["payment_detail"].(map[string]any)
		assert.Equal(t, "Tagih tunai ke Customer sebesar Rp 50.000", payment["instruksi"])

		w, env = doJSON(t, bSrv, http.MethodPost, "/api/orders/50/confirm", "")
		require.Equal(t, http.StatusOK, w.Code)
		data = env.Data.(map[string]any)
		assert.Equal(t, "completed", data["status"])
		assert.Equal(t, 5000.0, data["jastiper_commission"])
	})

	t.Run("confirm before handover is 400", func(t *testing.T) {
		ledger := pending()
		jSrv := newTestServer(t, ledger, jastiper)
		bSrv := newTestServer(t, ledger, buyer)

		_, _ = doJSON(t, jSrv, http.MethodPost, "/api/orders/50/accept", "")

		w, env := doJSON(t, bSrv, http.MethodPost, "/api/orders/50/confirm", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Order belum siap dikonfirmasi", env.Message)
	})

	t.Run("detail hidden from unrelated buyer", func(t *testing.T) {
		ledger := pending()
		ledger.orders[50].Status = order.StatusAccepted
		other := user.User{ID: 99, Role: user.RoleUser}
		srv := newTestServer(t, ledger, other)

		w, _ := doJSON(t, srv, http.MethodGet, "/api/orders/50", "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unknown order is 404", func(t *testing.T) {
		srv := newTestServer(t, pending(), buyer)

		w, env := doJSON(t, srv, http.MethodGet, "/api/orders/999", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Order tidak ditemukan", env.Message)
	})

	t.Run("history carries earnings", func(t *testing.T) {
		ledger := pending()
		jID := jastiper.ID
		ledger.orders[50].Status = order.StatusCompleted
		ledger.orders[50].JastiperID = &jID
		ledger.orders[50].Commission = decimal.NewNullDecimal(decimal.RequireFromString("5000.00"))
		srv := newTestServer(t, ledger, jastiper)

		w, env := doJSON(t, srv, http.MethodGet, "/api/deliveries/history", "")
		require.Equal(t, http.StatusOK, w.Code)

		data := env.Data.(map[string]any)
		assert.Equal(t, 3500.0, data["total_earnings"])
		assert.Equal(t, "Rp 3.500", data["total_earnings_formatted"])
		assert.Len(t, data["items"], 1)
	})
}
