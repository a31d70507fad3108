//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"regexp"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"
)

var orderCodePattern = regexp.MustCompile(`^ORD\d{13}$`)

type checkoutRequest struct {
	DeliveryAddress string `json:"delivery_address"`
	Notes           string `json:"notes,omitempty"`
	PaymentMethod   string `json:"payment_method"`
}

type addToCartRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// firstProduct returns a seeded product to order.
func firstProduct(t *testing.T) productResponse {
	t.Helper()

	resp := doGet(t, "/api/products?per_page=50", buyerToken)
	defer resp.Body.Close()

	page, _ := decodeData[pageResponse[productResponse]](t, resp)
	if len(page.Items) == 0 {
		t.Fatal("no seeded products")
	}
	return page.Items[0]
}

// placeOrder runs add-to-cart plus checkout and returns the created order.
func placeOrder(t *testing.T, productID int64, qty int, method string) orderResponse {
	t.Helper()

	resp := doPost(t, "/api/cart", addToCartRequest{ProductID: productID, Quantity: qty}, buyerToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add to cart: expected 200, got %d", resp.StatusCode)
	}

	resp = doPost(t, "/api/orders/checkout", checkoutRequest{
		DeliveryAddress: "Gedung H lantai 2, ruang 204",
		PaymentMethod:   method,
	}, buyerToken)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("checkout: expected 201, got %d", resp.StatusCode)
	}

	o, env := decodeData[orderResponse](t, resp)
	if !env.Success {
		t.Fatalf("checkout envelope not successful: %s", env.Message)
	}
	return o
}

func TestCheckout_NoAuth(t *testing.T) {
	resp := doPost(t, "/api/orders/checkout", checkoutRequest{
		DeliveryAddress: "Gedung H lantai 2, ruang 204",
		PaymentMethod:   "cash",
	}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	resp := doPost(t, "/api/orders/checkout", checkoutRequest{
		DeliveryAddress: "Gedung H lantai 2, ruang 204",
		PaymentMethod:   "cash",
	}, buyerToken)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCheckout_ShortAddress(t *testing.T) {
	resp := doPost(t, "/api/orders/checkout", checkoutRequest{
		DeliveryAddress: "kampus",
		PaymentMethod:   "cash",
	}, buyerToken)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestCheckout_JastiperForbidden(t *testing.T) {
	resp := doPost(t, "/api/orders/checkout", checkoutRequest{
		DeliveryAddress: "Gedung H lantai 2, ruang 204",
		PaymentMethod:   "cash",
	}, jastiperToken)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestOrderLifecycle(t *testing.T) {
	p := firstProduct(t)
	o := placeOrder(t, p.ID, 2, "cash")

	if !orderCodePattern.MatchString(o.OrderCode) {
		t.Errorf("order code %q does not match ORD pattern", o.OrderCode)
	}
	if o.Status != "pending" {
		t.Fatalf("status: got %q, want pending", o.Status)
	}
	wantTotal := p.Price * 2
	if o.TotalAmount != wantTotal {
		t.Errorf("total: got %v, want %v", o.TotalAmount, wantTotal)
	}
	if len(o.Items) != 1 || o.Items[0].PriceAtTime != p.Price {
		t.Errorf("items: got %+v", o.Items)
	}

	// Stock is reserved at checkout.
	resp := doGet(t, fmt.Sprintf("/api/products/%d", p.ID), buyerToken)
	after, _ := decodeData[productResponse](t, resp)
	resp.Body.Close()
	if after.Stock != p.Stock-2 {
		t.Errorf("stock: got %d, want %d", after.Stock, p.Stock-2)
	}

	// Cart is consumed by checkout.
	resp = doGet(t, "/api/cart", buyerToken)
	cart, _ := decodeData[cartResponse](t, resp)
	resp.Body.Close()
	if len(cart.Items) != 0 {
		t.Errorf("cart should be empty after checkout, got %d items", len(cart.Items))
	}

	// Jastiper accepts.
	resp = doPost(t, fmt.Sprintf("/api/orders/%d/accept", o.ID), nil, jastiperToken)
	accepted, _ := decodeData[orderResponse](t, resp)
	resp.Body.Close()
	if accepted.Status != "accepted" {
		t.Fatalf("status after accept: got %q", accepted.Status)
	}
	if accepted.JastiperName != "joko" {
		t.Errorf("jastiper name: got %q", accepted.JastiperName)
	}

	// Two advances bring it to the buyer's door.
	for _, want := range []string{"heading_to_canteen", "heading_to_customer"} {
		resp = doPost(t, fmt.Sprintf("/api/orders/%d/status", o.ID), nil, jastiperToken)
		advanced, _ := decodeData[orderResponse](t, resp)
		resp.Body.Close()
		if advanced.Status != want {
			t.Fatalf("status after advance: got %q, want %q", advanced.Status, want)
		}
	}

	// A third advance has no successor.
	resp = doPost(t, fmt.Sprintf("/api/orders/%d/status", o.ID), nil, jastiperToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("advance past heading_to_customer: expected 400, got %d", resp.StatusCode)
	}

	// Buyer confirms; commission settles at 10%.
	resp = doPost(t, fmt.Sprintf("/api/orders/%d/confirm", o.ID), nil, buyerToken)
	completed, env := decodeData[orderResponse](t, resp)
	resp.Body.Close()
	if completed.Status != "completed" {
		t.Fatalf("status after confirm: got %q (%s)", completed.Status, env.Message)
	}
	if completed.Commission == nil || *completed.Commission != wantTotal*0.10 {
		t.Errorf("commission: got %v, want %v", completed.Commission, wantTotal*0.10)
	}

	// A second confirm must not settle again.
	resp = doPost(t, fmt.Sprintf("/api/orders/%d/confirm", o.ID), nil, buyerToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("double confirm: expected 400, got %d", resp.StatusCode)
	}

	// The settled order shows up in the jastiper's history with earnings.
	resp = doGet(t, "/api/deliveries/history", jastiperToken)
	history, _ := decodeData[historyResponse](t, resp)
	resp.Body.Close()
	if history.Total < 1 {
		t.Fatal("history is empty after settlement")
	}
	if history.TotalEarnings <= 0 {
		t.Errorf("earnings: got %v, want > 0", history.TotalEarnings)
	}
}

func TestAccept_ConcurrentSingleWinner(t *testing.T) {
	p := firstProduct(t)
	o := placeOrder(t, p.ID, 1, "cash")

	const workers = 8
	var won, lost atomic.Int32
	var g errgroup.Group

	for range workers {
		g.Go(func() error {
			req, err := http.NewRequest(http.MethodPost,
				fmt.Sprintf("%s/api/orders/%d/accept", baseURL, o.ID), nil)
			if err != nil {
				return err
			}
			req.Header.Set("Authorization", "Bearer "+jastiperToken)

			resp, err := httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			switch resp.StatusCode {
			case http.StatusOK:
				won.Add(1)
			case http.StatusConflict:
				lost.Add(1)
			default:
				return fmt.Errorf("unexpected status %d", resp.StatusCode)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if won.Load() != 1 {
		t.Errorf("winners: got %d, want exactly 1", won.Load())
	}
	if lost.Load() != workers-1 {
		t.Errorf("losers: got %d, want %d", lost.Load(), workers-1)
	}
}

func TestCheckout_StockConflict(t *testing.T) {
	p := firstProduct(t)

	// Put more in the cart than will remain after the admin shrinks stock.
	resp := doPost(t, "/api/cart", addToCartRequest{ProductID: p.ID, Quantity: 2}, buyerToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add to cart: got %d", resp.StatusCode)
	}

	resp = doSend(t, http.MethodPut, fmt.Sprintf("/api/products/%d", p.ID), map[string]any{
		"name":     p.Name,
		"price":    p.Price,
		"stock":    1,
		"category": p.Category,
		"place":    p.Place,
	}, adminToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("shrink stock: got %d", resp.StatusCode)
	}

	resp = doPost(t, "/api/orders/checkout", checkoutRequest{
		DeliveryAddress: "Gedung H lantai 2, ruang 204",
		PaymentMethod:   "cash",
	}, buyerToken)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	// The failed checkout must leave the cart intact and stock untouched.
	r := doGet(t, "/api/cart", buyerToken)
	cart, _ := decodeData[cartResponse](t, r)
	r.Body.Close()
	if len(cart.Items) != 1 {
		t.Errorf("cart after failed checkout: got %d items, want 1", len(cart.Items))
	}

	r = doGet(t, fmt.Sprintf("/api/products/%d", p.ID), buyerToken)
	after, _ := decodeData[productResponse](t, r)
	r.Body.Close()
	if after.Stock != 1 {
		t.Errorf("stock after failed checkout: got %d, want 1", after.Stock)
	}

	// Clean up the cart for later tests.
	r = doSend(t, http.MethodDelete, fmt.Sprintf("/api/cart/%d", p.ID), nil, buyerToken)
	r.Body.Close()
}

func TestQRISOrder_PaymentDetail(t *testing.T) {
	// Use a product with plenty of stock.
	resp := doGet(t, "/api/products?search=Es+Teh", buyerToken)
	page, _ := decodeData[pageResponse[productResponse]](t, resp)
	resp.Body.Close()
	if len(page.Items) == 0 {
		t.Fatal("seeded drink not found")
	}
	p := page.Items[0]

	o := placeOrder(t, p.ID, 1, "qris")
	if o.Payment == nil {
		t.Fatal("payment detail missing on checkout response")
	}
	if o.Payment.Method != "QRIS" {
		t.Errorf("method: got %q", o.Payment.Method)
	}
	if o.Payment.QRImageURL != "" {
		t.Errorf("QR should be hidden before handover, got %q", o.Payment.QRImageURL)
	}

	resp = doPost(t, fmt.Sprintf("/api/orders/%d/accept", o.ID), nil, jastiperToken)
	resp.Body.Close()
	resp = doPost(t, fmt.Sprintf("/api/orders/%d/status", o.ID), nil, jastiperToken)
	resp.Body.Close()
	resp = doPost(t, fmt.Sprintf("/api/orders/%d/status", o.ID), nil, jastiperToken)
	inTransit, _ := decodeData[orderResponse](t, resp)
	resp.Body.Close()

	if inTransit.Payment == nil || inTransit.Payment.QRImageURL == "" {
		t.Fatal("QR image URL missing at handover")
	}
	if inTransit.Payment.Note == "" {
		t.Error("confirm reminder note missing at handover")
	}

	// Settle so later tests see clean state.
	resp = doPost(t, fmt.Sprintf("/api/orders/%d/confirm", o.ID), nil, buyerToken)
	resp.Body.Close()
}

func TestOrderDetail_ViewPolicy(t *testing.T) {
	p := firstProduct(t)
	o := placeOrder(t, p.ID, 1, "cash")

	// Any jastiper can inspect a pending order.
	resp := doGet(t, fmt.Sprintf("/api/orders/%d", o.ID), jastiperToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("jastiper viewing pending order: got %d", resp.StatusCode)
	}

	// The admin sees everything.
	resp = doGet(t, fmt.Sprintf("/api/orders/%d", o.ID), adminToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("admin viewing order: got %d", resp.StatusCode)
	}

	resp = doGet(t, "/api/orders/99999", buyerToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown order: got %d, want 404", resp.StatusCode)
	}
}
