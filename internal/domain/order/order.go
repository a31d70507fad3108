// Package order implements the core of the marketplace: the order lifecycle
// state machine, concurrency-safe checkout with stock reservation, and
// commission settlement on delivery confirmation.
package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how the buyer pays the jastiper on delivery.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentQRIS PaymentMethod = "qris"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentQRIS
}

// QRISAssetPath is the static QRIS display asset attached to qris orders.
// There is no live payment integration; the jastiper shows this image to the
// buyer at handover.
const QRISAssetPath = "payments/qris_test.jpg"

// Order is the system of record for one purchase. Orders are never deleted;
// TotalAmount always equals the sum of its items' subtotals once created.
type Order struct {
	ID              int64
	Code            string
	BuyerID         int64
	BuyerName       string
	JastiperID      *int64 // nil exactly while status is pending
	JastiperName    string
	TotalAmount     decimal.Decimal
	Status          Status
	PaymentMethod   PaymentMethod
	QRISImage       string
	DeliveryAddress string
	Notes           string
	Commission      decimal.NullDecimal // set exactly when status is completed
	AcceptedAt      *time.Time
	CompletedAt     *time.Time
	CreatedAt       time.Time
	Items           []Item
}

// Item is one order line. PriceAtTime is the product price captured inside
// the checkout transaction; later catalog price changes never touch it.
type Item struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	ProductName string
	Quantity    int
	PriceAtTime decimal.Decimal
	Subtotal    decimal.Decimal
}

// DeliveryHistory records a settled delivery, one row per completed order.
type DeliveryHistory struct {
	ID          int64
	JastiperID  int64
	OrderID     int64
	Commission  decimal.Decimal
	DeliveredAt time.Time
}

// Draft is the order shell the checkout transaction materializes. Total and
// items are computed inside the transaction from the buyer's cart.
type Draft struct {
	Code            string
	BuyerID         int64
	PaymentMethod   PaymentMethod
	QRISImage       string
	DeliveryAddress string
	Notes           string
}

// Page selects a window of a listing. Zero values fall back to page 1 of 10.
type Page struct {
	Number int
	Size   int
}

// Limit returns the effective page size.
func (p Page) Limit() int {
	if p.Size <= 0 {
		return 10
	}
	return p.Size
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	if p.Number <= 1 {
		return 0
	}
	return (p.Number - 1) * p.Limit()
}

// Ledger is the persistence contract for orders. Implementations must honor
// the atomicity notes on each method: CreateFromCart and Complete are single
// transactions, Accept and AdvanceStatus are single conditional writes.
type Ledger interface {
	// CreateFromCart atomically turns the buyer's cart into an order:
	// each product row is locked, stock-checked and decremented, the current
	// price captured per item, the total accumulated, and the cart cleared.
	// Fails with ErrCartEmpty or *InsufficientStockError, rolling back fully.
	CreateFromCart(ctx context.Context, draft Draft) (*Order, error)

	// GetByID loads an order with its items, or ErrNotFound.
	GetByID(ctx context.Context, id int64) (*Order, error)

	// Accept assigns the jastiper via a compare-and-swap on status=pending.
	// A lost race yields ErrAlreadyTaken.
	Accept(ctx context.Context, orderID, jastiperID int64, at time.Time) error

	// AdvanceStatus moves from to to, conditional on both the current status
	// and the assigned jastiper. A zero-row update yields
	// ErrConcurrentModification.
	AdvanceStatus(ctx context.Context, orderID, jastiperID int64, from, to Status) error

	// Complete settles the order in one transaction: conditional flip from
	// heading_to_customer to completed, commission written, and one
	// DeliveryHistory row inserted. A zero-row flip yields ErrNotReady.
	Complete(ctx context.Context, orderID, jastiperID int64, commission decimal.Decimal, at time.Time) error

	ListByBuyer(ctx context.Context, buyerID int64, page Page) ([]Order, int, error)
	ListPending(ctx context.Context, page Page) ([]Order, int, error)
	ListActiveByJastiper(ctx context.Context, jastiperID int64, page Page) ([]Order, int, error)
	ListCompletedByJastiper(ctx context.Context, jastiperID int64, page Page) ([]Order, int, error)
	EarningsByJastiper(ctx context.Context, jastiperID int64) (decimal.Decimal, error)
}
