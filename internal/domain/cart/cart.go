// Package cart is the cart collaborator: a buyer's pending line items before
// checkout. The checkout transaction reads and clears these rows itself so
// that consumption is atomic with order creation.
package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when the buyer has no cart row for the product.
var ErrNotFound = errors.New("cart item not found")

// Item is one product line in a buyer's cart, joined with current catalog
// data for display. Price here is the product's current price; the price an
// order pays is captured separately at checkout.
type Item struct {
	ID          int64
	UserID      int64
	ProductID   int64
	ProductName string
	Quantity    int
	Price       decimal.Decimal
	Stock       int
}

// Subtotal is the display subtotal at the product's current price.
func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Repository defines cart persistence. Upsert adds the product to the cart or
// replaces its quantity when already present.
type Repository interface {
	ListByBuyer(ctx context.Context, userID int64) ([]Item, error)
	Upsert(ctx context.Context, userID, productID int64, quantity int) error
	Remove(ctx context.Context, userID, productID int64) error
	ClearByBuyer(ctx context.Context, userID int64) error
}
