// Package product is the catalog collaborator: plain CRUD over products with
// price and stock. Stock reservation itself happens inside the order checkout
// transaction, not through this interface.
package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a catalog entry sold through the marketplace.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Category    string
	Place       string
	Image       string
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ListFilter narrows and orders a catalog listing.
type ListFilter struct {
	Category  string
	Search    string // matched against name, case-insensitive substring
	SortBy    string // created_at (default), name, price, stock
	SortOrder string // asc or desc (default)
	Limit     int
	Offset    int
}

// Repository defines catalog persistence. List and ListByCategory return the
// page plus the total row count for pagination. ListByCategory only returns
// items currently in stock.
type Repository interface {
	List(ctx context.Context, f ListFilter) ([]Product, int, error)
	ListByCategory(ctx context.Context, category string, limit, offset int) ([]Product, int, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
}
