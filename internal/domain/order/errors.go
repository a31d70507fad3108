package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Sentinel errors for lifecycle operations. Each is scoped to a single
// request; none is fatal to the process.
var (
	ErrNotFound  = errors.New("order not found")
	ErrCartEmpty = errors.New("cart is empty")

	// ErrAlreadyTaken means the conditional accept matched zero rows:
	// another jastiper won the race or the order left pending.
	ErrAlreadyTaken = errors.New("order already taken")

	// ErrConcurrentModification means a conditional status advance matched
	// zero rows; the caller should re-fetch and retry.
	ErrConcurrentModification = errors.New("order modified concurrently")

	// ErrInvalidTransition means the current status has no jastiper-driven
	// successor (pending, heading_to_customer, completed, cancelled).
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotReady means the buyer confirmed before the jastiper reached
	// heading_to_customer (or the order is already completed).
	ErrNotReady = errors.New("order is not ready to be confirmed")

	// ErrUnauthorized means the caller lacks the ownership or role
	// relationship the operation requires.
	ErrUnauthorized = errors.New("not allowed")
)

// InsufficientStockError aborts a whole checkout: the named product cannot
// cover the requested quantity.
type InsufficientStockError struct {
	ProductName string
}

func (e *InsufficientStockError) Error() string {
	return "insufficient stock for product: " + e.ProductName
}

// ValidationError reports malformed checkout input. Nothing is mutated when
// it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
