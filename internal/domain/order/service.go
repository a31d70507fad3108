package order

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/lunchup/lunchup-be/internal/domain/user"
)

// CommissionRate is the platform's cut of every completed order. Hard-coded
// business rule; the observed system has no per-jastiper or per-category
// rates.
var CommissionRate = decimal.RequireFromString("0.10")

// CommissionFor computes the jastiper commission for a completed order,
// rounded half-up to 2 decimal places.
func CommissionFor(total decimal.Decimal) decimal.Decimal {
	return total.Mul(CommissionRate).Round(2)
}

// CheckoutRequest is the buyer's checkout input.
type CheckoutRequest struct {
	DeliveryAddress string
	Notes           string
	PaymentMethod   PaymentMethod
}

// Service drives the order lifecycle. All persistence and locking is
// delegated to the Ledger; the service owns validation, authorization,
// transition selection, and commission math.
type Service struct {
	orders Ledger
	now    func() time.Time
}

// NewService creates a Service backed by the given ledger.
func NewService(orders Ledger) *Service {
	return &Service{
		orders: orders,
		now:    time.Now,
	}
}

// Checkout converts the buyer's cart into an order. Validation failures
// return *ValidationError before anything is written; the ledger call itself
// is a single all-or-nothing transaction.
func (s *Service) Checkout(ctx context.Context, buyer user.User, req CheckoutRequest) (*Order, error) {
	address := strings.TrimSpace(req.DeliveryAddress)
	if len(address) < 10 {
		return nil, &ValidationError{Field: "delivery_address", Reason: "must be at least 10 characters"}
	}
	if len(req.Notes) > 500 {
		return nil, &ValidationError{Field: "notes", Reason: "must be at most 500 characters"}
	}
	if !req.PaymentMethod.Valid() {
		return nil, &ValidationError{Field: "payment_method", Reason: "must be cash or qris"}
	}

	draft := Draft{
		Code:            s.newOrderCode(),
		BuyerID:         buyer.ID,
		PaymentMethod:   req.PaymentMethod,
		DeliveryAddress: address,
		Notes:           req.Notes,
	}
	if req.PaymentMethod == PaymentQRIS {
		draft.QRISImage = QRISAssetPath
	}

	o, err := s.orders.CreateFromCart(ctx, draft)
	if err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return o, nil
}

// newOrderCode generates the human-readable order code: ORD + unix seconds +
// three random digits. Uniqueness is backed by the order_code constraint.
func (s *Service) newOrderCode() string {
	return fmt.Sprintf("ORD%d%d", s.now().Unix(), 100+rand.IntN(900))
}

// Accept claims a pending order for the jastiper. Exactly one of several
// concurrent accepts succeeds; losers get ErrAlreadyTaken.
func (s *Service) Accept(ctx context.Context, jastiper user.User, orderID int64) (*Order, error) {
	if err := s.orders.Accept(ctx, orderID, jastiper.ID, s.now()); err != nil {
		return nil, err
	}
	return s.orders.GetByID(ctx, orderID)
}

// Advance moves the order one step along the jastiper leg of the lifecycle.
// Only the assigned jastiper may call it. Returns the refreshed order.
func (s *Service) Advance(ctx context.Context, caller user.User, orderID int64) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.JastiperID == nil || *o.JastiperID != caller.ID {
		return nil, ErrUnauthorized
	}
	next, ok := o.Status.Next()
	if !ok {
		return nil, ErrInvalidTransition
	}
	if err := s.orders.AdvanceStatus(ctx, orderID, caller.ID, o.Status, next); err != nil {
		return nil, err
	}
	return s.orders.GetByID(ctx, orderID)
}

// Confirm is the buyer's delivery confirmation. It settles the order: status
// flips to completed, the 10% commission is written, and one delivery history
// row is recorded, all inside the ledger's single transaction.
func (s *Service) Confirm(ctx context.Context, caller user.User, orderID int64) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.BuyerID != caller.ID {
		return nil, ErrUnauthorized
	}
	if o.Status != StatusHeadingToCustomer {
		return nil, ErrNotReady
	}

	commission := CommissionFor(o.TotalAmount)
	if err := s.orders.Complete(ctx, orderID, *o.JastiperID, commission, s.now()); err != nil {
		return nil, err
	}
	return s.orders.GetByID(ctx, orderID)
}

// GetDetail loads an order and applies the view policy.
func (s *Service) GetDetail(ctx context.Context, caller user.User, orderID int64) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !CanView(caller, o) {
		return nil, ErrUnauthorized
	}
	return o, nil
}

// ListMine returns the buyer's own orders, newest first.
func (s *Service) ListMine(ctx context.Context, buyer user.User, page Page) ([]Order, int, error) {
	return s.orders.ListByBuyer(ctx, buyer.ID, page)
}

// Available returns the pending pool jastipers pick from, newest first, with
// the total pending count.
func (s *Service) Available(ctx context.Context, page Page) ([]Order, int, error) {
	return s.orders.ListPending(ctx, page)
}

// ActiveDeliveries returns the jastiper's in-flight orders, newest accepted
// first.
func (s *Service) ActiveDeliveries(ctx context.Context, jastiper user.User, page Page) ([]Order, int, error) {
	return s.orders.ListActiveByJastiper(ctx, jastiper.ID, page)
}

// History returns the jastiper's completed deliveries and lifetime earnings.
func (s *Service) History(ctx context.Context, jastiper user.User, page Page) ([]Order, int, decimal.Decimal, error) {
	orders, total, err := s.orders.ListCompletedByJastiper(ctx, jastiper.ID, page)
	if err != nil {
		return nil, 0, decimal.Zero, err
	}
	earnings, err := s.orders.EarningsByJastiper(ctx, jastiper.ID)
	if err != nil {
		return nil, 0, decimal.Zero, err
	}
	return orders, total, earnings, nil
}
