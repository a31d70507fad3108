package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/lunchup/lunchup-be/internal/domain/order"
	"github.com/lunchup/lunchup-be/internal/domain/product"
)

// orderColumns is the shared select list for order rows, joined with buyer
// and jastiper usernames for display.
const orderColumns = `o.id, o.order_code, o.user_id, u.username,
	o.jastiper_id, j.username,
	o.total_amount, o.status, o.payment_method, COALESCE(o.qris_image, ''),
	o.delivery_address, COALESCE(o.notes, ''), o.jastiper_commission,
	o.accepted_at, o.completed_at, o.created_at`

const orderFrom = ` FROM orders o
	JOIN users u ON u.id = o.user_id
	LEFT JOIN users j ON j.id = o.jastiper_id`

const (
	getOrderSQL = `SELECT ` + orderColumns + orderFrom + ` WHERE o.id = $1`

	listByBuyerSQL = `SELECT ` + orderColumns + orderFrom + `
		WHERE o.user_id = $1 ORDER BY o.created_at DESC LIMIT $2 OFFSET $3`
	countByBuyerSQL = `SELECT COUNT(*) FROM orders WHERE user_id = $1`

	listPendingSQL = `SELECT ` + orderColumns + orderFrom + `
		WHERE o.status = 'pending' ORDER BY o.created_at DESC LIMIT $1 OFFSET $2`
	countPendingSQL = `SELECT COUNT(*) FROM orders WHERE status = 'pending'`

	listActiveSQL = `SELECT ` + orderColumns + orderFrom + `
		WHERE o.jastiper_id = $1
		  AND o.status IN ('accepted', 'heading_to_canteen', 'heading_to_customer')
		ORDER BY o.accepted_at DESC LIMIT $2 OFFSET $3`
	countActiveSQL = `SELECT COUNT(*) FROM orders
		WHERE jastiper_id = $1
		  AND status IN ('accepted', 'heading_to_canteen', 'heading_to_customer')`

	listCompletedSQL = `SELECT ` + orderColumns + orderFrom + `
		WHERE o.jastiper_id = $1 AND o.status = 'completed'
		ORDER BY o.completed_at DESC LIMIT $2 OFFSET $3`
	countCompletedSQL = `SELECT COUNT(*) FROM orders
		WHERE jastiper_id = $1 AND status = 'completed'`

	earningsSQL = `SELECT COALESCE(SUM(jastiper_commission), 0) FROM orders
		WHERE jastiper_id = $1 AND status = 'completed'`

	itemsForOrdersSQL = `SELECT i.id, i.order_id, i.product_id, p.name,
		i.quantity, i.price_at_time, i.subtotal
		FROM order_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.order_id = ANY($1)
		ORDER BY i.order_id, i.product_id`

	acceptSQL = `UPDATE orders
		SET jastiper_id = $2, status = 'accepted', accepted_at = $3, updated_at = now()
		WHERE id = $1 AND status = 'pending'`

	advanceSQL = `UPDATE orders
		SET status = $4, updated_at = now()
		WHERE id = $1 AND jastiper_id = $2 AND status = $3`

	completeSQL = `UPDATE orders
		SET status = 'completed', jastiper_commission = $2, completed_at = $3, updated_at = now()
		WHERE id = $1 AND status = 'heading_to_customer'`

	insertHistorySQL = `INSERT INTO delivery_histories (jastiper_id, order_id, commission, delivered_at)
		VALUES ($1, $2, $3, $4)`

	orderExistsSQL = `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`
)

var _ order.Ledger = (*OrderStore)(nil)

// OrderStore implements order.Ledger backed by PostgreSQL.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore returns an OrderStore that uses the given pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// CreateFromCart turns the buyer's cart into an order inside one transaction.
// Cart rows are read ordered by product_id so that concurrent multi-item
// checkouts acquire their row locks in the same order and cannot deadlock.
// Each product row is locked with FOR UPDATE before the stock check, so two
// checkouts contending for the same product serialize and the loser sees the
// decremented stock.
func (s *OrderStore) CreateFromCart(ctx context.Context, draft order.Draft) (*order.Order, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	rows, err := tx.Query(ctx,
		`SELECT product_id, quantity FROM carts WHERE user_id = $1 ORDER BY product_id`,
		draft.BuyerID)
	if err != nil {
		return nil, errors.Wrap(err, "read cart")
	}
	type cartLine struct {
		ProductID int64
		Quantity  int
	}
	lines, err := pgx.CollectRows(rows, pgx.RowToStructByPos[cartLine])
	if err != nil {
		return nil, errors.Wrap(err, "scan cart")
	}
	if len(lines) == 0 {
		return nil, order.ErrCartEmpty
	}

	o := &order.Order{
		Code:            draft.Code,
		BuyerID:         draft.BuyerID,
		TotalAmount:     decimal.Zero,
		Status:          order.StatusPending,
		PaymentMethod:   draft.PaymentMethod,
		QRISImage:       draft.QRISImage,
		DeliveryAddress: draft.DeliveryAddress,
		Notes:           draft.Notes,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO orders (order_code, user_id, total_amount, status, payment_method, qris_image, delivery_address, notes)
		 VALUES ($1, $2, 0, 'pending', $3, NULLIF($4, ''), $5, NULLIF($6, ''))
		 RETURNING id, created_at`,
		draft.Code, draft.BuyerID, string(draft.PaymentMethod), draft.QRISImage,
		draft.DeliveryAddress, draft.Notes,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "insert order")
	}

	total := decimal.Zero
	for _, line := range lines {
		var (
			name  string
			price decimal.Decimal
			stock int
		)
		err := tx.QueryRow(ctx,
			`SELECT name, price, stock FROM products WHERE id = $1 FOR UPDATE`,
			line.ProductID,
		).Scan(&name, &price, &stock)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, product.ErrNotFound
			}
			return nil, errors.Wrapf(err, "lock product %d", line.ProductID)
		}

		if line.Quantity > stock {
			return nil, &order.InsufficientStockError{ProductName: name}
		}

		subtotal := price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		item := order.Item{
			OrderID:     o.ID,
			ProductID:   line.ProductID,
			ProductName: name,
			Quantity:    line.Quantity,
			PriceAtTime: price,
			Subtotal:    subtotal,
		}
		err = tx.QueryRow(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, price_at_time, subtotal)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			o.ID, line.ProductID, line.Quantity, price, subtotal,
		).Scan(&item.ID)
		if err != nil {
			return nil, errors.Wrap(err, "insert order item")
		}

		if _, err := tx.Exec(ctx,
			`UPDATE products SET stock = stock - $2, updated_at = now() WHERE id = $1`,
			line.ProductID, line.Quantity); err != nil {
			return nil, errors.Wrapf(err, "decrement stock for product %d", line.ProductID)
		}

		total = total.Add(subtotal)
		o.Items = append(o.Items, item)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE orders SET total_amount = $2 WHERE id = $1`, o.ID, total); err != nil {
		return nil, errors.Wrap(err, "write total")
	}
	o.TotalAmount = total

	if _, err := tx.Exec(ctx,
		`DELETE FROM carts WHERE user_id = $1`, draft.BuyerID); err != nil {
		return nil, errors.Wrap(err, "clear cart")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	return o, nil
}

// GetByID loads an order with its items.
func (s *OrderStore) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	rows, err := s.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %d", id)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %d", id)
	}

	orders := []order.Order{o}
	if err := s.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// Accept is the single conditional write that claims a pending order.
func (s *OrderStore) Accept(ctx context.Context, orderID, jastiperID int64, at time.Time) error {
	ct, err := s.pool.Exec(ctx, acceptSQL, orderID, jastiperID, at)
	if err != nil {
		return errors.Wrapf(err, "accept order %d", orderID)
	}
	if ct.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx, orderExistsSQL, orderID).Scan(&exists); err != nil {
			return errors.Wrapf(err, "accept order %d", orderID)
		}
		if !exists {
			return order.ErrNotFound
		}
		return order.ErrAlreadyTaken
	}
	return nil
}

// AdvanceStatus performs the conditional advance. Zero matched rows means
// the order no longer carries the expected (status, jastiper) pair.
func (s *OrderStore) AdvanceStatus(ctx context.Context, orderID, jastiperID int64, from, to order.Status) error {
	ct, err := s.pool.Exec(ctx, advanceSQL, orderID, jastiperID, string(from), string(to))
	if err != nil {
		return errors.Wrapf(err, "advance order %d", orderID)
	}
	if ct.RowsAffected() == 0 {
		return order.ErrConcurrentModification
	}
	return nil
}

// Complete settles the order: conditional flip to completed plus the
// delivery history insert, in one transaction. The conditional WHERE and the
// unique order_id on delivery_histories together make settlement
// exactly-once.
func (s *OrderStore) Complete(ctx context.Context, orderID, jastiperID int64, commission decimal.Decimal, at time.Time) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	ct, err := tx.Exec(ctx, completeSQL, orderID, commission, at)
	if err != nil {
		return errors.Wrapf(err, "complete order %d", orderID)
	}
	if ct.RowsAffected() == 0 {
		return order.ErrNotReady
	}

	if _, err := tx.Exec(ctx, insertHistorySQL, jastiperID, orderID, commission, at); err != nil {
		return errors.Wrapf(err, "record delivery history for order %d", orderID)
	}

	return errors.Wrap(tx.Commit(ctx), "commit")
}

func (s *OrderStore) ListByBuyer(ctx context.Context, buyerID int64, page order.Page) ([]order.Order, int, error) {
	return s.list(ctx, listByBuyerSQL, countByBuyerSQL,
		[]any{buyerID, page.Limit(), page.Offset()}, []any{buyerID})
}

func (s *OrderStore) ListPending(ctx context.Context, page order.Page) ([]order.Order, int, error) {
	return s.list(ctx, listPendingSQL, countPendingSQL,
		[]any{page.Limit(), page.Offset()}, nil)
}

func (s *OrderStore) ListActiveByJastiper(ctx context.Context, jastiperID int64, page order.Page) ([]order.Order, int, error) {
	return s.list(ctx, listActiveSQL, countActiveSQL,
		[]any{jastiperID, page.Limit(), page.Offset()}, []any{jastiperID})
}

func (s *OrderStore) ListCompletedByJastiper(ctx context.Context, jastiperID int64, page order.Page) ([]order.Order, int, error) {
	return s.list(ctx, listCompletedSQL, countCompletedSQL,
		[]any{jastiperID, page.Limit(), page.Offset()}, []any{jastiperID})
}

// EarningsByJastiper sums all settled commissions for the jastiper.
func (s *OrderStore) EarningsByJastiper(ctx context.Context, jastiperID int64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := s.pool.QueryRow(ctx, earningsSQL, jastiperID).Scan(&sum); err != nil {
		return decimal.Zero, errors.Wrap(err, "sum earnings")
	}
	return sum, nil
}

// list runs a page query plus its count query and attaches items.
func (s *OrderStore) list(ctx context.Context, listSQL, countSQL string, listArgs, countArgs []any) ([]order.Order, int, error) {
	rows, err := s.pool.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list orders")
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, 0, errors.Wrap(err, "scan orders")
	}

	var total int
	if err := s.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "count orders")
	}

	if err := s.attachItems(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// attachItems loads all items for the given orders in one query and fans
// them out by order id.
func (s *OrderStore) attachItems(ctx context.Context, orders []order.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	index := make(map[int64]*order.Order, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = &orders[i]
	}

	rows, err := s.pool.Query(ctx, itemsForOrdersSQL, ids)
	if err != nil {
		return errors.Wrap(err, "list order items")
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Item, error) {
		var it order.Item
		err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName,
			&it.Quantity, &it.PriceAtTime, &it.Subtotal)
		return it, err
	})
	if err != nil {
		return errors.Wrap(err, "scan order items")
	}

	for _, it := range items {
		o := index[it.OrderID]
		o.Items = append(o.Items, it)
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o            order.Order
		jastiperName *string
		status       string
		method       string
	)
	err := row.Scan(
		&o.ID, &o.Code, &o.BuyerID, &o.BuyerName,
		&o.JastiperID, &jastiperName,
		&o.TotalAmount, &status, &method, &o.QRISImage,
		&o.DeliveryAddress, &o.Notes, &o.Commission,
		&o.AcceptedAt, &o.CompletedAt, &o.CreatedAt,
	)
	o.Status = order.Status(status)
	o.PaymentMethod = order.PaymentMethod(method)
	if jastiperName != nil {
		o.JastiperName = *jastiperName
	}
	return o, err
}
