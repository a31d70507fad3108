package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lunchup/lunchup-be/internal/domain/cart"
)

const (
	listCartSQL = `SELECT c.id, c.user_id, c.product_id, p.name, c.quantity, p.price, p.stock
		FROM carts c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.product_id`

	upsertCartSQL = `INSERT INTO carts (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`

	removeCartSQL = `DELETE FROM carts WHERE user_id = $1 AND product_id = $2`

	clearCartSQL = `DELETE FROM carts WHERE user_id = $1`
)

var _ cart.Repository = (*CartStore)(nil)

// CartStore implements cart.Repository backed by PostgreSQL.
type CartStore struct {
	pool *pgxpool.Pool
}

func NewCartStore(pool *pgxpool.Pool) *CartStore {
	return &CartStore{pool: pool}
}

func (s *CartStore) ListByBuyer(ctx context.Context, userID int64) ([]cart.Item, error) {
	rows, err := s.pool.Query(ctx, listCartSQL, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart")
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByPos[cart.Item])
	if err != nil {
		return nil, errors.Wrap(err, "scan cart")
	}
	return items, nil
}

func (s *CartStore) Upsert(ctx context.Context, userID, productID int64, quantity int) error {
	_, err := s.pool.Exec(ctx, upsertCartSQL, userID, productID, quantity)
	return errors.Wrap(err, "upsert cart item")
}

func (s *CartStore) Remove(ctx context.Context, userID, productID int64) error {
	ct, err := s.pool.Exec(ctx, removeCartSQL, userID, productID)
	if err != nil {
		return errors.Wrap(err, "remove cart item")
	}
	if ct.RowsAffected() == 0 {
		return cart.ErrNotFound
	}
	return nil
}

func (s *CartStore) ClearByBuyer(ctx context.Context, userID int64) error {
	_, err := s.pool.Exec(ctx, clearCartSQL, userID)
	return errors.Wrap(err, "clear cart")
}
