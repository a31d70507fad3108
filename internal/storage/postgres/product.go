package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lunchup/lunchup-be/internal/domain/product"
)

const productColumns = `id, name, description, price, stock,
	category, place, image, COALESCE(created_by, 0), created_at, updated_at`

const (
	getProductSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	insertProductSQL = `INSERT INTO products (name, description, price, stock, category, place, image, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	updateProductSQL = `UPDATE products
		SET name = $2, description = $3, price = $4, stock = $5,
		    category = $6, place = $7, image = $8, updated_at = now()
		WHERE id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	listByCategorySQL = `SELECT ` + productColumns + ` FROM products
		WHERE category = $1 AND stock > 0 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	countByCategorySQL = `SELECT COUNT(*) FROM products WHERE category = $1 AND stock > 0`
)

var _ product.Repository = (*ProductStore)(nil)

// ProductStore implements product.Repository backed by PostgreSQL.
type ProductStore struct {
	pool *pgxpool.Pool
}

func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

// sortColumns whitelists the ORDER BY targets a listing may use. Anything
// else falls back to created_at.
var sortColumns = map[string]string{
	"name":       "name",
	"price":      "price",
	"stock":      "stock",
	"created_at": "created_at",
}

// List filters the catalog. The WHERE clause is assembled from positional
// parameters; only the ORDER BY column and direction are interpolated, and
// both come from fixed whitelists.
func (s *ProductStore) List(ctx context.Context, f product.ListFilter) ([]product.Product, int, error) {
	where := ""
	args := []any{}
	if f.Category != "" {
		args = append(args, f.Category)
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}

	var total int
	countSQL := `SELECT COUNT(*) FROM products WHERE true` + where
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "count products")
	}

	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if f.SortOrder == "asc" {
		dir = "ASC"
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	args = append(args, limit, f.Offset)
	listSQL := fmt.Sprintf(`SELECT %s FROM products WHERE true%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		productColumns, where, col, dir, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list products")
	}
	products, err := pgx.CollectRows(rows, pgx.RowToStructByPos[product.Product])
	if err != nil {
		return nil, 0, errors.Wrap(err, "scan products")
	}
	return products, total, nil
}

func (s *ProductStore) ListByCategory(ctx context.Context, category string, limit, offset int) ([]product.Product, int, error) {
	if limit <= 0 {
		limit = 10
	}

	var total int
	if err := s.pool.QueryRow(ctx, countByCategorySQL, category).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "count products")
	}

	rows, err := s.pool.Query(ctx, listByCategorySQL, category, limit, offset)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list products by category")
	}
	products, err := pgx.CollectRows(rows, pgx.RowToStructByPos[product.Product])
	if err != nil {
		return nil, 0, errors.Wrap(err, "scan products")
	}
	return products, total, nil
}

func (s *ProductStore) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	rows, err := s.pool.Query(ctx, getProductSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %d", id)
	}
	p, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[product.Product])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %d", id)
	}
	return &p, nil
}

func (s *ProductStore) Create(ctx context.Context, p *product.Product) error {
	err := s.pool.QueryRow(ctx, insertProductSQL,
		p.Name, p.Description, p.Price, p.Stock, p.Category, p.Place, p.Image, p.CreatedBy,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return errors.Wrap(err, "insert product")
}

func (s *ProductStore) Update(ctx context.Context, p *product.Product) error {
	ct, err := s.pool.Exec(ctx, updateProductSQL,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.Category, p.Place, p.Image)
	if err != nil {
		return errors.Wrapf(err, "update product %d", p.ID)
	}
	if ct.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

func (s *ProductStore) Delete(ctx context.Context, id int64) error {
	ct, err := s.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return errors.Wrapf(err, "delete product %d", id)
	}
	if ct.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}
