package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lunchup/lunchup-be/internal/domain/user"
)

const (
	findByTokenSQL = `SELECT u.id, u.username, u.role
		FROM api_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token_hash = $1`

	insertUserSQL = `INSERT INTO users (username, role) VALUES ($1, $2)
		ON CONFLICT (username) DO UPDATE SET role = EXCLUDED.role
		RETURNING id`

	insertTokenSQL = `INSERT INTO api_tokens (user_id, token_hash) VALUES ($1, $2)
		ON CONFLICT (token_hash) DO NOTHING`
)

var _ user.Repository = (*UserStore)(nil)

// UserStore implements user.Repository backed by PostgreSQL.
type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func (s *UserStore) FindByTokenHash(ctx context.Context, tokenHash string) (*user.User, error) {
	var u user.User
	err := s.pool.QueryRow(ctx, findByTokenSQL, tokenHash).Scan(&u.ID, &u.Username, &u.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, errors.Wrap(err, "find user by token")
	}
	return &u, nil
}

// Create upserts the user and their API token in one transaction. Seeding
// runs it repeatedly, so both statements are conflict-tolerant.
func (s *UserStore) Create(ctx context.Context, username string, role user.Role, tokenHash string) (*user.User, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	u := &user.User{Username: username, Role: role}
	if err := tx.QueryRow(ctx, insertUserSQL, username, string(role)).Scan(&u.ID); err != nil {
		return nil, errors.Wrap(err, "insert user")
	}
	if _, err := tx.Exec(ctx, insertTokenSQL, u.ID, tokenHash); err != nil {
		return nil, errors.Wrap(err, "insert token")
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	return u, nil
}
