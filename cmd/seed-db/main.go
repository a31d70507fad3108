// Command seed-db provisions a development database: demo accounts for each
// role with printed API tokens, and a starter catalog.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/lunchup/lunchup-be/internal/domain/product"
	"github.com/lunchup/lunchup-be/internal/domain/user"
	"github.com/lunchup/lunchup-be/internal/handler"
	"github.com/lunchup/lunchup-be/internal/storage/postgres"
)

type seedAccount struct {
	username string
	role     user.Role
	token    string
}

var accounts = []seedAccount{
	{username: "budi", role: user.RoleUser, token: "dev-token-user"},
	{username: "joko", role: user.RoleJastiper, token: "dev-token-jastiper"},
	{username: "admin", role: user.RoleAdmin, token: "dev-token-admin"},
}

func main() {
	var (
		databaseURL string
		pepper      string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&pepper, "token-pepper", "", "HMAC pepper for token hashing (or LUNCHUP_TOKEN_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if pepper == "" {
		pepper = os.Getenv("LUNCHUP_TOKEN_PEPPER")
	}
	if pepper == "" {
		slog.Error("token pepper is required: set --token-pepper or LUNCHUP_TOKEN_PEPPER")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, pepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, pepper string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	users := postgres.NewUserStore(pool)
	admin, err := seedAccounts(ctx, users, pepper)
	if err != nil {
		return errors.Wrap(err, "seed accounts")
	}

	products := postgres.NewProductStore(pool)
	if err := seedProducts(ctx, products, admin.ID); err != nil {
		return errors.Wrap(err, "seed products")
	}

	return nil
}

func seedAccounts(ctx context.Context, users *postgres.UserStore, pepper string) (*user.User, error) {
	var admin *user.User
	for _, a := range accounts {
		u, err := users.Create(ctx, a.username, a.role, handler.HashToken(a.token, []byte(pepper)))
		if err != nil {
			return nil, errors.Wrapf(err, "create %s", a.username)
		}
		if a.role == user.RoleAdmin {
			admin = u
		}
		slog.Info("created account",
			slog.String("username", a.username),
			slog.String("role", string(a.role)),
			slog.String("token", a.token),
		)
	}
	return admin, nil
}

func seedProducts(ctx context.Context, products *postgres.ProductStore, adminID int64) error {
	catalog := []product.Product{
		{
			Name:        "Nasi Goreng Spesial",
			Description: "Nasi goreng dengan telur, ayam suwir, dan kerupuk",
			Price:       decimal.RequireFromString("17500.00"),
			Stock:       20,
			Category:    "makanan",
			Place:       "Kantin Bu Rina",
			Image:       "products/nasi_goreng.jpg",
		},
		{
			Name:        "Ayam Geprek",
			Description: "Ayam goreng tepung dengan sambal bawang level 1-5",
			Price:       decimal.RequireFromString("15000.00"),
			Stock:       15,
			Category:    "makanan",
			Place:       "Kantin Pak Dedi",
			Image:       "products/ayam_geprek.jpg",
		},
		{
			Name:        "Es Teh Manis",
			Description: "Teh manis dingin segar",
			Price:       decimal.RequireFromString("5000.00"),
			Stock:       50,
			Category:    "minuman",
			Place:       "Kantin Bu Rina",
			Image:       "products/es_teh.jpg",
		},
		{
			Name:        "Mie Ayam Bakso",
			Description: "Mie ayam dengan bakso sapi dan pangsit goreng",
			Price:       decimal.RequireFromString("18000.00"),
			Stock:       12,
			Category:    "makanan",
			Place:       "Kantin Pojok",
			Image:       "products/mie_ayam.jpg",
		},
	}

	slog.Info("seeding catalog", slog.Int("count", len(catalog)))

	for i := range catalog {
		catalog[i].CreatedBy = adminID
		if err := products.Create(ctx, &catalog[i]); err != nil {
			return errors.Wrapf(err, "create product %s", catalog[i].Name)
		}
		slog.Info("created product",
			slog.Int64("id", catalog[i].ID),
			slog.String("name", catalog[i].Name),
		)
	}

	return nil
}
