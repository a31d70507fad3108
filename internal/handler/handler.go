// Package handler exposes the HTTP API: catalog, cart, and the order
// lifecycle. Responses use the {"success", "data", "message"} envelope and
// Indonesian client-facing messages throughout.
package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lunchup/lunchup-be/internal/domain/cart"
	"github.com/lunchup/lunchup-be/internal/domain/order"
	"github.com/lunchup/lunchup-be/internal/domain/product"
	"github.com/lunchup/lunchup-be/internal/domain/user"
)

// Config carries handler-level settings.
type Config struct {
	// AssetBaseURL prefixes stored asset paths (product images, the QRIS
	// display asset) to produce absolute URLs. Empty means paths are
	// returned as stored.
	AssetBaseURL string
}

// Handler holds the HTTP endpoints and their collaborators.
type Handler struct {
	cfg      Config
	orders   *order.Service
	products product.Repository
	carts    cart.Repository
}

// New creates the API handler.
func New(cfg Config, orders *order.Service, products product.Repository, carts cart.Repository) *Handler {
	return &Handler{
		cfg:      cfg,
		orders:   orders,
		products: products,
		carts:    carts,
	}
}

// Register mounts all API routes under /api on the given router. Every route
// requires a valid token; role gates narrow the order and catalog-write
// endpoints. auth is the token-resolving middleware produced by Auth.
func (h *Handler) Register(r *chi.Mux, auth func(http.Handler) http.Handler) {
	r.Route("/api", func(r chi.Router) {
		r.Use(auth)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.listProducts)
			r.Get("/category/{category}", h.listProductsByCategory)
			r.Get("/{id}", h.getProduct)

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(user.RoleAdmin))
				r.Post("/", h.createProduct)
				r.Put("/{id}", h.updateProduct)
				r.Delete("/{id}", h.deleteProduct)
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(RequireRole(user.RoleUser))
			r.Get("/", h.getCart)
			r.Post("/", h.addToCart)
			r.Delete("/", h.clearCart)
			r.Delete("/{productID}", h.removeFromCart)
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(RequireRole(user.RoleUser)).Post("/checkout", h.checkout)
			r.With(RequireRole(user.RoleUser)).Get("/", h.listMyOrders)
			r.With(RequireRole(user.RoleJastiper, user.RoleAdmin)).Get("/available", h.listAvailable)
			r.Get("/{id}", h.getOrder)
			r.With(RequireRole(user.RoleJastiper)).Post("/{id}/accept", h.acceptOrder)
			r.With(RequireRole(user.RoleJastiper)).Post("/{id}/status", h.advanceOrder)
			r.With(RequireRole(user.RoleUser)).Post("/{id}/confirm", h.confirmOrder)
		})

		r.Route("/deliveries", func(r chi.Router) {
			r.Use(RequireRole(user.RoleJastiper))
			r.Get("/active", h.listActiveDeliveries)
			r.Get("/history", h.listDeliveryHistory)
		})
	})
}

// assetURL resolves a stored asset path against the configured base URL.
func (h *Handler) assetURL(path string) string {
	if path == "" || h.cfg.AssetBaseURL == "" {
		return path
	}
	return strings.TrimRight(h.cfg.AssetBaseURL, "/") + "/" + path
}
