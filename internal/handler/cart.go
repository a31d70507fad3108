package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/lunchup/lunchup-be/internal/domain/order"
)

type cartItemResponse struct {
	ID          int64   `json:"id"`
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Subtotal    float64 `json:"subtotal"`
}

type cartResponse struct {
	Items          []cartItemResponse `json:"items"`
	Total          float64            `json:"total"`
	TotalFormatted string             `json:"total_formatted"`
}

type addToCartRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromContext(r.Context())

	items, err := h.carts.ListByBuyer(r.Context(), caller.ID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	resp := cartResponse{Items: make([]cartItemResponse, 0, len(items))}
	total := decimal.Zero
	for _, it := range items {
		subtotal := it.Subtotal()
		total = total.Add(subtotal)
		resp.Items = append(resp.Items, cartItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.Price.InexactFloat64(),
			Stock:       it.Stock,
			Subtotal:    subtotal.InexactFloat64(),
		})
	}
	resp.Total = total.InexactFloat64()
	resp.TotalFormatted = order.FormatRupiah(total)
	respondOK(w, resp, "")
}

// addToCart upserts the cart line. Stock is only advisory here; the real
// reservation happens inside the checkout transaction.
func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromContext(r.Context())

	var req addToCartRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Format request tidak valid")
		return
	}
	if req.Quantity < 1 {
		respondError(w, http.StatusUnprocessableEntity, "Jumlah minimal 1")
		return
	}

	p, err := h.products.GetByID(r.Context(), req.ProductID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if req.Quantity > p.Stock {
		respondError(w, http.StatusUnprocessableEntity, "Stok tidak mencukupi untuk produk: "+p.Name)
		return
	}

	if err := h.carts.Upsert(r.Context(), caller.ID, req.ProductID, req.Quantity); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondOK(w, nil, "Produk ditambahkan ke keranjang")
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromContext(r.Context())

	if err := h.carts.ClearByBuyer(r.Context(), caller.ID); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondOK(w, nil, "Keranjang dikosongkan")
}

func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromContext(r.Context())

	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || productID < 1 {
		respondError(w, http.StatusNotFound, "Item keranjang tidak ditemukan")
		return
	}

	if err := h.carts.Remove(r.Context(), caller.ID, productID); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondOK(w, nil, "Produk dihapus dari keranjang")
}
