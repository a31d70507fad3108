package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/lunchup/lunchup-be/internal/domain/cart"
	"github.com/lunchup/lunchup-be/internal/domain/order"
	"github.com/lunchup/lunchup-be/internal/domain/product"
)

// envelope is the uniform response shape: {"success": ..., "data": ...,
// "message": ...}. The mobile client keys off success, not status codes
// alone.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func respond(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{
		Success: status < 400,
		Data:    data,
		Message: message,
	})
}

func respondOK(w http.ResponseWriter, data any, message string) {
	respond(w, http.StatusOK, data, message)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, nil, message)
}

// respondDomainError maps domain errors onto HTTP statuses. Anything
// unrecognized is a 500 and gets logged with its full chain.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *order.ValidationError
		stock      *order.InsufficientStockError
	)
	switch {
	case errors.As(err, &validation):
		respondError(w, http.StatusUnprocessableEntity, validation.Error())
	case errors.As(err, &stock):
		respondError(w, http.StatusConflict, "Stok tidak mencukupi untuk produk: "+stock.ProductName)
	case errors.Is(err, order.ErrCartEmpty):
		respondError(w, http.StatusBadRequest, "Keranjang masih kosong")
	case errors.Is(err, order.ErrAlreadyTaken):
		respondError(w, http.StatusConflict, "Order sudah diambil jastiper lain")
	case errors.Is(err, order.ErrConcurrentModification):
		respondError(w, http.StatusConflict, "Order berubah, silakan muat ulang")
	case errors.Is(err, order.ErrInvalidTransition):
		respondError(w, http.StatusBadRequest, "Status order tidak bisa diubah")
	case errors.Is(err, order.ErrNotReady):
		respondError(w, http.StatusBadRequest, "Order belum siap dikonfirmasi")
	case errors.Is(err, order.ErrUnauthorized):
		respondError(w, http.StatusForbidden, "Anda tidak berhak mengakses order ini")
	case errors.Is(err, order.ErrNotFound):
		respondError(w, http.StatusNotFound, "Order tidak ditemukan")
	case errors.Is(err, product.ErrNotFound):
		respondError(w, http.StatusNotFound, "Produk tidak ditemukan")
	case errors.Is(err, cart.ErrNotFound):
		respondError(w, http.StatusNotFound, "Item keranjang tidak ditemukan")
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Terjadi kesalahan pada server")
	}
}

// decodeJSON reads the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
