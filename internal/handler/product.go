package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/lunchup/lunchup-be/internal/domain/product"
)

type productResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Category    string    `json:"category"`
	Place       string    `json:"place,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type productRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Category    string  `json:"category"`
	Place       string  `json:"place"`
	Image       string  `json:"image"`
}

func (h *Handler) toProductResponse(p *product.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.InexactFloat64(),
		Stock:       p.Stock,
		Category:    p.Category,
		Place:       p.Place,
		ImageURL:    h.assetURL(p.Image),
		CreatedAt:   p.CreatedAt,
	}
}

func (h *Handler) toProductList(products []product.Product, page, perPage, total int) pageResponse {
	items := make([]productResponse, 0, len(products))
	for i := range products {
		items = append(items, h.toProductResponse(&products[i]))
	}
	return pageResponse{
		Items:      items,
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	}
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if perPage < 1 {
		perPage = 10
	}

	f := product.ListFilter{
		Category:  q.Get("category"),
		Search:    q.Get("search"),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
		Limit:     perPage,
		Offset:    (page - 1) * perPage,
	}

	products, total, err := h.products.List(r.Context(), f)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondOK(w, h.toProductList(products, page, perPage, total), "")
}

func (h *Handler) listProductsByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if perPage < 1 {
		perPage = 10
	}

	products, total, err := h.products.ListByCategory(r.Context(), category, perPage, (page-1)*perPage)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondOK(w, h.toProductList(products, page, perPage, total), "")
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		respondError(w, http.StatusNotFound, "Produk tidak ditemukan")
		return
	}

	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondOK(w, h.toProductResponse(p), "")
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromContext(r.Context())

	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Format request tidak valid")
		return
	}
	if msg, ok := validateProduct(req); !ok {
		respondError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	p := &product.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       decimal.NewFromFloat(req.Price),
		Stock:       req.Stock,
		Category:    req.Category,
		Place:       req.Place,
		Image:       req.Image,
		CreatedBy:   caller.ID,
	}
	if err := h.products.Create(r.Context(), p); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, h.toProductResponse(p), "Produk berhasil dibuat")
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		respondError(w, http.StatusNotFound, "Produk tidak ditemukan")
		return
	}

	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Format request tidak valid")
		return
	}
	if msg, ok := validateProduct(req); !ok {
		respondError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	existing, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	existing.Name = req.Name
	existing.Description = req.Description
	existing.Price = decimal.NewFromFloat(req.Price)
	existing.Stock = req.Stock
	existing.Category = req.Category
	existing.Place = req.Place
	existing.Image = req.Image

	if err := h.products.Update(r.Context(), existing); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondOK(w, h.toProductResponse(existing), "Produk berhasil diperbarui")
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		respondError(w, http.StatusNotFound, "Produk tidak ditemukan")
		return
	}

	if err := h.products.Delete(r.Context(), id); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondOK(w, nil, "Produk berhasil dihapus")
}

func validateProduct(req productRequest) (string, bool) {
	switch {
	case req.Name == "":
		return "Nama produk wajib diisi", false
	case req.Price < 0:
		return "Harga tidak boleh negatif", false
	case req.Stock < 0:
		return "Stok tidak boleh negatif", false
	case req.Category == "":
		return "Kategori wajib diisi", false
	}
	return "", true
}
