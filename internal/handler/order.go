package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lunchup/lunchup-be/internal/domain/order"
)

type checkoutRequest struct {
	DeliveryAddress string `json:"delivery_address"`
	Notes           string `json:"notes"`
	PaymentMethod   string `json:"payment_method"`
}

type orderItemResponse struct {
	ID          int64   `json:"id"`
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	PriceAtTime float64 `json:"price_at_time"`
	Subtotal    float64 `json:"subtotal"`
}

type orderResponse struct {
	ID              int64                `json:"id"`
	OrderCode       string               `json:"order_code"`
	BuyerName       string               `json:"buyer_name"`
	JastiperName    string               `json:"jastiper_name,omitempty"`
	TotalAmount     float64              `json:"total_amount"`
	Status          string               `json:"status"`
	StatusLabel     string               `json:"status_label"`
	PaymentMethod   string               `json:"payment_method"`
	DeliveryAddress string               `json:"delivery_address"`
	Notes           string               `json:"notes,omitempty"`
	Commission      *float64             `json:"jastiper_commission,omitempty"`
	AcceptedAt      *time.Time           `json:"accepted_at,omitempty"`
	CompletedAt     *time.Time           `json:"completed_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	Items           []orderItemResponse  `json:"items"`
	Payment         *order.PaymentDetail `json:"payment_detail,omitempty"`
}

type pageResponse struct {
	Items      any `json:"items"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// toOrderResponse converts a domain order for the wire. withPayment attaches
// the derived payment view, used on detail reads and lifecycle responses.
func (h *Handler) toOrderResponse(o *order.Order, withPayment bool) orderResponse {
	resp := orderResponse{
		ID:              o.ID,
		OrderCode:       o.Code,
		BuyerName:       o.BuyerName,
		JastiperName:    o.JastiperName,
		TotalAmount:     o.TotalAmount.InexactFloat64(),
		Status:          string(o.Status),
		StatusLabel:     o.Status.Label(),
		PaymentMethod:   string(o.PaymentMethod),
		DeliveryAddress: o.DeliveryAddress,
		Notes:           o.Notes,
		AcceptedAt:      o.AcceptedAt,
		CompletedAt:     o.CompletedAt,
		CreatedAt:       o.CreatedAt,
		Items:           make([]orderItemResponse, 0, len(o.Items)),
	}
	if o.Commission.Valid {
		v := o.Commission.Decimal.InexactFloat64()
		resp.Commission = &v
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			PriceAtTime: it.PriceAtTime.InexactFloat64(),
			Subtotal:    it.Subtotal.InexactFloat64(),
		})
	}
	if withPayment {
		d := order.PaymentDetailFor(o, h.assetURL)
		resp.Payment = &d
	}
	return resp
}

func (h *Handler) toOrderList(orders []order.Order, page order.Page, total int) pageResponse {
	items := make([]orderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, h.toOrderResponse(&orders[i], false))
	}
	return pageResponse{
		Items:      items,
		Page:       pageNumber(page),
		PerPage:    page.Limit(),
		Total:      total,
		TotalPages: (total + page.Limit() - 1) / page.Limit(),
	}
}

func pageNumber(p order.Page) int {
	if p.Number <= 1 {
		return 1
	}
	return p.Number
}

// pageFromQuery reads ?page= and ?per_page= with the usual defaults.
func pageFromQuery(r *http.Request) order.Page {
	q := r.URL.Query()
	number, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("per_page"))
	return order.Page{Number: number, Size: size}
}

func orderIDFromPath(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromContext(r.Context())

	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Format request tidak valid")
		return
	}

	o, err := h.orders.Checkout(r.Context(), caller, order.CheckoutRequest{
		DeliveryAddress: req.DeliveryAddress,
		Notes:           req.Notes,
		PaymentMethod:   order.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, h.toOrderResponse(o, true), "Order berhasil dibuat")
}

func (h *Handler) listMyOrders(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromContext(r.Context())
	page := pageFromQuery(r)

	orders, total, err := h.orders.ListMine(r.Context(), caller, page)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondOK(w, h.toOrderList(orders, page, total), "")
}

func (h *Handler) listAvailable(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)

	orders, total, err := h.orders.Available(r.Context(), page)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondOK(w, h.toOrderList(orders, page, total), "")
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromContext(r.Context())
	id, ok := orderIDFromPath(r)
	if !ok {
		respondError(w, http.StatusNotFound, "Order tidak ditemukan")
		return
	}

	o, err := h.orders.GetDetail(r.Context(), caller, id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondOK(w, h.toOrderResponse(o, true), "")
}

func (h *Handler) acceptOrder(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromContext(r.Context())
	id, ok := orderIDFromPath(r)
	if !ok {
		respondError(w, http.StatusNotFound, "Order tidak ditemukan")
		return
	}

	o, err := h.orders.Accept(r.Context(), caller, id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondOK(w, h.toOrderResponse(o, true), "Order berhasil diambil")
}

func (h *Handler) advanceOrder(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromContext(r.Context())
	id, ok := orderIDFromPath(r)
	if !ok {
		respondError(w, http.StatusNotFound, "Order tidak ditemukan")
		return
	}

	o, err := h.orders.Advance(r.Context(), caller, id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondOK(w, h.toOrderResponse(o, true), "Status order diperbarui: "+o.Status.Label())
}

func (h *Handler) confirmOrder(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromContext(r.Context())
	id, ok := orderIDFromPath(r)
	if !ok {
		respondError(w, http.StatusNotFound, "Order tidak ditemukan")
		return
	}

	o, err := h.orders.Confirm(r.Context(), caller, id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondOK(w, h.toOrderResponse(o, false), "Pesanan selesai, terima kasih!")
}

func (h *Handler) listActiveDeliveries(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromContext(r.Context())
	page := pageFromQuery(r)

	orders, total, err := h.orders.ActiveDeliveries(r.Context(), caller, page)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	// Active deliveries carry the payment view so the jastiper always has
	// collection instructions at hand.
	items := make([]orderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, h.toOrderResponse(&orders[i], true))
	}
	respondOK(w, pageResponse{
		Items:      items,
		Page:       pageNumber(page),
		PerPage:    page.Limit(),
		Total:      total,
		TotalPages: (total + page.Limit() - 1) / page.Limit(),
	}, "")
}

type historyResponse struct {
	pageResponse
	TotalEarnings          float64 `json:"total_earnings"`
	TotalEarningsFormatted string  `json:"total_earnings_formatted"`
}

func (h *Handler) listDeliveryHistory(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromContext(r.Context())
	page := pageFromQuery(r)

	orders, total, earnings, err := h.orders.History(r.Context(), caller, page)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondOK(w, historyResponse{
		pageResponse:           h.toOrderList(orders, page, total),
		TotalEarnings:          earnings.InexactFloat64(),
		TotalEarningsFormatted: order.FormatRupiah(earnings),
	}, "")
}
