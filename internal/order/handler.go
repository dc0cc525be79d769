package order

import (
	"errors"
	"net/http"
	"strconv"

	"stackstore-be/internal/logger"
	"stackstore-be/internal/transport"
	"stackstore-be/internal/utils"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Checkout handles POST /api/checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var input CheckoutInput
	if err := transport.DecodeAndValidate(r, &input); err != nil {
		transport.WriteValidationError(w, err, "Invalid checkout payload")
		return
	}

	res, err := h.svc.Checkout(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, res)
}

// ListMine handles GET /api/user/orders for the signed-in shopper.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	if _, ok := utils.GetUserIDFromContext(r.Context()); !ok {
		transport.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	orders, err := h.svc.ListOrdersByEmail(r.Context(), utils.GetUserEmailFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

// List handles GET /api/admin/orders?status=&limit=&page=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	page, _ := strconv.Atoi(q.Get("page"))

	filter := ListFilter{Limit: limit, Page: page}
	if raw := q.Get("status"); raw != "" {
		status, ok := ParseStatus(raw)
		if !ok {
			transport.WriteError(w, http.StatusBadRequest, ErrInvalidStatus.Error())
			return
		}
		filter.Status = &status
	}

	res, err := h.svc.ListOrders(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.GetOrder(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, o)
}

type statusInput struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus handles PUT /api/admin/orders/{id}.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var input statusInput
	if err := transport.DecodeAndValidate(r, &input); err != nil {
		transport.WriteValidationError(w, err, "Invalid status payload")
		return
	}

	status, ok := ParseStatus(input.Status)
	if !ok {
		transport.WriteError(w, http.StatusBadRequest, ErrInvalidStatus.Error())
		return
	}

	o, err := h.svc.UpdateStatus(r.Context(), mux.Vars(r)["id"], status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		stock       *InsufficientStockError
		unavailable *ProductUnavailableError
	)
	switch {
	case errors.As(err, &stock):
		transport.WriteErrorCode(w, http.StatusBadRequest, "insufficient_stock", stock.Error())
	case errors.As(err, &unavailable):
		transport.WriteErrorCode(w, http.StatusBadRequest, "product_unavailable", "Product "+unavailable.ProductID+" is unavailable")
	case errors.Is(err, ErrPaymentNotConfigured):
		transport.WriteErrorCode(w, http.StatusServiceUnavailable, "payment_not_configured", ErrPaymentNotConfigured.Error())
	case errors.Is(err, ErrPaymentProvider):
		logger.FromCtx(r.Context()).Error("payment session failed", zap.Error(err))
		transport.WriteErrorCode(w, http.StatusBadGateway, "payment_provider_error", "Unable to start card payment. Please try again.")
	case errors.Is(err, ErrEmptyCheckout):
		transport.WriteError(w, http.StatusBadRequest, "Checkout requires at least one item")
	case errors.Is(err, ErrInvalidStatus):
		transport.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrOrderNotFound):
		transport.WriteError(w, http.StatusNotFound, "Order not found")
	default:
		logger.FromCtx(r.Context()).Error("order request failed", zap.Error(err))
		transport.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}
