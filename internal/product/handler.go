package product

import (
	"errors"
	"net/http"
	"strconv"

	"stackstore-be/internal/logger"
	"stackstore-be/internal/transport"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// List handles GET /api/products?q=&limit=&page=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	page, _ := strconv.Atoi(q.Get("page"))

	res, err := h.svc.List(r.Context(), ListOptions{Search: q.Get("q"), Limit: limit, Page: page})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var input CreateInput
	if err := transport.DecodeAndValidate(r, &input); err != nil {
		transport.WriteValidationError(w, err, "Invalid product payload")
		return
	}

	p, err := h.svc.Create(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var input UpdateInput
	if err := transport.DecodeAndValidate(r, &input); err != nil {
		transport.WriteValidationError(w, err, "Invalid product payload")
		return
	}

	p, err := h.svc.Update(r.Context(), mux.Vars(r)["id"], input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, p)
}

// Delete handles DELETE /api/admin/products/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrProductNotFound):
		transport.WriteError(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, ErrSlugTaken), errors.Is(err, ErrProductInUse):
		transport.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidPrice), errors.Is(err, ErrEmptyName):
		transport.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		logger.FromCtx(r.Context()).Error("product request failed", zap.Error(err))
		transport.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}
