package cart

import (
	"errors"
	"net/http"

	"stackstore-be/internal/logger"
	"stackstore-be/internal/transport"
	"stackstore-be/internal/utils"

	"go.uber.org/zap"
)

const invalidPayload = "Invalid cart payload"

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	items, err := h.svc.Get(r.Context(), userID)
	if err != nil {
		logger.FromCtx(r.Context()).Error("load cart failed", zap.Error(err))
		transport.WriteError(w, http.StatusInternalServerError, "Unable to load cart")
		return
	}
	transport.WriteJSON(w, http.StatusOK, Snapshot{Items: items})
}

func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var snap Snapshot
	if err := transport.DecodeAndValidate(r, &snap); err != nil {
		transport.WriteValidationError(w, err, invalidPayload)
		return
	}

	if err := h.svc.Replace(r.Context(), userID, snap.Items); err != nil {
		if errors.Is(err, ErrNegativePrice) || errors.Is(err, ErrEmptyProduct) {
			transport.WriteError(w, http.StatusBadRequest, invalidPayload)
			return
		}
		logger.FromCtx(r.Context()).Error("save cart failed", zap.Error(err))
		transport.WriteError(w, http.StatusInternalServerError, "Unable to save cart")
		return
	}
	transport.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
