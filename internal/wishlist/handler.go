package wishlist

import (
	"net/http"

	"stackstore-be/internal/logger"
	"stackstore-be/internal/transport"
	"stackstore-be/internal/utils"

	"go.uber.org/zap"
)

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

	ids, err := h.svc.Get(r.Context(), userID)
	if err != nil {
		logger.FromCtx(r.Context()).Error("load wishlist failed", zap.Error(err))
		transport.WriteError(w, http.StatusInternalServerError, "Unable to load wishlist")
		return
	}
	transport.WriteJSON(w, http.StatusOK, Snapshot{IDs: ids})
}

func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var snap Snapshot
	if err := transport.DecodeAndValidate(r, &snap); err != nil {
		transport.WriteValidationError(w, err, "Invalid wishlist payload")
		return
	}

	if err := h.svc.Replace(r.Context(), userID, snap.IDs); err != nil {
		logger.FromCtx(r.Context()).Error("save wishlist failed", zap.Error(err))
		transport.WriteError(w, http.StatusInternalServerError, "Unable to save wishlist")
		return
	}
	transport.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
