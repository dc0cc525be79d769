package user

import (
	"errors"
	"net/http"
	"strconv"

	"stackstore-be/internal/auth"
	"stackstore-be/internal/logger"
	"stackstore-be/internal/transport"
	"stackstore-be/internal/utils"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Handler struct {
	svc    Service
	secure bool
}

// NewHandler builds the register/login endpoints; secure marks the session cookie Secure.
func NewHandler(svc Service, secure bool) *Handler {
	return &Handler{svc: svc, secure: secure}
}

type authResponse struct {
	Token string     `json:"token"`
	User  PublicUser `json:"user"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var input RegisterInput
	if err := transport.DecodeAndValidate(r, &input); err != nil {
		transport.WriteValidationError(w, err, "Invalid registration payload")
		return
	}

	token, u, err := h.svc.Register(r.Context(), input)
	switch {
	case err == nil:
	case errors.Is(err, ErrEmailExists):
		transport.WriteError(w, http.StatusConflict, "An account with this email already exists")
		return
	case errors.Is(err, ErrPasswordMismatch), errors.Is(err, ErrWeakPassword):
		transport.WriteError(w, http.StatusBadRequest, err.Error())
		return
	default:
		logger.FromCtx(r.Context()).Error("register failed", zap.Error(err))
		transport.WriteError(w, http.StatusInternalServerError, "Unable to create account")
		return
	}

	h.setSessionCookie(w, token)
	transport.WriteJSON(w, http.StatusCreated, authResponse{Token: token, User: u.Public()})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var input LoginInput
	if err := transport.DecodeAndValidate(r, &input); err != nil {
		transport.WriteValidationError(w, err, "Invalid login payload")
		return
	}

	token, u, err := h.svc.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			transport.WriteError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		logger.FromCtx(r.Context()).Error("login failed", zap.Error(err))
		transport.WriteError(w, http.StatusInternalServerError, "Unable to sign in")
		return
	}

	h.setSessionCookie(w, token)
	transport.WriteJSON(w, http.StatusOK, authResponse{Token: token, User: u.Public()})
}

// DeleteUser handles DELETE /api/admin/users/{id}.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actorID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	targetID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || targetID == 0 {
		transport.WriteError(w, http.StatusBadRequest, "User id is required")
		return
	}

	if err := h.svc.DeleteUser(r.Context(), actorID, uint(targetID)); err != nil {
		h.fail(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "id": targetID})
}

// UpdateAccount handles PUT /api/admin/account.
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var input AccountInput
	if err := transport.DecodeAndValidate(r, &input); err != nil {
		transport.WriteValidationError(w, err, "Invalid account payload")
		return
	}

	u, err := h.svc.UpdateAccount(r.Context(), userID, input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"email":   u.Email,
		"message": "Admin account updated successfully.",
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		transport.WriteError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, ErrNotAdmin):
		transport.WriteError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, ErrEmailExists):
		transport.WriteError(w, http.StatusConflict, "Email is already in use")
	case errors.Is(err, ErrCannotDeleteSelf),
		errors.Is(err, ErrCannotDeleteAdmin),
		errors.Is(err, ErrNoAccountChanges),
		errors.Is(err, ErrIncorrectPassword),
		errors.Is(err, ErrIncompletePassword),
		errors.Is(err, ErrPasswordMismatch),
		errors.Is(err, ErrWeakPassword):
		transport.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		logger.FromCtx(r.Context()).Error("user request failed", zap.Error(err))
		transport.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.AccessTokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(tokenTTL.Seconds()),
	})
}
