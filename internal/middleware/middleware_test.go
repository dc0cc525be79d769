package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stackstore-be/internal/user"
	"stackstore-be/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLookup struct {
	mock.Mock
}

func (m *mockLookup) GetUserByID(ctx context.Context, id uint) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func signed(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestCORS(t *testing.T) {
	handler := CORS("http://localhost:3000")(okHandler())

	t.Run("Preflight", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/checkout", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	})

	t.Run("Normal request", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})
}

func TestAuth(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	t.Run("Missing Token", func(t *testing.T) {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok := utils.GetUserIDFromContext(r.Context())
			assert.False(t, ok)
			w.WriteHeader(http.StatusOK)
		})

		w := httptest.NewRecorder()
		AuthMiddleware(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Invalid Token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer invalid-token")
		w := httptest.NewRecorder()

		AuthMiddleware(http.NotFoundHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Valid Token", func(t *testing.T) {
		token := signed(t, user.CustomClaims{
			UserID: 1,
			Email:  "shopper@example.com",
			Role:   "CUSTOMER",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
		w := httptest.NewRecorder()

		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := utils.GetUserIDFromContext(r.Context())
			assert.True(t, ok)
			assert.Equal(t, uint(1), userID)
			assert.Equal(t, "shopper@example.com", utils.GetUserEmailFromContext(r.Context()))
			w.WriteHeader(http.StatusOK)
		})

		AuthMiddleware(next).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Expired Token", func(t *testing.T) {
		token := signed(t, user.CustomClaims{
			UserID: 1,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		AuthMiddleware(http.NotFoundHandler()).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireUser(t *testing.T) {
	authed := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/user/cart", nil)
		return req.WithContext(utils.SetUserContext(req.Context(), 7, "a@b.co", "CUSTOMER"))
	}

	t.Run("Anonymous", func(t *testing.T) {
		w := httptest.NewRecorder()
		RequireUser(nil)(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Stale", func(t *testing.T) {
		lookup := new(mockLookup)
		lookup.On("GetUserByID", mock.Anything, uint(7)).Return(nil, user.ErrUserNotFound)

		w := httptest.NewRecorder()
		RequireUser(lookup)(okHandler()).ServeHTTP(w, authed())

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Session is stale")
	})

	t.Run("LookupError", func(t *testing.T) {
		lookup := new(mockLookup)
		lookup.On("GetUserByID", mock.Anything, uint(7)).Return(nil, errors.New("db down"))

		w := httptest.NewRecorder()
		RequireUser(lookup)(okHandler()).ServeHTTP(w, authed())
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("Success", func(t *testing.T) {
		lookup := new(mockLookup)
		lookup.On("GetUserByID", mock.Anything, uint(7)).Return(&user.User{ID: 7}, nil)

		w := httptest.NewRecorder()
		RequireUser(lookup)(okHandler()).ServeHTTP(w, authed())
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)

	w := httptest.NewRecorder()
	RequireAdmin(okHandler()).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	customer := req.WithContext(utils.SetUserContext(req.Context(), 1, "a@b.co", "CUSTOMER"))
	RequireAdmin(okHandler()).ServeHTTP(w, customer)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	admin := req.WithContext(utils.SetUserContext(req.Context(), 1, "a@b.co", "ADMIN"))
	RequireAdmin(okHandler()).ServeHTTP(w, admin)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter(t *testing.T) {
	t.Run("StrictTierOnWebhook", func(t *testing.T) {
		l := NewRateLimiter("")
		handler := l.Middleware(okHandler())

		var limited int
		for i := 0; i < burstStrict+3; i++ {
			req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code == http.StatusTooManyRequests {
				limited++
			}
		}
		assert.GreaterOrEqual(t, limited, 1)
	})

	t.Run("Tiers", func(t *testing.T) {
		l := NewRateLimiter("svc-key")

		_, _, tier := l.resolveTier(httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
		assert.Equal(t, "strict", tier)

		_, _, tier = l.resolveTier(httptest.NewRequest(http.MethodPut, "/api/user/cart", nil))
		assert.Equal(t, "sync", tier)

		_, _, tier = l.resolveTier(httptest.NewRequest(http.MethodGet, "/api/products", nil))
		assert.Equal(t, "general", tier)

		req := httptest.NewRequest(http.MethodPost, "/api/checkout", nil)
		req.Header.Set("X-Service-Auth", "svc-key")
		_, _, tier = l.resolveTier(req)
		assert.Equal(t, "internal", tier)
	})

	t.Run("Evict", func(t *testing.T) {
		l := NewRateLimiter("")
		current := time.Now()
		l.now = func() time.Time { return current }

		l.get("ip:1:general", limitGeneral, burstGeneral)
		current = current.Add(visitorTTL + time.Second)
		l.evict()

		assert.Empty(t, l.visitors)
	})
}
