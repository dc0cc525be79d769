package shopstate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRemote(t *testing.T) {
	var (
		lastBody   string
		lastAuth   string
		lastDevice string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastAuth = r.Header.Get("Authorization")
		lastDevice = r.Header.Get("X-Device-ID")
		b, _ := io.ReadAll(r.Body)
		lastBody = string(b)

		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/api/user/cart" && r.Method == http.MethodGet:
			_, _ = io.WriteString(w, `{"items":[{"productId":"p1","name":"Mug","price":10.5,"imageUrl":"","quantity":2}]}`)
		case r.URL.Path == "/api/user/wishlist" && r.Method == http.MethodGet:
			_, _ = io.WriteString(w, `{"ids":[" a ","b","a"]}`)
		case r.URL.Path == "/api/products/ceramic-mug":
			_, _ = io.WriteString(w, `{"id":"p9","slug":"ceramic-mug","name":"Ceramic Mug","imageUrl":"/mug.png","price":"12.00","stock":3}`)
		case r.Method == http.MethodPut:
			_, _ = io.WriteString(w, `{"ok":true}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	remote := NewHTTPRemote(srv.URL+"/", RemoteOptions{Token: "tok", DeviceID: "dev-1"})

	t.Run("FetchCart", func(t *testing.T) {
		items, err := remote.FetchCart(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.True(t, decimal.RequireFromString("10.5").Equal(items[0].UnitPrice))
		assert.Equal(t, "Bearer tok", lastAuth)
		assert.Equal(t, "dev-1", lastDevice)
	})

	t.Run("PushCartSendsItemsEnvelope", func(t *testing.T) {
		require.NoError(t, remote.PushCart(ctx, nil))
		assert.JSONEq(t, `{"items":[]}`, lastBody)
	})

	t.Run("FetchWishlistNormalizes", func(t *testing.T) {
		got, err := remote.FetchWishlist(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, got)
	})

	t.Run("PushWishlistSendsIDs", func(t *testing.T) {
		require.NoError(t, remote.PushWishlist(ctx, []string{"a"}))
		var body map[string][]string
		require.NoError(t, json.Unmarshal([]byte(lastBody), &body))
		assert.Equal(t, []string{"a"}, body["ids"])
	})

	t.Run("LookupProduct", func(t *testing.T) {
		line, err := remote.LookupProduct(ctx, "ceramic-mug")
		require.NoError(t, err)
		assert.Equal(t, "p9", line.ProductID)
		assert.Equal(t, "Ceramic Mug", line.Name)
		assert.Equal(t, "/mug.png", line.ImageURL)
		assert.True(t, decimal.RequireFromString("12").Equal(line.UnitPrice))
		assert.Zero(t, line.Quantity)
	})

	t.Run("LookupProductNotFound", func(t *testing.T) {
		_, err := remote.LookupProduct(ctx, "missing")
		var remoteErr *RemoteError
		require.ErrorAs(t, err, &remoteErr)
		assert.Equal(t, http.StatusNotFound, remoteErr.Status)
	})
}

func TestHTTPRemote_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/user/cart" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":"Session is stale. Please sign in again."}`)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"Invalid wishlist payload"}`)
	}))
	defer srv.Close()

	remote := NewHTTPRemote(srv.URL, RemoteOptions{})

	_, err := remote.FetchCart(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)

	err = remote.PushWishlist(context.Background(), []string{"a"})
	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusBadRequest, remoteErr.Status)
	assert.Equal(t, "Invalid wishlist payload", remoteErr.Message)
}
