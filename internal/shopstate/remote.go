package shopstate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

var ErrSessionExpired = errors.New("session expired, please sign in again")

type CartRemote interface {
	FetchCart(ctx context.Context) ([]CartLine, error)
	PushCart(ctx context.Context, items []CartLine) error
}

type WishlistRemote interface {
	FetchWishlist(ctx context.Context) ([]string, error)
	PushWishlist(ctx context.Context, ids []string) error
}

// RemoteError is a non-2xx answer from the snapshot endpoints other than 401.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote store returned %d: %s", e.Status, e.Message)
}

type cartPayload struct {
	Items []CartLine `json:"items"`
}

type wishlistPayload struct {
	IDs []string `json:"ids"`
}

type errorPayload struct {
	Error string `json:"error"`
}

// HTTPRemote talks to the storefront's /api/user/cart and /api/user/wishlist endpoints.
type HTTPRemote struct {
	client *resty.Client
}

type RemoteOptions struct {
	Token    string
	DeviceID string
	Timeout  time.Duration
}

func NewHTTPRemote(baseURL string, opts RemoteOptions) *HTTPRemote {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")
	if opts.Token != "" {
		client.SetAuthToken(opts.Token)
	}
	if opts.DeviceID != "" {
		client.SetHeader("X-Device-ID", opts.DeviceID)
	}
	return &HTTPRemote{client: client}
}

func (h *HTTPRemote) FetchCart(ctx context.Context) ([]CartLine, error) {
	var out cartPayload
	if err := h.do(ctx, http.MethodGet, "/api/user/cart", nil, &out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []CartLine{}
	}
	return out.Items, nil
}

func (h *HTTPRemote) PushCart(ctx context.Context, items []CartLine) error {
	if items == nil {
		items = []CartLine{}
	}
	return h.do(ctx, http.MethodPut, "/api/user/cart", cartPayload{Items: items}, nil)
}

func (h *HTTPRemote) FetchWishlist(ctx context.Context) ([]string, error) {
	var out wishlistPayload
	if err := h.do(ctx, http.MethodGet, "/api/user/wishlist", nil, &out); err != nil {
		return nil, err
	}
	return NormalizeAll(out.IDs), nil
}

func (h *HTTPRemote) PushWishlist(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	return h.do(ctx, http.MethodPut, "/api/user/wishlist", wishlistPayload{IDs: ids}, nil)
}

type productPayload struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	ImageURL string          `json:"imageUrl"`
	Price    decimal.Decimal `json:"price"`
}

// LookupProduct resolves an active product by slug into a cart line with quantity 0.
func (h *HTTPRemote) LookupProduct(ctx context.Context, slug string) (CartLine, error) {
	var out productPayload
	if err := h.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(slug), nil, &out); err != nil {
		return CartLine{}, err
	}
	return CartLine{ProductID: out.ID, Name: out.Name, UnitPrice: out.Price, ImageURL: out.ImageURL}, nil
}

func (h *HTTPRemote) do(ctx context.Context, method, path string, body, result any) error {
	var apiErr errorPayload

	req := h.client.R().SetContext(ctx).SetError(&apiErr)
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return ErrSessionExpired
	}
	if resp.IsError() {
		msg := apiErr.Error
		if msg == "" {
			msg = resp.Status()
		}
		return &RemoteError{Status: resp.StatusCode(), Message: msg}
	}
	return nil
}
