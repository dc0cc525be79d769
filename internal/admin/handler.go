package admin

import (
	"context"
	"net/http"

	"stackstore-be/internal/logger"
	"stackstore-be/internal/order"
	"stackstore-be/internal/product"
	"stackstore-be/internal/transport"
	"stackstore-be/internal/user"

	"go.uber.org/zap"
)

const (
	dashboardOrders = 50
	dashboardUsers  = 100
)

type ProductLister interface {
	ListAll(ctx context.Context) ([]product.Product, error)
}

type OrderLister interface {
	ListOrders(ctx context.Context, filter order.ListFilter) (*order.ListResult, error)
}

type UserLister interface {
	ListRecentUsers(ctx context.Context, limit int) ([]user.User, error)
}

type Dashboard struct {
	Products []product.Product `json:"products"`
	Orders   []order.Order     `json:"orders"`
	Users    []user.Summary    `json:"users"`
}

type Handler struct {
	products ProductLister
	orders   OrderLister
	users    UserLister
}

func NewHandler(products ProductLister, orders OrderLister, users UserLister) *Handler {
	return &Handler{products: products, orders: orders, users: users}
}

// Dashboard handles GET /api/admin/dashboard: the whole catalog, the latest orders and the
// newest accounts.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "handler"),
		zap.String("method", "Dashboard"),
	)

	products, err := h.products.ListAll(ctx)
	if err != nil {
		log.Error("failed to load products", zap.Error(err))
		transport.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	orders, err := h.orders.ListOrders(ctx, order.ListFilter{Limit: dashboardOrders, Page: 1})
	if err != nil {
		log.Error("failed to load orders", zap.Error(err))
		transport.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	users, err := h.users.ListRecentUsers(ctx, dashboardUsers)
	if err != nil {
		log.Error("failed to load users", zap.Error(err))
		transport.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	summaries := make([]user.Summary, 0, len(users))
	for i := range users {
		summaries = append(summaries, users[i].Summary())
	}
	if products == nil {
		products = []product.Product{}
	}
	if orders.Items == nil {
		orders.Items = []order.Order{}
	}

	transport.WriteJSON(w, http.StatusOK, Dashboard{Products: products, Orders: orders.Items, Users: summaries})
}
