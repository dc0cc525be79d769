package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stackstore-be/internal/admin"
	"stackstore-be/internal/cart"
	"stackstore-be/internal/config"
	"stackstore-be/internal/db"
	"stackstore-be/internal/events"
	"stackstore-be/internal/logger"
	"stackstore-be/internal/metrics"
	"stackstore-be/internal/middleware"
	"stackstore-be/internal/order"
	"stackstore-be/internal/payment"
	"stackstore-be/internal/payment/webhook"
	"stackstore-be/internal/product"
	"stackstore-be/internal/transport"
	"stackstore-be/internal/user"
	"stackstore-be/internal/wishlist"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	initDBFunc      = db.NewDatabase
	startServerFunc = func(srv *http.Server) error { return srv.ListenAndServe() }
	dialBrokerFunc  = func(ctx context.Context, url, exchange string) (events.Publisher, error) {
		return events.DialRabbit(ctx, url, exchange)
	}
)

func main() {
	// prices go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var database *sql.DB
	if cfg.CheckoutMode != config.CheckoutModeEphemeral {
		database, err = initDBFunc(cfg)
		if err != nil {
			if cfg.CheckoutMode == config.CheckoutModePersistent {
				return err
			}
			logger.L().Warn("database unavailable, serving demo checkout only", zap.Error(err))
			database = nil
		} else {
			defer database.Close()
		}
	}

	publisher := connectBroker(ctx, cfg)
	defer publisher.Close()

	limiter := middleware.NewRateLimiter(cfg.InternalSecretKey)
	go limiter.Run(ctx)

	handler, err := newServer(cfg, database, publisher, metrics.NewRegistry(), limiter)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("checkout_mode", string(cfg.CheckoutMode)),
			zap.Bool("database", database != nil),
			zap.Bool("card_payments", cfg.PaymentConfigured()),
		)
		errCh <- startServerFunc(srv)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.L().Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func connectBroker(ctx context.Context, cfg *config.Config) events.Publisher {
	if cfg.RabbitMQURL == "" {
		return events.NoopPublisher{}
	}

	pub, err := dialBrokerFunc(ctx, cfg.RabbitMQURL, cfg.RabbitMQExchange)
	if err != nil {
		logger.L().Warn("order events disabled, broker unreachable", zap.Error(err))
		return events.NoopPublisher{}
	}
	return pub
}

// newServer builds the route table. database may be nil, in which case only the demo
// checkout is served and every other API route answers 503.
func newServer(cfg *config.Config, database *sql.DB, publisher events.Publisher, reg *metrics.Registry, limiter *middleware.RateLimiter) (http.Handler, error) {
	catalog, err := product.LoadDemoCatalog()
	if err != nil {
		return nil, err
	}
	ephemeral := order.NewEphemeralStrategy(catalog)

	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", reg.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	if database == nil {
		orderSvc := order.NewService(nil, ephemeral, publisher, reg)
		api.HandleFunc("/checkout", order.NewHandler(orderSvc).Checkout).Methods(http.MethodPost)
		api.PathPrefix("/").HandlerFunc(databaseUnavailable)
		return chain(cfg, r, limiter), nil
	}

	// Repositories
	userRepo := user.NewRepository(database)
	productRepo := product.NewRepository(database)
	cartRepo := cart.NewRepository(database)
	wishlistRepo := wishlist.NewRepository(database)
	orderRepo := order.NewRepository(database)
	webhookRepo := payment.NewRepository(database)

	// Services
	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeAPIBase)
	persistent := order.NewPersistentStrategy(productRepo, orderRepo, gateway, publisher, cfg.AppURL)

	var strategy order.CommitStrategy = persistent
	if cfg.CheckoutMode == config.CheckoutModeFallback {
		strategy = &order.FallbackStrategy{Primary: persistent, Fallback: ephemeral}
	}

	userSvc := user.NewService(userRepo)
	productSvc := product.NewService(productRepo)
	cartSvc := cart.NewService(cartRepo)
	wishlistSvc := wishlist.NewService(wishlistRepo)
	orderSvc := order.NewService(orderRepo, strategy, publisher, reg)

	// Handlers
	userH := user.NewHandler(userSvc, cfg.AppEnv == "production")
	productH := product.NewHandler(productSvc)
	cartH := cart.NewHandler(cartSvc)
	wishlistH := wishlist.NewHandler(wishlistSvc)
	orderH := order.NewHandler(orderSvc)
	adminH := admin.NewHandler(productSvc, orderSvc, userSvc)

	webhookSecret := ""
	if cfg.WebhookConfigured() {
		webhookSecret = cfg.StripeWebhookSecret
	}
	webhookH := webhook.NewHandler(webhookSecret, orderSvc, webhookRepo, reg)

	api.HandleFunc("/auth/register", userH.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", userH.Login).Methods(http.MethodPost)
	api.HandleFunc("/products", productH.List).Methods(http.MethodGet)
	api.HandleFunc("/products/{slug}", productH.GetBySlug).Methods(http.MethodGet)
	api.HandleFunc("/checkout", orderH.Checkout).Methods(http.MethodPost)
	api.Handle("/stripe/webhook", webhookH).Methods(http.MethodPost)

	userAPI := api.PathPrefix("/user").Subrouter()
	userAPI.Use(middleware.RequireUser(userSvc))
	userAPI.HandleFunc("/cart", cartH.Get).Methods(http.MethodGet)
	userAPI.HandleFunc("/cart", cartH.Put).Methods(http.MethodPut)
	userAPI.HandleFunc("/wishlist", wishlistH.Get).Methods(http.MethodGet)
	userAPI.HandleFunc("/wishlist", wishlistH.Put).Methods(http.MethodPut)
	userAPI.HandleFunc("/orders", orderH.ListMine).Methods(http.MethodGet)

	adminAPI := api.PathPrefix("/admin").Subrouter()
	adminAPI.Use(middleware.RequireUser(userSvc), middleware.RequireAdmin)
	adminAPI.HandleFunc("/products", productH.Create).Methods(http.MethodPost)
	adminAPI.HandleFunc("/products/{id}", productH.Update).Methods(http.MethodPut)
	adminAPI.HandleFunc("/orders", orderH.List).Methods(http.MethodGet)
	adminAPI.HandleFunc("/orders/{id}", orderH.Get).Methods(http.MethodGet)
	adminAPI.HandleFunc("/orders/{id}", orderH.UpdateStatus).Methods(http.MethodPut)
	adminAPI.HandleFunc("/products/{id}", productH.Delete).Methods(http.MethodDelete)
	adminAPI.HandleFunc("/users/{id}", userH.DeleteUser).Methods(http.MethodDelete)
	adminAPI.HandleFunc("/account", userH.UpdateAccount).Methods(http.MethodPut)
	adminAPI.HandleFunc("/dashboard", adminH.Dashboard).Methods(http.MethodGet)

	return chain(cfg, r, limiter), nil
}

// chain wraps the router outermost first: request id, access log, CORS, token, rate limit.
func chain(cfg *config.Config, r http.Handler, limiter *middleware.RateLimiter) http.Handler {
	h := limiter.Middleware(r)
	h = middleware.AuthMiddleware(h)
	h = middleware.CORS(cfg.AppURL)(h)
	h = logger.LoggingMiddleware(h)
	return logger.RequestIDMiddleware(h)
}

func databaseUnavailable(w http.ResponseWriter, _ *http.Request) {
	transport.WriteErrorCode(w, http.StatusServiceUnavailable, "database_unavailable", "This endpoint needs a database connection")
}
