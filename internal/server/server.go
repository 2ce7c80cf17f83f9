// Package server boots the HTTP application: configuration, stores,
// cache, storage, the realtime feed, the audit trail, the service
// graph, the route table, and a graceful shutdown loop.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shashiranjanraj/pustak/app/controllers"
	"github.com/shashiranjanraj/pustak/app/graph"
	"github.com/shashiranjanraj/pustak/app/repositories"
	"github.com/shashiranjanraj/pustak/app/routes"
	"github.com/shashiranjanraj/pustak/app/services"
	"github.com/shashiranjanraj/pustak/config"
	"github.com/shashiranjanraj/pustak/pkg/audit"
	"github.com/shashiranjanraj/pustak/pkg/cache"
	"github.com/shashiranjanraj/pustak/pkg/database"
	"github.com/shashiranjanraj/pustak/pkg/logger"
	"github.com/shashiranjanraj/pustak/pkg/metrics"
	"github.com/shashiranjanraj/pustak/pkg/middleware"
	"github.com/shashiranjanraj/pustak/pkg/payment"
	"github.com/shashiranjanraj/pustak/pkg/reqid"
	"github.com/shashiranjanraj/pustak/pkg/router"
	"github.com/shashiranjanraj/pustak/pkg/storage"
	"github.com/shashiranjanraj/pustak/pkg/ws"
)

const shutdownTimeout = 15 * time.Second

// Run boots the application and blocks until SIGINT/SIGTERM.
func Run() error {
	ctx := context.Background()

	if err := config.Load(); err != nil {
		return err
	}

	if err := database.Connect(ctx); err != nil {
		return err
	}
	defer database.Disconnect(context.Background()) //nolint:errcheck

	// Redis is optional: without it the cache degrades to a no-op.
	if err := cache.Connect(); err != nil {
		logger.Warn("redis unavailable, caching disabled", "error", err)
	}

	if err := storage.Connect(ctx); err != nil {
		return err
	}

	hub := ws.NewHub()
	go hub.Run()
	defer hub.Close()

	trail := audit.NewTrail(database.OrderEvents())
	defer trail.Close()

	r, err := buildRouter(hub, trail)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", config.AppEnv())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// buildRouter wires repositories, services and controllers into the
// route table.
func buildRouter(hub *ws.Hub, trail *audit.Trail) (*router.Router, error) {
	bookRepo := repositories.NewBookRepository(database.Books())
	userRepo := repositories.NewUserRepository(database.Users())
	orderRepo := repositories.NewOrderRepository(database.Orders())

	catalog := services.NewCatalogService(bookRepo)
	accounts := services.NewAccountService(userRepo)
	orders := services.NewOrderService(orderRepo, bookRepo, userRepo, hub, trail, config.ReturnWindow())

	provider := payment.NewStripe(config.StripeSecretKey())
	payments := services.NewPaymentService(orderRepo, provider, config.PaymentCurrency())

	schema, err := graph.NewSchema(catalog)
	if err != nil {
		return nil, err
	}

	r := router.New()
	r.Use(
		metrics.Middleware(),
		middleware.Recovery(),
		reqid.Middleware(),
		middleware.Logger(),
		middleware.CORS(),
		middleware.RateLimit(50, 100),
	)

	routes.Register(r, routes.Controllers{
		Auth:     controllers.NewAuthController(accounts),
		Books:    controllers.NewBookController(catalog),
		Orders:   controllers.NewOrderController(orders),
		Payment:  controllers.NewPaymentController(payments),
		GraphQL:  graph.Handler(schema),
		Feed:     hub,
		Resolver: accounts,
	})

	return r, nil
}
