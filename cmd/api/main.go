package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/wholesaledesk/ordering-backend/api/routes"
	"github.com/wholesaledesk/ordering-backend/internal/availability"
	"github.com/wholesaledesk/ordering-backend/internal/cart"
	"github.com/wholesaledesk/ordering-backend/internal/discounts"
	"github.com/wholesaledesk/ordering-backend/internal/orders"
	product "github.com/wholesaledesk/ordering-backend/internal/products"
	"github.com/wholesaledesk/ordering-backend/internal/users"
	"github.com/wholesaledesk/ordering-backend/pkg/config"
	"github.com/wholesaledesk/ordering-backend/pkg/db"
	"github.com/wholesaledesk/ordering-backend/pkg/instance"
	"github.com/wholesaledesk/ordering-backend/pkg/lock"
	"github.com/wholesaledesk/ordering-backend/pkg/logger"
	"github.com/wholesaledesk/ordering-backend/pkg/metrics"
	"github.com/wholesaledesk/ordering-backend/pkg/migrate"
	"github.com/wholesaledesk/ordering-backend/pkg/outbox"
	"github.com/wholesaledesk/ordering-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := multierr.Combine(redisClient.Close(), dbClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing clients", err)
		}
	}()

	locker, err := newLocker(cfg.Lock, redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create locker", err)
		os.Exit(1)
	}

	engineMetrics := metrics.NewEngineMetrics(prometheus.DefaultRegisterer)
	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	conn := dbClient.DB()
	directory, err := users.NewDirectory(users.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create user directory", err)
		os.Exit(1)
	}
	productRepo := product.NewRepository(conn)
	discountRepo := discounts.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)

	catalogService, err := product.NewService(productRepo, discountRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cartRepo, dbClient, locker, directory, productRepo, discountRepo, logg, engineMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repository:  orders.NewRepository(conn),
		Carts:       cartRepo,
		CartService: cartService,
		Tx:          dbClient,
		Locker:      locker,
		Sequence:    redisClient,
		Outbox:      outbox.NewService(outbox.NewRepository(conn), logg),
		Users:       directory,
		Products:    productRepo,
		Discounts:   discountRepo,
		Config:      cfg.Orders,
		Logger:      logg,
		Metrics:     engineMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	availabilityService, err := availability.NewService(availability.NewRepository(conn), productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create availability service", err)
		os.Exit(1)
	}

	addr := ":" + cfg.App.Port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"instance":   instance.GetID(),
		"lock":       cfg.Lock.Backend,
		"use_sqlite": cfg.FeatureFlags.UseSQLite,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			Redis:        redisClient,
			Idempotency:  redisClient,
			Users:        directory,
			Catalog:      catalogService,
			Cart:         cartService,
			Orders:       ordersService,
			Availability: availabilityService,
			HTTPMetrics:  httpMetrics,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

// newLocker picks the cart lock backend. The in-process mutex only serializes a single instance.
func newLocker(cfg config.LockConfig, redisClient *redis.Client, logg *logger.Logger) (lock.Locker, error) {
	if strings.EqualFold(cfg.Backend, config.LockBackendMemory) {
		logg.Warn(context.Background(), "using in-process cart locks; run a single api instance")
		return lock.NewKeyedMutex(cfg.WaitTimeout), nil
	}
	return lock.NewRedisLocker(redisClient, lock.RedisOptions{
		TTL:          cfg.TTL,
		RetryBackoff: cfg.RetryBackoff,
		WaitTimeout:  cfg.WaitTimeout,
	}, logg)
}
