package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wholesaledesk/ordering-backend/api/controllers"
	"github.com/wholesaledesk/ordering-backend/pkg/config"
	"github.com/wholesaledesk/ordering-backend/pkg/logger"
)

const adminShutdownTimeout = 5 * time.Second

type pinger = controllers.Pinger

// adminServer exposes liveness, readiness and Prometheus metrics for the
// relay, which has no public HTTP surface of its own.
type adminServer struct {
	srv  *http.Server
	logg *logger.Logger
}

func newAdminServer(cfg *config.Config, logg *logger.Logger, deps map[string]pinger) *adminServer {
	return &adminServer{
		srv: &http.Server{
			Addr:              net.JoinHostPort("", cfg.Outbox.AdminPort),
			Handler:           adminRoutes(cfg, logg, deps, promhttp.Handler()),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logg: logg,
	}
}

func adminRoutes(cfg *config.Config, logg *logger.Logger, deps map[string]pinger, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/health/live", controllers.HealthLive(cfg))
	r.Get("/health/ready", controllers.HealthReady(cfg, logg, deps))
	r.Method(http.MethodGet, "/metrics", metricsHandler)
	return r
}

// serve listens until ctx ends, then drains in-flight scrapes.
func (a *adminServer) serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logg.Info(a.logg.WithField(ctx, "addr", a.srv.Addr), "admin listener started")
		errCh <- a.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), adminShutdownTimeout)
		defer cancel()
		return a.srv.Shutdown(shutdownCtx)
	}
}
