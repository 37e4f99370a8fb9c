package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/consult-booking/internal/api/router"
	appconfig "github.com/wolfman30/consult-booking/internal/config"
	"github.com/wolfman30/consult-booking/internal/observability/metrics"
	"github.com/wolfman30/consult-booking/internal/relay"
	"github.com/wolfman30/consult-booking/pkg/logging"
)

func main() {
	// Local overrides first; missing files are fine in deployed environments.
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting consult-booking API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)
	if cfg.AppsScriptURL == "" {
		logger.Warn("APPS_SCRIPT_URL is empty; booking requests will fail")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newHandler(cfg, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	srv.WriteTimeout = writeTimeout(cfg.UpstreamTimeout, srv.WriteTimeout)

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// newHandler wires the relay, metrics and router from configuration.
func newHandler(cfg *appconfig.Config, logger *logging.Logger) http.Handler {
	var (
		metricsHandler http.Handler
		relayMetrics   *metrics.RelayMetrics
	)
	if cfg.MetricsEnabled {
		metricsHandler, relayMetrics = setupMetrics()
	}

	relayHandler := relay.NewHandler(relay.Config{
		UpstreamURL: cfg.AppsScriptURL,
		Timeout:     cfg.UpstreamTimeout,
		Metrics:     relayMetrics,
		Logger:      logger,
	})

	return router.New(&router.Config{
		Logger:             logger,
		Relay:              relayHandler,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
	})
}

// writeTimeout leaves room for a full upstream round trip; an unbounded
// upstream gets an unbounded write.
func writeTimeout(upstream, base time.Duration) time.Duration {
	if upstream == 0 {
		return 0
	}
	if need := upstream + 5*time.Second; need > base {
		return need
	}
	return base
}

func setupMetrics() (http.Handler, *metrics.RelayMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	relayMetrics := metrics.NewRelayMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), relayMetrics
}
