package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"github.com/kjstillabower/forecast-gateway/internal/client"
	"github.com/kjstillabower/forecast-gateway/internal/config"
	httphandler "github.com/kjstillabower/forecast-gateway/internal/http"
	"github.com/kjstillabower/forecast-gateway/internal/lifecycle"
	"github.com/kjstillabower/forecast-gateway/internal/observability"
	"github.com/kjstillabower/forecast-gateway/internal/service"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	startedAt := time.Now()

	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}
	lifecycle.MarkStarted(startedAt, cfg.ReadyDelay)

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ZipkinURL:   cfg.ZipkinURL,
		ServiceName: cfg.TracingService,
		Version:     version,
		SampleRatio: cfg.TracingSampleRate,
	})
	if err != nil {
		logger.Fatal("tracing", zap.Error(err))
	}
	if cfg.ZipkinURL != "" {
		logger.Info("zipkin tracing enabled", zap.String("url", cfg.ZipkinURL), zap.Float64("sample_ratio", cfg.TracingSampleRate))
	}

	router, err := newRouter(cfg, logger)
	if err != nil {
		logger.Fatal("forecast client", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", ":"+cfg.ServerPort),
			zap.String("upstream", cfg.WeatherAPIURL),
			zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	if err := observability.FlushTelemetry(flushCtx, logger, shutdownTracing); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

// newRouter wires the forecast client, gateway and HTTP handlers from cfg.
func newRouter(cfg *config.Config, logger *zap.Logger) (http.Handler, error) {
	forecastClient, err := client.NewOpenMeteoClient(cfg.WeatherAPIURL, cfg.WeatherAPITimeout, cfg.WeatherAPIMaxBodyBytes)
	if err != nil {
		return nil, err
	}
	gateway := service.NewRequestHandler(forecastClient)

	healthConfig := &httphandler.HealthConfig{
		DegradedWindow:   cfg.DegradedWindow,
		DegradedErrorPct: cfg.DegradedErrorPct,
		Version:          version,
	}
	handler := httphandler.NewHandler(gateway, healthConfig, logger)
	observability.RegisterTrafficGauges(cfg.DegradedWindow)

	return httphandler.NewRouter(handler, httphandler.RouterConfig{
		RequestTimeout: cfg.RequestTimeout,
		TestingMode:    cfg.TestingMode,
	}, logger), nil
}
