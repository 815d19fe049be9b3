package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"github.com/kjstillabower/forecast-gateway/internal/client"
	"github.com/kjstillabower/forecast-gateway/internal/config"
	lambdahost "github.com/kjstillabower/forecast-gateway/internal/lambda"
	"github.com/kjstillabower/forecast-gateway/internal/observability"
	"github.com/kjstillabower/forecast-gateway/internal/service"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
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

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ZipkinURL:   cfg.ZipkinURL,
		ServiceName: cfg.TracingService,
		Version:     version,
		SampleRatio: cfg.TracingSampleRate,
	})
	if err != nil {
		logger.Fatal("tracing", zap.Error(err))
	}

	invoke, err := newInvoker(cfg, logger)
	if err != nil {
		logger.Fatal("forecast client", zap.Error(err))
	}

	logger.Info("lambda handler starting", zap.String("upstream", cfg.WeatherAPIURL), zap.String("version", version))
	lambda.StartWithOptions(invoke, lambda.WithEnableSIGTERM(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		if err := observability.FlushTelemetry(ctx, logger, shutdownTracing); err != nil {
			logger.Error("telemetry flush", zap.Error(err))
		}
	}))
}

func newInvoker(cfg *config.Config, logger *zap.Logger) (lambdahost.Invoker, error) {
	forecastClient, err := client.NewOpenMeteoClient(cfg.WeatherAPIURL, cfg.WeatherAPITimeout, cfg.WeatherAPIMaxBodyBytes)
	if err != nil {
		return nil, err
	}
	return lambdahost.NewInvoker(service.NewRequestHandler(forecastClient), logger), nil
}
