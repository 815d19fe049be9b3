package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kjstillabower/forecast-gateway/internal/models"
	"github.com/kjstillabower/forecast-gateway/internal/observability"
)

// DefaultAPIURL is the Open-Meteo forecast endpoint.
const DefaultAPIURL = "https://api.open-meteo.com/v1/forecast"

// HourlyFields is the fixed set of hourly series requested from upstream.
const HourlyFields = "temperature_2m,relative_humidity_2m,wind_speed_10m"

// DefaultMaxBodyBytes caps how much of an upstream body is accumulated.
const DefaultMaxBodyBytes int64 = 8 << 20

const tracerName = "github.com/kjstillabower/forecast-gateway/internal/client"

// ForecastClient fetches one forecast document for a coordinate pair.
type ForecastClient interface {
	Fetch(ctx context.Context, coords models.Coordinates) (UpstreamResponse, error)
}

var (
	// ErrTransport covers connection, DNS, TLS and mid-body read failures.
	ErrTransport = errors.New("upstream transport failure")
	// ErrTimeout is returned when the upstream call exceeds its deadline.
	ErrTimeout = errors.New("upstream timeout")
	// ErrBodyTooLarge is returned when the body exceeds the configured limit.
	ErrBodyTooLarge = errors.New("upstream body too large")
)

// UpstreamResponse is a fully accumulated upstream reply.
type UpstreamResponse struct {
	StatusCode int
	Body       []byte
}

// OpenMeteoClient issues exactly one GET per Fetch. It never retries.
type OpenMeteoClient struct {
	apiURL       string
	timeout      time.Duration
	maxBodyBytes int64
	client       *http.Client
}

// NewOpenMeteoClient returns a client for apiURL. timeout bounds the whole call,
// including reading the body; maxBodyBytes <= 0 selects DefaultMaxBodyBytes.
func NewOpenMeteoClient(apiURL string, timeout time.Duration, maxBodyBytes int64) (*OpenMeteoClient, error) {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	u, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API URL: unsupported scheme %q", u.Scheme)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", timeout)
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &OpenMeteoClient{
		apiURL:       apiURL,
		timeout:      timeout,
		maxBodyBytes: maxBodyBytes,
		client:       &http.Client{},
	}, nil
}

// BuildURL interpolates coordinates into the forecast URL. Coordinates are
// query-escaped but otherwise forwarded as given.
func BuildURL(apiURL string, coords models.Coordinates) string {
	sep := "?"
	if strings.Contains(apiURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%slatitude=%s&longitude=%s&hourly=%s&current_weather=true",
		apiURL, sep, url.QueryEscape(coords.Latitude), url.QueryEscape(coords.Longitude), HourlyFields)
}

// Fetch performs the upstream call and accumulates the body. Any HTTP status is
// a successful Fetch; only transport-level problems return an error.
func (c *OpenMeteoClient) Fetch(ctx context.Context, coords models.Coordinates) (UpstreamResponse, error) {
	start := time.Now()
	logger := observability.LoggerFromContext(ctx)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "open-meteo.forecast",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("weather.latitude", coords.Latitude),
			attribute.String("weather.longitude", coords.Longitude),
		))
	defer span.End()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, BuildURL(c.apiURL, coords), nil)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request")
		return UpstreamResponse{}, fmt.Errorf("%w: build request: %w", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	if corrID := observability.CorrelationIDFromContext(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}
	otel.GetTextMapPropagator().Inject(reqCtx, propagation.HeaderCarrier(req.Header))

	resp, err := c.client.Do(req)
	if err != nil {
		err = classify(reqCtx, err, "http request failed")
		observability.WeatherAPICallsTotal.WithLabelValues(errorLabel(err)).Inc()
		observability.WeatherAPIDuration.WithLabelValues(errorLabel(err)).Observe(time.Since(start).Seconds())
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		logger.Debug("upstream request failed", zap.Error(err))
		return UpstreamResponse{}, err
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		err = classify(reqCtx, err, "read response body")
		observability.WeatherAPICallsTotal.WithLabelValues(errorLabel(err)).Inc()
		observability.WeatherAPIDuration.WithLabelValues(errorLabel(err)).Observe(time.Since(start).Seconds())
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		logger.Debug("upstream body read failed", zap.Error(err))
		return UpstreamResponse{}, err
	}
	if int64(len(body)) > c.maxBodyBytes {
		err := fmt.Errorf("%w: exceeds %d bytes", ErrBodyTooLarge, c.maxBodyBytes)
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "body too large")
		return UpstreamResponse{}, err
	}

	status := statusLabel(resp.StatusCode)
	observability.WeatherAPICallsTotal.WithLabelValues(status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	observability.WeatherAPIResponseBytes.Observe(float64(len(body)))
	if resp.StatusCode != http.StatusOK {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", resp.StatusCode))
	}
	logger.Debug("upstream responded",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("duration", time.Since(start)))

	return UpstreamResponse{StatusCode: resp.StatusCode, Body: body}, nil
}

// classify wraps err with ErrTimeout when the request deadline fired, and with
// ErrTransport otherwise.
func classify(ctx context.Context, err error, op string) error {
	var netErr net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s: %w", ErrTimeout, op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrTransport, op, err)
}

func errorLabel(err error) string {
	if errors.Is(err, ErrTimeout) {
		return "timeout"
	}
	return "error"
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
