package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/kjstillabower/forecast-gateway/internal/client"
	"github.com/kjstillabower/forecast-gateway/internal/forecast"
	"github.com/kjstillabower/forecast-gateway/internal/models"
	"github.com/kjstillabower/forecast-gateway/internal/observability"
	"github.com/kjstillabower/forecast-gateway/internal/traffic"
	"github.com/kjstillabower/forecast-gateway/internal/validation"
)

const tracerName = "github.com/kjstillabower/forecast-gateway/internal/service"

// RequestHandler translates one inbound request into one upstream call and one
// outbound response. It holds no per-invocation state and is safe for concurrent use.
type RequestHandler struct {
	client client.ForecastClient
}

// NewRequestHandler returns a RequestHandler backed by c.
func NewRequestHandler(c client.ForecastClient) *RequestHandler {
	return &RequestHandler{client: c}
}

// Handle runs the validate → call → interpret pipeline. It never returns an
// error: every failure is rendered as an OutboundResponse.
func (h *RequestHandler) Handle(ctx context.Context, req models.InboundRequest) models.OutboundResponse {
	start := time.Now()
	logger := observability.LoggerFromContext(ctx)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "gateway.invoke")
	defer span.End()

	resp, gwErr := h.run(ctx, req)
	duration := time.Since(start)

	if gwErr == nil {
		span.SetAttributes(attribute.String("gateway.outcome", "success"))
		observability.RecordInvocation("success", "", duration)
		traffic.Record(traffic.Success)
		logger.Debug("forecast served", zap.Duration("duration", duration))
		return resp
	}

	outcome := gwErr.Kind.String()
	span.SetAttributes(
		attribute.String("gateway.outcome", outcome),
		attribute.Int("http.response.status_code", gwErr.StatusCode),
	)
	observability.RecordInvocation(outcome, string(client.CategorizeError(gwErr.Err)), duration)
	if gwErr.Kind == KindClientRequest {
		traffic.Record(traffic.Rejected)
		logger.Debug("request rejected",
			zap.String("path", gwErr.Path),
			zap.String("method", gwErr.Method))
	} else {
		span.RecordError(gwErr)
		span.SetStatus(codes.Error, outcome)
		traffic.Record(traffic.Failure)
		logger.Warn("forecast request failed",
			zap.String("outcome", outcome),
			zap.Int("status", gwErr.StatusCode),
			zap.Duration("duration", duration),
			zap.Error(gwErr.Err))
	}
	return gwErr.Response()
}

// run is the linear pipeline; each stage either advances or returns a classified *Error.
func (h *RequestHandler) run(ctx context.Context, req models.InboundRequest) (models.OutboundResponse, *Error) {
	path, method := req.ResolvedPath(), req.ResolvedMethod()
	if err := validation.ValidateRoute(path, method); err != nil {
		return models.OutboundResponse{}, clientRequestError(path, method, err)
	}

	coords := validation.CoordinatesFrom(req)
	recordCoordinateSource(req)

	upstream, err := h.client.Fetch(ctx, coords)
	if err != nil {
		if errors.Is(err, client.ErrTimeout) {
			return models.OutboundResponse{}, timeoutError(err)
		}
		return models.OutboundResponse{}, transportError(err)
	}

	if upstream.StatusCode != http.StatusOK {
		return models.OutboundResponse{}, statusError(upstream.StatusCode, upstream.Body)
	}

	doc, err := forecast.Decode(upstream.Body)
	if err != nil {
		return models.OutboundResponse{}, decodeError(err)
	}
	if err := doc.Validate(); err != nil {
		return models.OutboundResponse{}, shapeError(err, doc.Raw())
	}

	return rawResponse(http.StatusOK, doc.Raw()), nil
}

func recordCoordinateSource(req models.InboundRequest) {
	if req.QueryParam("lat") == "" && req.QueryParam("lon") == "" {
		observability.ForecastQueriesTotal.WithLabelValues("default").Inc()
		return
	}
	observability.ForecastQueriesTotal.WithLabelValues("custom").Inc()
}
