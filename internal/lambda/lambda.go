// Package lambda adapts the gateway to the AWS Lambda runtime. The inbound
// event is the API Gateway proxy shape (v1 or v2) and the return value is
// serialized by the runtime as the proxy response.
package lambda

import (
	"context"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kjstillabower/forecast-gateway/internal/models"
	"github.com/kjstillabower/forecast-gateway/internal/observability"
)

// Gateway is the core invocation.
type Gateway interface {
	Handle(ctx context.Context, req models.InboundRequest) models.OutboundResponse
}

// Invoker is the function handed to lambda.Start.
type Invoker func(ctx context.Context, req models.InboundRequest) (models.OutboundResponse, error)

// NewInvoker returns an Invoker that scopes logging and correlation to the
// invocation and delegates to gw. It never returns an error: failures are
// already rendered as responses by the gateway.
func NewInvoker(gw Gateway, logger *zap.Logger) Invoker {
	return func(ctx context.Context, req models.InboundRequest) (models.OutboundResponse, error) {
		corrID := correlationID(ctx, req)
		ctx = observability.WithCorrelationID(ctx, corrID)
		ctx = observability.WithLogger(ctx, logger.With(zap.String("correlation_id", corrID)))
		return gw.Handle(ctx, req), nil
	}
}

// correlationID prefers the runtime's request id, then the API Gateway request
// id, and generates one when neither is present.
func correlationID(ctx context.Context, req models.InboundRequest) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	if req.RequestContext.RequestID != "" {
		return req.RequestContext.RequestID
	}
	return uuid.New().String()
}
