package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/forecast-gateway/internal/degraded"
	"github.com/kjstillabower/forecast-gateway/internal/lifecycle"
	"github.com/kjstillabower/forecast-gateway/internal/models"
	"github.com/kjstillabower/forecast-gateway/internal/observability"
	"github.com/kjstillabower/forecast-gateway/internal/service"
	"github.com/kjstillabower/forecast-gateway/internal/traffic"
)

// Gateway is the core invocation the HTTP host delegates to.
type Gateway interface {
	Handle(ctx context.Context, req models.InboundRequest) models.OutboundResponse
}

// HealthConfig holds thresholds for the health handler.
type HealthConfig struct {
	DegradedWindow   time.Duration
	DegradedErrorPct int
	Version          string
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	gateway          Gateway
	healthConfig     *HealthConfig
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

var _ Gateway = (*service.RequestHandler)(nil)

// NewHandler returns a new Handler.
func NewHandler(gateway Gateway, healthConfig *HealthConfig, logger *zap.Logger) *Handler {
	return &Handler{
		gateway:      gateway,
		healthConfig: healthConfig,
		logger:       logger,
	}
}

// ServeGateway translates any request into an InboundRequest and writes the
// gateway's response unchanged. Route validation happens in the gateway, so
// unknown paths and methods get its 400 body rather than a router 404/405.
func (h *Handler) ServeGateway(w http.ResponseWriter, r *http.Request) {
	resp := h.gateway.Handle(r.Context(), InboundFromHTTP(r))
	if !bodyAllowedForStatus(resp.StatusCode) && resp.Body != "" {
		observability.LoggerFromContext(r.Context()).Warn("bodyless upstream status mapped to 502",
			zap.Int("status", resp.StatusCode))
		resp.StatusCode = http.StatusBadGateway
	}
	writeOutbound(w, resp)
}

// bodyAllowedForStatus reports whether net/http will write a body for status.
// 1xx, 204 and 304 responses are always sent without one.
func bodyAllowedForStatus(status int) bool {
	switch {
	case status >= 100 && status <= 199:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}
	return true
}

// InboundFromHTTP builds the request descriptor for r. Only the first value of
// each query parameter is kept.
func InboundFromHTTP(r *http.Request) models.InboundRequest {
	req := models.InboundRequest{
		Path:       r.URL.Path,
		HTTPMethod: r.Method,
		RequestContext: models.RequestContext{
			RequestID: observability.CorrelationIDFromContext(r.Context()),
		},
	}
	if q := r.URL.Query(); len(q) > 0 {
		req.QueryStringParameters = make(map[string]string, len(q))
		for name, values := range q {
			if len(values) > 0 {
				req.QueryStringParameters[name] = values[0]
			}
		}
	}
	return req
}

func writeOutbound(w http.ResponseWriter, resp models.OutboundResponse) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(resp.Body)))
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write([]byte(resp.Body))
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := map[string]string{"weatherApi": "healthy"}
	if result.reason == "error_rate_breach" {
		checks["weatherApi"] = "unhealthy"
	}
	version := "dev"
	if h.healthConfig != nil && h.healthConfig.Version != "" {
		version = h.healthConfig.Version
	}
	writeJSON(w, result.statusCode, map[string]interface{}{
		"status":    result.status,
		"service":   observability.ServiceName,
		"version":   version,
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// computeHealthStatus evaluates conditions in priority order:
// shutting-down > starting > degraded > healthy.
func (h *Handler) computeHealthStatus() healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if !lifecycle.IsReady() {
		return healthResult{"starting", http.StatusServiceUnavailable, "ready_delay"}
	}
	if h.healthConfig != nil {
		if degraded.Evaluate(h.healthConfig.DegradedWindow, h.healthConfig.DegradedErrorPct).Degraded {
			return healthResult{"degraded", http.StatusServiceUnavailable, "error_rate_breach"}
		}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GetTestStatus handles GET /test. Returns the current traffic window.
func (h *Handler) GetTestStatus(w http.ResponseWriter, r *http.Request) {
	window := h.degradedWindow()
	failures, total := traffic.ErrorRate(window)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_requests_in_window":    traffic.RequestCount(window),
		"rejected_requests_in_window": traffic.RejectedCount(window),
		"failures_in_window":          failures,
		"upstream_bound_in_window":    total,
		"window_length":               window.String(),
		"state":                       h.computeHealthStatus().status,
	})
}

// PostTestAction handles POST /test/{action} for load, error, reset and shutdown.
func (h *Handler) PostTestAction(w http.ResponseWriter, r *http.Request) {
	action := mux.Vars(r)["action"]
	var body struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Count <= 0 {
		body.Count = 1
	}

	var msg string
	switch action {
	case "load":
		traffic.RecordN(traffic.Success, body.Count)
		msg = "Recorded " + strconv.Itoa(body.Count) + " successes"
	case "error":
		traffic.RecordN(traffic.Failure, body.Count)
		msg = "Recorded " + strconv.Itoa(body.Count) + " failures"
	case "reset":
		traffic.Reset()
		lifecycle.SetShuttingDown(false)
		msg = "All simulated state cleared"
	case "shutdown":
		lifecycle.SetShuttingDown(true)
		msg = "Shutting-down flag set"
	default:
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"message": "unknown test action: " + action,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"action":  action,
		"message": msg,
		"state":   h.computeHealthStatus().status,
	})
}

func (h *Handler) degradedWindow() time.Duration {
	if h.healthConfig != nil && h.healthConfig.DegradedWindow > 0 {
		return h.healthConfig.DegradedWindow
	}
	return 60 * time.Second
}
