package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/forecast-gateway/internal/observability"
)

// RouterConfig controls which routes are mounted and the per-request deadline
// applied to gateway calls.
type RouterConfig struct {
	RequestTimeout time.Duration
	TestingMode    bool
}

// NewRouter mounts the operational endpoints and sends every other request to
// the gateway. Paths are not cleaned so the gateway sees exactly what was sent.
func NewRouter(h *Handler, cfg RouterConfig, logger *zap.Logger) *mux.Router {
	router := mux.NewRouter()
	router.SkipClean(true)
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)

	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler())

	if cfg.TestingMode {
		logger.Warn("Testing mode enabled; /test endpoint exposed")
		router.HandleFunc("/test", h.GetTestStatus).Methods(http.MethodGet)
		router.HandleFunc("/test/{action}", h.PostTestAction).Methods(http.MethodPost)
	}

	var gateway http.Handler = http.HandlerFunc(h.ServeGateway)
	if cfg.RequestTimeout > 0 {
		gateway = TimeoutMiddleware(cfg.RequestTimeout)(gateway)
	}
	router.PathPrefix("/").Handler(gateway)
	return router
}
