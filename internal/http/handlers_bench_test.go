package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/forecast-gateway/internal/models"
	"github.com/kjstillabower/forecast-gateway/internal/service"
	"github.com/kjstillabower/forecast-gateway/internal/testhelpers"
)

func benchmarkRouter(b *testing.B, status int, body string) http.Handler {
	stub := testhelpers.NewUpstreamStub(b, status, body)
	gw := service.NewRequestHandler(stub.Client(b, 2*time.Second))
	h := NewHandler(gw, &HealthConfig{DegradedWindow: time.Minute, DegradedErrorPct: 5}, zap.NewNop())
	return NewRouter(h, RouterConfig{RequestTimeout: 5 * time.Second}, zap.NewNop())
}

// BenchmarkRouter_Gateway_Success benchmarks a full forecast round trip against a local stub.
func BenchmarkRouter_Gateway_Success(b *testing.B) {
	router := benchmarkRouter(b, http.StatusOK, testhelpers.SampleForecast)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/weather?lat=1&lon=2", nil))
	}
}

// BenchmarkRouter_Gateway_Rejected benchmarks the rejection path, which makes no upstream call.
func BenchmarkRouter_Gateway_Rejected(b *testing.B) {
	router := benchmarkRouter(b, http.StatusOK, testhelpers.SampleForecast)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/weather", nil))
	}
}

// BenchmarkRouter_Gateway_UpstreamStatus benchmarks the non-200 pass-through path.
func BenchmarkRouter_Gateway_UpstreamStatus(b *testing.B) {
	router := benchmarkRouter(b, http.StatusServiceUnavailable, "maintenance")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/weather", nil))
	}
}

// BenchmarkHandler_GetHealth benchmarks health check endpoint.
func BenchmarkHandler_GetHealth(b *testing.B) {
	h := NewHandler(nil, &HealthConfig{DegradedWindow: time.Minute, DegradedErrorPct: 5}, zap.NewNop())
	req := httptest.NewRequest("GET", "/health", nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h.GetHealth(httptest.NewRecorder(), req)
	}
}

// BenchmarkInboundFromHTTP benchmarks request descriptor construction.
func BenchmarkInboundFromHTTP(b *testing.B) {
	req := httptest.NewRequest("GET", "/weather?lat=50.4375&lon=30.5", nil)
	var sink models.InboundRequest
	for i := 0; i < b.N; i++ {
		sink = InboundFromHTTP(req)
	}
	_ = sink
}
