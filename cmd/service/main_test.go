package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/forecast-gateway/internal/config"
	"github.com/kjstillabower/forecast-gateway/internal/lifecycle"
	"github.com/kjstillabower/forecast-gateway/internal/testhelpers"
	"github.com/kjstillabower/forecast-gateway/internal/traffic"
)

// loadStubConfig loads configuration from an empty directory with the upstream
// URL pointed at stub.
func loadStubConfig(t *testing.T, stub *testhelpers.UpstreamStub) *config.Config {
	t.Helper()
	for _, k := range []string{"ENV_NAME", "SERVER_PORT", "WEATHER_API_TIMEOUT", "ZIPKIN_URL"} {
		t.Setenv(k, "")
	}
	t.Setenv("WEATHER_API_URL", stub.URL())

	origWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(origWd) })

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	return cfg
}

// TestNewRouter_ServesWeatherAgainstStub wires the service the way main does
// and checks the gateway and health routes against a stub upstream.
func TestNewRouter_ServesWeatherAgainstStub(t *testing.T) {
	traffic.Reset()
	lifecycle.SetShuttingDown(false)
	lifecycle.MarkStarted(time.Now(), 0)
	t.Cleanup(traffic.Reset)

	stub := testhelpers.NewUpstreamStub(t, http.StatusOK, testhelpers.SampleForecast)
	cfg := loadStubConfig(t, stub)

	router, err := newRouter(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("newRouter() error = %v", err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/weather?lat=1&lon=2", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /weather status = %d, want 200; body=%s", w.Code, w.Body.String())
	}
	if w.Body.String() != testhelpers.SampleForecast {
		t.Errorf("GET /weather body = %s, want %s", w.Body.String(), testhelpers.SampleForecast)
	}
	if stub.Calls() != 1 {
		t.Errorf("upstream calls = %d, want 1", stub.Calls())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("GET /health status = %d, want 200; body=%s", w.Code, w.Body.String())
	}
}

func TestNewRouter_RejectsBadUpstreamURL(t *testing.T) {
	cfg := &config.Config{WeatherAPIURL: "://missing-scheme", WeatherAPITimeout: time.Second}
	if _, err := newRouter(cfg, zap.NewNop()); err == nil {
		t.Fatal("newRouter() expected error for malformed upstream URL")
	}
}
