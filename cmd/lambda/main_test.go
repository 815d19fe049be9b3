package main

import (
	"context"
	"net/http"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/kjstillabower/forecast-gateway/internal/config"
	"github.com/kjstillabower/forecast-gateway/internal/models"
	"github.com/kjstillabower/forecast-gateway/internal/testhelpers"
	"github.com/kjstillabower/forecast-gateway/internal/traffic"
)

// TestNewInvoker_ServesWeatherAgainstStub wires the invoker the way main does
// and invokes it with an API Gateway event for GET /weather.
func TestNewInvoker_ServesWeatherAgainstStub(t *testing.T) {
	traffic.Reset()
	t.Cleanup(traffic.Reset)

	stub := testhelpers.NewUpstreamStub(t, http.StatusOK, testhelpers.SampleForecast)
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
	invoke, err := newInvoker(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("newInvoker() error = %v", err)
	}

	resp, err := invoke(context.Background(), models.InboundRequest{
		Path:                  "/weather",
		HTTPMethod:            http.MethodGet,
		QueryStringParameters: map[string]string{"lat": "1", "lon": "2"},
	})
	if err != nil {
		t.Fatalf("invoke() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("StatusCode = %d, want 200; body=%s", resp.StatusCode, resp.Body)
	}
	if resp.Body != testhelpers.SampleForecast {
		t.Errorf("Body = %s, want %s", resp.Body, testhelpers.SampleForecast)
	}
	q, _ := stub.LastQuery()
	if q.Get("latitude") != "1" || q.Get("longitude") != "2" {
		t.Errorf("upstream query = %v, want latitude=1 longitude=2", q)
	}
}
