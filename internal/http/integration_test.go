//go:build integration
// +build integration

package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/forecast-gateway/internal/client"
	"github.com/kjstillabower/forecast-gateway/internal/observability"
	"github.com/kjstillabower/forecast-gateway/internal/service"
)

var testLogger *zap.Logger

func init() {
	var err error
	testLogger, err = observability.NewLogger()
	if err != nil {
		panic(err)
	}
}

// setupIntegrationRouter wires the full stack against the real Open-Meteo API,
// or WEATHER_API_URL when set.
func setupIntegrationRouter(t *testing.T) http.Handler {
	t.Helper()
	apiURL := os.Getenv("WEATHER_API_URL")
	if apiURL == "" {
		apiURL = client.DefaultAPIURL
	}
	c, err := client.NewOpenMeteoClient(apiURL, 10*time.Second, 0)
	if err != nil {
		t.Fatalf("NewOpenMeteoClient() error = %v", err)
	}
	h := NewHandler(service.NewRequestHandler(c), &HealthConfig{DegradedWindow: time.Minute, DegradedErrorPct: 5}, testLogger)
	return NewRouter(h, RouterConfig{RequestTimeout: 15 * time.Second}, testLogger)
}

// TestIntegration_Weather_Default verifies the default-coordinate forecast has hourly series.
func TestIntegration_Weather_Default(t *testing.T) {
	router := setupIntegrationRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/weather", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200. Body: %s", w.Code, w.Body.String())
	}
	var doc struct {
		Latitude float64 `json:"latitude"`
		Hourly   struct {
			Time          []string  `json:"time"`
			Temperature2m []float64 `json:"temperature_2m"`
		} `json:"hourly"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Hourly.Time) == 0 || len(doc.Hourly.Time) != len(doc.Hourly.Temperature2m) {
		t.Errorf("hourly lengths time=%d temperature_2m=%d", len(doc.Hourly.Time), len(doc.Hourly.Temperature2m))
	}
}

// TestIntegration_Weather_InvalidCoordinates verifies an out-of-range latitude
// surfaces the upstream 400 with its body in details.
func TestIntegration_Weather_InvalidCoordinates(t *testing.T) {
	router := setupIntegrationRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/weather?lat=999&lon=0", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Status = %d, want 400. Body: %s", w.Code, w.Body.String())
	}
	var body struct {
		Message string `json:"message"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message != service.StatusMessage(400) || body.Details == "" {
		t.Errorf("body = %+v", body)
	}
}

// TestIntegration_Weather_Concurrent verifies concurrent invocations share no state.
func TestIntegration_Weather_Concurrent(t *testing.T) {
	router := setupIntegrationRouter(t)

	var wg sync.WaitGroup
	codes := make([]int, 5)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("GET", "/weather", nil))
			codes[i] = w.Code
		}(i)
	}
	wg.Wait()

	for i, code := range codes {
		if code != http.StatusOK {
			t.Errorf("request %d: status = %d, want 200", i, code)
		}
	}
}
