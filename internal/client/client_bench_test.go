package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kjstillabower/forecast-gateway/internal/models"
)

// BenchmarkBuildURL benchmarks upstream URL construction.
func BenchmarkBuildURL(b *testing.B) {
	coords := models.Coordinates{Latitude: "50.4375", Longitude: "30.5"}
	for i := 0; i < b.N; i++ {
		_ = BuildURL(DefaultAPIURL, coords)
	}
}

// BenchmarkClient_Fetch benchmarks a full fetch against a local stub.
func BenchmarkClient_Fetch(b *testing.B) {
	body := []byte(`{"hourly":{"time":["2024-01-01T00:00"],"temperature_2m":[5.1]}}`)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	defer server.Close()

	c, _ := NewOpenMeteoClient(server.URL, 2*time.Second, 0)
	ctx := context.Background()
	coords := models.Coordinates{Latitude: "50.4375", Longitude: "30.5"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Fetch(ctx, coords); err != nil {
			b.Fatal(err)
		}
	}
}
