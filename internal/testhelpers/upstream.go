// Package testhelpers provides a deterministic Open-Meteo stand-in for tests
// that exercise the gateway end to end.
package testhelpers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/kjstillabower/forecast-gateway/internal/client"
)

// SampleForecast is a minimal valid upstream document.
const SampleForecast = `{"hourly":{"time":["2024-01-01T00:00"],"temperature_2m":[5.1]}}`

// UpstreamStub is an httptest server answering every request with a fixed
// status and body, recording the query of each request it receives.
type UpstreamStub struct {
	Server *httptest.Server

	mu      sync.Mutex
	status  int
	body    string
	delay   time.Duration
	queries []url.Values
	raw     []string
}

// NewUpstreamStub starts a stub that answers with status and body. The server
// is closed when the test finishes.
func NewUpstreamStub(t testing.TB, status int, body string) *UpstreamStub {
	t.Helper()
	s := &UpstreamStub{status: status, body: body}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Server.Close)
	return s
}

func (s *UpstreamStub) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.queries = append(s.queries, r.URL.Query())
	s.raw = append(s.raw, r.URL.RawQuery)
	status, body, delay := s.status, s.body, s.delay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// SetDelay makes every subsequent response wait d before answering.
func (s *UpstreamStub) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// URL returns the forecast endpoint of the stub.
func (s *UpstreamStub) URL() string {
	return s.Server.URL + "/v1/forecast"
}

// Calls returns how many requests the stub has served.
func (s *UpstreamStub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

// LastQuery returns the parsed and raw query of the most recent request.
func (s *UpstreamStub) LastQuery() (url.Values, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queries) == 0 {
		return nil, ""
	}
	return s.queries[len(s.queries)-1], s.raw[len(s.raw)-1]
}

// Client returns an OpenMeteoClient pointed at the stub.
func (s *UpstreamStub) Client(t testing.TB, timeout time.Duration) *client.OpenMeteoClient {
	t.Helper()
	c, err := client.NewOpenMeteoClient(s.URL(), timeout, 0)
	if err != nil {
		t.Fatalf("NewOpenMeteoClient() error = %v", err)
	}
	return c
}
