package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kjstillabower/forecast-gateway/internal/observability"
)

func TestMiddleware_CorrelationIDGenerated(t *testing.T) {
	var seen string
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(zap.NewNop()))
	router.HandleFunc("/weather", func(w http.ResponseWriter, r *http.Request) {
		seen = observability.CorrelationIDFromContext(r.Context())
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/weather", nil))

	got := w.Header().Get("X-Correlation-ID")
	if got == "" {
		t.Fatal("X-Correlation-ID header missing")
	}
	if seen != got {
		t.Errorf("context correlation id = %q, header = %q", seen, got)
	}
}

func TestMiddleware_CorrelationIDPropagated(t *testing.T) {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(zap.NewNop()))
	router.HandleFunc("/weather", func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest("GET", "/weather", nil)
	req.Header.Set("X-Correlation-ID", "client-provided-id")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Correlation-ID"); got != "client-provided-id" {
		t.Errorf("X-Correlation-ID = %q, want client-provided-id", got)
	}
}

// TestMiddleware_ScopedLoggerCarriesCorrelationID verifies handlers log with the request's correlation id.
func TestMiddleware_ScopedLoggerCarriesCorrelationID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(zap.New(core)))
	router.HandleFunc("/weather", func(w http.ResponseWriter, r *http.Request) {
		observability.LoggerFromContext(r.Context()).Info("inside")
	})

	req := httptest.NewRequest("GET", "/weather", nil)
	req.Header.Set("X-Correlation-ID", "abc")
	router.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("inside").All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].ContextMap()["correlation_id"] != "abc" {
		t.Errorf("correlation_id = %v, want abc", entries[0].ContextMap()["correlation_id"])
	}
}

func TestMiddleware_MetricsRecordsStatusClass(t *testing.T) {
	router := mux.NewRouter()
	router.Use(MetricsMiddleware)
	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	counter := observability.HTTPRequestsTotal.WithLabelValues("POST", "gateway", "4xx")
	before := testutil.ToFloat64(counter)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/anything", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("gateway 4xx counter delta = %v, want 1", got)
	}
}

func TestGetRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/health", "/health"},
		{"/metrics", "/metrics"},
		{"/test", "/test"},
		{"/test/load", "/test"},
		{"/weather", "gateway"},
		{"/weather/kyiv", "gateway"},
		{"/testing", "gateway"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := getRoute(httptest.NewRequest("GET", tt.path, nil)); got != tt.want {
				t.Errorf("getRoute(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestStatusCodeString(t *testing.T) {
	tests := map[int]string{200: "2xx", 400: "4xx", 504: "5xx"}
	for code, want := range tests {
		if got := statusCodeString(code); got != want {
			t.Errorf("statusCodeString(%d) = %q, want %q", code, got, want)
		}
	}
}

func TestMiddleware_MetricsRoute(t *testing.T) {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(zap.NewNop()))
	router.Use(MetricsMiddleware)
	router.Handle("/metrics", observability.MetricsHandler())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestTimeoutMiddleware_SetsDeadline(t *testing.T) {
	var deadline time.Time
	var ok bool
	h := TimeoutMiddleware(50 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	}))

	start := time.Now()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/weather", nil))

	if !ok {
		t.Fatal("request context has no deadline")
	}
	if d := deadline.Sub(start); d <= 0 || d > time.Second {
		t.Errorf("deadline in %v, want about 50ms", d)
	}
}

func TestTimeoutMiddleware_CancelsContextAfterTimeout(t *testing.T) {
	var ctxErr error
	h := TimeoutMiddleware(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		ctxErr = r.Context().Err()
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/weather", nil))

	if ctxErr != context.DeadlineExceeded {
		t.Errorf("ctx.Err() = %v, want DeadlineExceeded", ctxErr)
	}
}
