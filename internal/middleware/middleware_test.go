package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/coursemates/backend/internal/logging"
)

func TestIPRateLimiterAllowsBurstThenBlocks(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Hour, 2, time.Minute)

	if !limiter.Allow("10.0.0.1") || !limiter.Allow("10.0.0.1") {
		t.Fatal("expected burst requests to be allowed")
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatal("expected third request to be rejected")
	}
	if !limiter.Allow("10.0.0.2") {
		t.Fatal("expected a different key to have its own allowance")
	}
}

func TestIPRateLimiterExpiresIdleVisitors(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Hour, 1, time.Minute).(*ipRateLimiter)
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	if !limiter.Allow("a") {
		t.Fatal("expected first request to pass")
	}
	if limiter.Allow("a") {
		t.Fatal("expected limiter to block")
	}

	now = now.Add(2 * time.Minute)
	limiter.Allow("b")
	if _, ok := limiter.visitors["a"]; ok {
		t.Fatal("expected idle visitor to be collected")
	}
	if !limiter.Allow("a") {
		t.Fatal("expected a fresh allowance after expiry")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rejected := 0
	limiter := NewIPRateLimiter(1, time.Hour, 1, time.Minute)
	handler := RateLimit(limiter, "friendships", func() { rejected++ })(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(forwardedFor string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/friendships", nil)
		req.RemoteAddr = "192.0.2.1:5555"
		if forwardedFor != "" {
			req.Header.Set("X-Forwarded-For", forwardedFor)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := send(""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected first request through got %d", rec.Code)
	}

	rec := send("")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["reason"] != "rate_limited" || body["success"] != false {
		t.Fatalf("unexpected body %v", body)
	}
	if rejected != 1 {
		t.Fatalf("expected reject hook once got %d", rejected)
	}

	if rec := send("203.0.113.9, 10.0.0.1"); rec.Code != http.StatusNoContent {
		t.Fatalf("expected forwarded client to have its own bucket got %d", rec.Code)
	}
}

func TestRateLimitNilLimiterPassesThrough(t *testing.T) {
	handler := RateLimit(nil, "", nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name      string
		remote    string
		forwarded string
		want      string
	}{
		{"remoteAddr", "198.51.100.4:1234", "", "198.51.100.4"},
		{"forwarded", "198.51.100.4:1234", " 203.0.113.1 , 10.0.0.2", "203.0.113.1"},
		{"noPort", "198.51.100.4", "", "198.51.100.4"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			if got := clientIP(req); got != tc.want {
				t.Fatalf("clientIP() = %q want %q", got, tc.want)
			}
		})
	}
}

func TestRequestLoggerPropagatesRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	var seenID string
	handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = logging.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seenID != "req-123" {
		t.Fatalf("expected incoming request id in context got %q", seenID)
	}
	if got := rec.Header().Get(RequestIDHeader); got != "req-123" {
		t.Fatalf("expected request id echoed got %q", got)
	}
	if !strings.Contains(buf.String(), `"request_id":"req-123"`) {
		t.Fatalf("expected request id on log entries, got %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"status":202`) {
		t.Fatalf("expected completion log with status, got %s", buf.String())
	}
}

func TestRequestLoggerGeneratesIDAndRecoversPanics(t *testing.T) {
	base := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	handler := RequestLogger(base)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected generated request id")
	}
}

type recordedRequest struct {
	route  string
	method string
	status int
}

type recordingObserver struct {
	requests []recordedRequest
}

func (o *recordingObserver) ObserveRequest(route, method string, status int, _ float64) {
	o.requests = append(o.requests, recordedRequest{route: route, method: method, status: status})
}

func TestMonitorUsesRouteTemplate(t *testing.T) {
	obs := &recordingObserver{}
	router := mux.NewRouter()
	router.Use(Monitor(obs))
	router.HandleFunc("/api/v1/friendships/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/friendships/f-42", nil))

	if len(obs.requests) != 1 {
		t.Fatalf("expected one observation got %d", len(obs.requests))
	}
	got := obs.requests[0]
	if got.route != "/api/v1/friendships/{id}" || got.method != http.MethodGet || got.status != http.StatusNotFound {
		t.Fatalf("unexpected observation %+v", got)
	}
}
