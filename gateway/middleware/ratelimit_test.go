package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func limitedRequest(remote string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/rpc", nil)
	req.RemoteAddr = remote
	return req
}

func TestRateLimiterEnforcesBurst(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{
		"rpc": {RequestsPerMinute: 1, Burst: 2},
	}, nil)
	handler := limiter.Middleware("rpc")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, limitedRequest("10.0.0.1:1234"))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d inside burst rejected with %d", i, rec.Code)
		}
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, limitedRequest("10.0.0.1:1234"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 past the burst, got %d", rec.Code)
	}

	// A different client gets its own bucket.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, limitedRequest("10.0.0.2:1234"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected independent bucket for second client, got %d", rec.Code)
	}
}

func TestRateLimiterUnknownKeyPassesThrough(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{}, nil)
	handler := limiter.Middleware("rpc")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, limitedRequest("10.0.0.1:1234"))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected pass-through without configured limit, got %d", rec.Code)
		}
	}
}

func TestRateLimiterSweep(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{
		"rpc": {RequestsPerMinute: 60, Burst: 1},
	}, nil)
	now := time.Now()
	limiter.clockNow = func() time.Time { return now }

	handler := limiter.Middleware("rpc")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, limitedRequest("10.0.0.1:1234"))
	if len(limiter.visitors) != 1 {
		t.Fatalf("expected one tracked visitor, got %d", len(limiter.visitors))
	}

	now = now.Add(time.Hour)
	limiter.Sweep(30 * time.Minute)
	if len(limiter.visitors) != 0 {
		t.Fatalf("expected idle visitors swept, got %d", len(limiter.visitors))
	}
}
