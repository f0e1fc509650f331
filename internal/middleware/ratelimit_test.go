package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func limitedHandler(rl *RateLimiter) http.Handler {
	return rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
}

func requestAs(uid string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/opportunities/1/strategies", http.NoBody)
	req.RemoteAddr = "192.168.1.1:5000"
	if uid != "" {
		req = req.WithContext(ContextWithUserID(req.Context(), uid))
	}
	return req
}

func TestRateLimiterAllowsBurst(t *testing.T) {
	handler := limitedHandler(NewRateLimiter(1, 3))

	for i := range 3 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestAs("alice"))
		if rec.Code != http.StatusCreated {
			t.Fatalf("request %d: expected 201, got %d", i+1, rec.Code)
		}
	}
}

func TestRateLimiterRejectsOverBurst(t *testing.T) {
	handler := limitedHandler(NewRateLimiter(0.5, 2))

	for range 2 {
		handler.ServeHTTP(httptest.NewRecorder(), requestAs("alice"))
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAs("alice"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("expected Retry-After 2, got %q", got)
	}
}

func TestRateLimiterKeysByCaller(t *testing.T) {
	rl := NewRateLimiter(0.1, 1)
	handler := limitedHandler(rl)

	// Same IP, different callers: separate buckets.
	for _, uid := range []string{"alice", "bob"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestAs(uid))
		if rec.Code != http.StatusCreated {
			t.Fatalf("%s: expected 201, got %d", uid, rec.Code)
		}
	}

	// Anonymous requests fall back to the IP.
	handler.ServeHTTP(httptest.NewRecorder(), requestAs(""))
	if rl.Len() != 3 {
		t.Fatalf("expected 3 buckets, got %d", rl.Len())
	}
}

func TestRateLimiterRefill(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }

	if _, _, ok := rl.allow("k"); !ok {
		t.Fatal("first request must pass")
	}
	if _, _, ok := rl.allow("k"); ok {
		t.Fatal("second request must be limited")
	}
	now = now.Add(time.Second)
	if _, _, ok := rl.allow("k"); !ok {
		t.Fatal("request after refill must pass")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }

	rl.allow("old")
	now = now.Add(time.Hour)
	rl.allow("fresh")

	rl.cleanup(time.Minute)
	if rl.Len() != 1 {
		t.Fatalf("expected 1 bucket after cleanup, got %d", rl.Len())
	}
}
