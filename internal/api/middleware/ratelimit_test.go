package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func limitedRequest(t *testing.T, rl *RateLimiter, ip string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/signin", nil)
	req.RemoteAddr = ip + ":12345"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := rl.Middleware()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func TestRateLimiter_BurstThen429(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 2, CleanupInterval: time.Minute}, zerolog.Nop())
	defer rl.Stop()

	for i := 0; i < 2; i++ {
		if rec := limitedRequest(t, rl, "10.0.0.1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}

	rec := limitedRequest(t, rl, "10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	sec, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	if err != nil || sec < 1 {
		t.Fatalf("expected numeric Retry-After, got %q", rec.Header().Get("Retry-After"))
	}
}

func TestRateLimiter_IsolatesClients(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 1, CleanupInterval: time.Minute}, zerolog.Nop())
	defer rl.Stop()

	limitedRequest(t, rl, "10.0.0.1")
	if rec := limitedRequest(t, rl, "10.0.0.1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for the first client, got %d", rec.Code)
	}
	if rec := limitedRequest(t, rl, "10.0.0.2"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for another client, got %d", rec.Code)
	}
	if rl.Len() != 2 {
		t.Fatalf("expected 2 tracked clients, got %d", rl.Len())
	}
}

func TestRateLimiter_CleanupDropsIdleClients(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 1, CleanupInterval: time.Minute}, zerolog.Nop())
	defer rl.Stop()

	limitedRequest(t, rl, "10.0.0.1")
	rl.cleanup(time.Now())
	if rl.Len() != 1 {
		t.Fatalf("expected recent client kept, got %d", rl.Len())
	}

	rl.cleanup(time.Now().Add(3 * time.Minute))
	if rl.Len() != 0 {
		t.Fatalf("expected idle client dropped, got %d", rl.Len())
	}
}

func TestPerMinute(t *testing.T) {
	cfg := PerMinute(10)
	if cfg.Burst != 10 || float64(cfg.Rate) != 10.0/60.0 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if got := retryAfter(cfg.Rate); got != 6 {
		t.Fatalf("expected Retry-After 6s, got %d", got)
	}
}
