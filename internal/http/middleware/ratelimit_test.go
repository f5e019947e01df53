package middleware

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestKeyByUserOrIP(t *testing.T) {
	r := gin.New()
	r.Use(Identity())
	r.GET("/k", func(c *gin.Context) { c.String(http.StatusOK, KeyByUserOrIP()(c)) })

	if got := serve(r, http.MethodGet, "/k", map[string]string{HeaderUserID: "u1"}).Body.String(); got != "user:u1" {
		t.Fatalf("user key = %q", got)
	}
	if got := serve(r, http.MethodGet, "/k", nil).Body.String(); got != "ip:192.0.2.1" {
		t.Fatalf("ip key = %q", got)
	}
}

func TestRateLimiter_DenyAndReplayBypass(t *testing.T) {
	rl := NewRateLimiter(0.0001, 1, nil)
	r := gin.New()
	r.Use(Identity(), func(c *gin.Context) {
		if c.GetHeader("X-Replay") == "1" {
			c.Set(ctxKeyRateBypass, true)
		}
	}, rl.Handler())
	r.POST("/pay", func(c *gin.Context) { c.Status(http.StatusOK) })

	u1 := map[string]string{HeaderUserID: "u1"}
	if w := serve(r, http.MethodPost, "/pay", u1); w.Code != http.StatusOK {
		t.Fatalf("first = %d", w.Code)
	}
	w := serve(r, http.MethodPost, "/pay", u1)
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") != "1" {
		t.Fatalf("second = %d retry=%q", w.Code, w.Header().Get("Retry-After"))
	}
	if w := serve(r, http.MethodPost, "/pay", map[string]string{HeaderUserID: "u1", "X-Replay": "1"}); w.Code != http.StatusOK {
		t.Fatalf("replay should bypass, got %d", w.Code)
	}
	if w := serve(r, http.MethodPost, "/pay", map[string]string{HeaderUserID: "u2"}); w.Code != http.StatusOK {
		t.Fatalf("other user has own bucket, got %d", w.Code)
	}
}

func TestRateLimiter_SweepsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 0, KeyByUserOrIP())
	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }

	rl.limiter("a")
	rl.limiter("b")
	if rl.size() != 2 {
		t.Fatalf("size = %d", rl.size())
	}

	now = now.Add(11 * time.Minute)
	rl.limiter("b")
	if rl.size() != 1 {
		t.Fatalf("idle bucket not swept, size = %d", rl.size())
	}
	if rl.burst != 1 {
		t.Fatalf("burst coerced to %d", rl.burst)
	}
}
