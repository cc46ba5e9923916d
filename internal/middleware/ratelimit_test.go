package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimiterWindow(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiterWithNow(3, time.Minute, func() time.Time { return clock })

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d should pass", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Fatalf("fourth request in window should be denied")
	}

	// partial progress does not reset the window
	clock = clock.Add(30 * time.Second)
	if rl.Allow("10.0.0.1") {
		t.Fatalf("still inside the window, should be denied")
	}

	clock = clock.Add(31 * time.Second)
	if !rl.Allow("10.0.0.1") {
		t.Fatalf("window elapsed, should be allowed again")
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiterWithNow(1, time.Minute, func() time.Time { return clock })

	if !rl.Allow("10.0.0.1") {
		t.Fatalf("first client should pass")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatalf("first client exhausted its budget")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatalf("second client has its own budget")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiterWithNow(1, time.Minute, func() time.Time { return clock })

	r := gin.New()
	r.POST("/limited", RateLimitMiddleware(rl), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/limited", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/limited", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", w.Code)
	}
}
