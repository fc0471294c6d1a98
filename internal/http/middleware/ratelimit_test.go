package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newLimitedRouter(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(rl.Handler())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func TestRateLimiterRejectsWithStandardEnvelope(t *testing.T) {
	// Zero refill with burst 1: the second request must be rejected.
	r := newLimitedRouter(NewRateLimiter(0, 1, KeyByUserOrIP()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("first request: status = %d; want 200", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: status = %d; want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("Retry-After = %q; want %q", got, "1")
	}

	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Code != "too_many_requests" {
		t.Fatalf("code = %q; want %q", body.Code, "too_many_requests")
	}
	if body.Message == "" {
		t.Fatal("message must not be empty")
	}
}

func TestRateLimiterKeysBucketsIndependently(t *testing.T) {
	r := newLimitedRouter(NewRateLimiter(0, 1, func(c *gin.Context) string {
		return c.GetHeader("X-User-ID")
	}))

	for _, user := range []string{"1", "2"} {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-User-ID", user)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("user %s: status = %d; each key gets its own bucket", user, w.Code)
		}
	}
}
