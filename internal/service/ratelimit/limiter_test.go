package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_RefillsOverTime(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(2, 1)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "keys have separate buckets")

	now = now.Add(1500 * time.Millisecond)
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
}

func TestLimiter_SweepDropsIdleFullBuckets(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(1, 1)
	l.now = func() time.Time { return now }
	l.Allow("a")

	now = now.Add(time.Minute)
	assert.Equal(t, 1, l.Sweep(30*time.Second))
	assert.Empty(t, l.m)
}

func TestLimiter_Middleware429(t *testing.T) {
	e := echo.New()
	l := New(1, 0)
	h := l.Middleware()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	call := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/lstm", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		_ = h(e.NewContext(req, rec))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call())
	assert.Equal(t, http.StatusTooManyRequests, call())
}

func TestLimiter_TakeReportsWait(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(1, 0.5)
	l.now = func() time.Time { return now }

	ok, _ := l.Take("a")
	require.True(t, ok)
	ok, wait := l.Take("a")
	assert.False(t, ok)
	assert.Equal(t, 2*time.Second, wait)

	now = now.Add(2 * time.Second)
	ok, _ = l.Take("a")
	assert.True(t, ok)
}

func TestLimiter_MiddlewareRetryAfter(t *testing.T) {
	e := echo.New()
	l := New(1, 0.25)
	h := l.Middleware()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	var rec *httptest.ResponseRecorder
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/prophet", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		rec = httptest.NewRecorder()
		_ = h(e.NewContext(req, rec))
	}
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "4", rec.Header().Get(echo.HeaderRetryAfter))
	assert.Contains(t, rec.Body.String(), "ERR_RATE_LIMITED")
}
