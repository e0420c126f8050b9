package http

import (
	"context"
	"io"
	"net"
	"net/http"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingHandler struct{}

func localURL(t *testing.T, s *Server, path string) string {
	t.Helper()
	_, port, err := net.SplitHostPort(s.Addr())
	require.NoError(t, err)
	return "http://127.0.0.1:" + port + path
}

func (pingHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/ping", func(c echo.Context) error { return SuccessResponse(c, "pong") })
}

func TestServer_StartServeStop(t *testing.T) {
	s := NewServer([]Handler{pingHandler{}, nil}, WithPort(0), WithMetricsPath(""))
	require.NoError(t, s.Start())
	require.NotEmpty(t, s.Addr())

	resp, err := http.Get(localURL(t, s, "/api/ping"))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":200,"message":"OK","data":"pong"}`, string(body))

	resp, err = http.Get(localURL(t, s, "/metrics"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	require.NoError(t, s.Stop(context.Background()))
}

func TestServer_StartReportsBindError(t *testing.T) {
	first := NewServer(nil, WithPort(0))
	require.NoError(t, first.Start())
	defer first.Stop(context.Background())

	_, raw, err := net.SplitHostPort(first.Addr())
	require.NoError(t, err)
	port, err := strconv.Atoi(raw)
	require.NoError(t, err)
	second := NewServer(nil, WithPort(port))
	assert.Error(t, second.Start())
}
