package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendAndParse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "fincast-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "AAPL.US", r.URL.Query().Get("s"))
		if r.Method == http.MethodPost {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		}
		_, _ = w.Write([]byte(`{"rows":3}`))
	}))
	defer srv.Close()

	c := NewClient(WithUserAgent("fincast-test"))

	var out struct {
		Rows int `json:"rows"`
	}
	err := c.SendAndParse(context.Background(), &RequestOptions{
		Method:      MethodPost,
		URL:         srv.URL,
		QueryParams: map[string][]string{"s": {"AAPL.US"}},
		Body:        map[string]int{"window": 7},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Rows)

	var raw []byte
	require.NoError(t, c.SendAndParse(context.Background(), &RequestOptions{
		Method:      MethodGet,
		URL:         srv.URL,
		QueryParams: map[string][]string{"s": {"AAPL.US"}},
	}, &raw))
	assert.JSONEq(t, `{"rows":3}`, string(raw))
}

func TestClient_StatusErrorAndBodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/busy":
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("slow down"))
		case "/gone":
			w.WriteHeader(http.StatusNotFound)
		default:
			_, _ = w.Write([]byte("0123456789"))
		}
	}))
	defer srv.Close()

	c := NewClient(WithMaxBody(4))
	ctx := context.Background()

	err := c.SendAndParse(ctx, &RequestOptions{Method: MethodGet, URL: srv.URL + "/busy"}, nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "slow down", se.Body)
	assert.True(t, se.Retryable())

	err = c.SendAndParse(ctx, &RequestOptions{Method: MethodGet, URL: srv.URL + "/gone"}, nil)
	require.ErrorAs(t, err, &se)
	assert.False(t, se.Retryable())

	var raw []byte
	require.NoError(t, c.SendAndParse(ctx, &RequestOptions{Method: MethodGet, URL: srv.URL}, &raw))
	assert.Equal(t, "0123", string(raw))
}
