package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinCast/internal/domain/models"
	"FinCast/pkg/config"
	xhttp "FinCast/pkg/http"
)

func testConfig(url string) *config.Config {
	cfg := config.Default()
	cfg.Analytics.PythonServiceURL = url
	cfg.Analytics.Timeout = 2 * time.Second
	cfg.Analytics.RetryAttempts = 3
	return cfg
}

func TestRemoteForecaster_FitPredict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/models/lstm/fit":
			var req fitReq
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Len(t, req.Windows, 2)
			_, _ = w.Write([]byte(`{"model_id":"m-1"}`))
		case "/models/lstm/predict":
			var req predictReq
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "m-1", req.ModelID)
			_, _ = w.Write([]byte(`{"predictions":[0.5]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	f := NewRemoteForecaster(testConfig(srv.URL), models.KindLSTM)
	win := models.Window{Input: [][]float64{{0.1}, {0.2}}, Target: 0.3}

	m, err := f.Fit(context.Background(), []models.Window{win, win})
	require.NoError(t, err)
	preds, err := f.Predict(context.Background(), m, []models.Window{win})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5}, preds)
}

func TestRemoteForecaster_RetriesServerErrorsOnly(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if r.URL.Path == "/models/prophet/fit" && n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if r.URL.Path == "/models/transformer/fit" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		_, _ = w.Write([]byte(`{"model_id":"ok"}`))
	}))
	defer srv.Close()

	_, err := NewRemoteForecaster(testConfig(srv.URL), models.KindProphet).Fit(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())

	calls.Store(0)
	_, err = NewRemoteForecaster(testConfig(srv.URL), models.KindTransformer).Fit(context.Background(), nil)
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRemoteForecaster_RejectsForeignModel(t *testing.T) {
	f := NewRemoteForecaster(testConfig("http://127.0.0.1:1"), models.KindLSTM)
	_, err := f.Predict(context.Background(), "not-a-handle", nil)
	assert.Error(t, err)
}

func TestBackoffAndRetryable(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, backoff(1))
	assert.Equal(t, 400*time.Millisecond, backoff(3))
	assert.Equal(t, retryCap, backoff(10))
	assert.Equal(t, retryCap, backoff(80))

	assert.True(t, retryable(&xhttp.StatusError{Code: http.StatusTooManyRequests}))
	assert.False(t, retryable(&xhttp.StatusError{Code: http.StatusBadRequest}))
	assert.False(t, retryable(context.Canceled))
	assert.True(t, retryable(errors.New("connection refused")))
}

func TestRemoteForecaster_RequiresServiceURL(t *testing.T) {
	_, err := NewRemoteForecaster(testConfig(""), models.KindLSTM).Fit(context.Background(), nil)
	assert.Error(t, err)
}
