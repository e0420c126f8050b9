package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	svcmetrics "FinCast/internal/service/metrics"
	"FinCast/pkg/config"
	xhttp "FinCast/pkg/http"
)

const (
	retryBase = 100 * time.Millisecond
	retryCap  = 2 * time.Second
)

// modelClient talks JSON to the model service at /models/{kind}/{op}.
type modelClient struct {
	baseURL  string
	attempts int
	http     *xhttp.Client
}

func newModelClient(cfg *config.Config) *modelClient {
	return &modelClient{
		baseURL:  cfg.Analytics.PythonServiceURL,
		attempts: max(cfg.Analytics.RetryAttempts, 1),
		http:     xhttp.NewClient(xhttp.WithTimeout(cfg.Analytics.Timeout)),
	}
}

// call posts payload and decodes the reply into dest. Transport failures,
// 5xx and 429 are retried with capped exponential backoff; other statuses
// fail at once.
func (c *modelClient) call(ctx context.Context, kind, op string, payload, dest interface{}) error {
	if c.baseURL == "" {
		return errors.New("model service url is not configured")
	}
	url := fmt.Sprintf("%s/models/%s/%s", c.baseURL, kind, op)

	var err error
	for attempt := 1; ; attempt++ {
		err = c.post(ctx, kind, op, url, payload, dest)
		if err == nil || attempt == c.attempts || !retryable(err) {
			return err
		}
		svcmetrics.ModelRetries.WithLabelValues(kind, op).Inc()
		select {
		case <-time.After(backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *modelClient) post(ctx context.Context, kind, op, url string, payload, dest interface{}) (err error) {
	defer svcmetrics.ObserveModelCall(kind, op, time.Now(), &err)
	err = c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    url,
		Body:   payload,
	}, dest)
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, kind, err)
	}
	return nil
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return true
}

func backoff(attempt int) time.Duration {
	if attempt < 1 || attempt > 16 {
		return retryCap
	}
	return min(retryBase<<(attempt-1), retryCap)
}
