package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinCast/internal/domain/models"
)

func TestPrefetchHandler_WarmsCache(t *testing.T) {
	var gotStart, gotEnd time.Time
	p := &stubProvider{name: "stooq", src: models.SourcePrimary, fetch: func(_ string, start, end time.Time) (*models.RawTable, error) {
		gotStart, gotEnd = start, end
		return nil, models.Unavailable("stooq", errors.New("down"))
	}}
	c, sc := newTestCascade(p)
	h := NewPrefetchHandler("fincast.prefetch", c, NewSymbolCatalog(nil), nil, nil)
	h.now = func() time.Time { return day9.Add(15 * time.Hour) }

	require.NoError(t, h.Handle(context.Background(), []byte(`{"ticker":"AAPL.US"}`)))
	assert.Equal(t, day9, gotEnd)
	assert.Equal(t, day9.AddDate(0, 0, -365), gotStart)
	assert.Equal(t, 1, sc.Len())
	assert.Equal(t, "fincast.prefetch", h.Topic())
}

func TestPrefetchHandler_ExplicitRange(t *testing.T) {
	c, sc := newTestCascade()
	h := NewPrefetchHandler("p", c, NewSymbolCatalog(nil), nil, nil)

	require.NoError(t, h.Handle(context.Background(), []byte(`{"ticker":"MSFT.US","start_date":"2024-01-01","end_date":"2024-01-10"}`)))
	ds, ok := sc.Get(context.Background(), "dataset:synthetic:MSFT.US:20240101:20240110")
	require.True(t, ok)
	assert.Equal(t, 10, ds.Len())
}

func TestPrefetchHandler_Rejects(t *testing.T) {
	c, sc := newTestCascade()
	h := NewPrefetchHandler("p", c, NewSymbolCatalog(nil), nil, nil)
	ctx := context.Background()

	assert.ErrorIs(t, h.Handle(ctx, []byte(`not json`)), models.ErrInvalidInput)
	assert.ErrorIs(t, h.Handle(ctx, []byte(`{"ticker":"AAPL.US","end_date":"10/01/2024"}`)), models.ErrInvalidInput)
	assert.NoError(t, h.Handle(ctx, []byte(`{"ticker":"NOPE"}`)))
	assert.ErrorIs(t, h.Handle(ctx, []byte(`{"ticker":"AAPL.US","start_date":"2024-02-01","end_date":"2024-01-01"}`)), models.ErrNoDataAvailable)
	assert.Zero(t, sc.Len())
}
