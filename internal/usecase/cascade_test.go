package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
	"FinCast/internal/service/cache"
	"FinCast/internal/services/dates"
	"FinCast/internal/services/providers"
)

var (
	day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	day9 = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
)

type stubProvider struct {
	name  string
	src   models.Source
	calls atomic.Int32
	delay time.Duration
	fetch func(symbol string, start, end time.Time) (*models.RawTable, error)
}

func (s *stubProvider) Name() string          { return s.name }
func (s *stubProvider) Source() models.Source { return s.src }
func (s *stubProvider) Label() string         { return s.name }
func (s *stubProvider) Fetch(_ context.Context, symbol string, start, end time.Time) (*models.RawTable, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.fetch(symbol, start, end)
}

func down(name string) *stubProvider {
	return &stubProvider{name: name, src: models.SourcePrimary, fetch: func(string, time.Time, time.Time) (*models.RawTable, error) {
		return nil, models.Unavailable(name, errors.New("connection refused"))
	}}
}

func closesOnly(name string, src models.Source) *stubProvider {
	return &stubProvider{name: name, src: src, fetch: func(_ string, start, end time.Time) (*models.RawTable, error) {
		rows := []map[string]any{
			{"Date": "2024-01-03", "Close": "12.5"},
			{"Date": "2024-01-02", "Close": 12.0},
			{"Date": "bogus", "Close": 11.0},
		}
		return &models.RawTable{Columns: []string{"Date", "Close"}, Rows: rows}, nil
	}}
}

func newTestCascade(chain ...domrepo.MarketDataProvider) (*Cascade, *cache.SourceCache) {
	sc := cache.New(32)
	norm := dates.New(dates.WithClock(func() time.Time { return day9 }))
	return NewCascade(chain, providers.NewSynthetic(), sc, NewMaterializer(norm)), sc
}

func requireComplete(t *testing.T, ds *models.Dataset) {
	t.Helper()
	require.NotNil(t, ds)
	require.Positive(t, ds.Len())
	for _, col := range models.RequiredColumns {
		assert.True(t, ds.HasColumn(col), "missing %s", col)
	}
	for i := 1; i < ds.Len(); i++ {
		assert.False(t, ds.Candles[i].Date.Before(ds.Candles[i-1].Date))
	}
}

func TestCascade_AllUpstreamDownFallsBackToSynthetic(t *testing.T) {
	c, _ := newTestCascade(down("stooq"), down("yahoo"))
	defer c.cache.Close()

	ds, err := c.Fetch(context.Background(), "NOPE.US", day0, day9)
	require.NoError(t, err)
	requireComplete(t, ds)
	assert.Equal(t, models.SourceSynthetic, ds.Source)
	assert.Equal(t, "Demo Data (Offline Mode)", ds.Label)
	assert.Equal(t, 10, ds.Len())
}

func TestCascade_TotalForAnySymbol(t *testing.T) {
	c, _ := newTestCascade(down("stooq"))
	defer c.cache.Close()

	for _, sym := range []string{"A", "AAPL.US", "weird/../symbol", "ünïcode"} {
		ds, err := c.Fetch(context.Background(), sym, day0, day0)
		require.NoError(t, err, sym)
		requireComplete(t, ds)
	}
}

func TestCascade_SecondStageCompletesMissingColumns(t *testing.T) {
	primary := down("stooq")
	secondary := closesOnly("yahoo", models.SourceSecondary)
	c, _ := newTestCascade(primary, secondary)
	defer c.cache.Close()

	ds, err := c.Fetch(context.Background(), "MSFT.US", day0, day9)
	require.NoError(t, err)
	requireComplete(t, ds)
	assert.Equal(t, models.SourceSecondary, ds.Source)
	require.Equal(t, 3, ds.Len())
	for _, cd := range ds.Candles {
		assert.InDelta(t, cd.Close, cd.Open, cd.Close*0.021)
		assert.GreaterOrEqual(t, cd.High, cd.Close)
		assert.LessOrEqual(t, cd.Low, cd.Close)
	}
}

func TestCascade_SequentialCallsServedFromCache(t *testing.T) {
	p := closesOnly("stooq", models.SourcePrimary)
	c, _ := newTestCascade(p)
	defer c.cache.Close()
	ctx := context.Background()

	a, err := c.Fetch(ctx, "AAPL.US", day0, day9)
	require.NoError(t, err)
	b, err := c.Fetch(ctx, "AAPL.US", day0, day9)
	require.NoError(t, err)

	assert.Equal(t, int32(1), p.calls.Load())
	assert.Equal(t, a, b, "completion is deterministic across cache hits")
}

func TestCascade_SyntheticDeterministic(t *testing.T) {
	c1, _ := newTestCascade(down("stooq"))
	defer c1.cache.Close()
	c2, _ := newTestCascade(down("stooq"))
	defer c2.cache.Close()

	a, err := c1.Fetch(context.Background(), "ZZZ", day0, day9)
	require.NoError(t, err)
	b, err := c2.Fetch(context.Background(), "ZZZ", day0, day9)
	require.NoError(t, err)
	assert.Equal(t, a.Candles, b.Candles)
}

func TestCascade_ConcurrentMissesCollapse(t *testing.T) {
	p := closesOnly("stooq", models.SourcePrimary)
	p.delay = 50 * time.Millisecond
	c, _ := newTestCascade(p)
	defer c.cache.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Fetch(context.Background(), "AAPL.US", day0, day9)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), p.calls.Load())
}

// gatedProvider blocks until released and honours ctx like the HTTP providers.
type gatedProvider struct {
	stubProvider
	started chan struct{}
	release chan struct{}
}

func (g *gatedProvider) Fetch(ctx context.Context, symbol string, start, end time.Time) (*models.RawTable, error) {
	if g.calls.Add(1) == 1 {
		close(g.started)
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-g.release:
	}
	return g.fetch(symbol, start, end)
}

func TestCascade_CancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	p := &gatedProvider{
		stubProvider: stubProvider{name: "stooq", src: models.SourcePrimary, fetch: closesOnly("stooq", models.SourcePrimary).fetch},
		started:      make(chan struct{}),
		release:      make(chan struct{}),
	}
	c, _ := newTestCascade(p)
	defer c.cache.Close()

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.Fetch(ctxA, "AAPL.US", day0, day9)
		errA <- err
	}()
	<-p.started

	type result struct {
		ds  *models.Dataset
		err error
	}
	resB := make(chan result, 1)
	go func() {
		ds, err := c.Fetch(context.Background(), "AAPL.US", day0, day9)
		resB <- result{ds, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(p.release)
	select {
	case r := <-resB:
		require.NoError(t, r.err)
		assert.Equal(t, models.SourcePrimary, r.ds.Source)
	case <-time.After(2 * time.Second):
		t.Fatal("waiting caller did not return")
	}
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestCascade_EmptyRangeIsNoData(t *testing.T) {
	c, _ := newTestCascade(down("stooq"))
	defer c.cache.Close()

	_, err := c.Fetch(context.Background(), "AAPL.US", day9, day0)
	assert.ErrorIs(t, err, models.ErrNoDataAvailable)
}

func TestCascade_UnexpectedErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	bad := &stubProvider{name: "stooq", fetch: func(string, time.Time, time.Time) (*models.RawTable, error) { return nil, boom }}
	c, _ := newTestCascade(bad)
	defer c.cache.Close()

	_, err := c.Fetch(context.Background(), "AAPL.US", day0, day9)
	assert.ErrorIs(t, err, boom)
}

func TestCascade_EmptySymbolIsInvalid(t *testing.T) {
	c, _ := newTestCascade()
	defer c.cache.Close()

	_, err := c.Fetch(context.Background(), "  ", day0, day9)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

type recordingArchive struct {
	mu    sync.Mutex
	saved []*models.Dataset
}

func (r *recordingArchive) Save(_ context.Context, ds *models.Dataset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, ds)
	return nil
}
func (r *recordingArchive) Load(context.Context, string, time.Time, time.Time) ([]models.Candle, error) {
	return nil, nil
}
func (r *recordingArchive) Health(context.Context) error { return nil }

func TestCascade_ArchivesOnlyFreshUpstreamData(t *testing.T) {
	arch := &recordingArchive{}
	sc := cache.New(8)
	defer sc.Close()
	norm := dates.New(dates.WithClock(func() time.Time { return day9 }))
	c := NewCascade([]domrepo.MarketDataProvider{closesOnly("stooq", models.SourcePrimary)}, providers.NewSynthetic(), sc, NewMaterializer(norm), WithArchive(arch))

	_, err := c.Fetch(context.Background(), "AAPL.US", day0, day9)
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), "AAPL.US", day0, day9)
	require.NoError(t, err)

	c2 := NewCascade(nil, providers.NewSynthetic(), sc, NewMaterializer(norm), WithArchive(arch))
	_, err = c2.Fetch(context.Background(), "SYN", day0, day9)
	require.NoError(t, err)

	assert.Len(t, arch.saved, 1)
}

func TestCascade_FromRecordsWithoutDates(t *testing.T) {
	c, _ := newTestCascade()
	defer c.cache.Close()

	ds, err := c.FromRecords("", []map[string]any{{"Close": 1.0}, {"Close": "2"}, {"Close": nil}})
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())
	closes, ok := ds.Column("Close")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2, 2}, closes)
	assert.Equal(t, day9, ds.Candles[2].Date)
	assert.False(t, ds.HasColumn("Open"))

	_, err = c.FromRecords("", nil)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}
