package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinCast/internal/domain/models"
	"FinCast/internal/services/analytics"
	"FinCast/internal/services/forecasters"
	"FinCast/internal/usecase"
	"FinCast/pkg/config"
	"FinCast/pkg/logger"
)

func TestProvideForecasters_LocalBackend(t *testing.T) {
	cfg := config.Default()
	fcs := ProvideForecasters(cfg, usecase.DefaultProfiles())

	require.Len(t, fcs, 3)
	assert.IsType(t, &forecasters.Persistence{}, fcs[models.KindLSTM])
	assert.IsType(t, &forecasters.LinearTrend{}, fcs[models.KindTransformer])
	assert.IsType(t, &forecasters.LinearTrend{}, fcs[models.KindProphet])
}

func TestProvideForecasters_RemoteBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Forecast.Backend = "remote"
	cfg.Analytics.PythonServiceURL = "http://127.0.0.1:1"

	fcs := ProvideForecasters(cfg, usecase.DefaultProfiles())
	for kind, f := range fcs {
		assert.IsType(t, &analytics.RemoteForecaster{}, f)
		assert.Equal(t, "remote-"+string(kind), f.Name())
	}
}

func TestDisabledInfrastructureIsNil(t *testing.T) {
	cfg := config.Default()
	l := logger.NewNop()

	rc, err := ProvideRedisCache(cfg)
	require.NoError(t, err)
	assert.Nil(t, rc)

	ch, err := ProvideClickHouseClient(cfg)
	require.NoError(t, err)
	assert.Nil(t, ch)
	assert.Nil(t, ProvideCandleArchive(ch, cfg, l))

	p, err := ProvideKafkaProducer(cfg)
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Nil(t, ProvideEventPublisher(p, cfg, l))

	c, err := ProvideKafkaConsumer(cfg, l)
	require.NoError(t, err)
	assert.Nil(t, c)

	assert.Nil(t, ProvideRateLimiter(cfg))
}

func TestProvideProviderChain_ArchiveNeedsClickHouse(t *testing.T) {
	cfg := config.Default()
	cfg.Providers.Order = []string{"archive", "stooq"}

	_, err := ProvideProviderChain(cfg, ProvideHTTPClient(cfg), nil)
	assert.Error(t, err)

	cfg.Providers.Order = []string{"yahoo", "stooq"}
	chain, err := ProvideProviderChain(cfg, ProvideHTTPClient(cfg), nil)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, "yahoo", chain[0].Name())
}

func TestProvideHandlers_WithAndWithoutLimiter(t *testing.T) {
	cfg := config.Default()
	l := logger.NewNop()
	hs := ProvideHandlers(l, ProvideSymbolCatalog(cfg), nil, ProvideStatsAnalyzer(l), nil, nil)
	assert.Len(t, hs, 2)

	cfg.Server.RateLimit.Enabled = true
	hs = ProvideHandlers(l, ProvideSymbolCatalog(cfg), nil, ProvideStatsAnalyzer(l), nil, ProvideRateLimiter(cfg))
	assert.Len(t, hs, 2)
}
