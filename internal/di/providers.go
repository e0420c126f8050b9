package di

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"

	"FinCast/internal/domain/models"
	"FinCast/internal/domain/repository"
	domsvc "FinCast/internal/domain/service"
	"FinCast/internal/handler/api"
	internalrepo "FinCast/internal/repository"
	icache "FinCast/internal/service/cache"
	svcmetrics "FinCast/internal/service/metrics"
	"FinCast/internal/service/ratelimit"
	"FinCast/internal/services/analytics"
	"FinCast/internal/services/dates"
	"FinCast/internal/services/forecasters"
	"FinCast/internal/services/providers"
	"FinCast/internal/services/stats"
	"FinCast/internal/usecase"
	pkgcache "FinCast/pkg/cache"
	pkgch "FinCast/pkg/clickhouse"
	"FinCast/pkg/config"
	xhttp "FinCast/pkg/http"
	pkgkafka "FinCast/pkg/kafka"
	"FinCast/pkg/logger"
	"FinCast/pkg/metrics"
	"FinCast/pkg/server"
	"FinCast/pkg/tracing"
)

// ProvideLogger creates the application logger and installs tracing.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
	}); err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder on the default registry.
func ProvideMetrics() repository.Metrics {
	return metrics.New(nil)
}

// ProvideRedisCache connects the shared second level cache. It returns nil
// when redis is disabled.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	if !cfg.Cache.Redis.Enabled {
		return nil, nil
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisAddr(cfg.Cache.Redis.Addr),
		pkgcache.WithRedisAuth(cfg.Cache.Redis.Password, cfg.Cache.Redis.DB),
		pkgcache.WithRedisPoolSize(cfg.Cache.Redis.PoolSize),
		pkgcache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideSourceCache creates the dataset cache, layered over redis when available.
func ProvideSourceCache(cfg *config.Config, rc *pkgcache.RedisCache, m repository.Metrics, l *logger.Logger) *icache.SourceCache {
	opts := []icache.Option{icache.WithLogger(l), icache.WithMetrics(m)}
	if rc != nil {
		opts = append(opts,
			icache.WithStore(pkgcache.NewLayeredCache(rc, cfg.Cache.MaxEntries)),
			icache.WithTTL(cfg.Cache.Redis.TTL),
		)
	}
	return icache.New(cfg.Cache.MaxEntries, opts...)
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the candle
// schema. It returns nil when clickhouse is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.CandleSchema(cfg.ClickHouse.Database, cfg.ClickHouse.Table)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideCandleArchive returns the ClickHouse archive, or nil without a client.
func ProvideCandleArchive(ch *pkgch.Client, cfg *config.Config, l *logger.Logger) repository.CandleArchive {
	if ch == nil {
		return nil
	}
	return internalrepo.NewCHCandleArchive(ch, cfg.ClickHouse.Table, l)
}

// ProvideKafkaProducer creates a Kafka producer. It returns nil when kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatch(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideEventPublisher publishes dataset and forecast events, and ships the
// aggregated error log when a collector topic is configured.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config, l *logger.Logger) repository.EventPublisher {
	if producer == nil {
		return nil
	}
	pub := internalrepo.NewKafkaEventPublisher(producer, internalrepo.Topics{
		Datasets:  cfg.Kafka.Topics.Datasets,
		Forecasts: cfg.Kafka.Topics.Forecasts,
	})
	if cfg.Logging.CollectorTopic != "" {
		l.AddCollector(&logger.CollectionConfig{
			TimeInterval:   cfg.Logging.CollectorInterval,
			CountThreshold: cfg.Logging.CollectorThreshold,
			Topic:          cfg.Logging.CollectorTopic,
			Publisher:      pub,
		})
	}
	return pub
}

// ProvideHTTPClient creates the outbound client shared by the market data providers.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(
		xhttp.WithTimeout(cfg.Providers.Timeout),
		xhttp.WithUserAgent(cfg.Providers.UserAgent),
	)
}

// ProvideProviderChain builds the ordered upstream providers.
func ProvideProviderChain(cfg *config.Config, client *xhttp.Client, archive repository.CandleArchive) ([]repository.MarketDataProvider, error) {
	return providers.Chain(cfg.Providers.Order, providers.Options{
		Client:   client,
		StooqURL: cfg.Providers.Stooq.BaseURL,
		YahooURL: cfg.Providers.Yahoo.BaseURL,
		Archive:  archive,
	})
}

func ProvideCascade(
	chain []repository.MarketDataProvider,
	sc *icache.SourceCache,
	archive repository.CandleArchive,
	events repository.EventPublisher,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.Cascade {
	opts := []usecase.CascadeOption{
		usecase.WithCascadeMetrics(m),
		usecase.WithCascadeLogger(l),
	}
	if archive != nil {
		opts = append(opts, usecase.WithArchive(archive))
	}
	if events != nil {
		opts = append(opts, usecase.WithEvents(events))
	}
	mat := usecase.NewMaterializer(dates.New(dates.WithLogger(l)))
	return usecase.NewCascade(chain, providers.NewSynthetic(), sc, mat, opts...)
}

// ProvideProfiles merges configured overrides onto the default model profiles.
func ProvideProfiles(cfg *config.Config) (map[models.ModelKind]usecase.Profile, error) {
	return usecase.ProfilesFromConfig(cfg.Forecast.Profiles)
}

// ProvideForecasters picks the forecasting backend for every model kind.
func ProvideForecasters(cfg *config.Config, profiles map[models.ModelKind]usecase.Profile) map[models.ModelKind]domsvc.Forecaster {
	out := make(map[models.ModelKind]domsvc.Forecaster, len(profiles))
	if cfg.Forecast.Backend == "remote" {
		svcmetrics.Register()
		for kind := range profiles {
			out[kind] = analytics.NewRemoteForecaster(cfg, kind)
		}
		return out
	}
	for kind, p := range profiles {
		switch {
		case kind == models.KindLSTM:
			out[kind] = forecasters.NewPersistence()
		case p.Calendar:
			// Feature 1 is the weekday column added by the calendar features.
			out[kind] = forecasters.NewLinearTrend(1)
		default:
			out[kind] = forecasters.NewLinearTrend(-1)
		}
	}
	return out
}

func ProvideRunner(
	profiles map[models.ModelKind]usecase.Profile,
	fcs map[models.ModelKind]domsvc.Forecaster,
	events repository.EventPublisher,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.Runner {
	opts := []usecase.RunnerOption{
		usecase.WithRunnerMetrics(m),
		usecase.WithRunnerLogger(l),
	}
	if events != nil {
		opts = append(opts, usecase.WithRunnerEvents(events))
	}
	return usecase.NewRunner(profiles, fcs, opts...)
}

func ProvideSymbolCatalog(cfg *config.Config) *usecase.SymbolCatalog {
	return usecase.NewSymbolCatalog(cfg.Symbols)
}

func ProvideStatsAnalyzer(l *logger.Logger) domsvc.StatsAnalyzer {
	return stats.NewAnalyzer(l)
}

// ProvideRateLimiter returns the forecast rate limiter, or nil when disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.Server.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillPerSec)
}

// ProvideHandlers builds the HTTP route groups.
func ProvideHandlers(
	l *logger.Logger,
	symbols *usecase.SymbolCatalog,
	cascade *usecase.Cascade,
	analyzer domsvc.StatsAnalyzer,
	runner *usecase.Runner,
	limiter *ratelimit.Limiter,
) []xhttp.Handler {
	var limit echo.MiddlewareFunc
	if limiter != nil {
		limit = limiter.Middleware()
	}
	return []xhttp.Handler{
		api.NewMarketHandler(l, symbols, cascade, analyzer),
		api.NewForecastHandler(l, cascade, runner, limit),
	}
}

func ProvideHTTPServer(cfg *config.Config, handlers []xhttp.Handler, l *logger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(handlers,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(l),
	)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML. It
// returns nil when kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *logger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	opts := []pkgkafka.ConsumerOption{
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	}
	if cfg.Kafka.Consumer.RetryMax > 0 {
		opts = append(opts, pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax))
	}
	consumer, err := pkgkafka.NewConsumer(opts...)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.CorrelationHook())
	return consumer, nil
}

// ProvidePrefetchHandler handles warm-up requests from the prefetch topic.
func ProvidePrefetchHandler(
	cfg *config.Config,
	cascade *usecase.Cascade,
	symbols *usecase.SymbolCatalog,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.PrefetchHandler {
	return usecase.NewPrefetchHandler(cfg.Kafka.Topics.Prefetch, cascade, symbols, m, l)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	prefetch *usecase.PrefetchHandler,
	producer *pkgkafka.Producer,
	ch *pkgch.Client,
	sc *icache.SourceCache,
	limiter *ratelimit.Limiter,
) *server.App {
	return server.New(cfg, l, server.Components{
		HTTP:       srv,
		Consumer:   consumer,
		Handlers:   []pkgkafka.MessageHandler{prefetch},
		Producer:   producer,
		ClickHouse: ch,
		Cache:      sc,
		Limiter:    limiter,
	})
}

// Toolkit is the subset of the application the command line tools drive
// without starting the HTTP server or the consumer.
type Toolkit struct {
	Log     *logger.Logger
	Cascade *usecase.Cascade
	Runner  *usecase.Runner
	Symbols *usecase.SymbolCatalog
	Stats   domsvc.StatsAnalyzer

	producer *pkgkafka.Producer
	ch       *pkgch.Client
	cache    *icache.SourceCache
}

func ProvideToolkit(
	l *logger.Logger,
	cascade *usecase.Cascade,
	runner *usecase.Runner,
	symbols *usecase.SymbolCatalog,
	analyzer domsvc.StatsAnalyzer,
	producer *pkgkafka.Producer,
	ch *pkgch.Client,
	sc *icache.SourceCache,
) *Toolkit {
	return &Toolkit{
		Log:      l,
		Cascade:  cascade,
		Runner:   runner,
		Symbols:  symbols,
		Stats:    analyzer,
		producer: producer,
		ch:       ch,
		cache:    sc,
	}
}

// Close flushes pending events and releases connections.
func (t *Toolkit) Close() {
	t.Log.RemoveCollector()
	if t.producer != nil {
		_ = t.producer.Close()
	}
	if t.ch != nil {
		_ = t.ch.Close()
	}
	if t.cache != nil {
		_ = t.cache.Close()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = tracing.Shutdown(ctx)
}
