package di

import (
	"context"
	"fmt"
	"time"

	"NSEScan/internal/domain/repository"
	"NSEScan/internal/handler/api"
	internalrepo "NSEScan/internal/repository"
	"NSEScan/internal/service/ratelimit"
	"NSEScan/internal/service/yahoo"
	"NSEScan/internal/services/quality"
	"NSEScan/internal/usecase"
	"NSEScan/pkg/cache"
	pkgch "NSEScan/pkg/clickhouse"
	"NSEScan/pkg/config"
	xhttp "NSEScan/pkg/http"
	"NSEScan/pkg/http/middleware"
	pkgkafka "NSEScan/pkg/kafka"
	applogger "NSEScan/pkg/logger"
	"NSEScan/pkg/metrics"
	"NSEScan/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}
	}
	return metrics.New(nil)
}

// ProvideRedisCache connects to Redis when enabled. A nil cache means Redis is off.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rc, nil
}

// ProvideScanCache layers memory over Redis, or uses memory alone.
func ProvideScanCache(cfg *config.Config, rc *cache.RedisCache) cache.Service {
	if rc == nil {
		return cache.NewMemoryCache(cache.WithMemoryDefaultTTL(cfg.Scan.CacheTTL))
	}
	return cache.NewLayeredCache(rc, cache.WithLayeredMemoryTTL(cfg.Scan.CacheTTL))
}

// ProvideSignalStore builds the store chain: Redis falls back to SQLite, or
// SQLite falls back to memory when Redis is off.
func ProvideSignalStore(cfg *config.Config, rc *cache.RedisCache, m repository.Metrics, l *applogger.Logger) (repository.SignalStore, error) {
	file, err := internalrepo.OpenSQLiteSignalStore(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: %w", err)
	}
	if rc == nil {
		l.Info("signal store: sqlite with in-memory fallback", applogger.String("path", cfg.SQLite.Path))
		return internalrepo.NewFallbackSignalStore(file, internalrepo.NewMemorySignalStore(), m, l), nil
	}
	l.Info("signal store: redis with sqlite fallback", applogger.String("path", cfg.SQLite.Path))
	primary := internalrepo.NewRedisSignalStore(rc.Client(), rc.Prefix(), l)
	return internalrepo.NewFallbackSignalStore(primary, file, m, l), nil
}

// ProvideClickHouseClient connects to ClickHouse and creates the candle schema when enabled.
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
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.CandleArchiveSchema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideCandleArchive returns nil when ClickHouse is off.
func ProvideCandleArchive(ch *pkgch.Client, l *applogger.Logger) repository.CandleArchive {
	if ch == nil {
		return nil
	}
	return internalrepo.NewCHCandleArchive(ch.DB(), ch.Database(), l)
}

// ProvideKafkaProducer creates a Kafka producer when enabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAutoCreateTopics(cfg.Kafka.Producer.AutoCreateTopics),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideEventPublisher publishes to Kafka, or drops events when Kafka is off.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.EventPublisher {
	if producer == nil {
		return internalrepo.NoopEventPublisher{}
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.SnapshotTopic, cfg.Kafka.BacktestTopic)
}

// ProvideMarketData creates the Yahoo Finance adapter.
func ProvideMarketData(cfg *config.Config) repository.MarketData {
	client := xhttp.NewClient(
		xhttp.WithTimeout(cfg.MarketData.Timeout),
		xhttp.WithUserAgent(cfg.MarketData.UserAgent),
	)
	return yahoo.New(client,
		yahoo.WithBaseURLs(cfg.MarketData.ChartURL, cfg.MarketData.QuoteURL, cfg.MarketData.SummaryURL),
		yahoo.WithExchangeSuffix(cfg.MarketData.ExchangeSuffix),
	)
}

// ProvideScanner creates the scan use case.
func ProvideScanner(
	cfg *config.Config,
	md repository.MarketData,
	store repository.SignalStore,
	pub repository.EventPublisher,
	c cache.Service,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Scanner {
	threshold := quality.DefaultThreshold
	threshold.Min = cfg.Quality.ThresholdMin
	threshold.Max = cfg.Quality.ThresholdMax
	threshold.Empty = cfg.Quality.DefaultThreshold

	return usecase.NewScanner(md, store, pub, c, m, l, usecase.ScannerConfig{
		Workers:         cfg.Scan.Workers,
		Universe:        cfg.Scan.Symbols,
		CacheTTL:        cfg.Scan.CacheTTL,
		CandleRange:     cfg.Scan.CandleRange,
		MinPeriods:      cfg.Scan.MinPeriods,
		IntradayCostBps: cfg.Costs.IntradayBps,
		SwingCostBps:    cfg.Costs.SwingBps,
		MinNetRR:        cfg.Quality.MinNetRR,
		Threshold:       threshold,
	})
}

// ProvideBacktestRunner creates the backtest use case.
func ProvideBacktestRunner(
	cfg *config.Config,
	md repository.MarketData,
	archive repository.CandleArchive,
	store repository.SignalStore,
	pub repository.EventPublisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.BacktestRunner {
	return usecase.NewBacktestRunner(md, archive, store, pub, m, l, usecase.BacktestConfig{
		CostBps:      cfg.Backtest.CostBps,
		Workers:      cfg.Backtest.Workers,
		Intervals:    repository.NormalizeIntervals(cfg.Backtest.Intervals),
		SessionStart: cfg.Backtest.SessionStart,
		SessionEnd:   cfg.Backtest.SessionEnd,
	})
}

// ProvideRateLimiter creates the per-client token bucket limiter.
func ProvideRateLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideScreenerHandler creates the HTTP handler.
func ProvideScreenerHandler(
	cfg *config.Config,
	l *applogger.Logger,
	scanner *usecase.Scanner,
	runner *usecase.BacktestRunner,
	store repository.SignalStore,
	limiter *ratelimit.Limiter,
) *api.ScreenerHandler {
	return api.NewScreenerHandler(l, scanner, runner, store, limiter, middleware.RateLimitConfig{
		Capacity:     cfg.Server.RateLimit.Capacity,
		RefillPerSec: cfg.Server.RateLimit.RefillPerSec,
	})
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler *api.ScreenerHandler,
	limiter *ratelimit.Limiter,
	store repository.SignalStore,
	pub repository.EventPublisher,
	c cache.Service,
	ch *pkgch.Client,
) *server.App {
	resources := []server.Resource{
		{Name: "scan cache", Closer: c},
		{Name: "signal store", Closer: store},
		{Name: "event publisher", Closer: pub},
	}
	if ch != nil {
		resources = append(resources, server.Resource{Name: "clickhouse", Closer: ch})
	}
	return server.New(cfg, l, []xhttp.Handler{handler}, limiter, resources...)
}
