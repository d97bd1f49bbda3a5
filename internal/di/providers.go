package di

import (
	"context"
	"fmt"
	"time"

	"VolPosture/internal/domain/repository"
	"VolPosture/internal/handler/api"
	internalrepo "VolPosture/internal/repository"
	"VolPosture/internal/rollingcache"
	icache "VolPosture/internal/service/cache"
	"VolPosture/internal/service/marketdata"
	"VolPosture/internal/service/providers"
	"VolPosture/internal/service/tasks"
	"VolPosture/internal/usecase"
	pkgch "VolPosture/pkg/clickhouse"
	"VolPosture/pkg/config"
	xhttp "VolPosture/pkg/http"
	pkgkafka "VolPosture/pkg/kafka"
	applogger "VolPosture/pkg/logger"
	"VolPosture/pkg/metrics"
	"VolPosture/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: "stdout",
	})
}

// ProvideClickHouseClient creates a ClickHouse client, or nil for
// memory storage.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Storage.Type != "clickhouse" {
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
	return client, nil
}

// ProvideRecordsRepository picks the storage backend and ensures the
// schema exists.
func ProvideRecordsRepository(chClient *pkgch.Client, cfg *config.Config) (repository.RecordsRepository, error) {
	var repo repository.RecordsRepository
	if chClient != nil {
		repo = internalrepo.NewClickHouseRecordsRepository(chClient)
	} else {
		repo = internalrepo.NewMemoryRecordsRepository()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := repo.Init(ctx); err != nil {
		return nil, fmt.Errorf("records repository init: %w", err)
	}
	return repo, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
// When a producer exists the logger starts shipping deduplicated error
// logs to <topic>.logs through it.
func ProvideKafkaProducer(cfg *config.Config, log *applogger.Logger) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	log.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   30 * time.Second,
		CountThreshold: 100,
		Topic:          cfg.Kafka.Topic + ".logs",
		Publisher:      producer,
	})
	return producer, nil
}

// ProvideResultPublisher wraps the producer, or nil when disabled.
func ProvideResultPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.ResultPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaResultPublisher(producer, cfg.Kafka.Topic)
}

// ProvideBytesCache picks the cache backend for provider quotes.
func ProvideBytesCache(cfg *config.Config) icache.BytesCache {
	if cfg.Cache.Backend == "redis" {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
	}
	return icache.NewTTLCache()
}

// ProvideVIXProvider creates the VIX quote service.
func ProvideVIXProvider(cfg *config.Config, c icache.BytesCache, log *applogger.Logger) repository.VIXProvider {
	return marketdata.NewVIXService(cfg.MarketData, c, log)
}

// ProvideFetcher creates the bulk supplement fetcher.
func ProvideFetcher(cfg *config.Config, log *applogger.Logger) *providers.Fetcher {
	return providers.NewFetcher(cfg.Providers, log)
}

// ProvideIVTermsProvider exposes the fetcher as an IV-terms source.
func ProvideIVTermsProvider(f *providers.Fetcher) repository.IVTermsProvider { return f }

// ProvideDeltaOIProvider exposes the fetcher as a delta-OI source.
func ProvideDeltaOIProvider(f *providers.Fetcher) repository.DeltaOIProvider { return f }

// ProvideRollingCache opens the rolling-window file cache.
func ProvideRollingCache(cfg *config.Config, log *applogger.Logger) (*rollingcache.Cache, error) {
	return rollingcache.New(cfg.RollingCache.Path,
		cfg.RollingCache.SymbolWindow, cfg.RollingCache.VIXWindow, log)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideTaskManager creates the background task registry.
func ProvideTaskManager(log *applogger.Logger) *tasks.Manager {
	return tasks.NewManager(log)
}

// ProvideAnalyzer creates the scoring pipeline orchestrator.
func ProvideAnalyzer(
	cfg *config.Config,
	cache *rollingcache.Cache,
	repo repository.RecordsRepository,
	publisher repository.ResultPublisher,
	vix repository.VIXProvider,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.Analyzer {
	return usecase.NewAnalyzer(&cfg.Scoring, cache, repo, publisher, vix, m, log)
}

// ProvideRecordsUseCase creates the read-side usecase.
func ProvideRecordsUseCase(repo repository.RecordsRepository) *usecase.RecordsUseCase {
	return usecase.NewRecordsUseCase(repo)
}

// ProvideHandler creates the HTTP handler.
func ProvideHandler(
	log *applogger.Logger,
	analyzer *usecase.Analyzer,
	records *usecase.RecordsUseCase,
	taskMgr *tasks.Manager,
	repo repository.RecordsRepository,
	ivTerms repository.IVTermsProvider,
	deltaOI repository.DeltaOIProvider,
) xhttp.Handler {
	return api.NewPostureHandler(log, analyzer, records, taskMgr, repo, ivTerms, deltaOI)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	repo repository.RecordsRepository,
	publisher repository.ResultPublisher,
	chClient *pkgch.Client,
	rolling *rollingcache.Cache,
) *server.App {
	return server.New(cfg, log, handler, repo, publisher, chClient, rolling)
}
