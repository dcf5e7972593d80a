package di

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	drepo "TradeForge/internal/domain/repository"
	"TradeForge/internal/handler/api"
	"TradeForge/internal/repository"
	"TradeForge/internal/service/ratelimit"
	"TradeForge/internal/usecase"
	pkgcache "TradeForge/pkg/cache"
	pkgch "TradeForge/pkg/clickhouse"
	"TradeForge/pkg/config"
	xhttp "TradeForge/pkg/http"
	pkgkafka "TradeForge/pkg/kafka"
	applogger "TradeForge/pkg/logger"
	"TradeForge/pkg/metrics"
	"TradeForge/pkg/server"
	pkgsqlite "TradeForge/pkg/sqlite"
	"TradeForge/pkg/util"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ProvideRegistry creates the process metrics registry.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates the pipeline recorder, or a no-op when metrics
// are disabled.
func ProvideMetrics(cfg *config.Config, reg *prometheus.Registry) drepo.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}
	}
	return metrics.New(reg)
}

// ProvideKafkaProducer creates the shared producer. It returns nil when
// Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithBatchTimeout(cfg.Kafka.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.WriteTimeout),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithAutoCreateTopics(true),
		pkgkafka.WithRegisterer(reg),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideLogger builds the application logger. Error logs are
// aggregated onto the log topic when a producer is available.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, func(), error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: cfg.Log.TimeFormat,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	l = l.With(applogger.String("env", cfg.Environment))
	if producer != nil {
		l.EnableDigest(applogger.DigestConfig{
			Topic:     cfg.Kafka.LogTopic,
			Publisher: producer,
		})
	}
	return l, l.CloseDigest, nil
}

// ProvideEventPublisher publishes market events to Kafka, or drops them
// when Kafka is disabled.
func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer) drepo.EventPublisher {
	if producer == nil {
		return repository.NopPublisher{}
	}
	return repository.NewKafkaEventPublisher(producer, cfg.Kafka.EventsTopic)
}

// ProvideStore opens the configured market store.
func ProvideStore(ctx context.Context, cfg *config.Config, l *applogger.Logger) (drepo.Store, func(), error) {
	if cfg.Store.Driver != config.DriverSQLite {
		s := repository.NewMemoryStore()
		return s, func() { _ = s.Close() }, nil
	}

	client, err := pkgsqlite.NewClient(
		pkgsqlite.WithPath(cfg.Store.DSN),
		pkgsqlite.WithBusyTimeout(cfg.Store.BusyTimeout),
		pkgsqlite.WithForeignKeys(true),
		pkgsqlite.WithWAL(cfg.Store.WAL),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite client: %w", err)
	}
	store, err := repository.NewSQLiteStore(ctx, client, l)
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("sqlite store: %w", err)
	}
	l.Info("sqlite store ready", applogger.String("path", client.Path()))
	return store, func() { _ = client.Close() }, nil
}

// ProvideTradeJournal opens the ClickHouse journal, or an in-process one
// when ClickHouse is disabled.
func ProvideTradeJournal(ctx context.Context, cfg *config.Config, l *applogger.Logger) (drepo.TradeJournal, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return repository.NewMemoryJournal(), func() {}, nil
	}

	client, err := pkgch.NewClient(ctx,
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithTransport(cfg.ClickHouse.UseHTTP, cfg.ClickHouse.Compress),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	if err := client.Migrate(ctx, repository.TradeSchema(client.Database(), cfg.ClickHouse.Table)); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	journal := repository.NewClickHouseJournal(client, client.Table(cfg.ClickHouse.Table), l)
	return journal, func() { _ = client.Close() }, nil
}

// ProvideCache creates the Redis backed layered cache, or an in-process
// cache when Redis is disabled.
func ProvideCache(ctx context.Context, cfg *config.Config) (pkgcache.Service, func(), error) {
	if !cfg.Redis.Enabled {
		c := pkgcache.NewMemoryCache()
		return c, func() { _ = c.Close() }, nil
	}

	rc, err := pkgcache.NewRedisCache(ctx,
		pkgcache.WithRedisAddr(cfg.Redis.Addr),
		pkgcache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	c := pkgcache.NewLayeredCache(rc, pkgcache.WithLayeredLocalTTL(cfg.Redis.MemoryTTL))
	return c, func() { _ = c.Close() }, nil
}

// ProvideLocker serializes onboarding batches through the cache.
func ProvideLocker(c pkgcache.Service) drepo.Locker {
	return c
}

// ProvideReportCache stores rendered reports in the cache.
func ProvideReportCache(c pkgcache.Service) drepo.ReportCache {
	return c
}

// ProvideRNG seeds the shared generator and logs the seed so a run can
// be reproduced.
func ProvideRNG(cfg *config.Config, l *applogger.Logger) *rand.Rand {
	rng, seed := util.NewSeededRNG(cfg.Onboarding.Seed)
	l.Info("random generator seeded", applogger.Int64("seed", seed))
	return rng
}

func ProvideSectorSource(cfg *config.Config) drepo.SectorSource {
	return repository.NewFileSectorSource(cfg.Sectors.Path)
}

func ProvideSectorRegistry(
	store drepo.Store,
	source drepo.SectorSource,
	pub drepo.EventPublisher,
	m drepo.Metrics,
	l *applogger.Logger,
) *usecase.SectorRegistry {
	return usecase.NewSectorRegistry(store, source, pub, m, l)
}

func ProvideAssembler(
	store drepo.Store,
	pub drepo.EventPublisher,
	m drepo.Metrics,
	l *applogger.Logger,
	rng *rand.Rand,
) *usecase.Assembler {
	return usecase.NewAssembler(store, pub, m, l, rng)
}

func ProvidePipeline(
	cfg *config.Config,
	registry *usecase.SectorRegistry,
	asm *usecase.Assembler,
	store drepo.Store,
	locker drepo.Locker,
	l *applogger.Logger,
) *usecase.Pipeline {
	return usecase.NewPipeline(registry, asm, store, locker, cfg.Onboarding.LockKey, cfg.Onboarding.LockTTL, l)
}

func ProvideGenerator(cfg *config.Config, rng *rand.Rand) *usecase.MarketGenerator {
	return usecase.NewMarketGenerator(usecase.GeneratorConfig{
		Mode:           cfg.Onboarding.Mode,
		Count:          cfg.Onboarding.Count,
		NamePrefix:     cfg.Onboarding.NamePrefix,
		Suffix:         cfg.Onboarding.Suffix,
		InitialBalance: cfg.InitialBalance(),
		Bonus:          cfg.Bonus(),
	}, rng)
}

func ProvideMarketReport(cfg *config.Config, store drepo.Store, c drepo.ReportCache, l *applogger.Logger) *usecase.MarketReport {
	return usecase.NewMarketReport(store, c, cfg.Redis.ReportTTL, l)
}

func ProvideTradeLog(journal drepo.TradeJournal, m drepo.Metrics, l *applogger.Logger) *usecase.TradeLog {
	return usecase.NewTradeLog(journal, m, l)
}

// ProvideTradeConsumer ingests trades from Kafka into the trade log. It
// returns nil unless Kafka is enabled and a trades topic is set.
func ProvideTradeConsumer(
	cfg *config.Config,
	l *applogger.Logger,
	reg *prometheus.Registry,
	trades *usecase.TradeLog,
	m drepo.Metrics,
) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.TradesTopic == "" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l.With(applogger.String("component", "trade_ingest")),
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.ConsumerGroup),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.ConsumerWorkers),
		pkgkafka.WithConsumerRetry(cfg.Kafka.RetryMax, 100*time.Millisecond, 5*time.Second),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.DLQTopic),
		pkgkafka.WithConsumerRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.TraceHook())
	consumer.RegisterHandler(usecase.NewTradeIngestHandler(cfg.Kafka.TradesTopic, trades, m, l))
	return consumer, nil
}

// ProvideHTTPServer builds the reporting API server; nil when disabled.
func ProvideHTTPServer(
	cfg *config.Config,
	l *applogger.Logger,
	reg *prometheus.Registry,
	report *usecase.MarketReport,
	trades *usecase.TradeLog,
	store drepo.Store,
	journal drepo.TradeJournal,
	c pkgcache.Service,
) *xhttp.Server {
	if !cfg.Server.Enabled {
		return nil
	}
	h := api.NewMarketHandler(l, report, trades,
		ratelimit.New(cfg.Server.TradeBurst, cfg.Server.TradeRate),
		map[string]api.HealthCheck{
			"store":   store.Health,
			"journal": journal.Health,
			"cache":   c.Health,
		})
	return xhttp.NewServer(h, l,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowRequest(cfg.Server.SlowRequest),
		xhttp.WithRegistry(reg, reg),
	)
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	pipeline *usecase.Pipeline,
	generator *usecase.MarketGenerator,
	report *usecase.MarketReport,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
) *server.App {
	return server.New(cfg, l, pipeline, generator, report, httpServer, consumer)
}
