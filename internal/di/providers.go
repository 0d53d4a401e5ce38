package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"SmartFlow/internal/domain/repository"
	"SmartFlow/internal/domain/service"
	api "SmartFlow/internal/handler/api"
	mid "SmartFlow/internal/middleware"
	internalrepo "SmartFlow/internal/repository"
	"SmartFlow/internal/service/alerts"
	icache "SmartFlow/internal/service/cache"
	"SmartFlow/internal/service/prices"
	"SmartFlow/internal/service/whalestream"
	"SmartFlow/internal/usecase"
	pkgcache "SmartFlow/pkg/cache"
	pkgch "SmartFlow/pkg/clickhouse"
	"SmartFlow/pkg/config"
	xhttp "SmartFlow/pkg/http"
	pkgkafka "SmartFlow/pkg/kafka"
	applogger "SmartFlow/pkg/logger"
	"SmartFlow/pkg/metrics"
	pkgqueue "SmartFlow/pkg/queue"
	"SmartFlow/pkg/server"
)

// ProvideLogger creates the application logger from config.
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
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the
// database exists.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideDisclosureStore creates the disclosure store and its tables.
func ProvideDisclosureStore(chClient *pkgch.Client, l *applogger.Logger) (repository.DisclosureStore, error) {
	store := internalrepo.NewCHDisclosureStore(chClient)
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("disclosure store init: %w", err)
	}
	return store, nil
}

// ProvideSignalStore creates the signal store and its tables.
func ProvideSignalStore(chClient *pkgch.Client, l *applogger.Logger) (repository.SignalStore, error) {
	store := internalrepo.NewCHSignalStore(chClient)
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("signal store init: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, 10*time.Second),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates the disclosures consumer.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideDisclosurePublisher creates the Kafka publisher for disclosure
// events.
func ProvideDisclosurePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.DisclosuresTopic)
}

// ProvideSignalPublisher creates the Kafka publisher for ranked signals.
func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.SignalPublisher {
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.SignalsTopic)
}

// ProvideDisclosureHandler registers the handler for the disclosures topic.
func ProvideDisclosureHandler(
	cfg *config.Config,
	store repository.DisclosureStore,
	l *applogger.Logger,
	m repository.Metrics,
) *usecase.DisclosureHandler {
	return usecase.NewDisclosureHandler(cfg.Kafka.DisclosuresTopic, store, l).WithMetrics(m)
}

// ProvidePriceProvider creates the price history client with an
// in-process TTL cache and a token bucket limiter.
func ProvidePriceProvider(cfg *config.Config, l *applogger.Logger) service.PriceProvider {
	return prices.New(cfg.Prices.BaseURL, cfg.Prices.Timeout,
		prices.WithCache(icache.NewTTLCache(), cfg.Prices.CacheTTL),
		prices.WithRateLimit(cfg.Prices.RateBurst, cfg.Prices.RatePerSec),
		prices.WithLogger(l),
	)
}

// ProvideRedisCache connects to Redis when enabled. Nil means callers
// fall back to in-process alternatives.
func ProvideRedisCache(cfg *config.Config, l *applogger.Logger) *pkgcache.RedisCache {
	if !cfg.Redis.Enabled {
		return nil
	}
	host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
	if err != nil {
		l.Warn("invalid redis addr", applogger.String("addr", cfg.Redis.Addr))
		return nil
	}
	port, _ := strconv.Atoi(portStr)
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix("smartflow"),
	)
	if err != nil {
		l.Warn("redis unavailable", applogger.Error(err))
		return nil
	}
	return rc
}

// ProvideAlertQueue creates the Redis-backed alert delivery queue. Nil
// when Redis is not available; alerts then go out synchronously.
func ProvideAlertQueue(cfg *config.Config, rc *pkgcache.RedisCache, l *applogger.Logger) *pkgqueue.RedisQueue {
	if rc == nil {
		return nil
	}
	return pkgqueue.NewRedisQueue(l, &pkgqueue.QueueConfig{
		Workers:    2,
		RetryLimit: 3,
		RetryDelay: 30 * time.Second,
	}, rc.Client(), pkgqueue.ModeProducerConsumer,
		pkgqueue.WithKeyPrefix("smartflow:alerts"))
}

// ProvideAlertDispatcher builds the dispatcher from the channels enabled
// in config. Returns nil when no channel is configured. With a queue
// present, delivery runs through it instead of inline.
func ProvideAlertDispatcher(cfg *config.Config, q *pkgqueue.RedisQueue, l *applogger.Logger, m repository.Metrics) service.AlertDispatcher {
	var channels []service.AlertChannel
	if cfg.Alerts.Telegram.Enabled && cfg.Alerts.Telegram.BotToken != "" {
		channels = append(channels, alerts.NewTelegramChannel(cfg.Alerts.Telegram.BotToken, cfg.Alerts.Telegram.ChatID))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		channels = append(channels, alerts.NewDiscordChannel(cfg.Alerts.Discord.WebhookURL))
	}
	if len(channels) == 0 {
		return nil
	}
	direct := alerts.NewDispatcher(l, channels...).WithMetrics(m)
	if q != nil {
		return alerts.NewQueuedDispatcher(q, direct)
	}
	return direct
}

// ProvideScanner creates the scan use case backed by the disclosure
// store's per-source aggregates.
func ProvideScanner(
	cfg *config.Config,
	store repository.DisclosureStore,
	signals repository.SignalStore,
	priceSvc service.PriceProvider,
	publisher repository.SignalPublisher,
	dispatcher service.AlertDispatcher,
	l *applogger.Logger,
	m repository.Metrics,
) *usecase.Scanner {
	scanner := usecase.NewScanner(&cfg.Signals, usecase.SourcesFromStore(store), l).
		WithPrices(priceSvc).
		WithStore(signals).
		WithPublisher(publisher).
		WithMetrics(m).
		WithConcurrency(cfg.Prices.FetchWorkers)
	if dispatcher != nil {
		scanner = scanner.WithAlerts(dispatcher, cfg.Alerts.MinConfidence)
	}
	return scanner
}

// ProvideBacktester creates the backtest use case.
func ProvideBacktester(cfg *config.Config, priceSvc service.PriceProvider, l *applogger.Logger, m repository.Metrics) *usecase.Backtester {
	return usecase.NewBacktester(priceSvc, &cfg.Backtest, l).WithMetrics(m)
}

// ProvideIngestPipeline wires the whale sink behind validation and
// throttling. The sink writes through Kafka or straight to ClickHouse
// depending on the configured backend. Nil when the stream is disabled.
func ProvideIngestPipeline(
	cfg *config.Config,
	store repository.DisclosureStore,
	publisher repository.Publisher,
	m repository.Metrics,
) *mid.IngestPipeline {
	if !cfg.WhaleStream.Enabled {
		return nil
	}
	var sink mid.Sink
	if cfg.WhaleStream.Backend == "clickhouse" {
		sink = usecase.NewStoreSink(store)
	} else {
		sink = usecase.NewPublisherSink(publisher)
	}
	return mid.NewIngestPipeline(sink, m,
		mid.WithMaxEventsPerSec(20),
		mid.WithBufferSize(1000),
	)
}

// ProvideWhaleCollector creates the whale stream collector. Nil when the
// stream is disabled.
func ProvideWhaleCollector(
	cfg *config.Config,
	pipeline *mid.IngestPipeline,
	l *applogger.Logger,
	m repository.Metrics,
) *usecase.WhaleCollector {
	if !cfg.WhaleStream.Enabled || pipeline == nil {
		return nil
	}
	stream := whalestream.New(
		cfg.WhaleStream.APIKey,
		cfg.WhaleStream.WebSocketURL,
		cfg.WhaleStream.Symbols,
		cfg.WhaleStream.MinValueUSD,
		cfg.WhaleStream.ReconnectDelay,
		cfg.WhaleStream.PingInterval,
	)
	return usecase.NewWhaleCollector(stream, pipeline, cfg.WhaleStream.MinValueUSD, cfg.WhaleStream.ReconnectDelay, l).
		WithMetrics(m)
}

// ProvideHTTPHandler creates the Echo handler with response caching,
// layered over Redis when available.
func ProvideHTTPHandler(
	l *applogger.Logger,
	signals repository.SignalStore,
	store repository.DisclosureStore,
	scanner *usecase.Scanner,
	backtester *usecase.Backtester,
	rc *pkgcache.RedisCache,
) xhttp.Handler {
	h := api.NewSignalsEchoHandler(l, signals, store, scanner, backtester)
	if rc != nil {
		return h.WithCache(pkgcache.NewLayeredCache(rc))
	}
	return h.WithCache(pkgcache.NewMemoryCache())
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	collector *usecase.WhaleCollector,
	pipeline *mid.IngestPipeline,
	consumer *pkgkafka.Consumer,
	kh *usecase.DisclosureHandler,
	scanner *usecase.Scanner,
	httpHandler xhttp.Handler,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
	alertQueue *pkgqueue.RedisQueue,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, l, collector, pipeline, consumer, kh, scanner, httpHandler, chClient, producer)
	app.AlertQueue = alertQueue
	return app
}
