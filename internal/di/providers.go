package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/Kagemann/brondby-stock-tracker/internal/domain/repository"
	"github.com/Kagemann/brondby-stock-tracker/internal/handler/api"
	mid "github.com/Kagemann/brondby-stock-tracker/internal/middleware"
	internalrepo "github.com/Kagemann/brondby-stock-tracker/internal/repository"
	icache "github.com/Kagemann/brondby-stock-tracker/internal/service/cache"
	"github.com/Kagemann/brondby-stock-tracker/internal/service/marketdata"
	"github.com/Kagemann/brondby-stock-tracker/internal/service/notify"
	"github.com/Kagemann/brondby-stock-tracker/internal/service/ratelimit"
	"github.com/Kagemann/brondby-stock-tracker/internal/services/analytics"
	"github.com/Kagemann/brondby-stock-tracker/internal/usecase"
	pkgch "github.com/Kagemann/brondby-stock-tracker/pkg/clickhouse"
	"github.com/Kagemann/brondby-stock-tracker/pkg/config"
	pkgkafka "github.com/Kagemann/brondby-stock-tracker/pkg/kafka"
	"github.com/Kagemann/brondby-stock-tracker/pkg/logger"
	"github.com/Kagemann/brondby-stock-tracker/pkg/metrics"
	"github.com/Kagemann/brondby-stock-tracker/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	lc := &logger.Config{Level: "info", Format: "json", Output: "stdout"}
	if cfg.Environment == "development" {
		lc.Level = "debug"
		lc.Format = "console"
	}
	return logger.New(lc)
}

// ProvideClickHouseClient creates a ClickHouse client and ensures schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
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

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.prices
			(symbol String, ts DateTime, price Float64, volume Int64)
			ENGINE=MergeTree ORDER BY (symbol, ts)`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.news
			(id String, ts DateTime, title String, url String, source String,
			 sentiment Float64, relevance Float64)
			ENGINE=ReplacingMergeTree ORDER BY (ts, id)`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.analysis_reports
			(run_id String, symbol String, window_start DateTime, window_end DateTime,
			 generated_at DateTime, mean_sentiment Float64, weighted_sentiment Float64,
			 article_count Int32, coefficient Float64, confidence String, sample_size Int32,
			 insights String, events String, skipped_samples Int32)
			ENGINE=MergeTree ORDER BY generated_at`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.alerts
			(id String, run_id String, type String, triggering_value Float64,
			 threshold Float64, severity String, message String,
			 fired_at DateTime, dedupe_key String)
			ENGINE=MergeTree ORDER BY fired_at`, db),
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer logger not built yet); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer for alert publishing.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
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

// ProvideKafkaConsumer creates the news-topic consumer.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideRedisClient creates the Redis client, or nil when disabled.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideThresholds maps config onto engine thresholds, falling back to the
// defaults for unset values.
func ProvideThresholds(cfg *config.Config) analytics.Thresholds {
	t := analytics.DefaultThresholds()
	if cfg.Analysis.PriceThresholdPct > 0 {
		t.PriceThresholdPct = cfg.Analysis.PriceThresholdPct
	}
	if cfg.Analysis.VolumeThresholdPct > 0 {
		t.VolumeThresholdPct = cfg.Analysis.VolumeThresholdPct
	}
	if cfg.Analysis.SentimentExtreme > 0 {
		t.SentimentExtreme = cfg.Analysis.SentimentExtreme
	}
	if cfg.Analysis.CorrelationSig > 0 {
		t.CorrelationSignificance = cfg.Analysis.CorrelationSig
	}
	if cfg.Analysis.MinArticles > 0 {
		t.MinArticles = cfg.Analysis.MinArticles
	}
	if cfg.Analysis.AlertCooldown > 0 {
		t.AlertCooldown = cfg.Analysis.AlertCooldown
	}
	if cfg.Analysis.CorrelationBuckets > 0 {
		t.CorrelationBuckets = cfg.Analysis.CorrelationBuckets
	}
	return t
}

// ProvideMarketStore creates ClickHouse price storage.
func ProvideMarketStore(chClient *pkgch.Client, cfg *config.Config) repository.MarketStore {
	return internalrepo.NewClickHouseMarketStore(chClient.DB(), cfg.ClickHouse.Database+".prices")
}

// ProvideNewsStore creates ClickHouse news storage.
func ProvideNewsStore(chClient *pkgch.Client, cfg *config.Config) repository.NewsStore {
	return internalrepo.NewClickHouseNewsStore(chClient.DB(), cfg.ClickHouse.Database+".news")
}

// ProvideResultStore creates ClickHouse result storage.
func ProvideResultStore(chClient *pkgch.Client, cfg *config.Config) repository.ResultStore {
	return internalrepo.NewClickHouseResultStore(chClient.DB(),
		cfg.ClickHouse.Database+".analysis_reports",
		cfg.ClickHouse.Database+".alerts")
}

// ProvideAlertLog creates the dedupe log, Redis-backed when available.
func ProvideAlertLog(rdb *redis.Client) repository.AlertLog {
	if rdb == nil {
		return internalrepo.NewMemoryAlertLog()
	}
	return internalrepo.NewRedisAlertLog(rdb)
}

// ProvideQueryCache creates the read-projection cache.
func ProvideQueryCache(rdb *redis.Client) icache.BytesCache {
	if rdb == nil {
		return icache.NewTTLCache()
	}
	return icache.NewRedisCacheFromClient(rdb)
}

// ProvideNotifier fans alerts out to every enabled channel.
func ProvideNotifier(cfg *config.Config, producer *pkgkafka.Producer, log *logger.Logger) repository.Notifier {
	notifiers := make([]repository.Notifier, 0, 2)
	if cfg.Telegram.Enabled {
		notifiers = append(notifiers, notify.NewTelegramNotifier(notify.TelegramConfig{
			BotToken: cfg.Telegram.BotToken,
			ChatID:   cfg.Telegram.ChatID,
			Timeout:  cfg.Telegram.Timeout,
		}, log))
	}
	if cfg.Kafka.AlertTopic != "" && producer != nil {
		notifiers = append(notifiers, internalrepo.NewKafkaNotifier(producer, cfg.Kafka.AlertTopic))
	}
	return notify.NewMultiNotifier(notifiers...)
}

// ProvideQuoteSource creates the market data client, or nil when polling
// is disabled.
func ProvideQuoteSource(cfg *config.Config) repository.QuoteSource {
	if !cfg.MarketData.Enabled {
		return nil
	}
	return marketdata.New(cfg.MarketData.BaseURL, cfg.MarketData.Timeout)
}

// ProvidePriceCollector creates the price polling loop, or nil when the
// quote source is disabled.
func ProvidePriceCollector(
	source repository.QuoteSource,
	market repository.MarketStore,
	m repository.Metrics,
	log *logger.Logger,
	cfg *config.Config,
) *usecase.PriceCollector {
	if source == nil {
		return nil
	}
	pipe := mid.NewIngestPipeline(market, m, cfg.Symbol)
	return usecase.NewPriceCollector(source, pipe, m, log,
		cfg.MarketData.Symbol, cfg.MarketData.Interval, cfg.MarketData.Lookback)
}

// ProvideAnalyzeUseCase wires the five engine components with their
// collaborators.
func ProvideAnalyzeUseCase(
	market repository.MarketStore,
	news repository.NewsStore,
	results repository.ResultStore,
	alertLog repository.AlertLog,
	notifier repository.Notifier,
	m repository.Metrics,
	log *logger.Logger,
	thresholds analytics.Thresholds,
	cfg *config.Config,
) (*usecase.AnalyzeUseCase, error) {
	return usecase.NewAnalyzeUseCase(usecase.AnalyzeDeps{
		Market:     market,
		News:       news,
		Results:    results,
		Alerts:     alertLog,
		Notify:     notifier,
		Metrics:    m,
		Log:        log,
		Aggregator: analytics.NewSentimentAggregator(),
		Detector:   analytics.NewMovementDetector(thresholds),
		Correlator: analytics.NewCorrelator(),
		Insights:   analytics.NewInsightGenerator(thresholds),
		Evaluator:  analytics.NewAlertEvaluator(thresholds),
		Symbol:     cfg.Symbol,
		Thresholds: thresholds,
	})
}

// ProvideQueriesUseCase creates the read-projection use case.
func ProvideQueriesUseCase(
	market repository.MarketStore,
	news repository.NewsStore,
	results repository.ResultStore,
	queryCache icache.BytesCache,
	thresholds analytics.Thresholds,
	cfg *config.Config,
) *usecase.QueriesUseCase {
	return usecase.NewQueriesUseCase(
		market, news, results,
		analytics.NewSentimentAggregator(),
		analytics.NewMovementDetector(thresholds),
		analytics.NewCorrelator(),
		analytics.NewInsightGenerator(thresholds),
		queryCache,
		cfg.Symbol,
		thresholds,
	)
}

// ProvideKafkaNewsHandler registers the handler for the scored-news topic.
func ProvideKafkaNewsHandler(news repository.NewsStore, m repository.Metrics, cfg *config.Config) *usecase.KafkaNewsHandler {
	return usecase.NewKafkaNewsHandler(cfg.Kafka.NewsTopic, news, m)
}

// ProvideStreamHub creates the websocket report hub.
func ProvideStreamHub(log *logger.Logger) *api.StreamHub {
	return api.NewStreamHub(log)
}

// ProvideScheduler creates the periodic analysis trigger.
func ProvideScheduler(analyze *usecase.AnalyzeUseCase, hub *api.StreamHub, log *logger.Logger, cfg *config.Config) *usecase.Scheduler {
	return usecase.NewScheduler(analyze, hub, log, cfg.Analysis.Window, cfg.Analysis.Interval)
}

// ProvideAnalysisHandler creates the HTTP API handler.
func ProvideAnalysisHandler(
	log *logger.Logger,
	queries *usecase.QueriesUseCase,
	analyze *usecase.AnalyzeUseCase,
	market repository.MarketStore,
	cfg *config.Config,
) *api.AnalysisEchoHandler {
	return api.NewAnalysisEchoHandler(log, queries, analyze, market, ratelimit.New(), cfg.Analysis.Window)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	m repository.Metrics,
	scheduler *usecase.Scheduler,
	collector *usecase.PriceCollector,
	consumer *pkgkafka.Consumer,
	newsHandler *usecase.KafkaNewsHandler,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	notifier repository.Notifier,
	apiHandler *api.AnalysisEchoHandler,
	hub *api.StreamHub,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.HookFuncs{
			Err: func(_ context.Context, topic string, _ kafka.Message, _ []byte, _ error) {
				m.RecordError("consume:" + topic)
			},
		})
	}
	if cfg.Kafka.LogTopic != "" && producer != nil {
		log.AddCollector(&logger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogTopic,
			Publisher:      kafkaLogPublisher{producer},
		})
	}
	return server.New(cfg, log, scheduler, collector, consumer, newsHandler, chClient, notifier, apiHandler, hub)
}

// kafkaLogPublisher adapts the Kafka producer to the log collector's
// publisher interface.
type kafkaLogPublisher struct {
	producer *pkgkafka.Producer
}

func (p kafkaLogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}
