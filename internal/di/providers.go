package di

import (
	"context"
	"fmt"
	"time"

	"CosmicOptic/internal/domain/repository"
	domsvc "CosmicOptic/internal/domain/service"
	"CosmicOptic/internal/handler/api"
	mid "CosmicOptic/internal/middleware"
	internalrepo "CosmicOptic/internal/repository"
	"CosmicOptic/internal/services/classify"
	"CosmicOptic/internal/services/explain"
	"CosmicOptic/internal/services/lightcurve"
	"CosmicOptic/internal/usecase"
	"CosmicOptic/pkg/cache"
	pkgch "CosmicOptic/pkg/clickhouse"
	"CosmicOptic/pkg/config"
	xhttp "CosmicOptic/pkg/http"
	pkgkafka "CosmicOptic/pkg/kafka"
	applogger "CosmicOptic/pkg/logger"
	"CosmicOptic/pkg/metrics"
	"CosmicOptic/pkg/server"

	kafkago "github.com/segmentio/kafka-go"
)

// ProvideLogger creates the application logger. When Kafka is enabled and the
// collector is configured, repeated errors are aggregated onto the log topic.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: "cosmicoptic",
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Log.Collector.Enabled && producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Log.Collector.Interval,
			CountThreshold: cfg.Log.Collector.CountThreshold,
			MinLevel:       cfg.Log.Collector.Level,
			Topic:          cfg.Kafka.LogTopic,
			Publisher:      producer,
		})
	}
	return l, nil
}

// ProvideClickHouseClient creates a ClickHouse client when the catalog is
// served from ClickHouse. It returns nil otherwise.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Catalog.Source != "clickhouse" {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithPool(4, 2),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if cfg.ClickHouse.InitSchema {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := client.EnsureSchema(ctx, internalrepo.SamplesSchema(cfg.Catalog.Table)...); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates the prediction request consumer, or nil when
// Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger, m repository.Metrics) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers, cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes, 0),
		pkgkafka.WithConsumerLogger(l.With(applogger.String("component", "kafka_consumer"))),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(
		pkgkafka.NewTraceHook(),
		pkgkafka.HookFuncs{Err: func(context.Context, string, kafkago.Message, []byte, error) {
			m.RecordError("consumer_handle")
		}},
	))
	return consumer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCatalogSource picks the backing store of the sample catalog.
func ProvideCatalogSource(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) (repository.CatalogSource, error) {
	switch cfg.Catalog.Source {
	case "file":
		return internalrepo.NewFileCatalogSource(cfg.Catalog.Path), nil
	case "clickhouse":
		if ch == nil {
			return nil, fmt.Errorf("catalog source clickhouse requires a clickhouse client")
		}
		src := internalrepo.NewCHCatalogSource(ch, cfg.Catalog.Table)
		src.SetLogger(l)
		return src, nil
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}
}

// ProvideCatalog loads the catalog once; it is never reloaded.
func ProvideCatalog(src repository.CatalogSource, l *applogger.Logger) (repository.SampleCatalog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	catalog, err := internalrepo.LoadCatalog(ctx, src)
	if err != nil {
		return nil, err
	}
	l.Info("sample catalog loaded",
		applogger.String("source", src.Name()),
		applogger.Strings("ids", catalog.IDs()),
	)
	return catalog, nil
}

func ProvideGenerator() domsvc.LightCurveGenerator {
	return lightcurve.New()
}

func ProvideClassifier() domsvc.Classifier {
	return classify.NewResolver()
}

func ProvideExplainer() domsvc.Explainer {
	return explain.New()
}

// ProvideCache creates the shared cache backend used for results and rate
// limiting.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if cfg.Analysis.CacheBackend == "memory" {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(512)), nil
	}

	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Host, cfg.Redis.Port),
		cache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, 2),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	if cfg.Analysis.CacheBackend == "layered" {
		return cache.NewLayeredCache(rc, cache.WithLocalSize(256)), nil
	}
	return rc, nil
}

// ProvideResultCache returns nil when result caching is disabled.
func ProvideResultCache(cfg *config.Config, c cache.Service) repository.ResultCache {
	if cfg.Analysis.CacheTTL <= 0 {
		return nil
	}
	return internalrepo.NewCachedResults(c, cfg.Analysis.ModelVersion)
}

// ProvidePredictionService creates the result assembler.
func ProvidePredictionService(
	cfg *config.Config,
	catalog repository.SampleCatalog,
	gen domsvc.LightCurveGenerator,
	cls domsvc.Classifier,
	exp domsvc.Explainer,
	metrics repository.Metrics,
	results repository.ResultCache,
	l *applogger.Logger,
) *usecase.PredictionService {
	return usecase.NewPredictionService(catalog, gen, cls, exp, metrics,
		usecase.WithResultCache(results, cfg.Analysis.CacheTTL),
		usecase.WithNumPoints(cfg.Analysis.NumPoints),
		usecase.WithModelVersion(cfg.Analysis.ModelVersion),
		usecase.WithLogger(l),
	)
}

// ProvideResultPublisher publishes outcomes to Kafka, or drops them when
// Kafka is disabled.
func ProvideResultPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.ResultPublisher {
	if producer == nil {
		return internalrepo.NoopResultPublisher{}
	}
	return internalrepo.NewKafkaResultPublisher(producer, cfg.Kafka.ResultTopic)
}

// ProvideKafkaPredictHandler handles the prediction request topic.
func ProvideKafkaPredictHandler(
	cfg *config.Config,
	svc *usecase.PredictionService,
	pub repository.ResultPublisher,
	metrics repository.Metrics,
) *usecase.KafkaPredictHandler {
	return usecase.NewKafkaPredictHandler(cfg.Kafka.RequestTopic, svc, pub, metrics)
}

// ProvideRateLimiter returns nil when rate limiting is disabled. With a
// shared cache backend the budget is enforced across replicas.
func ProvideRateLimiter(cfg *config.Config, c cache.Service) mid.Allower {
	rl := cfg.Analysis.RateLimit
	if !rl.Enabled {
		return nil
	}
	if cfg.Analysis.CacheBackend != "memory" {
		return mid.NewWindowCounter(c, int64(rl.Burst+rl.PerSecond*60), time.Minute)
	}
	return mid.NewTokenBucket(rl.Burst, rl.PerSecond)
}

// ProvidePredictionHandler creates the HTTP handler.
func ProvidePredictionHandler(
	cfg *config.Config,
	l *applogger.Logger,
	svc *usecase.PredictionService,
	limiter mid.Allower,
) *api.PredictionHandler {
	opts := []api.Option{
		api.WithDemoDelay(cfg.Analysis.DemoDelay),
		api.WithMaxUploadBytes(cfg.Server.MaxUploadBytes),
		api.WithStreamChunk(cfg.Analysis.StreamChunk),
		api.WithAllowedOrigins(cfg.Server.CORSOrigins),
	}
	if limiter != nil {
		opts = append(opts, api.WithRateLimit(mid.RateLimit(limiter, l)))
	}
	return api.NewPredictionHandler(l, svc, opts...)
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.PredictionHandler) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer([]xhttp.Handler{h},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaPredictHandler,
	pub repository.ResultPublisher,
	c cache.Service,
	chClient *pkgch.Client,
) *server.App {
	app := server.New(cfg, l, httpServer,
		server.WithConsumer(consumer, kh),
		server.WithCloser("result publisher", pub),
		server.WithCloser("cache", c),
	)
	if chClient != nil {
		app.AddCloser("clickhouse", chClient)
	}
	return app
}
