package di

import (
	"fmt"
	"time"

	"UMKMForecast/internal/domain/repository"
	domsvc "UMKMForecast/internal/domain/service"
	"UMKMForecast/internal/handler/api"
	"UMKMForecast/internal/handler/ws"
	internalrepo "UMKMForecast/internal/repository"
	imetrics "UMKMForecast/internal/service/metrics"
	"UMKMForecast/internal/service/ratelimit"
	"UMKMForecast/internal/services/forecast"
	"UMKMForecast/internal/services/recommend"
	"UMKMForecast/internal/usecase"
	"UMKMForecast/pkg/cache"
	"UMKMForecast/pkg/config"
	xhttp "UMKMForecast/pkg/http"
	pkgkafka "UMKMForecast/pkg/kafka"
	"UMKMForecast/pkg/logger"
	"UMKMForecast/pkg/metrics"
	"UMKMForecast/pkg/queue"
	"UMKMForecast/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ProvideLogger creates the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: cfg.Log.TimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(logger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates the Prometheus registry shared by every recorder.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.New(reg)
}

func ProvideViewMetrics(reg *prometheus.Registry) *imetrics.ViewMetrics {
	return imetrics.NewViewMetrics(reg)
}

// ProvideRedisCache connects to Redis when enabled; nil otherwise.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Host, cfg.Redis.Port),
		cache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.MinIdleConns, cfg.Redis.PoolTimeout),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideCache layers a small memory cache over Redis, or uses memory alone
// when Redis is disabled. Memory-only entries never outlive a session.
func ProvideCache(cfg *config.Config, rc *cache.RedisCache) cache.Service {
	if rc == nil {
		return cache.NewMemoryCache(
			cache.WithMemoryMaxSize(10000),
			cache.WithMemoryDefaultTTL(cfg.Session.TTL),
			cache.WithMemoryCleanup(time.Minute),
		)
	}
	return cache.NewLayeredCache(rc, cache.WithLayeredMemory(1000, 30*time.Second))
}

func ProvideSessionStore(cfg *config.Config, c cache.Service) repository.SessionStore {
	return internalrepo.NewCacheSessionStore(c, cfg.Session.TTL, cfg.Session.LockTTL)
}

// ProvideForecastBackend creates the forecasting backend client.
func ProvideForecastBackend(cfg *config.Config, m repository.Metrics, l *logger.Logger) domsvc.ForecastBackend {
	base := forecast.NewHTTPServiceBase(cfg.Forecast.BaseURL, cfg.Forecast.Timeout)
	return forecast.NewClient(base,
		forecast.WithTrainTimeout(cfg.Forecast.TrainTimeout),
		forecast.WithRetryAttempts(cfg.Forecast.RetryAttempts),
		forecast.WithMetrics(m),
		forecast.WithLogger(l.With(logger.String("component", "forecast_client"))),
	)
}

// ProvideKafkaProducer creates a Kafka producer when enabled; nil otherwise.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry) (*pkgkafka.Producer, error) {
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
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

func ProvideHub(l *logger.Logger) *ws.Hub {
	return ws.NewHub(l, 0)
}

// ProvideEventPublisher fans session events out to websocket subscribers and,
// when configured, to Kafka.
func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer, hub *ws.Hub) *internalrepo.FanoutPublisher {
	var kafkaSink repository.EventPublisher
	if producer != nil {
		kafkaSink = internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
	}
	return internalrepo.NewFanoutPublisher(hub, kafkaSink)
}

// ProvideJobQueue creates the Redis training queue when enabled; nil otherwise.
func ProvideJobQueue(cfg *config.Config, l *logger.Logger, rc *cache.RedisCache) *queue.RedisQueue {
	if !cfg.Queue.Enabled || rc == nil {
		return nil
	}
	return queue.NewRedisQueue(l, &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
		JobTimeout: cfg.Forecast.TrainTimeout + time.Minute,
	}, rc.Client(), queue.WithKeyPrefix(cfg.Redis.Prefix+":queue"))
}

// ProvideWorkflow creates the forecast workflow use case.
func ProvideWorkflow(
	cfg *config.Config,
	backend domsvc.ForecastBackend,
	store repository.SessionStore,
	events *internalrepo.FanoutPublisher,
	q *queue.RedisQueue,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.ForecastWorkflow {
	opts := []usecase.WorkflowOption{
		usecase.WithEvents(events),
		usecase.WithMetrics(m),
		usecase.WithRecommender(recommend.New(cfg.Forecast.TopProducts)),
		usecase.WithWorkflowLogger(l.With(logger.String("component", "workflow"))),
	}
	if q != nil {
		opts = append(opts, usecase.WithJobQueue(q))
	}
	return usecase.NewForecastWorkflow(backend, store, opts...)
}

func ProvideRateLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideHTTPServer registers every route on the echo server.
func ProvideHTTPServer(
	cfg *config.Config,
	l *logger.Logger,
	reg *prometheus.Registry,
	wf *usecase.ForecastWorkflow,
	vm *imetrics.ViewMetrics,
	limiter *ratelimit.Limiter,
	hub *ws.Hub,
	store repository.SessionStore,
	c cache.Service,
) *xhttp.Server {
	sessions := api.NewSessionsHandler(l, wf, vm, api.RateLimit{
		Allower:      limiter,
		Capacity:     cfg.RateLimit.Capacity,
		RefillPerSec: cfg.RateLimit.RefillPerSec,
	}, cfg.Forecast.TopProducts)
	health := api.NewHealthHandler(map[string]api.Pinger{"cache": c})
	live := ws.NewHandler(hub, store, l, cfg.Server.CORSOrigins)

	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l),
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		opts = append(opts, xhttp.WithCORSOrigins(cfg.Server.CORSOrigins))
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(reg, cfg.Metrics.Path, cfg.Server.SlowThreshold))
	}
	return xhttp.NewServer(xhttp.Handlers{sessions, health, live}, opts...)
}

// ProvideApp assembles the application lifecycle. The queue, when present,
// gets the training job registered before it starts.
func ProvideApp(
	l *logger.Logger,
	srv *xhttp.Server,
	q *queue.RedisQueue,
	wf *usecase.ForecastWorkflow,
	limiter *ratelimit.Limiter,
	events *internalrepo.FanoutPublisher,
	c cache.Service,
) *server.App {
	opts := []server.Option{
		server.WithSweeper(limiter, 10*time.Minute),
		server.WithCloser("events", events),
		server.WithCloser("cache", c),
	}
	if q != nil {
		q.RegisterJob(usecase.NewTrainJob(wf))
		opts = append(opts, server.WithWorker(q))
	}
	return server.New(l, srv, opts...)
}
