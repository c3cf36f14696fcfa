package cli

import (
	"context"

	appanalysis "github.com/clauselens/clauselens/internal/application/analysis"
	"github.com/clauselens/clauselens/internal/analysis/pipeline"
	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/infrastructure/database/postgres"
	"github.com/clauselens/clauselens/internal/infrastructure/database/postgres/repositories"
	"github.com/clauselens/clauselens/internal/infrastructure/database/redis"
	"github.com/clauselens/clauselens/internal/infrastructure/messaging/kafka"
	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/prometheus"
	"github.com/clauselens/clauselens/internal/infrastructure/search/opensearch"
	"github.com/clauselens/clauselens/internal/infrastructure/storage/minio"
	"github.com/clauselens/clauselens/internal/provider"
)

// runtime holds the fully wired application dependencies shared by the API
// server and the worker.
type runtime struct {
	cfg      *config.Config
	logger   logging.Logger
	metrics  *prometheus.Metrics
	postgres *postgres.Connection
	redis    *redis.Client
	cache    redis.Cache
	store    minio.DocumentStore
	producer *kafka.Producer
	search   *opensearch.Client
	indexer  *opensearch.Indexer
	service  *appanalysis.Service
}

// newRuntime connects every backing service and builds the analysis service.
func newRuntime(ctx context.Context, cfg *config.Config, log logging.Logger) (*runtime, error) {
	rt := &runtime{cfg: cfg, logger: log, metrics: prometheus.NewMetrics()}

	pg, err := postgres.NewConnection(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	rt.postgres = pg

	redisClient, err := redis.NewClient(cfg.Redis, log)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.redis = redisClient

	var cacheOpts []redis.Option
	if cfg.Redis.KeyPrefix != "" {
		cacheOpts = append(cacheOpts, redis.WithPrefix(cfg.Redis.KeyPrefix))
	}
	if cfg.Redis.DefaultTTL > 0 {
		cacheOpts = append(cacheOpts, redis.WithDefaultTTL(cfg.Redis.DefaultTTL))
	}
	rt.cache = redis.NewCache(redisClient, log, cacheOpts...)

	minioClient, err := minio.NewClient(ctx, cfg.MinIO, log)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.store = minio.NewDocumentStore(minioClient, log)

	producer, err := kafka.NewProducer(cfg.Kafka, log)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.producer = producer

	searchClient, err := opensearch.NewClient(ctx, cfg.OpenSearch, log)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.search = searchClient

	indexer, err := opensearch.NewIndexer(ctx, searchClient, log)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.indexer = indexer

	prov, err := provider.New(cfg.Provider, log)
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.service = appanalysis.NewService(appanalysis.Deps{
		Config:    cfg.Analysis,
		Documents: repositories.NewDocumentRepository(pg.Pool(), log),
		Analyses:  repositories.NewAnalysisRepository(pg.Pool(), log),
		Store:     rt.store,
		Cache:     rt.cache,
		Publisher: producer,
		Search:    indexer,
		Pipeline:  pipeline.New(prov, log, pipeline.WithStageObserver(rt.metrics)),
		Recorder:  rt.metrics,
		Logger:    log,
	})
	return rt, nil
}

// Close releases every connected resource; nil members are skipped so it is
// safe to call on a partially built runtime.
func (rt *runtime) Close() {
	if rt.producer != nil {
		if err := rt.producer.Close(); err != nil {
			rt.logger.Warn("failed to close kafka producer", logging.Err(err))
		}
	}
	if rt.redis != nil {
		if err := rt.redis.Close(); err != nil {
			rt.logger.Warn("failed to close redis client", logging.Err(err))
		}
	}
	if rt.postgres != nil {
		rt.postgres.Close()
	}
}
