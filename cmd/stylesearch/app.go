package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/stylesearch/internal/config"
	dbRedis "github.com/kailas-cloud/stylesearch/internal/db/redis"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/result"
	"github.com/kailas-cloud/stylesearch/internal/domain/style"
	logpkg "github.com/kailas-cloud/stylesearch/internal/logger"
	"github.com/kailas-cloud/stylesearch/internal/metrics"
	"github.com/kailas-cloud/stylesearch/internal/observability"
	"github.com/kailas-cloud/stylesearch/internal/repository/catalog"
	qdrantrepo "github.com/kailas-cloud/stylesearch/internal/repository/qdrant"
	"github.com/kailas-cloud/stylesearch/internal/repository/vectorindex"
	openaiEmb "github.com/kailas-cloud/stylesearch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/stylesearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/stylesearch/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/stylesearch/internal/usecase/indexing"
	"github.com/kailas-cloud/stylesearch/internal/usecase/notify"
	reindexuc "github.com/kailas-cloud/stylesearch/internal/usecase/reindex"
	searchuc "github.com/kailas-cloud/stylesearch/internal/usecase/search"
	"github.com/kailas-cloud/stylesearch/internal/version"
)

// vectorIndex is what the composition root needs from either backend.
type vectorIndex interface {
	EnsureIndex(ctx context.Context) error
	Upsert(ctx context.Context, key string, vector []float32, metadata map[string]any) error
	Delete(ctx context.Context, key string) error
	Query(ctx context.Context, vector []float32, topK int, filters filter.Expression) ([]result.Hit, error)
	Check(ctx context.Context) error
}

// app is the wired object graph shared by every command.
type app struct {
	env     string
	cfg     config.Config
	logger  *zap.Logger
	tracer  *observability.TracerProvider
	catalog *catalog.Store
	index   vectorIndex
	indexer *indexinguc.Service
	search  *searchuc.Service
	health  *healthuc.Service
	reindex *reindexuc.Service
	closers []func()
}

// newApp loads configuration and wires every component. ensureIndex creates the
// vector index when missing; selftest skips it so that it only observes.
func newApp(ctx context.Context, env string, ensureIndex bool) (*app, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	a := &app{env: env, cfg: cfg, logger: logger}
	a.closers = append(a.closers, func() { _ = logger.Sync() })

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSyncMetrics()

	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName:    "stylesearch",
		ServiceVersion: version.Version,
		Environment:    env,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.tracer = tp
	a.closers = append(a.closers, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Tracer shutdown failed", zap.Error(err))
		}
	})

	index, err := a.openVectorIndex(ctx, ensureIndex)
	if err != nil {
		a.close()
		return nil, err
	}
	a.index = index

	embedder := buildEmbedder(cfg.Embedding, logger)

	composer, err := style.NewComposer(cfg.Search.Composer.Fields)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("composer: %w", err)
	}

	a.indexer = indexinguc.New(index, embedder, composer, logger).WithEntityKind(cfg.Search.EntityKind)

	// Catalog writes feed the index through the notifier hooks.
	store, err := catalog.Open(catalog.Config{
		Driver: cfg.Catalog.Driver,
		Path:   cfg.Catalog.Path,
	}, catalog.WithHooks(notify.New(a.indexer, logger)))
	if err != nil {
		a.close()
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	a.catalog = store
	a.closers = append(a.closers, func() { _ = store.Close() })

	a.search = searchuc.New(index, embedder, store, searchuc.Config{
		ScoreThreshold: cfg.Search.ScoreThreshold,
		DefaultTopK:    cfg.Search.DefaultTopK,
		MaxTopK:        cfg.Search.MaxTopK,
	}, logger)
	a.health = healthuc.New(embedder, index, store)
	a.reindex = reindexuc.New(store, a.indexer, logger).WithConcurrency(cfg.Reindex.Concurrency)

	logger.Info("Components wired",
		zap.String("env", env),
		zap.String("catalog_driver", cfg.Catalog.Driver),
		zap.String("catalog_path", cfg.Catalog.Path),
		zap.String("vector_index", cfg.VectorIndex.Driver),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Float64("score_threshold", *cfg.Search.ScoreThreshold),
	)
	return a, nil
}

// openVectorIndex connects the configured backend.
func (a *app) openVectorIndex(ctx context.Context, ensureIndex bool) (vectorIndex, error) {
	vc := a.cfg.VectorIndex

	var index vectorIndex
	switch vc.Driver {
	case config.DriverValkey, config.DriverRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    vc.Addrs,
			Password: vc.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s store: %w", vc.Driver, err)
		}
		a.closers = append(a.closers, store.Close)

		if ensureIndex {
			if err := store.WaitForReady(ctx, time.Duration(vc.ReadinessTimeout)*time.Second); err != nil {
				return nil, fmt.Errorf("%s not ready: %w", vc.Driver, err)
			}
		}
		index = vectorindex.New(store, vectorindex.Options{
			KeyPrefix:    vc.KeyPrefix,
			Dimensions:   a.cfg.Embedding.Dimensions,
			HNSWM:        vc.HNSWM,
			HNSWEFConstr: vc.HNSWEFConstruct,
		})
	case config.DriverQdrant:
		repo, err := qdrantrepo.New(qdrantrepo.Config{
			Host:       vc.Qdrant.Host,
			Port:       vc.Qdrant.Port,
			Collection: vc.Qdrant.Collection,
			Dimensions: a.cfg.Embedding.Dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("create qdrant client: %w", err)
		}
		a.closers = append(a.closers, func() { _ = repo.Close() })
		index = repo
	default:
		return nil, fmt.Errorf("unknown vector index driver %q", vc.Driver)
	}

	if ensureIndex {
		if err := index.EnsureIndex(ctx); err != nil {
			return nil, fmt.Errorf("ensure vector index: %w", err)
		}
		a.logger.Info("Vector index ready", zap.String("driver", vc.Driver))
	}
	return index, nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Instrumented.
func buildEmbedder(cfg config.EmbeddingConfig, logger *zap.Logger) *embeddinguc.InstrumentedEmbedder {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Timeout:    time.Duration(cfg.TimeoutSec) * time.Second,
		Logger:     logger,
	})
	return embeddinguc.NewInstrumentedEmbedder(base, cfg.Provider, cfg.Model, logger)
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
