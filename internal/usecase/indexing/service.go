package indexing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/stylesearch/internal/domain"
	domidx "github.com/kailas-cloud/stylesearch/internal/domain/indexing"
	"github.com/kailas-cloud/stylesearch/internal/domain/style"
	logpkg "github.com/kailas-cloud/stylesearch/internal/logger"
	"github.com/kailas-cloud/stylesearch/internal/metrics"
	"github.com/kailas-cloud/stylesearch/internal/observability"
)

// DefaultEntityKind prefixes index keys when none is configured.
const DefaultEntityKind = "style"

// Service keeps the vector index in step with the catalog, one record at a time.
// It never returns errors: every failure is logged and carried in the Result.
type Service struct {
	index      VectorIndex
	embedder   Embedder
	composer   Composer
	entityKind string
	logger     *zap.Logger
}

// New creates an index synchronizer.
func New(index VectorIndex, embedder Embedder, composer Composer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		index:      index,
		embedder:   embedder,
		composer:   composer,
		entityKind: DefaultEntityKind,
		logger:     logger,
	}
}

// WithEntityKind overrides the key prefix.
func (s *Service) WithEntityKind(kind string) *Service {
	if kind != "" {
		s.entityKind = kind
	}
	return s
}

// Key returns the index entry key for a record ID.
func (s *Service) Key(id int64) string {
	return s.entityKind + "_" + strconv.FormatInt(id, 10)
}

// Upsert composes, embeds and writes one style. An embedding failure leaves the index untouched.
func (s *Service) Upsert(ctx context.Context, st style.Style) domidx.Result {
	key := s.Key(st.ID())
	ctx, span := observability.StartSyncSpan(ctx, string(domidx.OpUpsert), key)
	defer span.End()
	start := time.Now()

	doc := s.composer.Compose(st)

	res := s.write(ctx, key, doc)

	observability.RecordError(span, res.Err())
	s.observe(ctx, res, start, zap.String("title", st.Title()), zap.Int("text_len", len(doc.Text)))
	return res
}

func (s *Service) write(ctx context.Context, key string, doc style.Document) domidx.Result {
	emb, err := s.embedder.Embed(ctx, doc.Text)
	if err == nil && len(emb.Embedding) == 0 {
		err = fmt.Errorf("empty vector: %w", domain.ErrEmbeddingFailure)
	}
	if err != nil {
		return domidx.NewError(key, domidx.OpUpsert, classify(err, domain.ErrEmbeddingFailure))
	}
	if err := s.index.Upsert(ctx, key, emb.Embedding, doc.Metadata); err != nil {
		return domidx.NewError(key, domidx.OpUpsert, classify(err, domain.ErrIndexWriteFailure))
	}
	return domidx.NewOK(key, domidx.OpUpsert)
}

// Remove deletes the index entry for a record ID. A missing entry counts as success.
func (s *Service) Remove(ctx context.Context, id int64) domidx.Result {
	key := s.Key(id)
	ctx, span := observability.StartSyncSpan(ctx, string(domidx.OpRemove), key)
	defer span.End()
	start := time.Now()

	res := domidx.NewOK(key, domidx.OpRemove)
	if err := s.index.Delete(ctx, key); err != nil {
		res = domidx.NewError(key, domidx.OpRemove, classify(err, domain.ErrIndexWriteFailure))
	}

	observability.RecordError(span, res.Err())
	s.observe(ctx, res, start)
	return res
}

func (s *Service) observe(ctx context.Context, res domidx.Result, start time.Time, extra ...zap.Field) {
	metrics.IndexSyncTotal.WithLabelValues(string(res.Op()), string(res.Status())).Inc()
	metrics.IndexSyncDuration.WithLabelValues(string(res.Op())).Observe(time.Since(start).Seconds())

	fields := append([]zap.Field{
		zap.String("key", res.Key()),
		zap.String("op", string(res.Op())),
		zap.Duration("duration", time.Since(start)),
	}, extra...)

	log := logpkg.FromContext(ctx, s.logger)
	if res.OK() {
		log.Debug("Index sync completed", fields...)
		return
	}
	log.Warn("Index sync failed", append(fields, zap.String("kind", res.Kind()), zap.Error(res.Err()))...)
}

// classify makes sure err carries the sentinel for the failing step.
func classify(err, sentinel error) error {
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
