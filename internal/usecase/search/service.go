package search

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/stylesearch/internal/domain"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/request"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/result"
	"github.com/kailas-cloud/stylesearch/internal/domain/style"
	logpkg "github.com/kailas-cloud/stylesearch/internal/logger"
	"github.com/kailas-cloud/stylesearch/internal/metrics"
	"github.com/kailas-cloud/stylesearch/internal/observability"
)

// Method names the path that produced a response.
type Method string

// Search methods.
const (
	MethodVector Method = "vector"
	MethodText   Method = "text"
)

// FallbackReason explains why the vector path did not answer.
type FallbackReason string

// Fallback reasons.
const (
	ReasonNone              FallbackReason = ""
	ReasonEmbeddingFailure  FallbackReason = "embedding_failure"
	ReasonIndexQueryFailure FallbackReason = "index_query_failure"
	ReasonBelowThreshold    FallbackReason = "below_threshold"
	ReasonStaleHits         FallbackReason = "stale_hits"
)

// Defaults.
const (
	DefaultScoreThreshold = 0.75
	DefaultTopK           = 10
	DefaultMaxTopK        = 100
)

// Response is the answer to one search.
// For the vector method Hits is aligned with Styles; for the text method it is empty.
type Response struct {
	Query          string
	Styles         []style.Style
	Method         Method
	Hits           []result.Hit
	Count          int
	FallbackReason FallbackReason
}

// Config tunes the query engine.
type Config struct {
	// ScoreThreshold is the minimum similarity a hit needs. Nil means DefaultScoreThreshold; 0 keeps every hit.
	ScoreThreshold *float64
	DefaultTopK    int
	MaxTopK        int
}

// Service answers natural-language queries with vector search and a lexical fallback.
type Service struct {
	index   VectorIndex
	embed   Embedder
	catalog Catalog
	cfg       Config
	threshold float64
	logger    *zap.Logger
}

// New creates a query engine. Zero config values take the defaults.
func New(index VectorIndex, embed Embedder, catalog Catalog, cfg Config, logger *zap.Logger) *Service {
	threshold := DefaultScoreThreshold
	if cfg.ScoreThreshold != nil {
		threshold = *cfg.ScoreThreshold
	}
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = DefaultTopK
	}
	if cfg.MaxTopK <= 0 {
		cfg.MaxTopK = DefaultMaxTopK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		index: index, embed: embed, catalog: catalog, cfg: cfg, threshold: threshold, logger: logger,
	}
}

// Search runs the vector path and falls back to lexical matching when it fails or finds nothing.
// Only invalid input and catalog failures are returned as errors.
func (s *Service) Search(ctx context.Context, req request.Request) (Response, error) {
	if req.Query() == "" {
		return Response{}, fmt.Errorf("%w: query is required", domain.ErrInvalidQuery)
	}
	topK := s.topK(req.TopK())

	ctx, span := observability.StartSearchSpan(ctx, topK)
	defer span.End()

	resp, reason, err := s.searchVector(ctx, req, topK)
	if err == nil && reason != ReasonNone {
		metrics.SearchFallbackTotal.WithLabelValues(string(reason)).Inc()
		resp, err = s.searchText(ctx, req)
		resp.FallbackReason = reason
	}
	if err != nil {
		observability.RecordError(span, err)
		return Response{}, err
	}

	metrics.SearchTotal.WithLabelValues(string(resp.Method)).Inc()
	logpkg.FromContext(ctx, s.logger).Debug("Search completed",
		zap.String("method", string(resp.Method)),
		zap.String("fallback_reason", string(resp.FallbackReason)),
		zap.Int("top_k", topK),
		zap.Int("count", resp.Count),
	)
	return resp, nil
}

// searchVector returns a non-empty reason when the caller should fall back.
func (s *Service) searchVector(
	ctx context.Context, req request.Request, topK int,
) (Response, FallbackReason, error) {
	emb, err := s.embed.Embed(ctx, req.Query())
	if err == nil && len(emb.Embedding) == 0 {
		err = fmt.Errorf("empty vector: %w", domain.ErrEmbeddingFailure)
	}
	if err != nil {
		logpkg.FromContext(ctx, s.logger).Warn("Query embedding failed, using text search", zap.Error(err))
		return Response{}, ReasonEmbeddingFailure, nil
	}

	hits, err := s.index.Query(ctx, emb.Embedding, topK, req.Filters())
	if err != nil {
		logpkg.FromContext(ctx, s.logger).Warn("Vector index query failed, using text search", zap.Error(err))
		return Response{}, ReasonIndexQueryFailure, nil
	}

	hits = result.AboveThreshold(hits, s.threshold)
	if len(hits) == 0 {
		return Response{}, ReasonBelowThreshold, nil
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score() > hits[j].Score() })

	ids := make([]int64, len(hits))
	for i, h := range hits {
		ids[i] = h.ID()
	}
	found, err := s.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return Response{}, ReasonNone, fmt.Errorf("resolve hits: %w: %w", domain.ErrStoreUnavailable, err)
	}

	resp := Response{Query: req.Query(), Method: MethodVector}
	for _, h := range hits {
		st, ok := found[h.ID()]
		if !ok {
			continue
		}
		resp.Styles = append(resp.Styles, st)
		resp.Hits = append(resp.Hits, h)
	}
	if len(resp.Styles) == 0 {
		return Response{}, ReasonStaleHits, nil
	}
	resp.Count = len(resp.Styles)
	return resp, ReasonNone, nil
}

func (s *Service) searchText(ctx context.Context, req request.Request) (Response, error) {
	styles, err := s.catalog.SearchText(ctx, req.Query(), req.Filters())
	if err != nil {
		return Response{}, fmt.Errorf("text search: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return Response{
		Query:  req.Query(),
		Styles: styles,
		Method: MethodText,
		Count:  len(styles),
	}, nil
}

func (s *Service) topK(requested int) int {
	if requested <= 0 {
		return s.cfg.DefaultTopK
	}
	return min(requested, s.cfg.MaxTopK)
}
