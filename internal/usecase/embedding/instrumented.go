// Package embedding decorates embedding providers with tracing and request-scoped logging.
package embedding

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/kailas-cloud/stylesearch/internal/domain"
	logpkg "github.com/kailas-cloud/stylesearch/internal/logger"
	"github.com/kailas-cloud/stylesearch/internal/observability"
)

// InstrumentedEmbedder wraps an Embedder with a span and a log line per call.
// Provider metrics are recorded by the transport itself.
type InstrumentedEmbedder struct {
	inner    domain.Embedder
	provider string
	model    string
	logger   *zap.Logger
}

// NewInstrumentedEmbedder wraps inner. A nil logger is replaced with a no-op one.
func NewInstrumentedEmbedder(inner domain.Embedder, provider, model string, logger *zap.Logger) *InstrumentedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedEmbedder{inner: inner, provider: provider, model: model, logger: logger}
}

// Embed delegates to the inner embedder. A result without a vector is reported as
// domain.ErrEmbeddingFailure so callers only need to check err.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	ctx, span := observability.StartEmbedSpan(ctx, p.provider, p.model, len(text))
	defer span.End()

	start := time.Now()
	res, err := p.inner.Embed(ctx, text)
	if err == nil && len(res.Embedding) == 0 {
		err = fmt.Errorf("empty vector: %w", domain.ErrEmbeddingFailure)
	}

	log := logpkg.FromContext(ctx, p.logger).With(
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", time.Since(start)),
	)
	if err != nil {
		observability.RecordError(span, err)
		log.Error("Embedding request failed", zap.Error(err))
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	span.SetAttributes(
		attribute.Int("stylesearch.embedding.dimensions", len(res.Embedding)),
		attribute.Int("stylesearch.embedding.total_tokens", res.TotalTokens),
	)
	log.Debug("Embedding request completed",
		zap.Int("dimensions", len(res.Embedding)),
		zap.Int("prompt_tokens", res.PromptTokens),
		zap.Int("total_tokens", res.TotalTokens),
	)
	return res, nil
}

// HealthCheck forwards to the inner embedder when it can check itself; otherwise it reports healthy.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	hc, ok := p.inner.(domain.HealthChecker)
	if !ok {
		return nil
	}
	if err := hc.HealthCheck(ctx); err != nil {
		return fmt.Errorf("embedding health: %w", err)
	}
	return nil
}
