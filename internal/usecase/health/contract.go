package health

import (
	"context"

	"github.com/kailas-cloud/stylesearch/internal/domain"
)

// Pinger checks relational store availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker checks the vector index backend and that the index exists.
type IndexChecker interface {
	Check(ctx context.Context) error
}

// Embedder is probed with a real embedding request.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
