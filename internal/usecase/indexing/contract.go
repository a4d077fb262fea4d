package indexing

import (
	"context"

	"github.com/kailas-cloud/stylesearch/internal/domain"
	"github.com/kailas-cloud/stylesearch/internal/domain/style"
)

// VectorIndex is the write side of the vector index.
type VectorIndex interface {
	Upsert(ctx context.Context, key string, vector []float32, metadata map[string]any) error
	Delete(ctx context.Context, key string) error
}

// Embedder vectorizes composed style text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Composer renders a style into a searchable document.
type Composer interface {
	Compose(s style.Style) style.Document
}
