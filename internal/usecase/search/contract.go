package search

import (
	"context"

	"github.com/kailas-cloud/stylesearch/internal/domain"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/result"
	"github.com/kailas-cloud/stylesearch/internal/domain/style"
)

// VectorIndex is the read side of the vector index. Hits come back best first.
type VectorIndex interface {
	Query(ctx context.Context, vector []float32, topK int, filters filter.Expression) ([]result.Hit, error)
}

// Catalog resolves hits to styles and serves the lexical fallback.
type Catalog interface {
	FindByIDs(ctx context.Context, ids []int64) (map[int64]style.Style, error)
	SearchText(ctx context.Context, query string, filters filter.Expression) ([]style.Style, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
