package reindex

import (
	"context"

	domidx "github.com/kailas-cloud/stylesearch/internal/domain/indexing"
	"github.com/kailas-cloud/stylesearch/internal/domain/style"
)

// Catalog lists every style, ascending by ID. limit <= 0 means all.
type Catalog interface {
	List(ctx context.Context, offset, limit int) ([]style.Style, error)
}

// Synchronizer upserts one style into the vector index.
type Synchronizer interface {
	Upsert(ctx context.Context, s style.Style) domidx.Result
}
