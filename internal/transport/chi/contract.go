package chi

import (
	"context"

	"github.com/kailas-cloud/stylesearch/internal/domain/search/request"
	"github.com/kailas-cloud/stylesearch/internal/domain/style"
	healthuc "github.com/kailas-cloud/stylesearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/stylesearch/internal/usecase/search"
)

// StyleStore is the catalog as seen by the HTTP layer. Its writes drive the index hooks.
type StyleStore interface {
	Create(ctx context.Context, st style.Style) (style.Style, error)
	Get(ctx context.Context, id int64) (style.Style, error)
	Update(ctx context.Context, id int64, st style.Style) (style.Style, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, offset, limit int) ([]style.Style, error)
	Count(ctx context.Context) (int, error)
	AddTags(ctx context.Context, id int64, tags []string) (style.Style, error)
	RemoveTags(ctx context.Context, id int64, tags []string) (style.Style, error)
	SetTags(ctx context.Context, id int64, tags []string) (style.Style, error)
	ClearTags(ctx context.Context, id int64) (style.Style, error)
}

// Searcher answers natural-language queries.
type Searcher interface {
	Search(ctx context.Context, req request.Request) (searchuc.Response, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
