package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/stylesearch/internal/domain"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/stylesearch/internal/domain/style"
)

// MaxQueryLength is the maximum allowed search query length.
const MaxQueryLength = 4096

// Request is a validated search query. A zero TopK means "use the configured default".
type Request struct {
	query   string
	topK    int
	filters filter.Expression
}

// New validates and normalizes search parameters.
// Filter keys must be categorical style attributes with known codes.
func New(query string, topK int, filters filter.Expression) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("%w: query is required", domain.ErrInvalidQuery)
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidQuery, MaxQueryLength)
	}
	for _, c := range filters.Must() {
		if err := style.ValidateAttribute(c.Key(), c.Match()); err != nil {
			return Request{}, fmt.Errorf("%w: filter: %w", domain.ErrInvalidQuery, err)
		}
	}
	if topK < 0 {
		topK = 0
	}
	return Request{query: query, topK: topK, filters: filters}, nil
}

// Query returns the trimmed search text.
func (r Request) Query() string { return r.query }

// TopK returns the requested number of results (0 = default).
func (r Request) TopK() int { return r.topK }

// Filters returns the categorical pre-filter.
func (r Request) Filters() filter.Expression { return r.filters }
