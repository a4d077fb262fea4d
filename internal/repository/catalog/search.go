package catalog

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/stylesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/stylesearch/internal/domain/style"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchText is the lexical fallback: a case-insensitive substring match of query against title,
// description, stylist name and tag names, narrowed by categorical filters, in ascending ID order.
func (s *Store) SearchText(ctx context.Context, query string, filters filter.Expression) ([]style.Style, error) {
	pattern := "%" + likeEscaper.Replace(fold(strings.TrimSpace(query))) + "%"

	where := []string{`(
		casefold(s.title) LIKE ? ESCAPE '\'
		OR casefold(s.description) LIKE ? ESCAPE '\'
		OR casefold(s.stylist_name) LIKE ? ESCAPE '\'
		OR EXISTS (
			SELECT 1 FROM style_tags t
			WHERE t.style_id = s.id AND casefold(t.name) LIKE ? ESCAPE '\'
		)
	)`}
	args := []any{pattern, pattern, pattern, pattern}

	for _, c := range filters.Must() {
		if !slices.Contains(style.CategoricalAttributes, c.Key()) {
			return nil, fmt.Errorf("unsupported filter key %q", c.Key())
		}
		// Key is whitelisted above.
		where = append(where, "s."+c.Key()+" = ?")
		args = append(args, c.Match())
	}

	q := `SELECT ` + styleColumns + ` FROM styles s WHERE ` + strings.Join(where, " AND ") + ` ORDER BY s.id`
	styles, err := queryStyles(ctx, s.db, q, args...)
	if err != nil {
		return nil, fmt.Errorf("search text: %w", err)
	}
	return styles, nil
}
