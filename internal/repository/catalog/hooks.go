package catalog

import (
	"context"

	"github.com/kailas-cloud/stylesearch/internal/domain/style"
)

// Hooks receives change notifications after a write has committed.
// Styles are always passed fully re-read from the store.
type Hooks interface {
	StyleSaved(ctx context.Context, s style.Style)
	TagsChanged(ctx context.Context, s style.Style)
	StyleDeleted(ctx context.Context, id int64)
}

type nopHooks struct{}

func (nopHooks) StyleSaved(context.Context, style.Style)  {}
func (nopHooks) TagsChanged(context.Context, style.Style) {}
func (nopHooks) StyleDeleted(context.Context, int64)      {}
