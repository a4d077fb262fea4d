// Package notify turns catalog change hooks into index synchronizations.
package notify

import (
	"context"

	"go.uber.org/zap"

	domidx "github.com/kailas-cloud/stylesearch/internal/domain/indexing"
	"github.com/kailas-cloud/stylesearch/internal/domain/style"
	logpkg "github.com/kailas-cloud/stylesearch/internal/logger"
)

// Synchronizer applies a single record change to the vector index.
type Synchronizer interface {
	Upsert(ctx context.Context, s style.Style) domidx.Result
	Remove(ctx context.Context, id int64) domidx.Result
}

// Notifier implements catalog.Hooks. It runs inline on the write path and never fails it.
type Notifier struct {
	sync   Synchronizer
	logger *zap.Logger
}

// New creates a change notifier.
func New(syncer Synchronizer, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{sync: syncer, logger: logger}
}

// StyleSaved re-indexes a created or updated style.
func (n *Notifier) StyleSaved(ctx context.Context, s style.Style) {
	n.report(ctx, "saved", n.sync.Upsert(ctx, s))
}

// TagsChanged re-indexes a style after any tag operation, including no-op ones.
func (n *Notifier) TagsChanged(ctx context.Context, s style.Style) {
	n.report(ctx, "tags_changed", n.sync.Upsert(ctx, s))
}

// StyleDeleted drops the index entry of a deleted style.
func (n *Notifier) StyleDeleted(ctx context.Context, id int64) {
	n.report(ctx, "deleted", n.sync.Remove(ctx, id))
}

func (n *Notifier) report(ctx context.Context, event string, res domidx.Result) {
	if res.OK() {
		return
	}
	logpkg.FromContext(ctx, n.logger).Error("Index out of sync after catalog change",
		zap.String("event", event),
		zap.String("key", res.Key()),
		zap.String("kind", res.Kind()),
		zap.Error(res.Err()),
	)
}
