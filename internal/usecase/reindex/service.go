package reindex

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	domidx "github.com/kailas-cloud/stylesearch/internal/domain/indexing"
	"github.com/kailas-cloud/stylesearch/internal/domain/style"
	"github.com/kailas-cloud/stylesearch/internal/metrics"
)

// ProgressFunc is called once per style after its upsert. i is 1-based.
// Calls are serialized even when the job runs in parallel.
type ProgressFunc func(i, total int, s style.Style, res domidx.Result)

// Summary reports a finished run.
type Summary struct {
	Success  int
	Total    int
	Failures []domidx.Result
}

// Service rebuilds the vector index from the catalog.
type Service struct {
	catalog     Catalog
	sync        Synchronizer
	concurrency int
	logger      *zap.Logger
}

// New creates a bulk reindex job. It runs sequentially unless WithConcurrency raises the limit.
func New(catalog Catalog, syncer Synchronizer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{catalog: catalog, sync: syncer, concurrency: 1, logger: logger}
}

// WithConcurrency sets how many styles are upserted at once.
func (s *Service) WithConcurrency(n int) *Service {
	if n > 0 {
		s.concurrency = n
	}
	return s
}

// Run upserts every style exactly once. A failed style never stops the run;
// only a catalog listing failure or cancellation is returned as an error.
func (s *Service) Run(ctx context.Context, progress ProgressFunc) (Summary, error) {
	styles, err := s.catalog.List(ctx, 0, 0)
	if err != nil {
		return Summary{}, fmt.Errorf("list styles: %w", err)
	}

	total := len(styles)
	sum := Summary{Total: total}
	s.logger.Info("Reindex started", zap.Int("total", total), zap.Int("concurrency", s.concurrency))

	var (
		mu   sync.Mutex
		done int
	)
	record := func(st style.Style, res domidx.Result) {
		mu.Lock()
		defer mu.Unlock()
		done++
		if res.OK() {
			sum.Success++
			metrics.ReindexStylesTotal.WithLabelValues("ok").Inc()
		} else {
			sum.Failures = append(sum.Failures, res)
			metrics.ReindexStylesTotal.WithLabelValues("error").Inc()
		}
		if progress != nil {
			progress(done, total, st, res)
		}
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, st := range styles {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			record(st, s.sync.Upsert(ctx, st))
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("Reindex finished",
		zap.Int("success", sum.Success),
		zap.Int("failed", len(sum.Failures)),
		zap.Int("total", total),
	)
	if err := ctx.Err(); err != nil {
		return sum, fmt.Errorf("reindex interrupted: %w", err)
	}
	return sum, nil
}
