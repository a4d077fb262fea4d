// Package health probes the embedding provider, the vector index and the catalog.
package health

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

// Aggregated statuses.
const (
	Healthy  Status = "ok"
	Degraded Status = "degraded"
)

// CheckResult is the outcome of one component check.
type CheckResult string

// Check outcomes.
const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// Component names, in report order.
const (
	ComponentEmbedding   = "embedding"
	ComponentVectorIndex = "vector_index"
	ComponentCatalog     = "catalog"
)

// Components lists every component name in the order reports should print them.
var Components = []string{ComponentEmbedding, ComponentVectorIndex, ComponentCatalog}

// ProbeText is embedded by the embedding check.
const ProbeText = "test connection"

// DefaultCheckTimeout bounds each component check.
const DefaultCheckTimeout = 5 * time.Second

// Check is the outcome of one component check.
type Check struct {
	Result   CheckResult
	Detail   string
	Err      error
	Duration time.Duration
}

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]Check
}

// Failed reports whether any check failed.
func (r Report) Failed() bool { return r.Status != Healthy }

// Service runs the component checks concurrently. Every dependency is optional.
type Service struct {
	embedder Embedder
	index    IndexChecker
	catalog  Pinger
	timeout  time.Duration
}

// New creates a Service. Nil dependencies are skipped.
func New(embedder Embedder, index IndexChecker, catalog Pinger) *Service {
	return &Service{embedder: embedder, index: index, catalog: catalog, timeout: DefaultCheckTimeout}
}

// WithTimeout overrides the per-check timeout.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check runs every configured check independently; one failing or hanging
// component never masks the others.
func (s *Service) Check(ctx context.Context) Report {
	probes := map[string]func(context.Context) (string, error){}
	if s.embedder != nil {
		probes[ComponentEmbedding] = s.probeEmbedding
	}
	if s.index != nil {
		probes[ComponentVectorIndex] = func(ctx context.Context) (string, error) { return "", s.index.Check(ctx) }
	}
	if s.catalog != nil {
		probes[ComponentCatalog] = func(ctx context.Context) (string, error) { return "", s.catalog.Ping(ctx) }
	}

	var (
		mu     sync.Mutex
		g      errgroup.Group
		checks = make(map[string]Check, len(probes))
	)
	for name, probe := range probes {
		g.Go(func() error {
			c := s.run(ctx, probe)
			mu.Lock()
			checks[name] = c
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	status := Healthy
	for _, c := range checks {
		if c.Result == CheckError {
			status = Degraded
		}
	}
	return Report{Status: status, Checks: checks}
}

func (s *Service) run(ctx context.Context, probe func(context.Context) (string, error)) Check {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	detail, err := probe(ctx)
	c := Check{Result: CheckOK, Detail: detail, Duration: time.Since(start)}
	if err != nil {
		c.Result, c.Detail, c.Err = CheckError, "", err
	}
	return c
}

func (s *Service) probeEmbedding(ctx context.Context) (string, error) {
	res, err := s.embedder.Embed(ctx, ProbeText)
	if err != nil {
		return "", err
	}
	if len(res.Embedding) == 0 {
		return "", errors.New("empty embedding")
	}
	return fmt.Sprintf("dimension %d", len(res.Embedding)), nil
}
