package reindex

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kailas-cloud/stylesearch/internal/domain"
	domidx "github.com/kailas-cloud/stylesearch/internal/domain/indexing"
	"github.com/kailas-cloud/stylesearch/internal/domain/style"
)

type mockCatalog struct {
	styles []style.Style
	err    error
}

func (m *mockCatalog) List(_ context.Context, _, _ int) ([]style.Style, error) {
	return m.styles, m.err
}

type mockSync struct {
	mu      sync.Mutex
	seen    map[int64]int
	failIDs map[int64]bool
	active  atomic.Int32
	peak    atomic.Int32
	delay   time.Duration
}

func (m *mockSync) Upsert(_ context.Context, s style.Style) domidx.Result {
	n := m.active.Add(1)
	defer m.active.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(m.delay)

	m.mu.Lock()
	if m.seen == nil {
		m.seen = make(map[int64]int)
	}
	m.seen[s.ID()]++
	m.mu.Unlock()

	key := "style_" + s.Title()
	if m.failIDs[s.ID()] {
		return domidx.NewError(key, domidx.OpUpsert, domain.ErrEmbeddingFailure)
	}
	return domidx.NewOK(key, domidx.OpUpsert)
}

func styles(n int) []style.Style {
	out := make([]style.Style, n)
	for i := range out {
		out[i] = style.Reconstruct(int64(i+1), style.Attributes{Title: string(rune('A' + i)), StylistName: "Ana"},
			time.Time{}, time.Time{})
	}
	return out
}

func TestRun_Sequential(t *testing.T) {
	ms := &mockSync{failIDs: map[int64]bool{2: true}}
	svc := New(&mockCatalog{styles: styles(3)}, ms, nil)

	var calls []int
	var titles []string
	sum, err := svc.Run(context.Background(), func(i, total int, s style.Style, res domidx.Result) {
		if total != 3 {
			t.Errorf("total = %d", total)
		}
		calls = append(calls, i)
		titles = append(titles, s.Title())
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Total != 3 || sum.Success != 2 || len(sum.Failures) != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if sum.Failures[0].Kind() != "embedding_failure" {
		t.Errorf("failure kind = %s", sum.Failures[0].Kind())
	}
	if len(calls) != 3 || calls[0] != 1 || calls[2] != 3 {
		t.Errorf("progress indexes = %v", calls)
	}
	if titles[0] != "A" || titles[1] != "B" || titles[2] != "C" {
		t.Errorf("sequential run must keep catalog order, got %v", titles)
	}
	if ms.peak.Load() != 1 {
		t.Errorf("peak concurrency = %d, want 1", ms.peak.Load())
	}
}

func TestRun_ParallelVisitsEachOnce(t *testing.T) {
	ms := &mockSync{delay: 5 * time.Millisecond}
	svc := New(&mockCatalog{styles: styles(12)}, ms, nil).WithConcurrency(4)

	var progressCalls atomic.Int32
	sum, err := svc.Run(context.Background(), func(int, int, style.Style, domidx.Result) {
		progressCalls.Add(1)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Success != 12 || sum.Total != 12 {
		t.Errorf("summary = %+v", sum)
	}
	if progressCalls.Load() != 12 {
		t.Errorf("progress calls = %d", progressCalls.Load())
	}
	for id, n := range ms.seen {
		if n != 1 {
			t.Errorf("style %d upserted %d times", id, n)
		}
	}
	if len(ms.seen) != 12 {
		t.Errorf("seen %d styles, want 12", len(ms.seen))
	}
	if peak := ms.peak.Load(); peak > 4 {
		t.Errorf("peak concurrency = %d, limit is 4", peak)
	}
}

func TestRun_EmptyCatalog(t *testing.T) {
	sum, err := New(&mockCatalog{}, &mockSync{}, nil).Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Total != 0 || sum.Success != 0 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestRun_ListFailure(t *testing.T) {
	_, err := New(&mockCatalog{err: errors.New("no such table")}, &mockSync{}, nil).Run(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ms := &mockSync{}
	sum, err := New(&mockCatalog{styles: styles(3)}, ms, nil).Run(ctx, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if sum.Success != 0 || len(ms.seen) != 0 {
		t.Errorf("nothing should run after cancellation, summary = %+v", sum)
	}
}

func TestRun_Rerunnable(t *testing.T) {
	ms := &mockSync{}
	svc := New(&mockCatalog{styles: styles(2)}, ms, nil)
	for range 2 {
		if _, err := svc.Run(context.Background(), nil); err != nil {
			t.Fatalf("run: %v", err)
		}
	}
	if ms.seen[1] != 2 || ms.seen[2] != 2 {
		t.Errorf("seen = %v", ms.seen)
	}
}
