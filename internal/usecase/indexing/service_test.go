package indexing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/stylesearch/internal/domain"
	domidx "github.com/kailas-cloud/stylesearch/internal/domain/indexing"
	"github.com/kailas-cloud/stylesearch/internal/domain/style"
	"github.com/kailas-cloud/stylesearch/internal/metrics"
)

// --- Mocks ---

type upsertCall struct {
	key      string
	vector   []float32
	metadata map[string]any
}

type mockIndex struct {
	upserts   []upsertCall
	deletes   []string
	upsertErr error
	deleteErr error
}

func (m *mockIndex) Upsert(_ context.Context, key string, vector []float32, metadata map[string]any) error {
	m.upserts = append(m.upserts, upsertCall{key: key, vector: vector, metadata: metadata})
	return m.upsertErr
}

func (m *mockIndex) Delete(_ context.Context, key string) error {
	m.deletes = append(m.deletes, key)
	return m.deleteErr
}

type mockEmbedder struct {
	vector []float32
	err    error
	texts  []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.texts = append(m.texts, text)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vector, TotalTokens: 5}, nil
}

func newComposer(t *testing.T) *style.Composer {
	t.Helper()
	c, err := style.NewComposer(nil)
	if err != nil {
		t.Fatalf("composer: %v", err)
	}
	return c
}

func buzzCut(id int64) style.Style {
	return style.Reconstruct(id, style.Attributes{
		Title:       "Buzz",
		Description: "Clean crop",
		Length:      style.LengthShort,
		Texture:     style.TextureStraight,
		Thickness:   style.ThicknessFine,
		Maintenance: style.MaintenanceLow,
		StylistName: "Ana",
		Tags:        []string{"summer", "easy"},
	}, time.Time{}, time.Time{})
}

// --- Tests ---

func TestKey(t *testing.T) {
	s := New(&mockIndex{}, &mockEmbedder{}, newComposer(t), nil)
	if got := s.Key(42); got != "style_42" {
		t.Errorf("Key(42) = %q", got)
	}
	if got := s.WithEntityKind("look").Key(7); got != "look_7" {
		t.Errorf("Key(7) = %q", got)
	}
	if got := s.WithEntityKind("").Key(7); got != "look_7" {
		t.Errorf("empty entity kind should keep previous, got %q", got)
	}
}

func TestUpsert_Success(t *testing.T) {
	idx := &mockIndex{}
	emb := &mockEmbedder{vector: []float32{0.1, 0.2, 0.3}}
	s := New(idx, emb, newComposer(t), nil)

	before := testutil.ToFloat64(metrics.IndexSyncTotal.WithLabelValues("upsert", "ok"))
	res := s.Upsert(context.Background(), buzzCut(42))

	if !res.OK() || res.Key() != "style_42" || res.Op() != domidx.OpUpsert {
		t.Fatalf("result = %+v (err %v)", res, res.Err())
	}
	want := "Buzz Clean crop Length: Short Texture: Straight Thickness: Fine Maintenance: Low Stylist: Ana Tags: easy, summer"
	if len(emb.texts) != 1 || emb.texts[0] != want {
		t.Errorf("embedded text = %q", emb.texts)
	}
	if len(idx.upserts) != 1 {
		t.Fatalf("expected 1 index write, got %d", len(idx.upserts))
	}
	call := idx.upserts[0]
	if call.key != "style_42" || len(call.vector) != 3 {
		t.Errorf("upsert call = %+v", call)
	}
	if call.metadata[style.MetaStyleID] != int64(42) || call.metadata[style.AttrLength] != "SHORT" {
		t.Errorf("metadata = %v", call.metadata)
	}
	if got := testutil.ToFloat64(metrics.IndexSyncTotal.WithLabelValues("upsert", "ok")); got != before+1 {
		t.Errorf("sync counter = %f, want %f", got, before+1)
	}
}

func TestUpsert_Idempotent(t *testing.T) {
	idx := &mockIndex{}
	emb := &mockEmbedder{vector: []float32{1}}
	s := New(idx, emb, newComposer(t), nil)

	s.Upsert(context.Background(), buzzCut(1))
	s.Upsert(context.Background(), buzzCut(1))

	if emb.texts[0] != emb.texts[1] {
		t.Errorf("texts differ: %q vs %q", emb.texts[0], emb.texts[1])
	}
	if fmt.Sprint(idx.upserts[0].metadata) != fmt.Sprint(idx.upserts[1].metadata) {
		t.Errorf("metadata differs")
	}
}

func TestUpsert_EmbeddingFailureSkipsIndex(t *testing.T) {
	tests := []struct {
		name string
		emb  *mockEmbedder
	}{
		{"provider error", &mockEmbedder{err: fmt.Errorf("timeout: %w", domain.ErrEmbeddingFailure)}},
		{"unclassified error", &mockEmbedder{err: context.DeadlineExceeded}},
		{"empty vector", &mockEmbedder{vector: nil}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			idx := &mockIndex{}
			s := New(idx, tc.emb, newComposer(t), nil)

			res := s.Upsert(context.Background(), buzzCut(3))
			if res.OK() || res.Status() != domidx.StatusError {
				t.Fatal("expected failed result")
			}
			if !errors.Is(res.Err(), domain.ErrEmbeddingFailure) {
				t.Errorf("err = %v, want ErrEmbeddingFailure", res.Err())
			}
			if res.Kind() != "embedding_failure" {
				t.Errorf("kind = %q", res.Kind())
			}
			if len(idx.upserts) != 0 {
				t.Error("index must not be written after embedding failure")
			}
		})
	}
}

func TestUpsert_IndexFailure(t *testing.T) {
	idx := &mockIndex{upsertErr: errors.New("connection refused")}
	s := New(idx, &mockEmbedder{vector: []float32{1, 2}}, newComposer(t), nil)

	before := testutil.ToFloat64(metrics.IndexSyncTotal.WithLabelValues("upsert", "error"))
	res := s.Upsert(context.Background(), buzzCut(5))

	if res.OK() {
		t.Fatal("expected failure")
	}
	if !errors.Is(res.Err(), domain.ErrIndexWriteFailure) {
		t.Errorf("err = %v, want ErrIndexWriteFailure", res.Err())
	}
	if res.Kind() != "index_write_failure" {
		t.Errorf("kind = %q", res.Kind())
	}
	if got := testutil.ToFloat64(metrics.IndexSyncTotal.WithLabelValues("upsert", "error")); got != before+1 {
		t.Errorf("error counter = %f, want %f", got, before+1)
	}
}

func TestRemove(t *testing.T) {
	idx := &mockIndex{}
	s := New(idx, &mockEmbedder{}, newComposer(t), nil)

	res := s.Remove(context.Background(), 9)
	if !res.OK() || res.Op() != domidx.OpRemove || res.Key() != "style_9" {
		t.Fatalf("result = %+v", res)
	}
	if len(idx.deletes) != 1 || idx.deletes[0] != "style_9" {
		t.Errorf("deletes = %v", idx.deletes)
	}
}

func TestRemove_Failure(t *testing.T) {
	idx := &mockIndex{deleteErr: errors.New("timeout")}
	s := New(idx, &mockEmbedder{}, newComposer(t), nil)

	res := s.Remove(context.Background(), 9)
	if res.OK() {
		t.Fatal("expected failure")
	}
	if !errors.Is(res.Err(), domain.ErrIndexWriteFailure) {
		t.Errorf("err = %v", res.Err())
	}
}
