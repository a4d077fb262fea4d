package indexing

import (
	"fmt"
	"testing"

	"github.com/kailas-cloud/stylesearch/internal/domain"
)

func TestResult_OK(t *testing.T) {
	r := NewOK("style_1", OpUpsert)
	if !r.OK() || r.Status() != StatusOK {
		t.Errorf("status = %s", r.Status())
	}
	if r.Key() != "style_1" || r.Op() != OpUpsert {
		t.Errorf("key/op = %s/%s", r.Key(), r.Op())
	}
	if r.Err() != nil || r.Kind() != "" {
		t.Errorf("err = %v, kind = %q", r.Err(), r.Kind())
	}
}

func TestResult_Kind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("embed: %w", domain.ErrEmbeddingFailure), "embedding_failure"},
		{fmt.Errorf("hset: %w", domain.ErrIndexWriteFailure), "index_write_failure"},
		{fmt.Errorf("boom"), "unknown"},
	}
	for _, tt := range tests {
		r := NewError("style_2", OpRemove, tt.err)
		if r.OK() {
			t.Error("expected failure")
		}
		if r.Kind() != tt.want {
			t.Errorf("Kind() = %q, want %q", r.Kind(), tt.want)
		}
	}
}
