package redis

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/stylesearch/internal/db"
)

func styleIndex() *db.IndexDefinition {
	return &db.IndexDefinition{
		Name:     "stylesearch:idx",
		Prefixes: []string{"stylesearch:"},
		Fields: []db.IndexField{
			{Name: "style_id", Type: db.IndexFieldNumeric},
			{Name: "texture", Type: db.IndexFieldTag, TagCaseSensitive: true},
			{
				Name: "__vector", Alias: "vector", Type: db.IndexFieldVector,
				VectorDim: 8, VectorM: 16, VectorEFConstruct: 200,
			},
		},
	}
}

func TestCreateArgs(t *testing.T) {
	args, err := createArgs(styleIndex())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"stylesearch:idx", "ON", "HASH", "PREFIX", "1", "stylesearch:", "SCHEMA",
		"style_id", "NUMERIC",
		"texture", "TAG", "CASESENSITIVE",
		"__vector", "AS", "vector", "VECTOR", "HNSW", "10",
		"TYPE", "FLOAT32", "DIM", "8", "DISTANCE_METRIC", "COSINE", "M", "16", "EF_CONSTRUCTION", "200",
	}
	if !slices.Equal(args, want) {
		t.Errorf("args = %v\nwant %v", args, want)
	}
}

func TestCreateArgs_Invalid(t *testing.T) {
	tag := db.IndexField{Name: "f", Type: db.IndexFieldTag}
	tests := map[string]*db.IndexDefinition{
		"empty name":     {Fields: []db.IndexField{tag}},
		"no fields":      {Name: "idx"},
		"unnamed field":  {Name: "idx", Fields: []db.IndexField{{Type: db.IndexFieldTag}}},
		"unknown type":   {Name: "idx", Fields: []db.IndexField{{Name: "f", Type: db.IndexFieldType(99)}}},
		"zero dimension": {Name: "idx", Fields: []db.IndexField{{Name: "v", Type: db.IndexFieldVector}}},
	}
	for name, def := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := createArgs(def); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCreateIndex(t *testing.T) {
	tests := []struct {
		name   string
		result rueidis.RedisResult
		check  func(t *testing.T, err error)
	}{
		{
			name:   "created",
			result: mock.Result(mock.RedisString("OK")),
			check: func(t *testing.T, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			},
		},
		{
			name:   "already exists",
			result: mock.Result(mock.RedisError("Index already exists")),
			check: func(t *testing.T, err error) {
				if !errors.Is(err, db.ErrIndexExists) {
					t.Errorf("expected ErrIndexExists, got %v", err)
				}
			},
		},
		{
			name:   "transport failure",
			result: mock.ErrorResult(context.DeadlineExceeded),
			check: func(t *testing.T, err error) {
				requireDBError(t, err, db.OpCreateIndex)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, c := newMockStore(t)
			c.EXPECT().
				Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
					return cmd[0] == "FT.CREATE" && cmd[1] == "stylesearch:idx"
				})).
				Return(tt.result)
			tt.check(t, s.CreateIndex(context.Background(), styleIndex()))
		})
	}
}

func TestIndexExists(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		isError bool
		want    bool
	}{
		{name: "present", reply: "index_name", want: true},
		{name: "redis unknown", reply: "Unknown Index name", isError: true},
		{name: "valkey not found", reply: "Index with name 'stylesearch:idx' not found", isError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, c := newMockStore(t)
			msg := mock.RedisArray(mock.RedisString(tt.reply))
			if tt.isError {
				msg = mock.RedisError(tt.reply)
			}
			c.EXPECT().Do(gomock.Any(), mock.Match("FT.INFO", "stylesearch:idx")).Return(mock.Result(msg))

			got, err := s.IndexExists(context.Background(), "stylesearch:idx")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("exists = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIndexExists_Failure(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), gomock.Any()).Return(mock.ErrorResult(context.Canceled))

	_, err := s.IndexExists(context.Background(), "stylesearch:idx")
	requireDBError(t, err, db.OpIndexInfo)
}
