package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/stylesearch/internal/db"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/result"
	"github.com/kailas-cloud/stylesearch/internal/domain/style"
)

// Reserved hash fields.
const (
	fieldVector = "__vector"
	fieldMeta   = "__meta"
)

// store is the consumer interface for the vector index (ISP).
type store interface {
	Ping(ctx context.Context) error
	HReplace(ctx context.Context, key string, fields map[string]string) error
	Del(ctx context.Context, key string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Options configures key layout and the HNSW index.
type Options struct {
	KeyPrefix     string
	Dimensions    int
	HNSWM         int
	HNSWEFConstr  int
	TagAttributes []string
}

// Repo implements the vector index port on top of Redis/Valkey FT indexes.
// Each entry is one HASH at <prefix><key>.
type Repo struct {
	store store
	opts  Options
}

// New creates a vector index repository.
func New(s store, opts Options) *Repo {
	if opts.TagAttributes == nil {
		opts.TagAttributes = style.CategoricalAttributes
	}
	return &Repo{store: s, opts: opts}
}

// IndexName returns the FT index name.
func (r *Repo) IndexName() string { return r.opts.KeyPrefix + "idx" }

// EnsureIndex creates the FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.IndexName())
	if err != nil {
		return fmt.Errorf("check index %s: %w", r.IndexName(), err)
	}
	if exists {
		return nil
	}

	def, err := r.buildIndex()
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", r.IndexName(), err)
	}
	return nil
}

func (r *Repo) buildIndex() (*db.IndexDefinition, error) {
	fields := make([]db.IndexField, 0, len(r.opts.TagAttributes)+2)
	fields = append(fields, db.Numeric(style.MetaStyleID))
	for _, name := range r.opts.TagAttributes {
		fields = append(fields, db.ExactTag(name))
	}
	fields = append(fields, db.CosineHNSW(fieldVector, db.VectorAlias, r.opts.Dimensions, r.opts.HNSWM, r.opts.HNSWEFConstr))
	return db.NewIndex(r.IndexName(), r.opts.KeyPrefix, fields...)
}

// Upsert fully replaces the entry at key: no field of a previous version survives.
func (r *Repo) Upsert(ctx context.Context, key string, vector []float32, metadata map[string]any) error {
	if len(vector) == 0 {
		return fmt.Errorf("upsert %s: empty vector", key)
	}
	fields, err := r.buildHashFields(vector, metadata)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	if err := r.store.HReplace(ctx, r.opts.KeyPrefix+key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Delete removes the entry at key. A missing entry is not an error.
func (r *Repo) Delete(ctx context.Context, key string) error {
	if err := r.store.Del(ctx, r.opts.KeyPrefix+key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// Query returns up to topK nearest entries, best first, with their metadata.
func (r *Repo) Query(
	ctx context.Context, vector []float32, topK int, filters filter.Expression,
) ([]result.Hit, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.IndexName(),
		Filters:      filters,
		Vector:       vector,
		K:            topK,
		ReturnFields: []string{fieldMeta},
	})
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", r.IndexName(), err)
	}
	if sr == nil {
		return nil, nil
	}

	hits := make([]result.Hit, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		key := strings.TrimPrefix(e.Key, r.opts.KeyPrefix)
		meta, err := decodeMeta(e.Fields[fieldMeta])
		if err != nil {
			return nil, fmt.Errorf("decode %s metadata: %w", key, err)
		}
		id, ok := styleID(meta, key)
		if !ok {
			continue
		}
		hits = append(hits, result.New(id, key, e.Score, meta))
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score() > hits[j].Score() })
	return hits, nil
}

// Check verifies connectivity and that the FT index exists.
func (r *Repo) Check(ctx context.Context) error {
	if err := r.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	exists, err := r.store.IndexExists(ctx, r.IndexName())
	if err != nil {
		return fmt.Errorf("check index %s: %w", r.IndexName(), err)
	}
	if !exists {
		return fmt.Errorf("index %s does not exist", r.IndexName())
	}
	return nil
}

func (r *Repo) buildHashFields(vector []float32, metadata map[string]any) (map[string]string, error) {
	meta, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	m := make(map[string]string, 3+len(r.opts.TagAttributes))
	m[fieldVector] = db.EncodeVector(vector)
	m[fieldMeta] = string(meta)
	if id, ok := metadata[style.MetaStyleID].(int64); ok {
		m[style.MetaStyleID] = strconv.FormatInt(id, 10)
	}
	for _, attr := range r.opts.TagAttributes {
		if v, ok := metadata[attr].(string); ok && v != "" {
			m[attr] = v
		}
	}
	return m, nil
}

// decodeMeta restores integer ids and string lists that JSON flattens to float64 and []any.
func decodeMeta(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	for k, v := range m {
		switch tv := v.(type) {
		case json.Number:
			if i, err := tv.Int64(); err == nil {
				m[k] = i
			} else if f, err := tv.Float64(); err == nil {
				m[k] = f
			}
		case []any:
			ss := make([]string, 0, len(tv))
			for _, e := range tv {
				if s, ok := e.(string); ok {
					ss = append(ss, s)
				}
			}
			m[k] = ss
		}
	}
	return m, nil
}

// styleID reads style_id from metadata, falling back to the numeric suffix of "<kind>_<id>".
func styleID(meta map[string]any, key string) (int64, bool) {
	if id, ok := meta[style.MetaStyleID].(int64); ok {
		return id, true
	}
	i := strings.LastIndexByte(key, '_')
	if i < 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(key[i+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
