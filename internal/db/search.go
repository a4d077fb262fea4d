package db

import (
	"encoding/binary"
	"math"

	"github.com/kailas-cloud/stylesearch/internal/domain/search/filter"
)

// VectorAlias is the query-time name of the single vector field of an index.
const VectorAlias = "vector"

// KNNQuery asks for the K nearest entries to Vector among those matching Filters.
type KNNQuery struct {
	IndexName    string
	Filters      filter.Expression
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is one page of KNN hits, nearest first.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a hit with its similarity in [0,1] and the requested hash fields.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// EncodeVector packs float32 components little-endian, the layout FLOAT32 vector fields expect.
func EncodeVector(v []float32) string {
	buf := make([]byte, 0, 4*len(v))
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return string(buf)
}
