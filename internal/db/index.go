package db

import (
	"errors"
	"fmt"
	"regexp"
)

// StorageType is the key type an FT index covers.
type StorageType string

// StorageHash indexes Redis hashes.
const StorageHash StorageType = "HASH"

// DistanceMetric is the vector distance FT.SEARCH reports as __vector_score.
type DistanceMetric string

// DistanceCosine is 1 - cosine similarity, the only metric the score mapping supports.
const DistanceCosine DistanceMetric = "COSINE"

// VectorAlgorithm selects the vector index structure.
type VectorAlgorithm string

// VectorHNSW is approximate nearest neighbour search over an HNSW graph.
const VectorHNSW VectorAlgorithm = "HNSW"

// IndexFieldType enumerates supported FT index field types.
type IndexFieldType int

// Field types.
const (
	IndexFieldNumeric IndexFieldType = iota
	IndexFieldTag
	IndexFieldVector
)

// IndexField describes a single SCHEMA entry.
type IndexField struct {
	Name  string
	Alias string
	Type  IndexFieldType

	// TagCaseSensitive keeps TAG values verbatim instead of lowercasing them.
	TagCaseSensitive bool

	VectorAlgo        VectorAlgorithm
	VectorDim         int
	VectorDistance    DistanceMetric
	VectorM           int // max edges per HNSW node; 0 keeps the server default
	VectorEFConstruct int // HNSW build-time candidate list; 0 keeps the server default
}

// IndexDefinition is everything FT.CREATE needs.
type IndexDefinition struct {
	Name        string
	StorageType StorageType
	Prefixes    []string
	Fields      []IndexField
}

// Numeric declares a NUMERIC field.
func Numeric(name string) IndexField {
	return IndexField{Name: name, Type: IndexFieldNumeric}
}

// ExactTag declares a case-sensitive TAG field, for enum codes matched verbatim.
func ExactTag(name string) IndexField {
	return IndexField{Name: name, Type: IndexFieldTag, TagCaseSensitive: true}
}

// CosineHNSW declares a FLOAT32 vector field queried under alias.
func CosineHNSW(name, alias string, dim, m, efConstruct int) IndexField {
	return IndexField{
		Name:              name,
		Alias:             alias,
		Type:              IndexFieldVector,
		VectorAlgo:        VectorHNSW,
		VectorDim:         dim,
		VectorDistance:    DistanceCosine,
		VectorM:           m,
		VectorEFConstruct: efConstruct,
	}
}

// NewIndex assembles and validates a HASH index over keys starting with prefix.
func NewIndex(name, prefix string, fields ...IndexField) (*IndexDefinition, error) {
	def := &IndexDefinition{Name: name, StorageType: StorageHash, Fields: fields}
	if prefix != "" {
		def.Prefixes = []string{prefix}
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

var identifierRe = regexp.MustCompile(`^[A-Za-z0-9_:-]+$`)

// Validate requires a safe name, unique field names and exactly one vector field.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !identifierRe.MatchString(idx.Name) {
		return fmt.Errorf("index name %q contains invalid characters", idx.Name)
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]struct{}, len(idx.Fields))
	vectors := 0
	for i, f := range idx.Fields {
		if f.Name == "" {
			return fmt.Errorf("field %d: name is required", i)
		}
		name := f.Name
		if f.Alias != "" {
			name = f.Alias
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate field name: %s", name)
		}
		seen[name] = struct{}{}

		if f.Type != IndexFieldVector {
			continue
		}
		if f.VectorDim <= 0 {
			return fmt.Errorf("vector field %s requires positive DIM", f.Name)
		}
		vectors++
	}
	if vectors != 1 {
		return fmt.Errorf("exactly one vector field is required, got %d", vectors)
	}
	return nil
}
