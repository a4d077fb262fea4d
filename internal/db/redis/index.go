package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/stylesearch/internal/db"
)

// CreateIndex issues FT.CREATE. An index that is already defined yields db.ErrIndexExists.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := createArgs(def)
	if err != nil {
		return err
	}

	err = s.do(ctx, s.b().Arbitrary("FT.CREATE").Args(args...).Build()).Error()
	switch {
	case err == nil:
		return nil
	case isRedisErr(err, "index already exists"):
		return db.ErrIndexExists
	default:
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
}

// IndexExists probes the index with FT.INFO. Redis answers "Unknown index name",
// valkey-search answers "Index with name ... not found"; both mean absent.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	err := s.do(ctx, s.b().Arbitrary("FT.INFO").Args(name).Build()).Error()
	switch {
	case err == nil:
		return true, nil
	case isRedisErr(err, "unknown index name"), isRedisErr(err, "not found"):
		return false, nil
	default:
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
}

// createArgs renders everything after FT.CREATE.
func createArgs(def *db.IndexDefinition) ([]string, error) {
	if def.Name == "" {
		return nil, errors.New("index name is required")
	}
	if len(def.Fields) == 0 {
		return nil, errors.New("at least one field is required")
	}

	storage := def.StorageType
	if storage == "" {
		storage = db.StorageHash
	}
	args := []string{def.Name, "ON", string(storage)}
	if n := len(def.Prefixes); n > 0 {
		args = append(args, "PREFIX", strconv.Itoa(n))
		args = append(args, def.Prefixes...)
	}
	args = append(args, "SCHEMA")

	for i := range def.Fields {
		fa, err := fieldArgs(&def.Fields[i])
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		args = append(args, fa...)
	}
	return args, nil
}

// fieldArgs renders one SCHEMA entry: name [AS alias] type [options].
func fieldArgs(f *db.IndexField) ([]string, error) {
	if f.Name == "" {
		return nil, errors.New("field name is required")
	}
	args := []string{f.Name}
	if f.Alias != "" {
		args = append(args, "AS", f.Alias)
	}

	switch f.Type {
	case db.IndexFieldNumeric:
		return append(args, "NUMERIC"), nil
	case db.IndexFieldTag:
		args = append(args, "TAG")
		if f.TagCaseSensitive {
			args = append(args, "CASESENSITIVE")
		}
		return args, nil
	case db.IndexFieldVector:
		va, err := vectorArgs(f)
		if err != nil {
			return nil, err
		}
		return append(args, va...), nil
	default:
		return nil, fmt.Errorf("unknown field type %d", f.Type)
	}
}

// vectorArgs renders VECTOR <algo> <nattrs> <attrs...>; the attribute count covers names and values.
func vectorArgs(f *db.IndexField) ([]string, error) {
	if f.VectorDim <= 0 {
		return nil, errors.New("vector DIM must be positive")
	}
	algo, distance := f.VectorAlgo, f.VectorDistance
	if algo == "" {
		algo = db.VectorHNSW
	}
	if distance == "" {
		distance = db.DistanceCosine
	}

	attrs := []string{"TYPE", "FLOAT32", "DIM", strconv.Itoa(f.VectorDim), "DISTANCE_METRIC", string(distance)}
	if f.VectorM > 0 {
		attrs = append(attrs, "M", strconv.Itoa(f.VectorM))
	}
	if f.VectorEFConstruct > 0 {
		attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(f.VectorEFConstruct))
	}
	return append([]string{"VECTOR", string(algo), strconv.Itoa(len(attrs))}, attrs...), nil
}
