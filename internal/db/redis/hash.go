package redis

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/kailas-cloud/stylesearch/internal/db"
)

// HReplace swaps the whole hash at key inside MULTI/EXEC, so no field of a previous
// version survives. Fields are written in sorted order.
func (s *Store) HReplace(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return &db.Error{Op: db.OpHSet, Err: fmt.Errorf("key %s: no fields", key)}
	}

	hset := s.b().Hset().Key(key).FieldValue()
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		hset = hset.FieldValue(name, fields[name])
	}

	results := s.client.DoMulti(ctx,
		s.b().Multi().Build(),
		s.b().Del().Key(key).Build(),
		hset.Build(),
		s.b().Exec().Build(),
	)
	for i, res := range results {
		if err := res.Error(); err != nil {
			op := db.OpHSet
			if i == 1 {
				op = db.OpDel
			}
			return &db.Error{Op: op, Err: fmt.Errorf("key %s: %w", key, err)}
		}
	}
	return nil
}

// Del removes key. A missing key is not an error.
func (s *Store) Del(ctx context.Context, key string) error {
	if err := s.do(ctx, s.b().Del().Key(key).Build()).Error(); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

