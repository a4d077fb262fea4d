package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/stylesearch/internal/db"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/filter"
)

// scoreField is the distance column FT.SEARCH adds for a KNN clause.
const scoreField = "__vector_score"

// tagSpecials are the characters that must be backslash-escaped inside a TAG clause.
const tagSpecials = ",.<>{}\"':;!@#$%^&*()-+=~ |/\\[]?"

var tagEscaper = func() *strings.Replacer {
	pairs := make([]string, 0, 2*len(tagSpecials))
	for _, r := range tagSpecials {
		pairs = append(pairs, string(r), `\`+string(r))
	}
	return strings.NewReplacer(pairs...)
}()

// SearchKNN runs a filtered KNN query with DIALECT 2 and maps cosine distance to similarity.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if err := validateKNN(q); err != nil {
		return nil, err
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(knnArgs(q)...).Build()
	reply, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return decodeSearchReply(reply)
}

func validateKNN(q *db.KNNQuery) error {
	switch {
	case q.IndexName == "":
		return errors.New("index name is required")
	case len(q.Vector) == 0:
		return errors.New("vector is required")
	case q.K <= 0:
		return errors.New("k must be positive")
	}
	return nil
}

// knnArgs renders everything after FT.SEARCH.
func knnArgs(q *db.KNNQuery) []string {
	prefilter := "*"
	if clause := filterClause(q.Filters); clause != "" {
		prefilter = "(" + clause + ")"
	}
	k := strconv.Itoa(q.K)
	args := []string{q.IndexName, prefilter + "=>[KNN " + k + " @" + db.VectorAlias + " $BLOB]"}

	if n := len(q.ReturnFields); n > 0 {
		// A RETURN list hides the score column unless it is named too.
		args = append(args, "RETURN", strconv.Itoa(n+1))
		args = append(args, q.ReturnFields...)
		args = append(args, scoreField)
	}
	return append(args,
		"LIMIT", "0", k,
		"PARAMS", "2", "BLOB", db.EncodeVector(q.Vector),
		"DIALECT", "2",
	)
}

// filterClause ANDs one TAG clause per equality condition.
func filterClause(expr filter.Expression) string {
	if expr.IsEmpty() {
		return ""
	}
	var sb strings.Builder
	for i, c := range expr.Must() {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(tagClause(c.Key(), c.Match()))
	}
	return sb.String()
}

func tagClause(field, value string) string {
	return "@" + field + ":{" + tagEscaper.Replace(value) + "}"
}

// decodeSearchReply reads [total, key1, [f, v, ...], key2, ...].
// Malformed pairs are skipped rather than failing the whole page.
func decodeSearchReply(reply []rueidis.RedisMessage) (*db.SearchResult, error) {
	res := &db.SearchResult{}
	if len(reply) == 0 {
		return res, nil
	}
	total, err := reply[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	res.Total = int(total)

	for rest := reply[1:]; len(rest) >= 2; rest = rest[2:] {
		key, err := rest[0].ToString()
		if err != nil {
			continue
		}
		pairs, err := rest[1].ToArray()
		if err != nil {
			continue
		}
		fields := fieldMap(pairs)
		entry := db.SearchEntry{Key: key, Fields: fields}
		if raw, ok := fields[scoreField]; ok {
			entry.Score = similarity(raw)
			delete(fields, scoreField)
		}
		res.Entries = append(res.Entries, entry)
	}
	return res, nil
}

func fieldMap(pairs []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(pairs)/2)
	for ; len(pairs) >= 2; pairs = pairs[2:] {
		name, nerr := pairs[0].ToString()
		value, verr := pairs[1].ToString()
		if nerr == nil && verr == nil {
			m[name] = value
		}
	}
	return m
}

// similarity converts a cosine distance string to a score in [0,1]. Unparseable input scores 0.
func similarity(distance string) float64 {
	d, err := strconv.ParseFloat(distance, 64)
	if err != nil {
		return 0
	}
	return min(1, max(0, 1-d))
}
