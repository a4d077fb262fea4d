package result

// Hit is a single vector index match.
type Hit struct {
	id       int64
	key      string
	score    float64
	metadata map[string]any
}

// New creates a search hit.
func New(id int64, key string, score float64, metadata map[string]any) Hit {
	return Hit{id: id, key: key, score: score, metadata: metadata}
}

// ID returns the record identifier.
func (h Hit) ID() int64 { return h.id }

// Key returns the index entry key.
func (h Hit) Key() string { return h.key }

// Score returns the similarity score, higher is better.
func (h Hit) Score() float64 { return h.score }

// Metadata returns the metadata snapshot stored with the entry.
func (h Hit) Metadata() map[string]any { return h.metadata }

// AboveThreshold keeps hits whose score is at least min, preserving order.
func AboveThreshold(hits []Hit, minScore float64) []Hit {
	out := make([]Hit, 0, len(hits))
	for _, h := range hits {
		if h.score >= minScore {
			out = append(out, h)
		}
	}
	return out
}
