package indexing

import (
	"errors"

	"github.com/kailas-cloud/stylesearch/internal/domain"
)

// Op is the synchronization operation applied to an index entry.
type Op string

// Operations.
const (
	OpUpsert Op = "upsert"
	OpRemove Op = "remove"
)

// Status is the outcome of a single synchronization.
type Status string

// Status values.
const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Result is the outcome of synchronizing one record. Failures are carried here instead of being returned.
type Result struct {
	key    string
	op     Op
	status Status
	err    error
}

// NewOK creates a successful result.
func NewOK(key string, op Op) Result { return Result{key: key, op: op, status: StatusOK} }

// NewError creates a failed result. err should wrap ErrEmbeddingFailure or ErrIndexWriteFailure.
func NewError(key string, op Op, err error) Result {
	return Result{key: key, op: op, status: StatusError, err: err}
}

// Key returns the vector index entry key.
func (r Result) Key() string { return r.key }

// Op returns the applied operation.
func (r Result) Op() Op { return r.op }

// Status returns the outcome.
func (r Result) Status() Status { return r.status }

// Err returns the failure, if any.
func (r Result) Err() error { return r.err }

// OK reports whether the sync succeeded.
func (r Result) OK() bool { return r.status == StatusOK }

// Kind classifies the failure for logs and metrics: "embedding_failure", "index_write_failure" or "".
func (r Result) Kind() string {
	switch {
	case r.err == nil:
		return ""
	case errors.Is(r.err, domain.ErrEmbeddingFailure):
		return "embedding_failure"
	case errors.Is(r.err, domain.ErrIndexWriteFailure):
		return "index_write_failure"
	}
	return "unknown"
}
