package domain

import "errors"

var (
	// ErrEmbeddingFailure signals that the provider could not vectorize a text.
	ErrEmbeddingFailure = errors.New("embedding failure")
	// ErrIndexWriteFailure signals a failed upsert or delete against the vector index.
	ErrIndexWriteFailure = errors.New("index write failure")
	// ErrIndexQueryFailure signals a failed similarity query against the vector index.
	ErrIndexQueryFailure = errors.New("index query failure")
	// ErrInvalidQuery signals an empty or malformed search query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrStoreUnavailable signals that the relational store could not serve a read.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrStyleNotFound signals a missing style record.
	ErrStyleNotFound = errors.New("style not found")
	// ErrInvalidStyle signals a style that fails validation.
	ErrInvalidStyle = errors.New("invalid style")
)
