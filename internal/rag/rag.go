// Package rag implements the retrieval side of grounded answering: a small
// on-disk vector index over reference documents (device leaflets, notes) that
// returns ranked, citable passages for a query.
package rag

import (
	"context"
	"errors"
)

// ErrIndexNotLoaded indicates the index file is missing or unreadable. It is
// distinct from per-query failures so callers can tell a broken deployment
// from a transient embedding error.
var ErrIndexNotLoaded = errors.New("retrieval index not loaded")

// Passage is one scored, citable fragment of retrieved reference text. CiteID
// is unique within a single retrieval call and is the exact token the model
// is told to cite with, so rendered citations resolve 1:1.
type Passage struct {
	CiteID     string  `json:"cite_id"`
	Source     string  `json:"source"`
	SourceName string  `json:"source_name,omitempty"`
	ChunkID    int     `json:"chunk_id"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// Retriever turns a query into ranked passages. Implementations must be safe
// for concurrent use; an empty result is valid and means "no passages". With
// rerank set, the retriever may spend extra effort reordering a wider
// candidate set before cutting to k.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int, rerank bool) ([]Passage, error)
}
