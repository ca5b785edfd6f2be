package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"sync"
)

// chunk is one indexed fragment with its precomputed embedding.
type chunk struct {
	Source     string    `json:"source"`
	SourceName string    `json:"source_name,omitempty"`
	ChunkID    int       `json:"chunk_id"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"embedding"`
}

// indexFile is the on-disk shape produced by BuildIndex.
type indexFile struct {
	EmbedModel string  `json:"embed_model"`
	Chunks     []chunk `json:"chunks"`
}

// Index answers queries against an index file built ahead of time by the
// reindex command. The file is loaded lazily on first use and cached for the
// process lifetime; a load failure is reported as ErrIndexNotLoaded and
// retried on the next call.
type Index struct {
	Path     string
	Embedder Embedder

	mu     sync.Mutex
	chunks []chunk
	loaded bool
}

// NewIndex constructs an Index over the given file. Nothing is read until
// the first Retrieve call.
func NewIndex(path string, embedder Embedder) *Index {
	return &Index{Path: path, Embedder: embedder}
}

// Retrieve embeds the query, ranks all chunks by cosine similarity and
// returns the top k as passages with fresh bracketed cite ids ([1], [2], …)
// assigned in rank order. With rerank set, a wider candidate pool is
// reordered by a blend of cosine score and query term overlap before the
// cut to k.
func (ix *Index) Retrieve(ctx context.Context, query string, k int, rerank bool) ([]Passage, error) {
	if k < 1 {
		k = 1
	}
	chunks, err := ix.load()
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return []Passage{}, nil
	}
	qv, err := ix.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	type scored struct {
		c     chunk
		score float64
	}
	ranked := make([]scored, 0, len(chunks))
	for _, c := range chunks {
		ranked = append(ranked, scored{c: c, score: cosine(qv, c.Embedding)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if rerank {
		pool := 4 * k
		if pool > len(ranked) {
			pool = len(ranked)
		}
		terms := queryTerms(query)
		head := ranked[:pool]
		for i := range head {
			head[i].score += termOverlap(terms, head[i].c.Text)
		}
		sort.SliceStable(head, func(i, j int) bool { return head[i].score > head[j].score })
	}
	if k > len(ranked) {
		k = len(ranked)
	}
	out := make([]Passage, 0, k)
	for i := 0; i < k; i++ {
		r := ranked[i]
		out = append(out, Passage{
			CiteID:     fmt.Sprintf("[%d]", i+1),
			Source:     r.c.Source,
			SourceName: r.c.SourceName,
			ChunkID:    r.c.ChunkID,
			Text:       r.c.Text,
			Score:      r.score,
		})
	}
	return out, nil
}

// load reads the index file once. On failure the cached state stays unloaded
// so a later call can retry (e.g. after the operator runs reindex).
func (ix *Index) load() ([]chunk, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.loaded {
		return ix.chunks, nil
	}
	raw, err := os.ReadFile(ix.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexNotLoaded, err)
	}
	var f indexFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexNotLoaded, err)
	}
	ix.chunks = f.Chunks
	ix.loaded = true
	return ix.chunks, nil
}

// queryTerms lowercases and splits the query into distinct words of three or
// more runes; short function words add nothing to the overlap signal.
func queryTerms(query string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, ".,;:!?\"'()")
		if len([]rune(w)) >= 3 {
			terms[w] = struct{}{}
		}
	}
	return terms
}

// termOverlap returns the fraction of query terms present in the text.
func termOverlap(terms map[string]struct{}, text string) float64 {
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	hits := 0
	for t := range terms {
		if strings.Contains(lower, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}

// cosine returns the cosine similarity of two vectors, 0 when either is
// degenerate or the lengths differ.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
