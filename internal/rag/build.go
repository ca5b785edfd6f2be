package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// chunkSize is the target rune length of one indexed passage; chunkOverlap
// carries trailing context into the next passage so instructions split across
// a boundary stay retrievable.
const (
	chunkSize    = 800
	chunkOverlap = 120
)

// BuildIndex reads .txt and .md files under docsDir, chunks them, embeds each
// chunk and writes the index to outPath. It returns the number of chunks
// written. Subdirectories are included; other file types are skipped.
func BuildIndex(ctx context.Context, docsDir, outPath, embedModel string, embedder Embedder) (int, error) {
	var chunks []chunk
	err := filepath.WalkDir(docsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".txt" && ext != ".md" {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		name := filepath.Base(path)
		for i, text := range splitChunks(string(raw)) {
			vec, err := embedder.Embed(ctx, text)
			if err != nil {
				return fmt.Errorf("embed %s chunk %d: %w", name, i, err)
			}
			chunks = append(chunks, chunk{
				Source:     path,
				SourceName: name,
				ChunkID:    i,
				Text:       text,
				Embedding:  vec,
			})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	f := indexFile{EmbedModel: embedModel, Chunks: chunks}
	data, err := json.Marshal(f)
	if err != nil {
		return 0, fmt.Errorf("encode index: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return 0, fmt.Errorf("create index dir: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return 0, fmt.Errorf("write index: %w", err)
	}
	return len(chunks), nil
}

// splitChunks cuts text into overlapping rune windows, trimming whitespace
// and dropping empty pieces.
func splitChunks(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	var out []string
	step := chunkSize - chunkOverlap
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			out = append(out, piece)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}
