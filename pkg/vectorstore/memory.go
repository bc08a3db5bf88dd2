package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// MemoryStore holds every vector in memory. It reads and writes the
// memory-vector JSON layout: a list of {content, embedding, metadata}.
type MemoryStore struct {
	mu   sync.RWMutex
	docs []Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// LoadMemoryStore reads path. A missing file yields an empty store.
func LoadMemoryStore(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewMemoryStore(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read vectors file: %w", err)
	}

	var docs []Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to parse vectors file %s: %w", path, err)
	}
	return &MemoryStore{docs: docs}, nil
}

// Save writes the store to path, creating parent directories.
func (s *MemoryStore) Save(path string) error {
	s.mu.RLock()
	data, err := json.Marshal(s.docs)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode vectors: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create vectors directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write vectors file: %w", err)
	}
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func (s *MemoryStore) AddDocuments(ctx context.Context, docs []Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(docs) == 0 {
		return nil
	}

	// The whole batch is checked first so a mismatch leaves the store untouched.
	dim := len(docs[0].Embedding)
	if len(s.docs) > 0 {
		dim = len(s.docs[0].Embedding)
	}
	for _, doc := range docs {
		if len(doc.Embedding) != dim {
			return fmt.Errorf("embedding dimension %d does not match store dimension %d", len(doc.Embedding), dim)
		}
	}
	s.docs = append(s.docs, docs...)
	return nil
}

// SimilaritySearch returns the topK documents by cosine similarity, highest first.
func (s *MemoryStore) SimilaritySearch(ctx context.Context, queryEmbedding []float32, topK int, sourceFilter string) ([]SimilaritySearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]SimilaritySearchResult, 0, len(s.docs))
	for _, doc := range s.docs {
		if sourceFilter != "" && sourceOf(doc) != sourceFilter {
			continue
		}
		results = append(results, SimilaritySearchResult{
			Document: doc,
			Score:    cosineSimilarity(queryEmbedding, doc.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (s *MemoryStore) GetContentBySource(ctx context.Context, source string) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var documents []Document
	for _, doc := range s.docs {
		if sourceOf(doc) == source {
			documents = append(documents, doc)
		}
	}
	return documents, nil
}

// cosineSimilarity is 0 for mismatched or zero-length vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
