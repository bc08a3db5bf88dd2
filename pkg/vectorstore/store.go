package vectorstore

import "context"

// Document is one embedded chunk. Metadata carries at least "source".
type Document struct {
	ID        string                 `json:"id,omitempty"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata"`
	Embedding []float32              `json:"embedding,omitempty"`
}

// SimilaritySearchResult represents a search result with score
type SimilaritySearchResult struct {
	Document Document
	Score    float64
}

// Store is implemented by MemoryStore and PGVectorStore.
type Store interface {
	AddDocuments(ctx context.Context, docs []Document) error
	SimilaritySearch(ctx context.Context, queryEmbedding []float32, topK int, sourceFilter string) ([]SimilaritySearchResult, error)
	GetContentBySource(ctx context.Context, source string) ([]Document, error)
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*PGVectorStore)(nil)
)

func sourceOf(doc Document) string {
	if doc.Metadata == nil {
		return ""
	}
	s, _ := doc.Metadata["source"].(string)
	return s
}
