// Package rag answers questions from the local document store.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/mikeboe/uniq-chat/pkg/vectorstore"
)

// Embedder is the subset of embeddings.Embedder the retriever needs.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Retriever embeds a query and looks it up in a store.
type Retriever struct {
	Embedder Embedder
	Store    vectorstore.Store
}

func NewRetriever(embedder Embedder, store vectorstore.Store) *Retriever {
	return &Retriever{Embedder: embedder, Store: store}
}

// Search returns up to topK results, optionally restricted to one source.
func (r *Retriever) Search(ctx context.Context, query string, topK int, source string) ([]vectorstore.SimilaritySearchResult, error) {
	vec, err := r.Embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}

	results, err := r.Store.SimilaritySearch(ctx, vec, topK, source)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	return results, nil
}

// Context joins the contents of the topK documents with blank lines.
func (r *Retriever) Context(ctx context.Context, query string, topK int) (string, error) {
	results, err := r.Search(ctx, query, topK, "")
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(results))
	for _, res := range results {
		parts = append(parts, res.Document.Content)
	}
	return strings.Join(parts, "\n\n"), nil
}
