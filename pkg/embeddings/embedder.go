// Package embeddings turns text into vectors through a hosted embedding API.
package embeddings

import (
	"context"
	"fmt"

	"github.com/mikeboe/uniq-chat/pkg/config"
)

// Embedder is implemented by every provider.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// New builds the embedder selected by cfg.EmbeddingProvider.
func New(ctx context.Context, cfg *config.RagConfig) (Embedder, error) {
	switch cfg.EmbeddingProvider {
	case config.ProviderHuggingFace:
		return NewHuggingFaceEmbedder(cfg.EmbeddingModel, cfg.HuggingFaceToken)
	case config.ProviderGoogle:
		return NewGoogleEmbedder(ctx, cfg.EmbeddingModel, cfg.GoogleApiKey, cfg.EmbeddingDimension)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}

var (
	_ Embedder = (*GoogleEmbedder)(nil)
	_ Embedder = (*HuggingFaceEmbedder)(nil)
)
