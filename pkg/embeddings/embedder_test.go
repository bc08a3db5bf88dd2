package embeddings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mikeboe/uniq-chat/pkg/config"
)

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), &config.RagConfig{EmbeddingProvider: "openai"})
	assert.EqualError(t, err, `unknown embedding provider "openai"`)
}

func TestNewGoogleRequiresKey(t *testing.T) {
	_, err := New(context.Background(), &config.RagConfig{
		EmbeddingProvider: config.ProviderGoogle,
		EmbeddingModel:    "gemini-embedding-001",
	})
	assert.EqualError(t, err, "GOOGLE_API_KEY is not set")
}
