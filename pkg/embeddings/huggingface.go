package embeddings

import (
	"context"
	"fmt"

	hfembed "github.com/tmc/langchaingo/embeddings/huggingface"
	hfllm "github.com/tmc/langchaingo/llms/huggingface"
)

// HuggingFaceEmbedder calls the hosted Hugging Face inference API.
type HuggingFaceEmbedder struct {
	embedder *hfembed.Huggingface
}

// NewHuggingFaceEmbedder creates an embedder for model. An empty token falls
// back to the HUGGINGFACEHUB_API_TOKEN environment variable.
func NewHuggingFaceEmbedder(model, token string) (*HuggingFaceEmbedder, error) {
	var llmOpts []hfllm.Option
	if token != "" {
		llmOpts = append(llmOpts, hfllm.WithToken(token))
	}
	client, err := hfllm.New(llmOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Hugging Face client: %w", err)
	}

	embedder, err := hfembed.NewHuggingface(
		hfembed.WithClient(*client),
		hfembed.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Hugging Face embedder: %w", err)
	}

	return &HuggingFaceEmbedder{embedder: embedder}, nil
}

func (e *HuggingFaceEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed text: %w", err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("empty embedding returned")
	}
	return vec, nil
}

func (e *HuggingFaceEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed texts: %w", err)
	}
	return vecs, nil
}
