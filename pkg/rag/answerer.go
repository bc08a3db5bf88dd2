package rag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"
)

const promptTemplate = "Answer the following question clearly and concisely based only on the provided context. " +
	"Avoid unnecessary repetition or lengthy explanations, but include all essential information.\n\n" +
	"Context:\n%s\n\nQuestion:\n%s"

// BuildPrompt fills the answer template.
func BuildPrompt(context, question string) string {
	return fmt.Sprintf(promptTemplate, context, question)
}

// Answerer streams model answers grounded on retrieved documents.
type Answerer struct {
	Retriever *Retriever
	Model     llms.Model

	TopK          int
	Temperature   float64
	TopP          float64
	RepeatPenalty float64

	Logger *slog.Logger
}

func NewAnswerer(retriever *Retriever, model llms.Model) *Answerer {
	return &Answerer{
		Retriever:     retriever,
		Model:         model,
		TopK:          4,
		Temperature:   0.3,
		TopP:          0.9,
		RepeatPenalty: 1.1,
		Logger:        slog.Default(),
	}
}

// Answer calls onChunk with every generated token in order. An error from
// onChunk stops generation.
func (a *Answerer) Answer(ctx context.Context, question string, onChunk func(chunk string) error) error {
	docContext, err := a.Retriever.Context(ctx, question, a.TopK)
	if err != nil {
		return fmt.Errorf("failed to retrieve context: %w", err)
	}

	a.Logger.Debug("Answering question", "question", question, "context_len", len(docContext))

	_, err = llms.GenerateFromSinglePrompt(ctx, a.Model, BuildPrompt(docContext, question),
		llms.WithTemperature(a.Temperature),
		llms.WithTopP(a.TopP),
		llms.WithRepetitionPenalty(a.RepeatPenalty),
		llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			return onChunk(string(chunk))
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to query model: %w", err)
	}
	return nil
}
