package clients

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tmc/langchaingo/llms/ollama"
)

// DefaultModel is the local model answering document questions.
const DefaultModel = "llama3.2:3b-instruct-q4_K_M"

// Ollama creates a langchaingo client for the Ollama server at serverURL.
func Ollama(serverURL, model string) (*ollama.LLM, error) {
	if model == "" {
		model = DefaultModel
	}

	llm, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	return llm, nil
}

// OllamaReachable reports whether the Ollama server answers a HEAD request.
func OllamaReachable(ctx context.Context, serverURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, serverURL, nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
