package rag

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

type SearchDocumentsArgs struct {
	Query  string `json:"query" jsonschema:"the search query"`
	TopK   int    `json:"topK,omitempty" jsonschema:"number of top results to return, 5 when unset"`
	Source string `json:"source,omitempty" jsonschema:"only search chunks of this source file"`
}

type FindSourceArgs struct {
	Source string `json:"source" jsonschema:"the source file to return chunks for"`
}

// Toolset backs the MCP search tools.
type Toolset struct {
	Retriever *Retriever
	Logger    *slog.Logger
}

func NewToolset(retriever *Retriever) *Toolset {
	return &Toolset{Retriever: retriever, Logger: slog.Default()}
}

// SearchDocuments formats each hit as a [Source]/[Content] block followed by
// its remaining metadata.
func (t *Toolset) SearchDocuments(ctx context.Context, args SearchDocumentsArgs) (string, error) {
	if strings.TrimSpace(args.Query) == "" {
		return "", fmt.Errorf("query is required")
	}
	if args.TopK <= 0 {
		args.TopK = 5
	}

	t.Logger.Info("Search documents", "query", args.Query, "topK", args.TopK, "source", args.Source)

	results, err := t.Retriever.Search(ctx, args.Query, args.TopK, args.Source)
	if err != nil {
		return "", err
	}

	formatted := make([]string, 0, len(results))
	for _, res := range results {
		source := "unknown"
		if s, ok := res.Document.Metadata["source"].(string); ok {
			source = s
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "[Source]: %s\n[Content]: %s", source, res.Document.Content)

		keys := make([]string, 0, len(res.Document.Metadata))
		for k := range res.Document.Metadata {
			if k != "source" {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, "\n[%s]: %v", k, res.Document.Metadata[k])
		}

		formatted = append(formatted, sb.String())
	}

	return strings.Join(formatted, "\n\n"), nil
}

// FindContentBySource returns every chunk of one source, joined with blank lines.
func (t *Toolset) FindContentBySource(ctx context.Context, args FindSourceArgs) (string, error) {
	if args.Source == "" {
		return "", fmt.Errorf("source is required")
	}

	docs, err := t.Retriever.Store.GetContentBySource(ctx, args.Source)
	if err != nil {
		return "", fmt.Errorf("failed to find content: %w", err)
	}

	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, d.Content)
	}
	return strings.Join(parts, "\n\n"), nil
}
