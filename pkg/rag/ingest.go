package rag

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"

	"github.com/mikeboe/uniq-chat/pkg/splitter"
	"github.com/mikeboe/uniq-chat/pkg/vectorstore"
)

const embedBatchSize = 16

// BatchEmbedder embeds many chunks per call.
type BatchEmbedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Ingester loads documents, chunks them and stores their embeddings.
type Ingester struct {
	Embedder BatchEmbedder
	Store    vectorstore.Store
	Splitter *splitter.TextSplitter
	Logger   *slog.Logger
}

func NewIngester(embedder BatchEmbedder, store vectorstore.Store, chunkSize, chunkOverlap int) *Ingester {
	return &Ingester{
		Embedder: embedder,
		Store:    store,
		Splitter: splitter.NewRecursiveCharacterTextSplitter(chunkSize, chunkOverlap),
		Logger:   slog.Default(),
	}
}

// Supported reports whether path has an extension the ingester can load.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".txt", ".md":
		return true
	}
	return false
}

// IngestFile stores every chunk of path and returns the chunk count. Chunks
// carry the file's base name as their source.
func (in *Ingester) IngestFile(ctx context.Context, path string) (int, error) {
	docs, err := load(ctx, path)
	if err != nil {
		return 0, err
	}

	source := filepath.Base(path)
	for i := range docs {
		if docs[i].Metadata == nil {
			docs[i].Metadata = map[string]any{}
		}
		docs[i].Metadata["source"] = source
	}

	chunks, err := in.Splitter.SplitDocuments(docs)
	if err != nil {
		return 0, fmt.Errorf("failed to split %s: %w", source, err)
	}

	stored := 0
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.PageContent
		}
		vectors, err := in.Embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return stored, fmt.Errorf("failed to embed %s: %w", source, err)
		}
		if len(vectors) != len(batch) {
			return stored, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(batch))
		}

		out := make([]vectorstore.Document, len(batch))
		for i, c := range batch {
			out[i] = vectorstore.Document{
				Content:   c.PageContent,
				Metadata:  c.Metadata,
				Embedding: vectors[i],
			}
		}
		if err := in.Store.AddDocuments(ctx, out); err != nil {
			return stored, fmt.Errorf("failed to store %s: %w", source, err)
		}
		stored += len(out)
	}

	in.Logger.Info("Ingested document", "source", source, "chunks", stored)
	return stored, nil
}

func load(ctx context.Context, path string) ([]schema.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var docs []schema.Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		docs, err = documentloaders.NewPDF(f, info.Size()).Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	case ".txt", ".md":
		docs, err = documentloaders.NewText(f).Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
	return docs, nil
}
