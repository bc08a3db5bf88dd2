package rag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mikeboe/uniq-chat/pkg/config"
	"github.com/mikeboe/uniq-chat/pkg/database"
	"github.com/mikeboe/uniq-chat/pkg/vectorstore"
)

// Library is the configured document store: a pgvector collection when a
// database is configured, otherwise the memory-vector file.
type Library struct {
	Store vectorstore.Store

	memory *vectorstore.MemoryStore
	path   string
	db     *database.PostgresDB
}

// OpenLibrary opens the store described by cfg. dimension sizes a new
// pgvector collection.
func OpenLibrary(ctx context.Context, cfg *config.Config, dimension int) (*Library, error) {
	if cfg.DatabaseURL == "" {
		mem, err := vectorstore.LoadMemoryStore(cfg.VectorsPath)
		if err != nil {
			return nil, err
		}
		slog.Info("Loaded memory vectors", "path", cfg.VectorsPath, "documents", mem.Len())
		return &Library{Store: mem, memory: mem, path: cfg.VectorsPath}, nil
	}

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureCollection(ctx, cfg.CollectionName, dimension); err != nil {
		db.Close()
		return nil, err
	}
	store, err := vectorstore.NewPGVectorStore(db.Pool, cfg.CollectionName)
	if err != nil {
		db.Close()
		return nil, err
	}
	slog.Info("Using pgvector collection", "collection", cfg.CollectionName)
	return &Library{Store: store, db: db}, nil
}

// Persist writes the memory-vector file. It is a no-op for pgvector.
func (l *Library) Persist() error {
	if l.memory == nil {
		return nil
	}
	if err := l.memory.Save(l.path); err != nil {
		return fmt.Errorf("failed to persist vectors: %w", err)
	}
	return nil
}

func (l *Library) Close() {
	if l.db != nil {
		l.db.Close()
	}
}
