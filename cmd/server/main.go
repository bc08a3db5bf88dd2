package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mikeboe/uniq-chat/pkg/clients"
	"github.com/mikeboe/uniq-chat/pkg/config"
	"github.com/mikeboe/uniq-chat/pkg/embeddings"
	"github.com/mikeboe/uniq-chat/pkg/rag"
	"github.com/mikeboe/uniq-chat/pkg/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	logger := slog.New(server.NewRequestIDHandler(slog.NewTextHandler(os.Stdout, nil)))
	slog.SetDefault(logger)

	cfg := config.Load()
	ragCfg := config.LoadRagConfig()
	ctx := context.Background()

	answerer, tools, closeLib := setupRAG(ctx, cfg, ragCfg)
	defer closeLib()

	handler := server.NewHandler(server.NewForwarder(cfg.BackendURL), answerer, tools, cfg.OllamaURL)

	r := gin.New()
	r.Use(gin.Recovery(), server.RequestLogger(logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.AllowedOrigins,
		AllowMethods:  []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", server.RequestIDHeader, "Mcp-Session-Id"},
		ExposeHeaders: []string{"Content-Length", server.RequestIDHeader, "Mcp-Session-Id"},
	}))

	handler.RegisterRoutes(r)

	slog.Info("Server starting", "port", cfg.Port, "backend", cfg.BackendURL, "ollama", cfg.OllamaURL)
	if err := r.Run(":" + cfg.Port); err != nil {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
}

// setupRAG wires the local document chat. When any piece is unavailable the
// proxy still runs and /api/chat answers 503.
func setupRAG(ctx context.Context, cfg *config.Config, ragCfg *config.RagConfig) (*rag.Answerer, *rag.Toolset, func()) {
	noop := func() {}

	embedder, err := embeddings.New(ctx, ragCfg)
	if err != nil {
		slog.Warn("Document chat disabled: embedder unavailable", "error", err)
		return nil, nil, noop
	}

	lib, err := rag.OpenLibrary(ctx, cfg, ragCfg.EmbeddingDimension)
	if err != nil {
		slog.Warn("Document chat disabled: vector store unavailable", "error", err)
		return nil, nil, noop
	}

	retriever := rag.NewRetriever(embedder, lib.Store)
	tools := rag.NewToolset(retriever)

	llm, err := clients.Ollama(cfg.OllamaURL, cfg.ChatModel)
	if err != nil {
		slog.Warn("Document chat disabled: ollama client", "error", err)
		return nil, tools, lib.Close
	}

	answerer := rag.NewAnswerer(retriever, llm)
	answerer.TopK = cfg.RetrievalTopK
	answerer.Temperature = cfg.Temperature
	answerer.TopP = cfg.TopP
	answerer.RepeatPenalty = cfg.RepeatPenalty

	return answerer, tools, lib.Close
}
