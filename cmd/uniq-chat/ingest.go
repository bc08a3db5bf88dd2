package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mikeboe/uniq-chat/pkg/config"
	"github.com/mikeboe/uniq-chat/pkg/embeddings"
	"github.com/mikeboe/uniq-chat/pkg/rag"
)

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <paths...>",
		Short: "Embed PDF, text and markdown files into the document store",
		Long: `Loads each file (directories are walked), splits it into chunks, embeds the
chunks and writes them to the memory-vector file, or to the pgvector
collection when DATABASE_URL is set.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.Load()
			ragCfg := config.LoadRagConfig()

			files, err := collectFiles(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no .pdf, .txt or .md files found")
			}

			embedder, err := embeddings.New(ctx, ragCfg)
			if err != nil {
				return err
			}
			lib, err := rag.OpenLibrary(ctx, cfg, ragCfg.EmbeddingDimension)
			if err != nil {
				return err
			}
			defer lib.Close()

			ingester := rag.NewIngester(embedder, lib.Store, ragCfg.ChunkSize, ragCfg.ChunkOverlap)

			total, failed := 0, 0
			for _, path := range files {
				n, err := ingester.IngestFile(ctx, path)
				if err != nil {
					failed++
					slog.Error("Failed to ingest file", "path", path, "error", err)
					fmt.Println(errorStyle.Render("✗ "+filepath.Base(path)) + " " + dimStyle.Render(err.Error()))
					continue
				}
				total += n
				fmt.Printf("%s %s\n", successStyle.Render("✓ "+filepath.Base(path)), dimStyle.Render(fmt.Sprintf("%d chunks", n)))
			}

			// Keep what did succeed even when some files failed.
			if err := lib.Persist(); err != nil {
				return err
			}

			fmt.Printf("Stored %d chunks from %d files.\n", total, len(files)-failed)
			if failed > 0 {
				return fmt.Errorf("%d files failed", failed)
			}
			return nil
		},
	}
}

// collectFiles expands directories into the supported files they contain.
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && rag.Supported(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", arg, err)
		}
	}
	return files, nil
}
