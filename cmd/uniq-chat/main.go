package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mikeboe/uniq-chat/pkg/auth"
	"github.com/mikeboe/uniq-chat/pkg/clients"
	"github.com/mikeboe/uniq-chat/pkg/config"
)

var verbose bool

func main() {
	// It's okay if .env doesn't exist, as long as env vars are set
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "uniq-chat",
		Short: "Chat with your university documents and run guided web research",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log requests and state changes to stderr")

	rootCmd.AddCommand(newChatCmd(), newLoginCmd(), newLogoutCmd(), newWhoamiCmd(), newIngestCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the client-side pieces every command needs.
type app struct {
	cfg    *config.ClientConfig
	client *clients.ProxyClient
	gate   *auth.Gate
}

func newApp() *app {
	cfg := config.LoadClient()
	client := clients.NewProxyClient(cfg.ProxyURL)
	gate := auth.NewGate(auth.NewFileStorage(cfg.StorageDir), client)
	gate.Restore()
	client.Token = gate.Token

	return &app{cfg: cfg, client: client, gate: gate}
}
