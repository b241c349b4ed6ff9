package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	logger     *slog.Logger
	configPath string
	verbose    bool
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "scangestor",
		Short:         "Question answering over the ScanGasto documentation",
		Long:          "scangestor indexes the markdown documentation tree and answers questions with semantic or lexical retrieval.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (default: ./config.yaml or ~/.config/scangestor/config.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(ingestCmd())
	root.AddCommand(askCmd())
	root.AddCommand(chatCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		if logger == nil {
			logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
		}
		logger.Error("command failed", "error", err)
		stop()
		os.Exit(1)
	}
}
