package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/opsdesk/ticketlens/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "ticketlens",
	Short: "Support ticket ingestion and classification pipeline",
	Long:  "Fetches support tickets from Jira with crash-safe resumable pagination, extracts server mentions, classifies each ticket's technology via an LLM, and aggregates frequency reports.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
