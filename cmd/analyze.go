package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/opsdesk/ticketlens/internal/analyze"
	"github.com/opsdesk/ticketlens/internal/classify"
	"github.com/opsdesk/ticketlens/internal/journal"
	"github.com/opsdesk/ticketlens/internal/model"
	"github.com/opsdesk/ticketlens/pkg/openrouter"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Extract server mentions and classify technologies",
	Long: `Analyze runs each issue in the consolidated collection through server
extraction and LLM technology classification, journaling every result.
Interrupted runs resume from the journals; aggregation always runs at
the end over whatever the journals hold.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log := zap.L().With(
			zap.String("command", "analyze"),
			zap.String("run_id", uuid.NewString()),
		)

		filePath, _ := cmd.Flags().GetString("file")
		limit, _ := cmd.Flags().GetInt("limit")
		if filePath == "" {
			filePath = cfg.Fetch.OutputPath
		}
		if limit <= 0 {
			limit = cfg.Analyze.IssueLimit
		}

		data, err := os.ReadFile(filePath)
		if err != nil {
			return eris.Wrapf(err, "analyze: read collection %s", filePath)
		}
		var issuesAll []model.Issue
		if err := json.Unmarshal(data, &issuesAll); err != nil {
			return eris.Wrapf(err, "analyze: parse collection %s", filePath)
		}

		issues := issuesAll
		if limit > 0 && limit < len(issues) {
			issues = issues[:limit]
		}
		log.Info("loaded collection", zap.Int("issues", len(issues)), zap.Int("total", len(issuesAll)))

		outDir := cfg.Analyze.OutputDir
		serverLogPath := filepath.Join(outDir, "server_mentions.jsonl")
		labelLogPath := filepath.Join(outDir, "technology_annotations.jsonl")

		serverLog, err := journal.Open(serverLogPath)
		if err != nil {
			return err
		}
		defer serverLog.Close()

		labelLog, err := journal.Open(labelLogPath)
		if err != nil {
			return err
		}
		defer labelLog.Close()

		client := openrouter.NewClient(cfg.OpenRouter.Key,
			openrouter.WithBaseURL(cfg.OpenRouter.BaseURL),
			openrouter.WithModel(cfg.OpenRouter.Model),
			openrouter.WithAttribution(cfg.OpenRouter.Referer, cfg.OpenRouter.Title),
		)
		classifier := classify.New(client, classify.Config{
			RequestsPerSecond: cfg.OpenRouter.RequestsPerSecond,
		})

		enricher := analyze.NewEnricher(classifier, serverLog, labelLog)
		processed, runErr := enricher.Run(ctx, issues)
		if runErr != nil {
			// Interruption or a journal failure: finalize with whatever
			// has been durably recorded so far.
			if errors.Is(runErr, context.Canceled) {
				log.Warn("interrupted, finalizing partial aggregates", zap.Int("processed", processed))
			} else {
				log.Error("enrichment stopped, finalizing partial aggregates",
					zap.Int("processed", processed), zap.Error(runErr))
			}
		}

		if err := analyze.Aggregate(issuesAll, serverLogPath, labelLogPath, analyze.ArtifactPaths{
			TechCounts:   filepath.Join(outDir, "technology_counts.jsonl"),
			ServerCounts: filepath.Join(outDir, "server_counts.jsonl"),
			Unresolved:   filepath.Join(outDir, "unresolved_servers_tickets.json"),
		}); err != nil {
			return err
		}

		fmt.Printf("Analysis complete. Artifacts written to %s\n", outDir)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().String("file", "", "path to the consolidated issues JSON")
	analyzeCmd.Flags().Int("limit", 0, "max issues to process this run (0 = all)")
	rootCmd.AddCommand(analyzeCmd)
}
