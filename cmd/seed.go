package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/opsdesk/ticketlens/internal/seed"
	"github.com/opsdesk/ticketlens/pkg/jira"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate synthetic incident tickets and bulk-create them in Jira",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log := zap.L().With(
			zap.String("command", "seed"),
			zap.String("run_id", uuid.NewString()),
		)

		if cfg.Jira.BaseURL == "" || cfg.Jira.Email == "" || cfg.Jira.APIToken == "" {
			return eris.New("seed: missing Jira credentials (jira.base_url, jira.email, jira.api_token)")
		}

		project, _ := cmd.Flags().GetString("project")
		total, _ := cmd.Flags().GetInt("total")
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		templatesPath, _ := cmd.Flags().GetString("templates")
		if project == "" {
			project = cfg.Jira.ProjectKey
		}
		if total <= 0 {
			total = cfg.Seed.Total
		}
		if batchSize <= 0 {
			batchSize = cfg.Seed.BatchSize
		}
		if templatesPath == "" {
			templatesPath = cfg.Seed.TemplatesPath
		}

		templates, err := seed.LoadTemplates(templatesPath)
		if err != nil {
			return err
		}
		gen := seed.NewGenerator(templates, cfg.Seed.ServerPool, time.Now().UnixNano())

		log.Info("seeding project",
			zap.String("project", project),
			zap.Int("total", total),
			zap.Int("batch_size", batchSize),
		)

		client := jira.NewClient(cfg.Jira.BaseURL, cfg.Jira.Email, cfg.Jira.APIToken)
		created, err := seed.Upload(ctx, client, gen, project, total, batchSize)
		if err != nil {
			log.Error("upload stopped", zap.Int("created", created), zap.Error(err))
			return err
		}

		fmt.Printf("Created %d issues in %s\n", created, project)
		return nil
	},
}

func init() {
	seedCmd.Flags().String("project", "", "Jira project key")
	seedCmd.Flags().Int("total", 0, "number of issues to create")
	seedCmd.Flags().Int("batch-size", 0, "issues per bulk-create call")
	seedCmd.Flags().String("templates", "", "YAML template file (defaults to embedded templates)")
	rootCmd.AddCommand(seedCmd)
}
