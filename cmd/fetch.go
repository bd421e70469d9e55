package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/opsdesk/ticketlens/internal/fetch"
	"github.com/opsdesk/ticketlens/internal/journal"
	"github.com/opsdesk/ticketlens/pkg/jira"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch issues from Jira into the journal, resumably",
	Long: `Fetch pages issues from the Jira search API into an append-only journal,
checkpointing the pagination cursor after every page. Interrupt it at any
point and re-run to resume; already-journaled issues are never duplicated.
The consolidated collection is materialized from the journal at the end.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log := zap.L().With(
			zap.String("command", "fetch"),
			zap.String("run_id", uuid.NewString()),
		)

		if cfg.Jira.BaseURL == "" || cfg.Jira.Email == "" || cfg.Jira.APIToken == "" {
			return eris.New("fetch: missing Jira credentials (jira.base_url, jira.email, jira.api_token)")
		}

		project, _ := cmd.Flags().GetString("project")
		outPath, _ := cmd.Flags().GetString("out")
		partialPath, _ := cmd.Flags().GetString("partial")
		checkpointPath, _ := cmd.Flags().GetString("checkpoint")
		pageSize, _ := cmd.Flags().GetInt("page-size")
		jqlSuffix, _ := cmd.Flags().GetString("jql-suffix")

		// Unset flags fall back to configuration.
		if project == "" {
			project = cfg.Jira.ProjectKey
		}
		if outPath == "" {
			outPath = cfg.Fetch.OutputPath
		}
		if partialPath == "" {
			partialPath = cfg.Fetch.PartialPath
		}
		if checkpointPath == "" {
			checkpointPath = cfg.Fetch.CheckpointPath
		}
		if pageSize <= 0 {
			pageSize = cfg.Fetch.PageSize
		}
		if jqlSuffix == "" {
			jqlSuffix = cfg.Fetch.JQLSuffix
		}

		jql := buildJQL(project, jqlSuffix)
		log.Info("starting fetch", zap.String("project", project), zap.Int("page_size", pageSize))

		journalLog, err := journal.Open(partialPath)
		if err != nil {
			return err
		}
		defer journalLog.Close()

		client := jira.NewClient(cfg.Jira.BaseURL, cfg.Jira.Email, cfg.Jira.APIToken)
		pipeline := fetch.New(client, journalLog, journal.NewCheckpointStore(checkpointPath))

		runErr := pipeline.Run(ctx, fetch.Options{
			JQL:           jql,
			PageSize:      pageSize,
			UseCheckpoint: true,
		})
		if runErr != nil {
			if !errors.Is(runErr, context.Canceled) {
				return runErr
			}
			log.Warn("interrupted; journal and checkpoint preserved, re-run to resume")
		}

		n, err := fetch.Materialize(partialPath, outPath)
		if err != nil {
			return err
		}

		fmt.Printf("Materialized %d issues into %s\n", n, outPath)
		return nil
	},
}

// buildJQL assembles the query from the project selector and an
// optional suffix (sorting/filtering).
func buildJQL(project, suffix string) string {
	return strings.TrimSpace(fmt.Sprintf("project = %s %s", project, suffix))
}

func init() {
	fetchCmd.Flags().String("project", "", "Jira project key (defaults to jira.project_key)")
	fetchCmd.Flags().String("out", "", "consolidated output JSON path")
	fetchCmd.Flags().String("partial", "", "append-only journal path")
	fetchCmd.Flags().String("checkpoint", "", "checkpoint path")
	fetchCmd.Flags().Int("page-size", 0, "issues per search call (max 100)")
	fetchCmd.Flags().String("jql-suffix", "", "JQL suffix for sorting/filtering")
	rootCmd.AddCommand(fetchCmd)
}
