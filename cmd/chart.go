package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/opsdesk/ticketlens/internal/render"
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Render bar charts from the aggregated count tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		topN, _ := cmd.Flags().GetInt("top-n")
		if topN <= 0 {
			topN = cfg.Chart.TopN
		}

		outDir := cfg.Analyze.OutputDir
		err := render.Charts(cmd.Context(),
			filepath.Join(outDir, "server_counts.jsonl"),
			filepath.Join(outDir, "technology_counts.jsonl"),
			outDir,
			topN,
		)
		if err != nil {
			return err
		}

		fmt.Printf("Charts written to %s\n", outDir)
		return nil
	},
}

func init() {
	chartCmd.Flags().Int("top-n", 0, "how many top servers to plot")
	rootCmd.AddCommand(chartCmd)
}
