// Package render turns the aggregated count tables into bar charts.
package render

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/opsdesk/ticketlens/internal/journal"
)

// Count is one row of a frequency table, regardless of which table it
// came from.
type Count struct {
	Name  string
	Count int
}

// ReadCounts loads a counts JSONL file. Rows carry either a "server" or
// a "technology" name field.
func ReadCounts(path string) ([]Count, error) {
	rows, err := journal.Scan[struct {
		Server     string `json:"server"`
		Technology string `json:"technology"`
		Count      int    `json:"count"`
	}](path)
	if err != nil {
		return nil, err
	}

	counts := make([]Count, 0, len(rows))
	for _, row := range rows {
		name := row.Server
		if name == "" {
			name = row.Technology
		}
		if name == "" {
			continue
		}
		counts = append(counts, Count{Name: name, Count: row.Count})
	}
	return counts, nil
}

// Charts renders the top-N server chart and the technology distribution
// chart into outDir as self-contained HTML files. The count files are
// already sorted descending by the aggregator.
func Charts(ctx context.Context, serverCountsPath, techCountsPath, outDir string, topN int) error {
	servers, err := ReadCounts(serverCountsPath)
	if err != nil {
		return err
	}
	if len(servers) > topN {
		servers = servers[:topN]
	}

	techs, err := ReadCounts(techCountsPath)
	if err != nil {
		return err
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		return barChart("Top Servers by Frequency", servers, filepath.Join(outDir, "server_counts.html"))
	})
	g.Go(func() error {
		return barChart("Technology Classification Distribution", techs, filepath.Join(outDir, "technology_counts.html"))
	})
	return g.Wait()
}

func barChart(title string, counts []Count, path string) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{Rotate: 30, Show: opts.Bool(true)}}),
	)

	names := make([]string, len(counts))
	values := make([]opts.BarData, len(counts))
	for i, c := range counts {
		names[i] = c.Name
		values[i] = opts.BarData{Value: c.Count}
	}
	bar.SetXAxis(names).AddSeries("count", values)

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "render: create %s", path)
	}
	defer f.Close()

	if err := bar.Render(f); err != nil {
		return eris.Wrapf(err, "render: render %s", path)
	}
	return nil
}
