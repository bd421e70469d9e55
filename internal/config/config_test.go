package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp moves to an empty dir so no stray config.yaml is found.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "TON", cfg.Jira.ProjectKey)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.OpenRouter.BaseURL)
	assert.Equal(t, "meta-llama/llama-3.1-8b-instruct", cfg.OpenRouter.Model)
	assert.InDelta(t, 2.0, cfg.OpenRouter.RequestsPerSecond, 0.001)
	assert.Equal(t, 100, cfg.Fetch.PageSize)
	assert.Equal(t, "ORDER BY created DESC", cfg.Fetch.JQLSuffix)
	assert.Equal(t, "issues_data.json", cfg.Fetch.OutputPath)
	assert.Equal(t, "output/issues_partial.jsonl", cfg.Fetch.PartialPath)
	assert.Equal(t, "output/fetch_checkpoint.json", cfg.Fetch.CheckpointPath)
	assert.Equal(t, 0, cfg.Analyze.IssueLimit)
	assert.Equal(t, "output", cfg.Analyze.OutputDir)
	assert.Equal(t, 15, cfg.Chart.TopN)
	assert.Equal(t, 20000, cfg.Seed.Total)
	assert.Equal(t, 50, cfg.Seed.BatchSize)
	assert.Equal(t, 200, cfg.Seed.ServerPool)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
jira:
  base_url: https://example.atlassian.net
  email: ops@example.com
  project_key: OPS
fetch:
  page_size: 10
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://example.atlassian.net", cfg.Jira.BaseURL)
	assert.Equal(t, "ops@example.com", cfg.Jira.Email)
	assert.Equal(t, "OPS", cfg.Jira.ProjectKey)
	assert.Equal(t, 10, cfg.Fetch.PageSize)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still apply for unset values
	assert.Equal(t, 15, cfg.Chart.TopN)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("TICKETLENS_FETCH_PAGE_SIZE", "25")
	t.Setenv("TICKETLENS_JIRA_API_TOKEN", "secret-token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Fetch.PageSize)
	assert.Equal(t, "secret-token", cfg.Jira.APIToken)
}

func TestInitLoggerRejectsBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "shouty", Format: "json"})
	require.Error(t, err)
}
