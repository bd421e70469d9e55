package analyze

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/ticketlens/internal/journal"
	"github.com/opsdesk/ticketlens/internal/model"
)

func writeJournal(t *testing.T, path string, records ...any) {
	t.Helper()
	log, err := journal.Open(path)
	require.NoError(t, err)
	defer log.Close()
	for _, rec := range records {
		require.NoError(t, log.Append(rec))
	}
}

func aggregatePaths(dir string) ArtifactPaths {
	return ArtifactPaths{
		TechCounts:   filepath.Join(dir, "technology_counts.jsonl"),
		ServerCounts: filepath.Join(dir, "server_counts.jsonl"),
		Unresolved:   filepath.Join(dir, "unresolved_servers_tickets.json"),
	}
}

func TestAggregate(t *testing.T) {
	dir := t.TempDir()
	serverPath := filepath.Join(dir, "server_mentions.jsonl")
	labelPath := filepath.Join(dir, "technology_annotations.jsonl")

	writeJournal(t, serverPath,
		model.ServerRecord{Key: "TON-1", Servers: []string{"srv-ab1", "srv-ab1", "srv-db7"}},
		model.ServerRecord{Key: "TON-2", Servers: []string{}},
		model.ServerRecord{Key: "TON-3", Servers: []string{"srv-db7"}},
	)
	writeJournal(t, labelPath,
		model.LabelRecord{Key: "TON-1", Label: model.LabelStorage},
		model.LabelRecord{Key: "TON-2", Label: model.LabelAuthentication},
		model.LabelRecord{Key: "TON-3", Label: model.LabelStorage},
	)

	issues := []model.Issue{
		{Key: "TON-1", Summary: "Disk full on srv-ab1"},
		{Key: "TON-2", Summary: "Login failures"},
		{Key: "TON-3", Summary: "RAID degraded"},
		{Key: "TON-4", Summary: "Never enriched"},
	}

	paths := aggregatePaths(dir)
	require.NoError(t, Aggregate(issues, serverPath, labelPath, paths))

	techData, err := os.ReadFile(paths.TechCounts)
	require.NoError(t, err)
	techLines := strings.Split(strings.TrimSpace(string(techData)), "\n")
	require.Len(t, techLines, 2)
	assert.JSONEq(t, `{"technology":"storage","count":2}`, techLines[0])
	assert.JSONEq(t, `{"technology":"authentication","count":1}`, techLines[1])

	serverData, err := os.ReadFile(paths.ServerCounts)
	require.NoError(t, err)
	serverLines := strings.Split(strings.TrimSpace(string(serverData)), "\n")
	require.Len(t, serverLines, 2)
	assert.JSONEq(t, `{"server":"srv-ab1","count":2}`, serverLines[0])
	assert.JSONEq(t, `{"server":"srv-db7","count":2}`, serverLines[1])

	unresolvedData, err := os.ReadFile(paths.Unresolved)
	require.NoError(t, err)
	var unresolved []model.UnresolvedIssue
	require.NoError(t, json.Unmarshal(unresolvedData, &unresolved))
	// TON-2 was processed but mentioned no server; TON-4 was never
	// enriched. Both are unresolved.
	require.Len(t, unresolved, 2)
	assert.Equal(t, "TON-2", unresolved[0].Key)
	assert.Equal(t, "Login failures", unresolved[0].Summary)
	assert.Equal(t, "TON-4", unresolved[1].Key)
}

func TestAggregateIdempotent(t *testing.T) {
	dir := t.TempDir()
	serverPath := filepath.Join(dir, "server_mentions.jsonl")
	labelPath := filepath.Join(dir, "technology_annotations.jsonl")

	writeJournal(t, serverPath, model.ServerRecord{Key: "TON-1", Servers: []string{"srv-ab1"}})
	writeJournal(t, labelPath, model.LabelRecord{Key: "TON-1", Label: model.LabelDatabase})

	issues := []model.Issue{{Key: "TON-1", Summary: "slow queries"}}
	paths := aggregatePaths(dir)

	require.NoError(t, Aggregate(issues, serverPath, labelPath, paths))
	first := readAll(t, paths)

	require.NoError(t, Aggregate(issues, serverPath, labelPath, paths))
	second := readAll(t, paths)

	assert.Equal(t, first, second)
}

func TestAggregateFoldsDuplicateKeysLastWins(t *testing.T) {
	dir := t.TempDir()
	serverPath := filepath.Join(dir, "server_mentions.jsonl")
	labelPath := filepath.Join(dir, "technology_annotations.jsonl")

	// TON-1 appears twice from an interrupted-and-rerun enrichment; the
	// later record wins and counts are not inflated.
	writeJournal(t, serverPath,
		model.ServerRecord{Key: "TON-1", Servers: []string{"srv-old"}},
		model.ServerRecord{Key: "TON-1", Servers: []string{"srv-new"}},
	)
	writeJournal(t, labelPath,
		model.LabelRecord{Key: "TON-1", Label: model.LabelAPI},
		model.LabelRecord{Key: "TON-1", Label: model.LabelNetworking},
	)

	issues := []model.Issue{{Key: "TON-1", Summary: "flapping"}}
	paths := aggregatePaths(dir)
	require.NoError(t, Aggregate(issues, serverPath, labelPath, paths))

	techData, err := os.ReadFile(paths.TechCounts)
	require.NoError(t, err)
	assert.JSONEq(t, `{"technology":"networking","count":1}`, strings.TrimSpace(string(techData)))

	serverData, err := os.ReadFile(paths.ServerCounts)
	require.NoError(t, err)
	assert.JSONEq(t, `{"server":"srv-new","count":1}`, strings.TrimSpace(string(serverData)))
}

func TestAggregateEmptyJournals(t *testing.T) {
	dir := t.TempDir()
	paths := aggregatePaths(dir)

	issues := []model.Issue{{Key: "TON-1", Summary: "untouched"}}
	require.NoError(t, Aggregate(issues,
		filepath.Join(dir, "server_mentions.jsonl"),
		filepath.Join(dir, "technology_annotations.jsonl"),
		paths,
	))

	techData, err := os.ReadFile(paths.TechCounts)
	require.NoError(t, err)
	assert.Empty(t, techData)

	var unresolved []model.UnresolvedIssue
	unresolvedData, err := os.ReadFile(paths.Unresolved)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(unresolvedData, &unresolved))
	require.Len(t, unresolved, 1)
}

func readAll(t *testing.T, paths ArtifactPaths) [3]string {
	t.Helper()
	var out [3]string
	for i, p := range []string{paths.TechCounts, paths.ServerCounts, paths.Unresolved} {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		out[i] = string(data)
	}
	return out
}
