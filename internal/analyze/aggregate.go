package analyze

import (
	"bytes"
	"encoding/json"
	"os"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/opsdesk/ticketlens/internal/journal"
	"github.com/opsdesk/ticketlens/internal/model"
)

// ArtifactPaths names the three aggregation outputs.
type ArtifactPaths struct {
	TechCounts   string
	ServerCounts string
	Unresolved   string
}

// Aggregate rebuilds the frequency tables and the unresolved report
// from the two journals. It never reads its own previous output: every
// invocation fully replaces the three artifacts, so it is safe after an
// arbitrarily interrupted enrichment run and re-running it on unchanged
// journals is byte-identical.
//
// Each journal is folded by key before counting, last record winning,
// so duplicate appends from partial runs cannot inflate counts.
func Aggregate(issues []model.Issue, serverLogPath, labelLogPath string, paths ArtifactPaths) error {
	labelRecs, err := journal.Scan[model.LabelRecord](labelLogPath)
	if err != nil {
		return err
	}
	labelByKey := make(map[string]model.Label, len(labelRecs))
	for _, rec := range labelRecs {
		if rec.Key == "" || rec.Label == "" {
			continue
		}
		labelByKey[rec.Key] = rec.Label
	}

	techCounts := make(map[string]int)
	for _, label := range labelByKey {
		techCounts[string(label)]++
	}
	if err := writeTechCounts(paths.TechCounts, techCounts); err != nil {
		return err
	}

	serverRecs, err := journal.Scan[model.ServerRecord](serverLogPath)
	if err != nil {
		return err
	}
	serversByKey := make(map[string][]string, len(serverRecs))
	for _, rec := range serverRecs {
		if rec.Key == "" {
			continue
		}
		serversByKey[rec.Key] = rec.Servers
	}

	serverCounts := make(map[string]int)
	keysWithServers := make(map[string]struct{})
	for key, servers := range serversByKey {
		if len(servers) == 0 {
			continue
		}
		keysWithServers[key] = struct{}{}
		for _, s := range servers {
			serverCounts[s]++
		}
	}
	if err := writeServerCounts(paths.ServerCounts, serverCounts); err != nil {
		return err
	}

	unresolved := make([]model.UnresolvedIssue, 0)
	for _, issue := range issues {
		if _, ok := keysWithServers[issue.Key]; !ok {
			unresolved = append(unresolved, model.UnresolvedIssue{Key: issue.Key, Summary: issue.Summary})
		}
	}
	data, err := json.MarshalIndent(unresolved, "", "  ")
	if err != nil {
		return eris.Wrap(err, "analyze: marshal unresolved report")
	}
	if err := os.WriteFile(paths.Unresolved, data, 0o644); err != nil {
		return eris.Wrapf(err, "analyze: write %s", paths.Unresolved)
	}

	return nil
}

// sortedCounts orders names by descending count, ties broken by name,
// so aggregation output is deterministic.
func sortedCounts(counts map[string]int) []string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

func writeTechCounts(path string, counts map[string]int) error {
	var buf bytes.Buffer
	for _, name := range sortedCounts(counts) {
		line, err := json.Marshal(model.TechCount{Technology: name, Count: counts[name]})
		if err != nil {
			return eris.Wrap(err, "analyze: marshal technology count")
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return eris.Wrapf(err, "analyze: write %s", path)
	}
	return nil
}

func writeServerCounts(path string, counts map[string]int) error {
	var buf bytes.Buffer
	for _, name := range sortedCounts(counts) {
		line, err := json.Marshal(model.ServerCount{Server: name, Count: counts[name]})
		if err != nil {
			return eris.Wrap(err, "analyze: marshal server count")
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return eris.Wrapf(err, "analyze: write %s", path)
	}
	return nil
}
