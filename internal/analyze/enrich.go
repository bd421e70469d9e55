package analyze

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/opsdesk/ticketlens/internal/journal"
	"github.com/opsdesk/ticketlens/internal/model"
)

// Labeler assigns a technology label to ticket text. It never fails;
// unclassifiable text yields model.LabelUnclassified.
type Labeler interface {
	Classify(ctx context.Context, text string) model.Label
}

// Enricher runs the per-ticket enrichment stages, strictly one ticket
// at a time. A ticket is complete only when its key appears in both the
// server-mentions journal and the technology-annotations journal;
// anything less is reprocessed in both stages on the next run, which is
// harmless because the aggregator folds by key.
type Enricher struct {
	labeler   Labeler
	serverLog *journal.Log
	labelLog  *journal.Log
}

// NewEnricher creates an enrichment pipeline over the two journals.
func NewEnricher(labeler Labeler, serverLog, labelLog *journal.Log) *Enricher {
	return &Enricher{labeler: labeler, serverLog: serverLog, labelLog: labelLog}
}

// Run processes every issue not yet complete in both journals. It
// returns the number processed this run. The loop stops on a journal
// failure or on context cancellation, leaving an in-flight issue
// partial (server record only) so the next run re-classifies it; the
// caller should still aggregate whatever the journals hold.
func (e *Enricher) Run(ctx context.Context, issues []model.Issue) (int, error) {
	serverKeys, err := journal.KnownKeys(e.serverLog.Path())
	if err != nil {
		return 0, err
	}
	labelKeys, err := journal.KnownKeys(e.labelLog.Path())
	if err != nil {
		return 0, err
	}

	complete := make(map[string]struct{})
	for k := range serverKeys {
		if _, ok := labelKeys[k]; ok {
			complete[k] = struct{}{}
		}
	}

	log := zap.L()
	log.Info("enrichment starting",
		zap.Int("issues", len(issues)),
		zap.Int("already_complete", len(complete)),
	)

	processed := 0
	for i, issue := range issues {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		if _, done := complete[issue.Key]; done {
			continue
		}

		log.Info("processing issue",
			zap.Int("index", i+1),
			zap.Int("total", len(issues)),
			zap.String("key", issue.Key),
		)

		text := strings.TrimSpace(issue.Summary + "\n" + issue.Description)

		servers := ExtractServers(text)
		if servers == nil {
			servers = []string{}
		}
		if err := e.serverLog.Append(model.ServerRecord{Key: issue.Key, Servers: servers}); err != nil {
			return processed, err
		}

		label := e.labeler.Classify(ctx, text)
		if err := ctx.Err(); err != nil {
			// A label produced under a canceled context is the fallback,
			// not a real classification. It must not reach the journal,
			// or the issue would count as complete and never be
			// re-classified on resume.
			return processed, err
		}
		if err := e.labelLog.Append(model.LabelRecord{Key: issue.Key, Label: label}); err != nil {
			return processed, err
		}

		processed++
	}

	log.Info("enrichment finished", zap.Int("processed", processed))
	return processed, nil
}
