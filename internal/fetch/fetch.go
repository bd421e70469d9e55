// Package fetch drives resumable, deduplicated retrieval of issues from
// the Jira search API into a durable journal.
package fetch

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/opsdesk/ticketlens/internal/journal"
	"github.com/opsdesk/ticketlens/internal/model"
	"github.com/opsdesk/ticketlens/pkg/jira"
)

// searchFields is the field set requested per page; description arrives
// as ADF and is flattened before journaling.
var searchFields = []string{"issuetype", "summary", "description"}

// Options parameterize one fetch run.
type Options struct {
	// JQL selects which issues to retrieve.
	JQL string

	// PageSize is the maximum number of issues per search call.
	PageSize int

	// UseCheckpoint seeds the pagination cursor from a stored
	// checkpoint when one exists.
	UseCheckpoint bool
}

// Pipeline pages through search results, appending each previously
// unseen issue to the journal and checkpointing the cursor after every
// page. A run can be interrupted between pages and resumed later: the
// journal's key set is the dedup authority, so replayed pages (after a
// stale cursor forces a restart from the beginning) never duplicate
// records.
type Pipeline struct {
	client      jira.Client
	log         *journal.Log
	checkpoints *journal.CheckpointStore
}

// New creates a fetch pipeline.
func New(client jira.Client, log *journal.Log, checkpoints *journal.CheckpointStore) *Pipeline {
	return &Pipeline{client: client, log: log, checkpoints: checkpoints}
}

// Run fetches all pages for opts.JQL. It returns ctx.Err() when
// interrupted between pages; everything journaled and checkpointed so
// far remains valid for resume. A search rejection while a stored
// cursor is in use clears the cursor and restarts from the beginning;
// the same rejection on a cursor-less request is fatal.
func (p *Pipeline) Run(ctx context.Context, opts Options) error {
	log := zap.L().With(zap.String("jql", opts.JQL))

	known, err := journal.KnownKeys(p.log.Path())
	if err != nil {
		return err
	}
	log.Info("loaded journal", zap.Int("known_keys", len(known)))

	var token string
	if opts.UseCheckpoint {
		if cp := p.checkpoints.Read(); cp != nil {
			token = cp.NextPageToken
			log.Info("resuming from checkpoint",
				zap.Int("page_index", cp.PageIndex),
				zap.Int("saved_unique", cp.SavedUnique),
			)
		}
	}

	pageIndex := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		resp, err := p.client.SearchJQL(ctx, jira.SearchRequest{
			JQL:           opts.JQL,
			MaxResults:    opts.PageSize,
			Fields:        searchFields,
			NextPageToken: token,
		})
		if err != nil {
			// A stored cursor can expire between runs. Drop it and
			// restart from the beginning; the known-key set prevents
			// duplicate appends.
			if token != "" && jira.IsClientError(err) {
				log.Warn("pagination cursor rejected, restarting from beginning", zap.Error(err))
				token = ""
				continue
			}
			return eris.Wrap(err, "fetch: search page")
		}

		if len(resp.Issues) == 0 {
			log.Info("no more issues in response page")
			break
		}

		newInPage := 0
		for _, issue := range resp.Issues {
			if issue.Key == "" {
				continue
			}
			if _, seen := known[issue.Key]; seen {
				continue
			}
			rec := normalize(issue)
			if err := p.log.Append(rec); err != nil {
				return err
			}
			known[issue.Key] = struct{}{}
			newInPage++
		}

		pageIndex++
		log.Info("page fetched",
			zap.Int("page_index", pageIndex),
			zap.Int("new_in_page", newInPage),
			zap.Int("total_unique", len(known)),
		)

		token = resp.NextPageToken
		if err := p.checkpoints.Write(model.Checkpoint{
			JQL:           opts.JQL,
			PageSize:      opts.PageSize,
			NextPageToken: token,
			PageIndex:     pageIndex,
			SavedUnique:   len(known),
			IsLast:        resp.IsLast,
		}); err != nil {
			return err
		}

		if resp.IsLast {
			log.Info("pagination finished")
			break
		}
	}

	return nil
}

func normalize(issue jira.SearchIssue) model.Issue {
	rec := model.Issue{
		Key:         issue.Key,
		Summary:     issue.Fields.Summary,
		Description: issue.Fields.Description.PlainText(),
	}
	if issue.Fields.IssueType != nil {
		rec.Type = issue.Fields.IssueType.Name
	}
	return rec
}

// Materialize folds the journal into a consolidated JSON array, one
// entry per key, first occurrence winning. It is a pure function of the
// journal contents and can be re-run any number of times with identical
// output. Returns the number of issues written.
func Materialize(logPath, outPath string) (int, error) {
	recs, err := journal.Scan[model.Issue](logPath)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]struct{}, len(recs))
	issues := make([]model.Issue, 0, len(recs))
	for _, rec := range recs {
		if rec.Key == "" {
			continue
		}
		if _, dup := seen[rec.Key]; dup {
			continue
		}
		seen[rec.Key] = struct{}{}
		issues = append(issues, rec)
	}

	data, err := json.MarshalIndent(issues, "", "  ")
	if err != nil {
		return 0, eris.Wrap(err, "fetch: marshal collection")
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return 0, eris.Wrapf(err, "fetch: write %s", outPath)
	}
	return len(issues), nil
}
