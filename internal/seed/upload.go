package seed

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/opsdesk/ticketlens/pkg/jira"
)

// Upload creates total synthetic tickets in the given project via the
// bulk-create endpoint, batchSize at a time. It returns the number of
// issues actually created; a failed batch stops the upload.
func Upload(ctx context.Context, client jira.Client, gen *Generator, projectKey string, total, batchSize int) (int, error) {
	log := zap.L().With(zap.String("project", projectKey))

	created := 0
	for created < total {
		if err := ctx.Err(); err != nil {
			return created, err
		}

		n := batchSize
		if remaining := total - created; remaining < n {
			n = remaining
		}

		updates := make([]jira.IssueUpdate, 0, n)
		for i := 0; i < n; i++ {
			_, desc := gen.Description()
			updates = append(updates, jira.IssueUpdate{
				Fields: jira.CreateFields{
					Project:     jira.NamedKey{Key: projectKey},
					IssueType:   jira.NamedEntity{Name: "Task"},
					Summary:     fmt.Sprintf("Ticket %d", created+i+1),
					Description: jira.DocumentFromText(desc),
				},
			})
		}

		resp, err := client.BulkCreate(ctx, jira.BulkCreateRequest{IssueUpdates: updates})
		if err != nil {
			return created, eris.Wrap(err, "seed: bulk create")
		}

		created += len(resp.Issues)
		log.Info("batch created",
			zap.Int("batch", len(resp.Issues)),
			zap.Int("created", created),
			zap.Int("total", total),
		)

		if len(resp.Issues) == 0 {
			return created, eris.New("seed: bulk create returned no issues")
		}
	}

	return created, nil
}
