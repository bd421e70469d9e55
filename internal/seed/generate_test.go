package seed

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/ticketlens/pkg/jira"
)

func TestLoadTemplatesEmbedded(t *testing.T) {
	templates, err := LoadTemplates("")
	require.NoError(t, err)
	assert.Len(t, templates.Technologies, 5)
	assert.Contains(t, templates.Technologies, "database")
	assert.NotEmpty(t, templates.Databases)
}

func TestLoadTemplatesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	content := "technologies:\n  storage:\n    - \"{server} NFS mount unresponsive\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	templates, err := LoadTemplates(path)
	require.NoError(t, err)
	assert.Len(t, templates.Technologies, 1)
}

func TestLoadTemplatesRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte("databases: [a]\n"), 0o644))

	_, err := LoadTemplates(path)
	require.Error(t, err)
}

func TestDescription(t *testing.T) {
	templates, err := LoadTemplates("")
	require.NoError(t, err)
	gen := NewGenerator(templates, 50, 42)

	techs := map[string]bool{}
	placeholder := regexp.MustCompile(`\{[a-z_0-9]+\}`)
	for i := 0; i < 500; i++ {
		tech, text := gen.Description()
		techs[tech] = true
		assert.NotEmpty(t, text)
		assert.Empty(t, placeholder.FindString(text), "unsubstituted placeholder in %q", text)
		_, known := templates.Technologies[tech]
		assert.True(t, known)
	}
	// All five technologies show up across 500 draws.
	assert.Len(t, techs, 5)
}

func TestGeneratorReproducible(t *testing.T) {
	templates, err := LoadTemplates("")
	require.NoError(t, err)

	a := NewGenerator(templates, 50, 7)
	b := NewGenerator(templates, 50, 7)
	for i := 0; i < 20; i++ {
		techA, textA := a.Description()
		techB, textB := b.Description()
		assert.Equal(t, techA, techB)
		assert.Equal(t, textA, textB)
	}
}

// bulkFake records bulk-create batches and echoes created issues.
type bulkFake struct {
	batches []int
	fail    bool
}

func (f *bulkFake) SearchJQL(ctx context.Context, req jira.SearchRequest) (*jira.SearchResponse, error) {
	panic("not used")
}

func (f *bulkFake) BulkCreate(ctx context.Context, req jira.BulkCreateRequest) (*jira.BulkCreateResponse, error) {
	if f.fail {
		return nil, &jira.APIError{StatusCode: 400, Body: "bad field"}
	}
	f.batches = append(f.batches, len(req.IssueUpdates))
	issues := make([]jira.CreatedIssue, len(req.IssueUpdates))
	for i := range issues {
		issues[i] = jira.CreatedIssue{Key: "TON-1"}
	}
	return &jira.BulkCreateResponse{Issues: issues}, nil
}

func TestUpload(t *testing.T) {
	templates, err := LoadTemplates("")
	require.NoError(t, err)
	gen := NewGenerator(templates, 50, 1)

	fake := &bulkFake{}
	created, err := Upload(context.Background(), fake, gen, "TON", 120, 50)
	require.NoError(t, err)
	assert.Equal(t, 120, created)
	assert.Equal(t, []int{50, 50, 20}, fake.batches)
}

func TestUploadStopsOnFailure(t *testing.T) {
	templates, err := LoadTemplates("")
	require.NoError(t, err)
	gen := NewGenerator(templates, 50, 1)

	fake := &bulkFake{fail: true}
	created, err := Upload(context.Background(), fake, gen, "TON", 100, 50)
	require.Error(t, err)
	assert.Zero(t, created)
}
