package journal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/ticketlens/internal/model"
)

func TestAppendAndScan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")

	log, err := Open(path)
	require.NoError(t, err)
	defer log.Close()

	require.NoError(t, log.Append(model.ServerRecord{Key: "TON-1", Servers: []string{"srv-ab1"}}))
	require.NoError(t, log.Append(model.ServerRecord{Key: "TON-2", Servers: []string{}}))

	recs, err := Scan[model.ServerRecord](path)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "TON-1", recs[0].Key)
	assert.Equal(t, []string{"srv-ab1"}, recs[0].Servers)
	assert.Equal(t, "TON-2", recs[1].Key)
	assert.Empty(t, recs[1].Servers)
}

func TestScanMissingFile(t *testing.T) {
	recs, err := Scan[model.ServerRecord](filepath.Join(t.TempDir(), "nope.jsonl"))
	require.NoError(t, err)
	assert.Nil(t, recs)
}

func TestScanSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	content := `{"key":"TON-1","label":"database"}
not json at all
{"key":"TON-2","label":"storage"}
{"key":"TON-3","lab`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	recs, err := Scan[model.LabelRecord](path)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "TON-1", recs[0].Key)
	assert.Equal(t, "TON-2", recs[1].Key)
}

func TestKnownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")

	log, err := Open(path)
	require.NoError(t, err)
	defer log.Close()

	require.NoError(t, log.Append(model.Issue{Key: "TON-1"}))
	require.NoError(t, log.Append(model.Issue{Key: "TON-2"}))
	// Duplicate appends are tolerated; the key set is a union.
	require.NoError(t, log.Append(model.Issue{Key: "TON-1"}))
	require.NoError(t, log.Append(model.Issue{}))

	keys, err := KnownKeys(path)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	assert.Contains(t, keys, "TON-1")
	assert.Contains(t, keys, "TON-2")
}

func TestAppendSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")

	log, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, log.Append(model.Issue{Key: "TON-1"}))
	require.NoError(t, log.Close())

	log, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, log.Append(model.Issue{Key: "TON-2"}))
	require.NoError(t, log.Close())

	keys, err := KnownKeys(path)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}
