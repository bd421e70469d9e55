package journal

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/opsdesk/ticketlens/internal/model"
)

// CheckpointStore persists the single pagination checkpoint. Writes are
// atomic (temp file + rename), so a reader never observes a half-written
// checkpoint; a missing or unreadable checkpoint reads as a cold start.
type CheckpointStore struct {
	path string
}

// NewCheckpointStore returns a store backed by the file at path.
func NewCheckpointStore(path string) *CheckpointStore {
	return &CheckpointStore{path: path}
}

// Read returns the stored checkpoint, or nil if none exists or the file
// cannot be parsed. It never returns an error for an absent or corrupt
// checkpoint: both mean "start from the beginning".
func (s *CheckpointStore) Read() *model.Checkpoint {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var cp model.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil
	}
	return &cp
}

// Write replaces the checkpoint atomically.
func (s *CheckpointStore) Write(cp model.Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return eris.Wrap(err, "journal: marshal checkpoint")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return eris.Wrapf(err, "journal: create dir for %s", s.path)
	}

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return eris.Wrapf(err, "journal: create %s", tmp)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return eris.Wrapf(err, "journal: write %s", tmp)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return eris.Wrapf(err, "journal: sync %s", tmp)
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "journal: close %s", tmp)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return eris.Wrapf(err, "journal: replace %s", s.path)
	}
	return nil
}
