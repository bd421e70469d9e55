// Package journal provides the durable append-only record logs and the
// atomic checkpoint slot that make the fetch and enrichment pipelines
// resumable. A log holds one JSON record per line; the key set derived
// from it is the dedup authority across restarts.
//
// Logs assume a single writer. Concurrent runs against the same paths
// are unsupported.
package journal

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// Log is an append-only JSONL record store. Append is durable: the
// record is fsynced before Append returns, so a crash immediately after
// a successful Append cannot lose it.
type Log struct {
	path string
	f    *os.File
}

// Open opens (creating if needed) the log at path for appending.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, eris.Wrapf(err, "journal: create dir for %s", path)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, eris.Wrapf(err, "journal: open %s", path)
	}
	return &Log{path: path, f: f}, nil
}

// Path returns the log's file path.
func (l *Log) Path() string {
	return l.path
}

// Append writes v as one JSON line and syncs it to disk.
func (l *Log) Append(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return eris.Wrap(err, "journal: marshal record")
	}
	line = append(line, '\n')
	if _, err := l.f.Write(line); err != nil {
		return eris.Wrapf(err, "journal: append to %s", l.path)
	}
	if err := l.f.Sync(); err != nil {
		return eris.Wrapf(err, "journal: sync %s", l.path)
	}
	return nil
}

// Close releases the underlying file handle.
func (l *Log) Close() error {
	return l.f.Close()
}

// Scan replays every record in append order, decoded into T. Blank and
// malformed lines (including a partial trailing line from a crash
// mid-write) are skipped, never fatal. A missing file yields no records.
func Scan[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "journal: open %s", path)
	}
	defer f.Close()

	var out []T
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec T
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrapf(err, "journal: scan %s", path)
	}
	return out, nil
}

// KnownKeys returns the set of every key ever recorded in the log at
// path. Records without a usable key are ignored.
func KnownKeys(path string) (map[string]struct{}, error) {
	recs, err := Scan[struct {
		Key string `json:"key"`
	}](path)
	if err != nil {
		return nil, err
	}
	keys := make(map[string]struct{}, len(recs))
	for _, r := range recs {
		if r.Key != "" {
			keys[r.Key] = struct{}{}
		}
	}
	return keys, nil
}
