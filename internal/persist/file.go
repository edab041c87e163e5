package persist

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore is the simple persistent key-value adapter: one JSON document
// per tableID under a directory. Writes are atomic (temp file + rename).
type FileStore struct {
	dir string

	mu sync.Mutex // serializes writes per process
}

// NewFileStore creates the directory if needed and returns the adapter.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save implements Adapter.
func (f *FileStore) Save(_ context.Context, tableID string, snap *Snapshot) error {
	payload, err := snap.Marshal()
	if err != nil {
		return fmt.Errorf("filestore save: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	final := f.path(tableID)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("filestore save: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("filestore save: %w", err)
	}
	return nil
}

// Load implements Adapter. Returns (nil, nil) when no snapshot exists.
func (f *FileStore) Load(_ context.Context, tableID string) (*Snapshot, error) {
	data, err := os.ReadFile(f.path(tableID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("filestore load: %w", err)
	}
	return ParseSnapshot(data)
}

// path maps a tableID to a file name, replacing separators that would
// escape the directory.
func (f *FileStore) path(tableID string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '_'
		}
		return r
	}, tableID)
	return filepath.Join(f.dir, safe+".json")
}
