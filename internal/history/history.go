// Package history persists recent searches and imports to a small JSON
// file under ~/.docdash/. Several docdash processes may run at once (the
// dashboard plus one-shot CLI commands), so writes are guarded with an
// advisory file lock.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// Entry kinds.
const (
	KindSearch = "search"
	KindImport = "import"
)

// maxEntries bounds the file; oldest entries are dropped past this.
const maxEntries = 200

// Entry is one recorded action.
type Entry struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// Store reads and writes the history file.
type Store struct {
	path string
	lock *flock.Flock
}

// NewStore creates a store rooted at dir (typically ~/.docdash).
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}
	path := filepath.Join(dir, "history.json")
	return &Store{
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

// DefaultStore opens the store under the user's home directory.
func DefaultStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}
	return NewStore(filepath.Join(home, ".docdash"))
}

// Append records an entry, trimming the file to maxEntries.
func (s *Store) Append(kind, value string) error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("locking history file: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	entries, err := s.readLocked()
	if err != nil {
		return err
	}

	entries = append(entries, Entry{
		ID:        uuid.NewString(),
		Kind:      kind,
		Value:     value,
		CreatedAt: time.Now().UTC(),
	})
	if len(entries) > maxEntries {
		entries = entries[len(entries)-maxEntries:]
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing history file: %w", err)
	}
	return nil
}

// Recent returns up to n entries of the given kind, newest first.
// Kind "" matches all entries.
func (s *Store) Recent(kind string, n int) ([]Entry, error) {
	if err := s.lock.RLock(); err != nil {
		return nil, fmt.Errorf("locking history file: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	entries, err := s.readLocked()
	if err != nil {
		return nil, err
	}

	var out []Entry
	for i := len(entries) - 1; i >= 0 && len(out) < n; i-- {
		if kind == "" || entries[i].Kind == kind {
			out = append(out, entries[i])
		}
	}
	return out, nil
}

// readLocked loads the file; a missing file is an empty history.
func (s *Store) readLocked() ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading history file: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		// A corrupt history file is not worth failing a search over.
		return nil, nil
	}
	return entries, nil
}
