package access

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/goliatone/go-errors"
)

// FileSnapshotStore keeps the {credential, actor} snapshot in a JSON
// file keyed per installation. Reads and writes each hold the lock for
// the whole operation and writes go through a rename, so readers never
// observe a partial write.
type FileSnapshotStore struct {
	mu   sync.Mutex
	path string
}

var _ SnapshotStore = (*FileSnapshotStore)(nil)

// NewFileSnapshotStore builds a store rooted at the given file path.
func NewFileSnapshotStore(path string) *FileSnapshotStore {
	return &FileSnapshotStore{path: path}
}

// DefaultSnapshotPath places the snapshot under the user config dir.
func DefaultSnapshotPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "unable to resolve config dir")
	}
	return filepath.Join(dir, "lumehealth", "session.json"), nil
}

// Read returns the persisted snapshot, or nil when none exists.
func (s *FileSnapshotStore) Read() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "unable to read session snapshot")
	}

	snap := &Snapshot{}
	if err := json.Unmarshal(raw, snap); err != nil {
		// A corrupt snapshot is treated the same as a stale one: the
		// caller clears it and proceeds logged out.
		return nil, ErrStaleSession
	}

	if snap.Credential == "" || snap.Actor == nil {
		return nil, ErrStaleSession
	}

	return snap, nil
}

// Write persists the snapshot atomically with owner-only permissions.
func (s *FileSnapshotStore) Write(snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "unable to encode session snapshot")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "unable to create snapshot dir")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "unable to write session snapshot")
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "unable to commit session snapshot")
	}

	return nil
}

// Clear removes the persisted snapshot. Clearing an absent snapshot is
// not an error.
func (s *FileSnapshotStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.CategoryInternal, "unable to clear session snapshot")
	}
	return nil
}

// MemorySnapshotStore is an in-memory SnapshotStore for tests and
// embedded callers that do not want local persistence.
type MemorySnapshotStore struct {
	mu   sync.Mutex
	snap *Snapshot
}

var _ SnapshotStore = (*MemorySnapshotStore)(nil)

func (s *MemorySnapshotStore) Read() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap, nil
}

func (s *MemorySnapshotStore) Write(snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	return nil
}

func (s *MemorySnapshotStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = nil
	return nil
}
