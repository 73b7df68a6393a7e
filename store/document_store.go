// Package store implements the file-backed storage engine: atomic JSON
// document persistence over an injected filesystem, plus an in-process
// per-path advisory lock manager.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/quarryhq/quarry/types"
)

const tmpSuffix = ".tmp"

// DocumentStore persists JSON documents, one file per document. It uses
// an afero.Fs so tests can run against afero.NewMemMapFs() while
// production uses afero.NewOsFs().
type DocumentStore struct {
	fs    afero.Fs
	locks *LockManager
}

// NewDocumentStore creates a store over the given filesystem.
func NewDocumentStore(fs afero.Fs) *DocumentStore {
	return &DocumentStore{fs: fs, locks: NewLockManager()}
}

// Fs exposes the underlying filesystem (used by the CLI watcher and tests).
func (s *DocumentStore) Fs() afero.Fs { return s.fs }

// ReadJSON reads and decodes the document at path into v. A missing file
// yields an error matching types.ErrNotFound; an unparseable file yields
// a StorageError with op "parse" so callers can tell absence from
// corruption.
func (s *DocumentStore) ReadJSON(path string, v any) error {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return &types.StorageError{Op: "read", Path: path, Err: types.ErrNotFound}
		}
		return types.NewStorageError("read", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return types.NewStorageError("parse", path, err)
	}
	return nil
}

// WriteJSON atomically persists v at path: the document is serialized to
// a sibling temporary file which is then renamed over the destination.
// A failure at any point leaves the previous version (or absence)
// intact; no reader ever observes a partially-written file. Missing
// parent directories are created.
func (s *DocumentStore) WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return types.NewStorageError("write", path, err)
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return types.NewStorageError("write", path, err)
		}
	}

	tmpPath := path + tmpSuffix
	if err := afero.WriteFile(s.fs, tmpPath, data, 0o644); err != nil {
		_ = s.fs.Remove(tmpPath)
		return types.NewStorageError("write", tmpPath, err)
	}
	if err := s.fs.Rename(tmpPath, path); err != nil {
		_ = s.fs.Remove(tmpPath)
		return types.NewStorageError("write", path, err)
	}
	return nil
}

// Exists probes for the document at path.
func (s *DocumentStore) Exists(path string) (bool, error) {
	ok, err := afero.Exists(s.fs, path)
	if err != nil {
		return false, types.NewStorageError("read", path, err)
	}
	return ok, nil
}

// Remove deletes the document at path. A missing file yields an error
// matching types.ErrNotFound, which callers may choose to ignore.
func (s *DocumentStore) Remove(path string) error {
	if err := s.fs.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return &types.StorageError{Op: "delete", Path: path, Err: types.ErrNotFound}
		}
		return types.NewStorageError("delete", path, err)
	}
	return nil
}

// ListDir returns the file names in dir for enumeration. A directory
// that does not exist yet lists as empty rather than failing, since
// WriteJSON creates directories lazily.
func (s *DocumentStore) ListDir(dir string) ([]string, error) {
	infos, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, types.NewStorageError("list", dir, err)
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		names = append(names, info.Name())
	}
	return names, nil
}

// Lock acquires the in-process advisory lock for path, waiting up to
// timeout. The returned handle must be released by the caller.
func (s *DocumentStore) Lock(path string, timeout time.Duration) (*LockHandle, error) {
	return s.locks.Acquire(path, timeout)
}
