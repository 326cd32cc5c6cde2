package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/toyz/annotate/internal/utils"
)

// storeVersion changes whenever the layout of the store changes
const storeVersion = 1

// Store persists the findings of error-free files between scans. An entry is
// only reused while its file keeps the same fingerprint and the scan runs
// with the same registry and filter.
type Store struct {
	path string

	Version int                   `msgpack:"version"`
	Key     string                `msgpack:"key"`
	Files   map[string]*StoreEntry `msgpack:"files"`
}

// StoreEntry is the stored state of one file
type StoreEntry struct {
	Fingerprint utils.Fingerprint `msgpack:"fingerprint"`
	Findings    []Finding         `msgpack:"findings"`
}

// OpenStore loads the store at path. A missing file, another layout version
// or another key yields an empty store bound to path.
func OpenStore(path, key string) (*Store, error) {
	s := &Store{path: path, Version: storeVersion, Key: key, Files: make(map[string]*StoreEntry)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, utils.WrapReadError(fmt.Sprintf("result store %s", path), err)
	}

	var loaded Store
	if err := msgpack.Unmarshal(data, &loaded); err != nil {
		return nil, utils.WrapParseError(fmt.Sprintf("result store %s", path), err)
	}
	if loaded.Version != storeVersion || loaded.Key != key || loaded.Files == nil {
		return s, nil
	}

	s.Files = loaded.Files
	return s, nil
}

// Path returns the file backing the store
func (s *Store) Path() string { return s.path }

// Len returns the number of stored files
func (s *Store) Len() int { return len(s.Files) }

// Lookup returns the stored findings of file if it has not changed
func (s *Store) Lookup(file string) ([]Finding, bool) {
	entry, ok := s.Files[file]
	if !ok || !entry.Fingerprint.Matches(file) {
		return nil, false
	}
	return entry.Findings, true
}

// Put records the findings of file with its current fingerprint
func (s *Store) Put(file string, findings []Finding) error {
	fingerprint, err := utils.StatFingerprint(file)
	if err != nil {
		return err
	}
	s.Files[file] = &StoreEntry{Fingerprint: fingerprint, Findings: findings}
	return nil
}

// Forget removes the entry of file
func (s *Store) Forget(file string) {
	delete(s.Files, file)
}

// Save writes the store to its path, creating parent directories as needed
func (s *Store) Save() error {
	data, err := msgpack.Marshal(s)
	if err != nil {
		return utils.WrapWriteError("result store", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return utils.WrapWriteError(fmt.Sprintf("result store %s", s.path), err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return utils.WrapWriteError(fmt.Sprintf("result store %s", s.path), err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return utils.WrapWriteError(fmt.Sprintf("result store %s", s.path), err)
	}
	return nil
}
