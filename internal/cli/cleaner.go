package cli

import (
	"fmt"
	"os"
	"path/filepath"
)

// Cleaner removes the result stores written by scan
type Cleaner struct{}

// NewCleaner creates a new cleaner
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// Clean removes every store in paths, together with a leftover temporary
// file from an interrupted save. The parent directory is removed too when
// the store was the last file in it. Missing files are skipped.
func (c *Cleaner) Clean(paths ...string) ([]string, error) {
	var removedFiles []string

	for _, path := range paths {
		if path == "" {
			continue
		}
		for _, file := range []string{path, path + ".tmp"} {
			removed, err := c.removeFile(file)
			if err != nil {
				return removedFiles, err
			}
			if removed {
				removedFiles = append(removedFiles, file)
			}
		}
		c.removeEmptyDir(filepath.Dir(path))
	}

	return removedFiles, nil
}

// removeFile deletes a single file
func (c *Cleaner) removeFile(file string) (bool, error) {
	info, err := os.Stat(file)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil // nothing to clean
		}
		return false, fmt.Errorf("failed to check file %s: %w", file, err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("%s is a directory, not a result store", file)
	}

	if err := os.Remove(file); err != nil {
		return false, fmt.Errorf("failed to remove file %s: %w", file, err)
	}
	return true, nil
}

func (c *Cleaner) removeEmptyDir(dir string) {
	if dir == "." || dir == string(filepath.Separator) {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return
	}
	_ = os.Remove(dir)
}
