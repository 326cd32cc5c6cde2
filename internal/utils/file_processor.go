package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileProcessor provides utilities for common file processing operations
type FileProcessor struct {
	fileReader      *FileReader
	fileFilter      FileFilter
	directoryFilter DirectoryFilter
}

// NewFileProcessor creates a new file processor
func NewFileProcessor() *FileProcessor {
	return NewFileProcessorWithReader(NewFileReader())
}

// NewFileProcessorWithReader creates a file processor with an existing FileReader
func NewFileProcessorWithReader(reader *FileReader) *FileProcessor {
	return &FileProcessor{
		fileReader:      reader,
		fileFilter:      DefaultGoFileFilter(),
		directoryFilter: DefaultDirectoryFilter(),
	}
}

// FileFilter defines a function that determines whether a file should be processed
type FileFilter func(path string, info os.DirEntry) bool

// DirectoryFilter defines a function that determines whether a directory should be processed
type DirectoryFilter func(path string, info os.DirEntry) bool

// FileWalkOptions configures file walking behavior
type FileWalkOptions struct {
	FileFilter      FileFilter
	DirectoryFilter DirectoryFilter
	SkipErrors      bool
}

// DefaultGoFileFilter filters for .go files, excluding tests
func DefaultGoFileFilter() FileFilter {
	return func(path string, info os.DirEntry) bool {
		if info.IsDir() {
			return false
		}

		name := info.Name()
		return strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go")
	}
}

// TestGoFileFilter filters for Go test files
func TestGoFileFilter() FileFilter {
	return func(path string, info os.DirEntry) bool {
		if info.IsDir() {
			return false
		}

		return strings.HasSuffix(info.Name(), "_test.go")
	}
}

// DefaultDirectoryFilter skips common directories that shouldn't contain source code
func DefaultDirectoryFilter() DirectoryFilter {
	skipDirs := map[string]bool{
		"vendor":       true,
		"node_modules": true,
		"testdata":     true,
		"build":        true,
		"dist":         true,
	}

	return func(path string, info os.DirEntry) bool {
		if !info.IsDir() {
			return true
		}

		name := info.Name()

		// Skip hidden and underscore directories, like the go tool does
		if (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) && name != "." && name != ".." {
			return false
		}

		return !skipDirs[name]
	}
}

// WithFileFilter replaces the filter used to select source files
func (fp *FileProcessor) WithFileFilter(filter FileFilter) *FileProcessor {
	fp.fileFilter = filter
	return fp
}

// WalkFiles walks through files in a directory tree with filtering
func (fp *FileProcessor) WalkFiles(rootDir string, options FileWalkOptions) ([]string, error) {
	var matchedFiles []string

	err := filepath.WalkDir(rootDir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			if options.SkipErrors {
				return nil
			}
			return err
		}

		if entry.IsDir() {
			// the root itself is always walked
			if path != rootDir && options.DirectoryFilter != nil && !options.DirectoryFilter(path, entry) {
				return filepath.SkipDir
			}
			return nil
		}

		if options.FileFilter == nil || options.FileFilter(path, entry) {
			matchedFiles = append(matchedFiles, path)
		}
		return nil
	})

	return matchedFiles, err
}

// ExpandPatterns turns directory arguments into the list of directories to
// process. A trailing "/..." selects the directory and every subdirectory
// that holds Go files.
func (fp *FileProcessor) ExpandPatterns(patterns []string) ([]string, error) {
	var dirs []string
	visited := make(map[string]bool)

	for _, pattern := range patterns {
		root, recursive := strings.CutSuffix(filepath.ToSlash(pattern), "/...")
		if pattern == "..." {
			root, recursive = ".", true
		}
		root = filepath.FromSlash(root)
		if root == "" {
			root = "."
		}

		info, err := os.Stat(root)
		if err != nil {
			return nil, WrapProcessError(fmt.Sprintf("pattern %s", pattern), err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", root)
		}

		if !recursive {
			if !visited[root] {
				visited[root] = true
				dirs = append(dirs, root)
			}
			continue
		}

		found, err := fp.scanDirectoryRecursive(root, visited)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, found...)
	}

	return dirs, nil
}

// ScanDirectoriesWithGoFiles scans directories and returns those containing Go files
func (fp *FileProcessor) ScanDirectoriesWithGoFiles(rootDirs []string) ([]string, error) {
	var packageDirs []string
	visited := make(map[string]bool)

	for _, rootDir := range rootDirs {
		dirs, err := fp.scanDirectoryRecursive(rootDir, visited)
		if err != nil {
			return nil, err
		}
		packageDirs = append(packageDirs, dirs...)
	}

	return packageDirs, nil
}

// scanDirectoryRecursive recursively scans a directory for Go files
func (fp *FileProcessor) scanDirectoryRecursive(dir string, visited map[string]bool) ([]string, error) {
	// Resolve absolute path to handle symlinks and avoid cycles
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, WrapProcessError(fmt.Sprintf("path resolution %s", dir), err)
	}

	if visited[absDir] || visited[dir] {
		return nil, nil
	}
	visited[absDir] = true
	visited[dir] = true

	var packageDirs []string

	hasGoFiles, err := fp.HasGoFiles(dir)
	if err != nil {
		return nil, WrapProcessError(fmt.Sprintf("Go file check in %s", dir), err)
	}

	if hasGoFiles {
		packageDirs = append(packageDirs, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, WrapProcessError(fmt.Sprintf("directory read %s", dir), err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		entryPath := filepath.Join(dir, entry.Name())
		if !fp.directoryFilter(entryPath, entry) {
			continue
		}

		subDirs, err := fp.scanDirectoryRecursive(entryPath, visited)
		if err != nil {
			return nil, err
		}
		packageDirs = append(packageDirs, subDirs...)
	}

	return packageDirs, nil
}

// HasGoFiles checks if a directory contains any Go files accepted by the file filter
func (fp *FileProcessor) HasGoFiles(dir string) (bool, error) {
	files, err := fp.GoFiles(dir)
	return len(files) > 0, err
}

// GoFiles lists the Go files of a single directory in name order
func (fp *FileProcessor) GoFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if fp.fileFilter(path, entry) {
			files = append(files, path)
		}
	}
	sort.Strings(files)
	return files, nil
}

// CollectGoFiles expands the patterns and returns every Go file to process
func (fp *FileProcessor) CollectGoFiles(patterns []string) ([]string, error) {
	dirs, err := fp.ExpandPatterns(patterns)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, dir := range dirs {
		dirFiles, err := fp.GoFiles(dir)
		if err != nil {
			return nil, WrapProcessError(fmt.Sprintf("directory read %s", dir), err)
		}
		files = append(files, dirFiles...)
	}
	return files, nil
}

// GetFileReader returns the underlying FileReader for advanced operations
func (fp *FileProcessor) GetFileReader() *FileReader {
	return fp.fileReader
}
