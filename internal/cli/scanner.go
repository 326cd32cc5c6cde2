package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/toyz/annotate/internal/utils"
)

// DirectoryScanner handles recursive directory scanning for Go files
type DirectoryScanner struct {
	fileProcessor *utils.FileProcessor
}

// NewDirectoryScanner creates a new directory scanner
func NewDirectoryScanner() *DirectoryScanner {
	return &DirectoryScanner{
		fileProcessor: utils.NewFileProcessor(),
	}
}

// ScanFiles resolves the given directories and returns the Go files they
// hold, excluding tests. Supports Go-style patterns like "./..." for
// recursive scanning.
func (s *DirectoryScanner) ScanFiles(rootDirs []string) ([]string, error) {
	if len(rootDirs) == 0 {
		rootDirs = []string{"."}
	}

	patterns := make([]string, 0, len(rootDirs))
	for _, rootDir := range rootDirs {
		baseDir, recursive := strings.CutSuffix(filepath.ToSlash(rootDir), "/...")
		if rootDir == "..." {
			baseDir, recursive = ".", true
		}
		if baseDir == "" {
			baseDir = "."
		}

		// Clean and resolve the path
		cleanPath, err := filepath.Abs(filepath.FromSlash(baseDir))
		if err != nil {
			return nil, utils.WrapProcessError(fmt.Sprintf("path resolution %s", baseDir), err)
		}

		if recursive {
			cleanPath += string(filepath.Separator) + "..."
		}
		patterns = append(patterns, cleanPath)
	}

	return s.fileProcessor.CollectGoFiles(patterns)
}
