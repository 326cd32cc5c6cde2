package utils

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
)

// SourceFile is a parsed Go file together with its raw content. The content
// is kept so that doc comments can be sliced out byte for byte.
type SourceFile struct {
	Path    string
	Content string
	AST     *ast.File
	FileSet *token.FileSet
}

// Offset returns the byte offset of pos within the file content
func (f *SourceFile) Offset(pos token.Pos) int {
	return f.FileSet.Position(pos).Offset
}

// Position returns the line and 1-based column of pos
func (f *SourceFile) Position(pos token.Pos) token.Position {
	return f.FileSet.Position(pos)
}

// Slice returns the content between two positions
func (f *SourceFile) Slice(from, to token.Pos) string {
	return f.Content[f.Offset(from):f.Offset(to)]
}

// FileReader provides common file reading functionality with caching
type FileReader struct {
	sourceCache  *Cache[string, *SourceFile]
	contentCache *Cache[string, string]
}

// NewFileReader creates a new FileReader instance with caching
func NewFileReader() *FileReader {
	return &FileReader{
		sourceCache:  NewCache[string, *SourceFile](),
		contentCache: NewCache[string, string](),
	}
}

// ReadGoFile reads and parses a Go source file with caching
func (fr *FileReader) ReadGoFile(filePath string) (*SourceFile, error) {
	cleanPath, err := fr.validateAndCleanPath(filePath)
	if err != nil {
		return nil, err
	}

	return fr.sourceCache.GetOrLoad(cleanPath, cleanPath, func() (*SourceFile, error) {
		content, err := os.ReadFile(cleanPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", filepath.Base(cleanPath), err)
		}
		return ParseGoSource(cleanPath, string(content))
	})
}

// ParseGoSource parses Go source code from a string
func ParseGoSource(filename, source string) (*SourceFile, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, source, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Go source %s: %w", filepath.Base(filename), err)
	}
	return &SourceFile{Path: filename, Content: source, AST: file, FileSet: fset}, nil
}

// ReadFile reads a file and returns its contents as a string with caching
func (fr *FileReader) ReadFile(filePath string) (string, error) {
	cleanPath, err := fr.validateAndCleanPath(filePath)
	if err != nil {
		return "", err
	}

	return fr.contentCache.GetOrLoad(cleanPath, cleanPath, func() (string, error) {
		content, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read file %s: %w", filepath.Base(cleanPath), err)
		}
		return string(content), nil
	})
}

// ClearCache clears all cached files
func (fr *FileReader) ClearCache() {
	fr.sourceCache.Clear()
	fr.contentCache.Clear()
}

// GetCacheStats returns statistics about the cache
func (fr *FileReader) GetCacheStats() (sourceFiles, contentFiles int) {
	return fr.sourceCache.Size(), fr.contentCache.Size()
}

// validateAndCleanPath validates and cleans a file path
func (fr *FileReader) validateAndCleanPath(filePath string) (string, error) {
	if err := NotEmpty("filePath")(filePath); err != nil {
		return "", fmt.Errorf("file path %w", err)
	}

	// Clean the path to prevent path traversal
	cleanPath := filepath.Clean(filePath)

	// Ensure the clean path doesn't contain path traversal attempts
	if strings.Contains(cleanPath, "..") {
		// Allow .. only if it's at the beginning (relative path)
		if !strings.HasPrefix(cleanPath, "..") {
			return "", fmt.Errorf("path traversal not allowed in file path: %s", filePath)
		}
	}

	// Check if file exists
	if _, err := os.Stat(cleanPath); os.IsNotExist(err) {
		return "", fmt.Errorf("file does not exist: %s", cleanPath)
	}

	return cleanPath, nil
}
