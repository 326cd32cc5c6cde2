package utils

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestCache_BasicOperations(t *testing.T) {
	cache := NewCache[string, int]()

	// Test Set and Get
	cache.Set("key1", 42)
	value, exists := cache.Get("key1")
	if !exists {
		t.Error("expected key1 to exist")
	}
	if value != 42 {
		t.Errorf("expected value 42, got %d", value)
	}

	// Test non-existent key
	_, exists = cache.Get("nonexistent")
	if exists {
		t.Error("expected nonexistent key to not exist")
	}

	// Test Delete
	cache.Delete("key1")
	_, exists = cache.Get("key1")
	if exists {
		t.Error("expected key1 to be deleted")
	}

	stats := cache.GetStats()
	if stats.Hits != 1 || stats.Misses != 2 {
		t.Errorf("expected 1 hit and 2 misses, got %+v", stats)
	}
}

func TestCache_Clear(t *testing.T) {
	cache := NewCache[string, string]()

	cache.Set("key1", "value1")
	cache.Set("key2", "value2")

	if cache.Size() != 2 {
		t.Errorf("expected size 2, got %d", cache.Size())
	}

	cache.Clear()

	if cache.Size() != 0 {
		t.Errorf("expected size 0 after clear, got %d", cache.Size())
	}
}

func TestCache_FileValidation(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "doc.go")

	if err := os.WriteFile(testFile, []byte("package doc"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	cache := NewCache[string, string]()
	if err := cache.SetWithFileInfo("doc", "parsed", testFile); err != nil {
		t.Fatalf("failed to set with file info: %v", err)
	}

	value, exists := cache.GetWithFileValidation("doc", testFile)
	if !exists || value != "parsed" {
		t.Errorf("expected cached value, got %q (exists=%v)", value, exists)
	}

	// A different size invalidates regardless of timestamp granularity
	if err := os.WriteFile(testFile, []byte("package doc\n\n// changed"), 0644); err != nil {
		t.Fatalf("failed to modify test file: %v", err)
	}

	if _, exists := cache.GetWithFileValidation("doc", testFile); exists {
		t.Error("expected modified file to invalidate the cache entry")
	}
	if cache.Size() != 0 {
		t.Errorf("expected invalidated entry to be removed, size %d", cache.Size())
	}
}

func TestCache_FileValidationMissingFile(t *testing.T) {
	cache := NewCache[string, int]()

	if err := cache.SetWithFileInfo("key", 1, filepath.Join(t.TempDir(), "missing.go")); err == nil {
		t.Error("expected error for missing file")
	}

	cache.Set("key", 1)
	if _, exists := cache.GetWithFileValidation("key", "/does/not/exist.go"); exists {
		t.Error("expected missing file to invalidate")
	}
}

func TestCache_GetOrLoad(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "doc.go")
	if err := os.WriteFile(testFile, []byte("package doc"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	cache := NewCache[string, int]()
	loads := 0
	load := func() (int, error) {
		loads++
		return loads, nil
	}

	for i := 0; i < 3; i++ {
		value, err := cache.GetOrLoad("doc", testFile, load)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if value != 1 {
			t.Errorf("expected cached value 1, got %d", value)
		}
	}
	if loads != 1 {
		t.Errorf("expected a single load, got %d", loads)
	}

	boom := errors.New("boom")
	if _, err := cache.GetOrLoad("other", testFile, func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Errorf("expected load error, got %v", err)
	}
	if _, exists := cache.Get("other"); exists {
		t.Error("errors must not be cached")
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	cache := NewCache[int, int]()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cache.Set(n*100+j, j)
				cache.Get(n*100 + j)
			}
		}(i)
	}
	wg.Wait()

	if cache.Size() != 1000 {
		t.Errorf("expected 1000 items, got %d", cache.Size())
	}
}

func TestFingerprint(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "a.txt")
	if err := os.WriteFile(testFile, []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}

	fp, err := StatFingerprint(testFile)
	if err != nil {
		t.Fatal(err)
	}
	if fp.Size != 1 || !fp.Matches(testFile) {
		t.Errorf("unexpected fingerprint %+v", fp)
	}

	if err := os.WriteFile(testFile, []byte("abc"), 0644); err != nil {
		t.Fatal(err)
	}
	if fp.Matches(testFile) {
		t.Error("expected fingerprint mismatch after write")
	}
}
