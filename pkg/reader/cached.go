package reader

import (
	"github.com/toyz/annotate/internal/utils"
	"github.com/toyz/annotate/pkg/annotations"
)

// CachedReader memoizes the results of a Reader. Entries are keyed by element
// (or file) and filter, and are dropped as soon as the file they were read
// from changes on disk. Failed reads and in-memory sources are never cached.
type CachedReader struct {
	reader   *Reader
	elements *utils.Cache[string, []annotations.Result]
	files    *utils.Cache[string, []ElementAnnotations]
}

// NewCachedReader wraps r with a cache
func NewCachedReader(r *Reader) *CachedReader {
	return &CachedReader{
		reader:   r,
		elements: utils.NewCache[string, []annotations.Result](),
		files:    utils.NewCache[string, []ElementAnnotations](),
	}
}

// Reader returns the wrapped reader
func (c *CachedReader) Reader() *Reader { return c.reader }

// ReadFile is Reader.ReadFile with caching
func (c *CachedReader) ReadFile(path, filter string) ([]ElementAnnotations, error) {
	key := cacheKey(path, filter)
	if cached, ok := c.files.GetWithFileValidation(key, path); ok {
		return cached, nil
	}

	results, err := c.reader.ReadFile(path, filter)
	if err != nil {
		return results, err
	}
	_ = c.files.SetWithFileInfo(key, results, path)
	return results, nil
}

// ReadElement is Reader.ReadElement with caching
func (c *CachedReader) ReadElement(file *File, el Element, filter string) ([]annotations.Result, error) {
	// labels repeat across files, e.g. build-tag variants of one function
	key := cacheKey(file.Path+"\x00"+el.Label, filter)
	if cached, ok := c.elements.GetWithFileValidation(key, file.Path); ok {
		return cached, nil
	}

	results, err := c.reader.ReadElement(file, el, filter)
	if err != nil {
		return nil, err
	}
	// fails without a file on disk, leaving the entry out
	_ = c.elements.SetWithFileInfo(key, results, file.Path)
	return results, nil
}

// ReadTypeAnnotations is Reader.ReadTypeAnnotations with caching
func (c *CachedReader) ReadTypeAnnotations(path, typeName, filter string) ([]annotations.Result, error) {
	return c.readNamed(path, TypeElement, typeName, filter)
}

// ReadFuncAnnotations is Reader.ReadFuncAnnotations with caching
func (c *CachedReader) ReadFuncAnnotations(path, funcName, filter string) ([]annotations.Result, error) {
	return c.readNamed(path, FuncElement, funcName, filter)
}

// ReadMethodAnnotations is Reader.ReadMethodAnnotations with caching
func (c *CachedReader) ReadMethodAnnotations(path, receiver, method, filter string) ([]annotations.Result, error) {
	return c.readNamed(path, MethodElement, methodName(receiver, method), filter)
}

// ReadFieldAnnotations is Reader.ReadFieldAnnotations with caching
func (c *CachedReader) ReadFieldAnnotations(path, typeName, field, filter string) ([]annotations.Result, error) {
	return c.readNamed(path, FieldElement, typeName+"."+field, filter)
}

func (c *CachedReader) readNamed(path string, kind ElementKind, name, filter string) ([]annotations.Result, error) {
	file, el, err := c.reader.lookup(path, kind, name)
	if err != nil {
		return nil, err
	}
	return c.ReadElement(file, el, filter)
}

// Stats returns the statistics of the element and file caches
func (c *CachedReader) Stats() (elements, files utils.CacheStats) {
	return c.elements.GetStats(), c.files.GetStats()
}

// Clear drops every cached result
func (c *CachedReader) Clear() {
	c.elements.Clear()
	c.files.Clear()
}

func cacheKey(identity, filter string) string {
	return identity + "\x00" + filter
}
