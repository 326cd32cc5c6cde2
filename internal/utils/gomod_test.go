package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModule(t *testing.T, module string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module "+module+"\n\ngo 1.22\n"), 0644))
	return root
}

func TestGoModParser_ParseModuleName(t *testing.T) {
	root := writeModule(t, "example.com/shop")
	p := NewGoModParser(nil)

	name, err := p.ParseModuleName(filepath.Join(root, "go.mod"))
	require.NoError(t, err)
	assert.Equal(t, "example.com/shop", name)

	_, err = p.ParseModuleName(filepath.Join(root, "main.go"))
	assert.Error(t, err)

	bad := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bad, "go.mod"), []byte("go 1.22\n"), 0644))
	_, err = p.ParseModuleName(filepath.Join(bad, "go.mod"))
	assert.ErrorContains(t, err, "no module declaration")
}

func TestGoModParser_ImportPath(t *testing.T) {
	root := writeModule(t, "example.com/shop")
	nested := filepath.Join(root, "internal", "orders")
	require.NoError(t, os.MkdirAll(nested, 0755))

	p := NewGoModParser(NewFileReader())

	importPath, err := p.ImportPath(nested)
	require.NoError(t, err)
	assert.Equal(t, "example.com/shop/internal/orders", importPath)

	importPath, err = p.ImportPath(root)
	require.NoError(t, err)
	assert.Equal(t, "example.com/shop", importPath)

	goMod, err := p.FindGoModFile(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "go.mod"), goMod)
}
