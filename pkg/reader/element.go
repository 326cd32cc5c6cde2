package reader

import (
	"go/ast"
	"go/token"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/toyz/annotate/internal/utils"
	"github.com/toyz/annotate/pkg/annotations"
)

// ElementKind identifies the kind of declaration a doc comment belongs to
type ElementKind int

const (
	TypeElement ElementKind = iota
	FuncElement
	MethodElement
	FieldElement
)

func (k ElementKind) String() string {
	switch k {
	case TypeElement:
		return "type"
	case FuncElement:
		return "func"
	case MethodElement:
		return "method"
	case FieldElement:
		return "field"
	default:
		return "unknown"
	}
}

// Element is a top-level declaration of a Go file, or a field of one
type Element struct {
	Kind ElementKind
	// Name is the declaration name within its package: "Server",
	// "NewServer", "(*Server).Start" or "Server.Addr".
	Name string
	// Label identifies the element across packages, e.g.
	// "example.com/shop/api.(*Server).Start()".
	Label string
	// Doc is the doc comment exactly as written, markers included. It is
	// empty for undocumented elements.
	Doc string
	// Line and Column locate the first byte of Doc (column is 0-based).
	Line   int
	Column int
}

// File is a Go file prepared for annotation reading
type File struct {
	Path        string
	Package     string
	PackagePath string
	Aliases     []annotations.Alias
	Elements    []Element
}

// Element looks up an element by kind and name
func (f *File) Element(kind ElementKind, name string) (Element, bool) {
	for _, el := range f.Elements {
		if el.Kind == kind && el.Name == name {
			return el, true
		}
	}
	return Element{}, false
}

var (
	majorVersion = regexp.MustCompile(`^v[0-9]+$`)
	// gopkg.in style version suffix, as in "yaml.v3"
	dotVersion = regexp.MustCompile(`\.v[0-9]+$`)
)

// importName returns the name a package is referred to by when imported
// without an alias: the last path element, skipping a major version suffix.
func importName(importPath string) string {
	name := path.Base(importPath)
	if majorVersion.MatchString(name) {
		if parent := path.Base(path.Dir(importPath)); parent != "." && parent != "/" {
			name = parent
		}
	}
	name = dotVersion.ReplaceAllString(name, "")
	name = strings.TrimPrefix(name, "go-")
	return strings.ReplaceAll(name, "-", "_")
}

// importAliases builds the alias table of a file: every renamed import maps
// its local name to the package name it renames. Blank and dot imports
// introduce no name and are skipped.
func importAliases(file *ast.File) []annotations.Alias {
	var aliases []annotations.Alias
	for _, imp := range file.Imports {
		if imp.Name == nil || imp.Name.Name == "_" || imp.Name.Name == "." {
			continue
		}
		importPath, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		name := importName(importPath)
		if name == imp.Name.Name {
			continue
		}
		aliases = append(aliases, annotations.Alias{
			Prefix:    imp.Name.Name + ".",
			Canonical: name + ".",
		})
	}
	return aliases
}

// collectElements walks the top-level declarations of src in source order
func collectElements(src *utils.SourceFile, pkgPath string) []Element {
	var elements []Element

	add := func(kind ElementKind, name, label string, doc *ast.CommentGroup) {
		el := Element{Kind: kind, Name: name, Label: label}
		if doc != nil {
			pos := src.Position(doc.Pos())
			el.Doc = src.Slice(doc.Pos(), doc.End())
			el.Line, el.Column = pos.Line, pos.Column-1
		}
		elements = append(elements, el)
	}

	for _, decl := range src.AST.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				doc := ts.Doc
				if doc == nil && !d.Lparen.IsValid() {
					doc = d.Doc
				}
				tname := ts.Name.Name
				add(TypeElement, tname, pkgPath+"."+tname, doc)

				st, ok := ts.Type.(*ast.StructType)
				if !ok || st.Fields == nil {
					continue
				}
				for _, field := range st.Fields.List {
					for _, ident := range fieldNames(field) {
						name := tname + "." + ident
						add(FieldElement, name, pkgPath+"."+name, field.Doc)
					}
				}
			}

		case *ast.FuncDecl:
			if d.Recv == nil || len(d.Recv.List) == 0 {
				add(FuncElement, d.Name.Name, pkgPath+"."+d.Name.Name+"()", d.Doc)
				continue
			}
			name := receiverName(d.Recv.List[0].Type) + "." + d.Name.Name
			add(MethodElement, name, pkgPath+"."+name+"()", d.Doc)
		}
	}

	return elements
}

// fieldNames returns the names of a struct field; an embedded field is named
// after its type.
func fieldNames(field *ast.Field) []string {
	if len(field.Names) > 0 {
		names := make([]string, len(field.Names))
		for i, ident := range field.Names {
			names[i] = ident.Name
		}
		return names
	}
	if name := typeName(field.Type); name != "" {
		return []string{name}
	}
	return nil
}

// receiverName formats a method receiver as "T" or "(*T)"
func receiverName(expr ast.Expr) string {
	if star, ok := expr.(*ast.StarExpr); ok {
		return "(*" + typeName(star.X) + ")"
	}
	return typeName(expr)
}

func typeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return typeName(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Name
	case *ast.IndexExpr:
		return typeName(t.X)
	case *ast.IndexListExpr:
		return typeName(t.X)
	default:
		return ""
	}
}
