package parse

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
)

// goParser parses Go source with go/parser+go/ast directly; the
// standard library parser recovers better from malformed Go than a
// tree-sitter grammar would, and needs no cgo grammar binding.
type goParser struct{}

func newGoParser() *goParser { return &goParser{} }

func (p *goParser) Language() string { return "go" }

func (p *goParser) CanParse(path string) bool { return extMatches(path, ".go") }

func (p *goParser) Parse(path string, content []byte) (*ParseResult, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, content, parser.ParseComments|parser.AllErrors)
	result := &ParseResult{Language: "go"}
	if file == nil {
		// Completely unparsable; report a partial, empty result rather
		// than erroring the whole file out of the index.
		result.Partial = true
		return result, nil
	}
	if err != nil {
		result.Partial = true
	}

	tf := fset.File(file.Pos())
	if tf != nil {
		result.TotalLine = tf.LineCount()
	}

	for _, imp := range file.Imports {
		path, unquoteErr := strconv.Unquote(imp.Path.Value)
		if unquoteErr != nil {
			path = imp.Path.Value
		}
		result.Imports = append(result.Imports, path)
	}

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			kind := DeclFunction
			if d.Recv != nil {
				kind = DeclMethod
			}
			name := d.Name.Name
			exported := ast.IsExported(name)
			result.Decls = append(result.Decls, Decl{
				Name:      name,
				Kind:      kind,
				StartLine: fset.Position(d.Pos()).Line,
				EndLine:   fset.Position(d.End()).Line,
				Exported:  exported,
			})
			if exported {
				result.Exports = append(result.Exports, name)
			}
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					kind := DeclType
					switch s.Type.(type) {
					case *ast.StructType:
						kind = DeclClass
					case *ast.InterfaceType:
						kind = DeclInterface
					}
					exported := ast.IsExported(s.Name.Name)
					result.Decls = append(result.Decls, Decl{
						Name:      s.Name.Name,
						Kind:      kind,
						StartLine: fset.Position(d.Pos()).Line,
						EndLine:   fset.Position(d.End()).Line,
						Exported:  exported,
					})
					if exported {
						result.Exports = append(result.Exports, s.Name.Name)
					}
				case *ast.ValueSpec:
					kind := DeclVariable
					if d.Tok == token.CONST {
						kind = DeclConstant
					}
					for _, name := range s.Names {
						if name.Name == "_" {
							continue
						}
						exported := ast.IsExported(name.Name)
						result.Decls = append(result.Decls, Decl{
							Name:      name.Name,
							Kind:      kind,
							StartLine: fset.Position(d.Pos()).Line,
							EndLine:   fset.Position(d.End()).Line,
							Exported:  exported,
						})
						if exported {
							result.Exports = append(result.Exports, name.Name)
						}
					}
				}
			}
		}
	}

	return result, nil
}
