package parse

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/gianged/cindex/internal/parse/lang"
)

// treeSitterParser is the shared walker every tree-sitter-backed
// language uses. The walk shape (top-level decls, class members,
// import statements) does not vary across these grammars, so one
// walker runs off a lang.Config node-kind table instead of a bespoke
// implementation per language.
type treeSitterParser struct {
	cfg lang.Config
}

func treeSitterParsers() []Parser {
	parsers := make([]Parser, 0, len(lang.Registry()))
	for _, cfg := range lang.Registry() {
		parsers = append(parsers, &treeSitterParser{cfg: cfg})
	}
	return parsers
}

func (p *treeSitterParser) Language() string { return p.cfg.Name }

func (p *treeSitterParser) CanParse(path string) bool {
	return extMatches(path, p.cfg.Extensions...)
}

func (p *treeSitterParser) Parse(path string, content []byte) (*ParseResult, error) {
	result := &ParseResult{Language: p.cfg.Name}

	sp := sitter.NewParser()
	defer sp.Close()
	sp.SetLanguage(p.cfg.Grammar())

	tree := sp.Parse(content, nil)
	if tree == nil {
		result.Partial = true
		return result, nil
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		result.Partial = true
		return result, nil
	}

	result.TotalLine = int(root.EndPosition().Row) + 1

	isContainer := func(kind string) bool {
		for _, k := range p.cfg.ContainerKinds {
			if k == kind {
				return true
			}
		}
		return false
	}
	kindIn := func(kind string, set []string) bool {
		for _, k := range set {
			if k == kind {
				return true
			}
		}
		return false
	}

	var walk func(n *sitter.Node, insideClass bool, depth int)
	walk = func(n *sitter.Node, insideClass bool, depth int) {
		if n == nil {
			return
		}
		kind := n.Kind()

		switch {
		case kindIn(kind, p.cfg.ImportKinds):
			if text := nodeText(n, content); text != "" {
				result.Imports = append(result.Imports, strings.TrimSpace(text))
			}
		case kindIn(kind, p.cfg.ClassKinds):
			addDecl(result, n, content, DeclClass, p.cfg)
			insideClass = true
		case kindIn(kind, p.cfg.InterfaceKinds):
			addDecl(result, n, content, DeclInterface, p.cfg)
			insideClass = true
		case kindIn(kind, p.cfg.MethodKinds):
			addDecl(result, n, content, DeclMethod, p.cfg)
		case kindIn(kind, p.cfg.FunctionKinds):
			if insideClass {
				addDecl(result, n, content, DeclMethod, p.cfg)
			} else {
				addDecl(result, n, content, DeclFunction, p.cfg)
			}
		case kindIn(kind, p.cfg.ConstantKinds) && depth <= 2:
			addDecl(result, n, content, DeclConstant, p.cfg)
		case kindIn(kind, p.cfg.VariableKinds) && depth <= 2 && !kindIn(kind, p.cfg.ConstantKinds):
			addDecl(result, n, content, DeclVariable, p.cfg)
		}

		childDepth := depth
		if isContainer(kind) || depth == 0 {
			childDepth = depth + 1
		} else if kindIn(kind, p.cfg.ClassKinds) || kindIn(kind, p.cfg.InterfaceKinds) {
			childDepth = depth + 1
		}

		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(uint(i)), insideClass, childDepth)
		}
	}

	walk(root, false, 0)

	for _, d := range result.Decls {
		if d.Exported {
			result.Exports = append(result.Exports, d.Name)
		}
	}

	return result, nil
}

func nodeText(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	return string(source[n.StartByte():n.EndByte()])
}

func addDecl(result *ParseResult, n *sitter.Node, source []byte, kind DeclKind, cfg lang.Config) {
	name := declName(n, source)
	if name == "" {
		return
	}
	start := int(n.StartPosition().Row) + 1
	end := int(n.EndPosition().Row) + 1

	exported := isExportMarked(n, source)
	if cfg.Exported != nil {
		exported = exported || cfg.Exported(name)
	}

	result.Decls = append(result.Decls, Decl{
		Name:      name,
		Kind:      kind,
		StartLine: start,
		EndLine:   end,
		Exported:  exported,
	})
}

func declName(n *sitter.Node, source []byte) string {
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		return nodeText(nameNode, source)
	}
	// Fallback for grammars without a "name" field on this node kind
	// (e.g. C/Rust const declarators), scan the first identifier-ish
	// child.
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(uint(i))
		switch child.Kind() {
		case "identifier", "type_identifier", "field_identifier", "constant":
			return nodeText(child, source)
		}
	}
	return ""
}

// isExportMarked checks the grammar-specific visibility tokens that
// a name-based heuristic cannot see: a leading "export" keyword
// (TypeScript/JavaScript) via the parent node, or a leading "pub"
// modifier (Rust) as a direct child.
func isExportMarked(n *sitter.Node, source []byte) bool {
	if parent := n.Parent(); parent != nil {
		switch parent.Kind() {
		case "export_statement":
			return true
		}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(uint(i))
		if child.Kind() == "visibility_modifier" && strings.HasPrefix(nodeText(child, source), "pub") {
			return true
		}
	}
	return false
}
