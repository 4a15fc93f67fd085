// Package lang supplies per-language tree-sitter grammar configs
// consumed by internal/parse's generic walker. Each Config pairs a
// grammar with the node kinds that matter for extraction; the walk
// itself (top-level decls, class members, import statements) is
// identical across these grammars, so a table entry is all a new
// language needs.
package lang

import sitter "github.com/tree-sitter/go-tree-sitter"

// Config names the tree-sitter node kinds internal/parse needs to
// recognize for one language.
type Config struct {
	Name       string
	Extensions []string
	Grammar    func() *sitter.Language

	ImportKinds    []string
	FunctionKinds  []string
	MethodKinds    []string
	ClassKinds     []string
	InterfaceKinds []string
	ConstantKinds  []string
	VariableKinds  []string

	// ContainerKinds are node kinds whose direct children are "top
	// level" for variable/constant extraction purposes (usually the
	// translation-unit/program/module root).
	ContainerKinds []string

	// Exported decides export visibility from a declaration's name,
	// since modifier keywords ("export", "pub", "public") vary too
	// much per grammar to generalize into one field list; language
	// files supply the convention.
	Exported func(name string) bool
}

// Registry returns every language Config cindex ships.
func Registry() []Config {
	return []Config{
		Python(),
		TypeScript(),
		Java(),
		C(),
		PHP(),
		Ruby(),
		Rust(),
	}
}
