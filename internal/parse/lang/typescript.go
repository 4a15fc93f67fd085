package lang

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// TypeScript covers .ts/.tsx/.js/.jsx with the TypeScript grammar
// (a superset).
func TypeScript() Config {
	return Config{
		Name:       "typescript",
		Extensions: []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"},
		Grammar:    func() *sitter.Language { return sitter.NewLanguage(typescript.LanguageTypescript()) },
		ImportKinds: []string{
			"import_statement",
			"import_clause",
		},
		FunctionKinds: []string{"function_declaration", "function_signature", "arrow_function"},
		MethodKinds:   []string{"method_definition", "method_signature"},
		ClassKinds:    []string{"class_declaration"},
		InterfaceKinds: []string{
			"interface_declaration",
		},
		ConstantKinds:  []string{"lexical_declaration"},
		VariableKinds:  []string{"variable_declaration"},
		ContainerKinds: []string{"program"},
		Exported: func(name string) bool {
			// Declaration-level `export` keyword is detected by the
			// walker (it's a sibling/parent token, not part of the
			// name), so fall back to a permissive default here: most
			// TypeScript top-level decls in a module are intended for
			// consumption unless explicitly prefixed with `_`.
			return !strings.HasPrefix(name, "_")
		},
	}
}
