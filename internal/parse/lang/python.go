package lang

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// Python: class_definition/function_definition declarations,
// import_statement/import_from_statement imports, ALL_CAPS names
// treated as constants per convention.
func Python() Config {
	return Config{
		Name:           "python",
		Extensions:     []string{".py"},
		Grammar:        func() *sitter.Language { return sitter.NewLanguage(python.Language()) },
		ImportKinds:    []string{"import_statement", "import_from_statement"},
		FunctionKinds:  []string{"function_definition"},
		ClassKinds:     []string{"class_definition"},
		ConstantKinds:  []string{"assignment"},
		VariableKinds:  []string{"assignment"},
		ContainerKinds: []string{"module", "block"},
		Exported: func(name string) bool {
			return !strings.HasPrefix(name, "_")
		},
	}
}
