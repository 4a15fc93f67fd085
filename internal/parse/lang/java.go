package lang

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"
)

// Java: declarations are class/interface/method/field nodes; there
// are no free functions.
func Java() Config {
	return Config{
		Name:           "java",
		Extensions:     []string{".java"},
		Grammar:        func() *sitter.Language { return sitter.NewLanguage(java.Language()) },
		ImportKinds:    []string{"import_declaration"},
		FunctionKinds:  []string{"method_declaration"},
		ClassKinds:     []string{"class_declaration", "record_declaration", "enum_declaration"},
		InterfaceKinds: []string{"interface_declaration"},
		ConstantKinds:  []string{"field_declaration"},
		ContainerKinds: []string{"program", "class_body"},
		Exported: func(name string) bool {
			return !strings.HasPrefix(name, "_")
		},
	}
}
