package lang

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"
)

// PHP: function_definition/method_declaration plus class and
// interface declarations.
func PHP() Config {
	return Config{
		Name:           "php",
		Extensions:     []string{".php"},
		Grammar:        func() *sitter.Language { return sitter.NewLanguage(php.LanguagePHP()) },
		ImportKinds:    []string{"namespace_use_declaration", "require_expression", "include_expression"},
		FunctionKinds:  []string{"function_definition"},
		MethodKinds:    []string{"method_declaration"},
		ClassKinds:     []string{"class_declaration", "trait_declaration"},
		InterfaceKinds: []string{"interface_declaration"},
		ConstantKinds:  []string{"const_declaration"},
		ContainerKinds: []string{"program"},
		Exported:       func(name string) bool { return true },
	}
}
