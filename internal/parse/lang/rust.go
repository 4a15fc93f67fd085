package lang

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
)

// Rust: function/struct/enum/trait/const/static items; visibility
// comes from the pub modifier, not naming.
// Visibility (`pub`) is a sibling token the walker checks directly;
// Exported reports false, so an item without `pub` is not exported.
func Rust() Config {
	return Config{
		Name:           "rust",
		Extensions:     []string{".rs"},
		Grammar:        func() *sitter.Language { return sitter.NewLanguage(rust.Language()) },
		ImportKinds:    []string{"use_declaration"},
		FunctionKinds:  []string{"function_item"},
		ClassKinds:     []string{"struct_item", "enum_item"},
		InterfaceKinds: []string{"trait_item"},
		ConstantKinds:  []string{"const_item", "static_item"},
		ContainerKinds: []string{"source_file"},
		Exported:       func(name string) bool { return false },
	}
}
