package lang

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	c "github.com/tree-sitter/tree-sitter-c/bindings/go"
)

// C has no export keyword; everything not `static` is externally
// visible, which the walker approximates by always reporting true
// here. The walker makes no `static` check, so `static` declarations
// are reported as exported as well.
func C() Config {
	return Config{
		Name:           "c",
		Extensions:     []string{".c", ".h", ".cc", ".cpp", ".cxx", ".hpp"},
		Grammar:        func() *sitter.Language { return sitter.NewLanguage(c.Language()) },
		ImportKinds:    []string{"preproc_include"},
		FunctionKinds:  []string{"function_definition"},
		ClassKinds:     []string{"struct_specifier", "union_specifier"},
		ConstantKinds:  []string{"declaration"},
		VariableKinds:  []string{"declaration"},
		ContainerKinds: []string{"translation_unit"},
		Exported:       func(name string) bool { return true },
	}
}
