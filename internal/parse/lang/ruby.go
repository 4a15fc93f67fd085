package lang

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
)

// Ruby: method/class/module nodes; SCREAMING_SNAKE assignments are
// constants by language rule.
func Ruby() Config {
	return Config{
		Name:           "ruby",
		Extensions:     []string{".rb"},
		Grammar:        func() *sitter.Language { return sitter.NewLanguage(ruby.Language()) },
		ImportKinds:    []string{"call"}, // require/require_relative are plain calls in this grammar
		FunctionKinds:  []string{"method"},
		MethodKinds:    []string{"singleton_method"},
		ClassKinds:     []string{"class", "module"},
		ConstantKinds:  []string{"assignment"},
		ContainerKinds: []string{"program", "body_statement"},
		Exported: func(name string) bool {
			return !strings.HasPrefix(name, "_")
		},
	}
}
