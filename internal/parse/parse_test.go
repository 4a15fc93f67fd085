package parse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gianged/cindex/internal/parse"
)

const goSample = `package sample

import (
	"fmt"
	"os"
)

// Greet says hello.
func Greet(name string) string {
	return fmt.Sprintf("hello %s", name)
}

func helper() {}

type Widget struct {
	Name string
}

const MaxWidgets = 10

var count int

func (w Widget) String() string {
	return w.Name
}
`

func TestGoParser_ParsesDeclsAndImports(t *testing.T) {
	r := parse.DefaultRegistry()
	p := r.For("sample.go")
	require.NotNil(t, p)
	assert.Equal(t, "go", p.Language())

	result, err := p.Parse("sample.go", []byte(goSample))
	require.NoError(t, err)
	require.False(t, result.Partial)

	assert.Contains(t, result.Imports, "fmt")
	assert.Contains(t, result.Imports, "os")
	assert.Contains(t, result.Exports, "Greet")
	assert.Contains(t, result.Exports, "Widget")
	assert.Contains(t, result.Exports, "MaxWidgets")
	assert.NotContains(t, result.Exports, "helper")
	assert.NotContains(t, result.Exports, "count")

	var methodFound bool
	for _, d := range result.Decls {
		if d.Name == "String" && d.Kind == parse.DeclMethod {
			methodFound = true
		}
	}
	assert.True(t, methodFound, "expected String() to be recorded as a method")
}

func TestGoParser_MalformedInputIsPartialNotError(t *testing.T) {
	r := parse.DefaultRegistry()
	p := r.For("broken.go")
	require.NotNil(t, p)

	result, err := p.Parse("broken.go", []byte("package sample\nfunc ( {{{"))
	require.NoError(t, err)
	assert.True(t, result.Partial)
}

func TestRegistry_UnknownExtensionReturnsNil(t *testing.T) {
	r := parse.DefaultRegistry()
	assert.Nil(t, r.For("README.md"))
}

func TestRegistry_DispatchesByExtension(t *testing.T) {
	r := parse.DefaultRegistry()
	cases := map[string]string{
		"a.go":  "go",
		"a.py":  "python",
		"a.ts":  "typescript",
		"a.tsx": "typescript",
		"a.rs":  "rust",
		"a.rb":  "ruby",
		"a.java": "java",
		"a.php": "php",
		"a.c":   "c",
	}
	for path, lang := range cases {
		p := r.For(path)
		require.NotNil(t, p, "no parser for %s", path)
		assert.Equal(t, lang, p.Language(), "path %s", path)
	}
}
