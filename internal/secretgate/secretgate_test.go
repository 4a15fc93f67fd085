package secretgate_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gianged/cindex/internal/secretgate"
)

func TestFilter_IsSecret(t *testing.T) {
	f, err := secretgate.NewFilter([]string{"*.env*", "*secret*", "*.pem"})
	require.NoError(t, err)

	assert.True(t, f.IsSecret(".env"))
	assert.True(t, f.IsSecret("config/secrets.yaml"))
	assert.True(t, f.IsSecret("certs/server.pem"))
	assert.False(t, f.IsSecret("main.go"))

	stats := f.Stats()
	assert.Equal(t, 1, stats["*.env*"])
	assert.Equal(t, 3, f.TotalMatches())
}

func TestFilter_AllowlistOverridesEnvPattern(t *testing.T) {
	f, err := secretgate.NewFilter([]string{"*.env*"})
	require.NoError(t, err)

	assert.False(t, f.IsSecret(".env.example"))
	assert.False(t, f.IsSecret(".env.sample"))
	assert.True(t, f.IsSecret(".env"))
	assert.True(t, f.IsSecret(".env.production"))
}

func TestLargeFileStrategy_ByLineCount(t *testing.T) {
	normalSample := []byte(strings.Repeat("// greet prints a greeting.\nfunc greet(name string) {\n\tfmt.Println(\"hello\", name)\n}\n\n", 4))

	assert.Equal(t, secretgate.StrategyNormal, secretgate.LargeFileStrategy(".go", "main.go", 50, normalSample))
	assert.Equal(t, secretgate.StrategySectionChunked, secretgate.LargeFileStrategy(".go", "big.go", 2000, normalSample))
	assert.Equal(t, secretgate.StrategyStructureOnly, secretgate.LargeFileStrategy(".go", "huge.go", 6000, normalSample))
}

func TestLargeFileStrategy_GeneratedPathIsSkipped(t *testing.T) {
	normalSample := []byte(strings.Repeat("// greet prints a greeting.\nfunc greet(name string) {\n\tfmt.Println(\"hello\", name)\n}\n\n", 4))
	assert.Equal(t, secretgate.StrategySkip, secretgate.LargeFileStrategy(".js", "dist/app.min.js", 50, normalSample))
	assert.Equal(t, secretgate.StrategySkip, secretgate.LargeFileStrategy(".json", "package-lock.json", 50, normalSample))
	assert.Equal(t, secretgate.StrategySkip, secretgate.LargeFileStrategy(".js", "node_modules/foo/index.js", 50, normalSample))
}

func TestLargeFileStrategy_MinifiedContentIsSkipped(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 20; i++ {
		sb.WriteString(strings.Repeat("a", 20))
		sb.WriteByte('\n')
	}
	minified := []byte(sb.String())

	assert.Equal(t, secretgate.StrategySkip, secretgate.LargeFileStrategy(".js", "app.js", 20, minified))
}

func TestLargeFileStrategy_ShortSampleNeverMinified(t *testing.T) {
	tiny := []byte("a\nb\nc\n")
	assert.Equal(t, secretgate.StrategyNormal, secretgate.LargeFileStrategy(".go", "tiny.go", 3, tiny))
}
