package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gianged/cindex/internal/config"
)

func TestValidate_DefaultsPass(t *testing.T) {
	require.NoError(t, config.Validate(config.Default()))
}

func TestValidate_ThresholdOrdering(t *testing.T) {
	cfg := config.Default()
	cfg.Retrieval.SimilarityThreshold = 0.95
	cfg.Retrieval.DedupThreshold = 0.92

	err := config.Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dedup_threshold")
}

func TestValidate_RangeViolationsAggregate(t *testing.T) {
	cfg := config.Default()
	cfg.Store.MaxConnections = 0
	cfg.Embedding.Dimensions = 5000
	cfg.Index.ImportDepth = 0

	err := config.Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_connections")
	assert.Contains(t, err.Error(), "dimensions")
	assert.Contains(t, err.Error(), "import_depth")
}

func TestValidate_BackendTimeoutRange(t *testing.T) {
	cfg := config.Default()
	cfg.Embedding.BackendTimeoutSec = 301
	require.Error(t, config.Validate(cfg))

	cfg.Embedding.BackendTimeoutSec = 300
	require.NoError(t, config.Validate(cfg))
}
