package qcache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gianged/cindex/internal/qcache"
)

func TestQueryEmbeddingCache_SetGet(t *testing.T) {
	c, err := qcache.NewQueryEmbeddingCache(time.Minute, 10)
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.Get("hello world")
	assert.False(t, ok)

	c.Set("hello world", []float32{1, 2, 3})
	v, ok := c.Get("hello world")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, v)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate, 0.001)
}

func TestQueryEmbeddingCache_TTLExpiry(t *testing.T) {
	c, err := qcache.NewQueryEmbeddingCache(10*time.Millisecond, 10)
	require.NoError(t, err)
	defer c.Close()

	c.Set("q", []float32{1})
	time.Sleep(30 * time.Millisecond)
	_, ok := c.Get("q")
	assert.False(t, ok)
}

func TestAPIEndpointCache_Key_DeterministicAndOrderInsensitive(t *testing.T) {
	vec := []float32{0.1, 0.2, 0.3, 0.4}
	k1 := qcache.Key([]string{"svc-b", "svc-a"}, vec, 2, map[string]bool{"deprecated": false})
	k2 := qcache.Key([]string{"svc-a", "svc-b"}, vec, 2, map[string]bool{"deprecated": false})
	assert.Equal(t, k1, k2)

	k3 := qcache.Key([]string{"svc-a", "svc-b"}, vec, 2, map[string]bool{"deprecated": true})
	assert.NotEqual(t, k1, k3)
}

func TestAPIEndpointCache_SetGet(t *testing.T) {
	c, err := qcache.NewAPIEndpointCache(time.Minute, 10)
	require.NoError(t, err)
	defer c.Close()

	key := qcache.Key([]string{"svc-a"}, []float32{0.5}, 1, nil)
	c.Set(key, []string{"ep-1", "ep-2"})
	ids, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, []string{"ep-1", "ep-2"}, ids)
}
