package backend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gianged/cindex/internal/backend"
	"github.com/gianged/cindex/internal/cerrors"
)

func TestEmbed_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embed", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"embeddings": [][]float32{{0.1, 0.2, 0.3}},
		})
	}))
	defer srv.Close()

	c := backend.New(srv.URL, time.Second, 2)
	vecs, err := c.Embed(context.Background(), "m", []string{"hello"}, 3, 512)
	require.NoError(t, err)
	require.Len(t, vecs, 1)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vecs[0])
}

func TestEmbed_DimensionMismatchIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"embeddings": [][]float32{{0.1, 0.2}},
		})
	}))
	defer srv.Close()

	c := backend.New(srv.URL, time.Second, 2)
	_, err := c.Embed(context.Background(), "m", []string{"hello"}, 3, 512)
	require.Error(t, err)
	var cerr *cerrors.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, cerrors.CodeDimensionMismatch, cerr.Code)
}

func TestEmbed_ModelNotFoundIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := backend.New(srv.URL, time.Second, 2)
	_, err := c.Embed(context.Background(), "nope", []string{"hello"}, 3, 512)
	require.Error(t, err)
	var cerr *cerrors.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, cerrors.CodeModelNotFound, cerr.Code)
}

func TestEmbed_RetriesOn5xxThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"embeddings": [][]float32{{1, 2}},
		})
	}))
	defer srv.Close()

	c := backend.New(srv.URL, time.Second, 3)
	vecs, err := c.Embed(context.Background(), "m", []string{"x"}, 2, 512)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	require.Len(t, vecs, 1)
}

func TestGenerate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"text": "a summary"})
	}))
	defer srv.Close()

	c := backend.New(srv.URL, time.Second, 1)
	text, err := c.Generate(context.Background(), "m", "prompt", 512)
	require.NoError(t, err)
	assert.Equal(t, "a summary", text)
}

func TestNew_ClampsTimeout(t *testing.T) {
	c := backend.New("http://example.invalid", 0, -1)
	require.NotNil(t, c)
}
