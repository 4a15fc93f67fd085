package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gianged/cindex/internal/types"
)

func TestScanOutboundCalls(t *testing.T) {
	endpoints := map[string]*types.APIEndpoint{
		"GET /api/users":  {EndpointID: "e1", ServiceID: "users-svc", Method: "GET", Path: "/api/users"},
		"POST /api/login": {EndpointID: "e2", ServiceID: "auth-svc", Method: "POST", Path: "/api/login"},
	}

	chunks := []ChunkHit{
		{Chunk: types.Chunk{ChunkID: "c1", FilePath: "client.ts", Content: `
const users = await fetch('/api/users');
await axios.post('/api/login', creds);
await axios.delete('/api/unknown');
`}},
		{Chunk: types.Chunk{ChunkID: "c2", FilePath: "worker.py", Content: `
resp = requests.get("https://internal.example.com/api/users?active=1")
`}},
	}

	calls := scanOutboundCalls(chunks, endpoints)
	require.Len(t, calls, 4)

	byKey := map[string]OutboundCall{}
	for _, c := range calls {
		byKey[c.CallType+" "+c.Method+" "+c.EndpointPath] = c
	}

	fetchCall := byKey["fetch GET /api/users"]
	assert.True(t, fetchCall.EndpointFound)
	assert.Equal(t, "e1", fetchCall.MatchedEndpointID)
	assert.Equal(t, "users-svc", fetchCall.TargetServiceID)

	login := byKey["axios POST /api/login"]
	assert.True(t, login.EndpointFound)

	unknown := byKey["axios DELETE /api/unknown"]
	assert.False(t, unknown.EndpointFound)

	// Host and query string are stripped before matching.
	pyCall := byKey["requests GET /api/users"]
	assert.True(t, pyCall.EndpointFound)
	assert.Equal(t, "worker.py", pyCall.SourceFile)
}

func TestPathOf(t *testing.T) {
	assert.Equal(t, "/api/users", pathOf("https://svc.internal/api/users"))
	assert.Equal(t, "/api/users", pathOf("/api/users?limit=5"))
	assert.Equal(t, "/", pathOf("http://bare-host"))
	assert.Equal(t, "relative/path", pathOf("relative/path"))
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity(nil, []float32{1}))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1, 2}, []float32{1}))
}
