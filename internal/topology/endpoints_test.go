package topology_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gianged/cindex/internal/topology"
	"github.com/gianged/cindex/internal/types"
)

func TestExtractFromFile_ExpressRoutes(t *testing.T) {
	src := []byte(`
const app = express();
app.get('/users', listUsers);
app.post('/users/:id/roles', addRole);
router.delete('/sessions', logout);
`)
	eps := topology.ExtractFromFile("r", "svc", "src/routes.ts", src)
	require.Len(t, eps, 3)
	assert.Equal(t, "GET", eps[0].Method)
	assert.Equal(t, "/users", eps[0].Path)
	assert.Equal(t, "POST", eps[1].Method)
	assert.Equal(t, "/users/:id/roles", eps[1].Path)
	assert.Equal(t, types.APITypeREST, eps[0].APIType)
	assert.Equal(t, "src/routes.ts", eps[0].ImplementationFile)
	assert.Equal(t, 3, eps[0].ImplementationLine)
}

func TestExtractFromFile_FastAPIDecorators(t *testing.T) {
	src := []byte(`
@app.get("/items")
def list_items():
    pass

@app.post("/items")
def create_item():
    pass
`)
	eps := topology.ExtractFromFile("r", "svc", "main.py", src)
	require.Len(t, eps, 2)
	assert.Equal(t, "GET", eps[0].Method)
	assert.Equal(t, "/items", eps[0].Path)
}

func TestExtractFromFile_Proto(t *testing.T) {
	src := []byte(`
syntax = "proto3";
service UserService {
  rpc GetUser (GetUserRequest) returns (User);
  rpc ListUsers (ListUsersRequest) returns (stream User);
}
`)
	eps := topology.ExtractFromFile("r", "svc", "api/user.proto", src)
	require.Len(t, eps, 2)
	assert.Equal(t, types.APITypeGRPC, eps[0].APIType)
	assert.Equal(t, "/UserService/GetUser", eps[0].Path)
}

func TestExtractFromFile_GraphQLSDL(t *testing.T) {
	src := []byte(`
type Query {
  user(id: ID!): User
  posts: [Post]
}
type Mutation {
  createPost(input: PostInput!): Post
}
`)
	eps := topology.ExtractFromFile("r", "svc", "schema.graphql", src)
	require.Len(t, eps, 3)
	assert.Equal(t, types.APITypeGraphQL, eps[0].APIType)
	assert.Equal(t, "QUERY", eps[0].Method)
	assert.Equal(t, "user", eps[0].Path)
	assert.Equal(t, "MUTATION", eps[2].Method)
}

func TestExtractFromFile_OpenAPI(t *testing.T) {
	src := []byte(`
openapi: "3.0.0"
paths:
  /pets:
    get:
      summary: List pets
    post:
      summary: Create a pet
      deprecated: true
      tags: [pets]
`)
	eps := topology.ExtractFromFile("r", "svc", "openapi.yaml", src)
	require.Len(t, eps, 2)
	assert.Equal(t, "/pets", eps[0].Path)
	assert.Equal(t, "List pets", eps[0].Description)
	assert.True(t, eps[1].Deprecated)
	assert.Equal(t, []string{"pets"}, eps[1].Tags)
}

func TestExtractFromFile_UnrelatedYAMLYieldsNothing(t *testing.T) {
	eps := topology.ExtractFromFile("r", "svc", "config.yaml", []byte("key: value\n"))
	assert.Empty(t, eps)
}

func TestLinkImplementations(t *testing.T) {
	eps := []types.APIEndpoint{{
		EndpointID:         "e1",
		ImplementationFile: "src/routes.ts",
		ImplementationLine: 12,
	}}
	chunks := []types.Chunk{
		{ChunkID: "summary", FilePath: "src/routes.ts", ChunkType: types.ChunkTypeFileSummary, StartLine: 1, EndLine: 1},
		{ChunkID: "fn", FilePath: "src/routes.ts", ChunkType: types.ChunkTypeFunction, StartLine: 10, EndLine: 20,
			Metadata: types.ChunkMetadata{FunctionNames: []string{"listUsers"}}},
	}
	topology.LinkImplementations(eps, chunks)
	assert.Equal(t, "fn", eps[0].ImplementationChunkID)
	assert.Equal(t, "listUsers", eps[0].ImplementationFunc)
}

func TestDescriptor(t *testing.T) {
	d := topology.Descriptor(types.APIEndpoint{
		APIType: types.APITypeREST, Method: "GET", Path: "/users",
		Description: "List users", Tags: []string{"users"}, Deprecated: true,
	})
	assert.Contains(t, d, "GET /users")
	assert.Contains(t, d, "List users")
	assert.Contains(t, d, "deprecated")
}
