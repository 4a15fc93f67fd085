package topology_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gianged/cindex/internal/topology"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDetectWorkspaces_PnpmManifest(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pnpm-workspace.yaml", "packages:\n  - 'packages/*'\n")
	writeFile(t, root, "packages/ui/package.json", `{"name": "@acme/ui", "private": true}`)
	writeFile(t, root, "packages/api/package.json",
		`{"name": "@acme/api", "dependencies": {"@acme/ui": "workspace:*", "express": "^4"}}`)

	topo, err := topology.DetectWorkspaces(root, "acme")
	require.NoError(t, err)
	require.Len(t, topo.Workspaces, 2)

	assert.Equal(t, "@acme/api", topo.Workspaces[0].Name)
	assert.Equal(t, "@acme/ui", topo.Workspaces[1].Name)
	assert.True(t, topo.Workspaces[1].Private)
	assert.Equal(t, []string{"@acme/ui", "express"}, topo.Workspaces[0].Dependencies)

	// Only the intra-repo edge survives; express is external.
	require.Len(t, topo.Edges, 1)
	api, ui := topo.Workspaces[0], topo.Workspaces[1]
	assert.Equal(t, [2]string{api.WorkspaceID, ui.WorkspaceID}, topo.Edges[0])

	assert.Equal(t, "packages/ui", topo.Config.Packages["@acme/ui"])
}

func TestDetectWorkspaces_PackageJSONWorkspacesField(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"name": "mono", "workspaces": ["libs/*"]}`)
	writeFile(t, root, "libs/core/package.json", `{"name": "core"}`)

	topo, err := topology.DetectWorkspaces(root, "mono")
	require.NoError(t, err)
	require.Len(t, topo.Workspaces, 1)
	assert.Equal(t, "core", topo.Workspaces[0].Name)
	assert.Equal(t, "libs/core", topo.Workspaces[0].RelPath)
}

func TestDetectWorkspaces_NoManifest(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main")

	topo, err := topology.DetectWorkspaces(root, "plain")
	require.NoError(t, err)
	assert.Empty(t, topo.Workspaces)
	assert.Empty(t, topo.Edges)
}

func TestDetectWorkspaces_TSConfigAliases(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pnpm-workspace.yaml", "packages:\n  - 'packages/*'\n")
	writeFile(t, root, "packages/app/package.json", `{"name": "app"}`)
	writeFile(t, root, "tsconfig.json",
		`{"compilerOptions": {"paths": {"@app/*": ["packages/app/src/*"]}}}`)

	topo, err := topology.DetectWorkspaces(root, "r")
	require.NoError(t, err)
	assert.Equal(t, []string{"packages/app/src/*"}, topo.Config.PathAliases["@app/*"])
}

func TestRepoWorkspaceConfig_RoundTrip(t *testing.T) {
	cfg := topology.RepoWorkspaceConfig{
		Packages:    map[string]string{"a": "packages/a"},
		PathAliases: map[string][]string{"@a/*": {"packages/a/src/*"}},
	}
	got := topology.UnmarshalRepoWorkspaceConfig(cfg.Marshal())
	assert.Equal(t, cfg, got)

	empty := topology.UnmarshalRepoWorkspaceConfig(nil)
	assert.NotNil(t, empty.Packages)
	assert.NotNil(t, empty.PathAliases)
}

func TestDetectServices_DirectoryLayout(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "services/auth/Dockerfile", "FROM node:20")
	writeFile(t, root, "services/auth/index.ts", "export {}")
	writeFile(t, root, "services/billing/package.json", `{"name": "billing"}`)
	writeFile(t, root, "services/billing/index.ts", "export {}")

	topo, err := topology.DetectServices(root, "r", []string{
		"services/auth/index.ts", "services/billing/index.ts",
	})
	require.NoError(t, err)
	require.Len(t, topo.Services, 2)
	assert.Equal(t, "auth", topo.Services[0].Name)
	assert.Equal(t, "docker", string(topo.Services[0].Kind))
	assert.Equal(t, "library", string(topo.Services[1].Kind))
	assert.Equal(t, topo.Services[0].ServiceID, topo.FileService["services/auth/index.ts"])
}

func TestDetectServices_DockerCompose(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "docker-compose.yml", `
services:
  api:
    build: ./api
  postgres:
    image: postgres:16
`)
	writeFile(t, root, "api/server.ts", "export {}")

	topo, err := topology.DetectServices(root, "r", []string{"api/server.ts"})
	require.NoError(t, err)
	require.Len(t, topo.Services, 1)
	assert.Equal(t, "api", topo.Services[0].Name)
	assert.Equal(t, []string{"api/server.ts"}, topo.Services[0].Files)
}
