// Package topology derives repository structure the retrieval pipeline
// scopes over: monorepo workspaces, service boundaries, and API
// endpoints. Detection runs as Indexing Stages 7 and 8, after every
// file has been parsed.
package topology

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/gianged/cindex/internal/types"
)

// WorkspaceTopology is the result of workspace detection for one repo.
type WorkspaceTopology struct {
	Workspaces []types.Workspace
	// Edges are intra-repo dependency edges as (source, target)
	// workspace IDs; every endpoint references a workspace in
	// Workspaces (edges to packages outside the repo are dropped).
	Edges [][2]string
	// Config is the blob persisted on the repository row, consumed by
	// import-chain alias resolution at query time.
	Config RepoWorkspaceConfig
}

// RepoWorkspaceConfig is the schema-validated shape of the
// workspace-config blob stored on a repository: workspace package
// names mapped to their directories, plus tsconfig-style path
// aliases. Modeled as a struct, never an untyped map.
type RepoWorkspaceConfig struct {
	Packages    map[string]string   `json:"packages"`     // package name -> repo-relative dir
	PathAliases map[string][]string `json:"path_aliases"` // alias prefix -> substitution targets
}

// Marshal encodes the config for the repositories.workspace_config column.
func (c RepoWorkspaceConfig) Marshal() []byte {
	b, _ := json.Marshal(c)
	return b
}

// UnmarshalRepoWorkspaceConfig decodes a workspace_config blob; a nil
// or empty blob yields an empty config rather than an error, since
// repositories indexed with workspace detection disabled have none.
func UnmarshalRepoWorkspaceConfig(blob []byte) RepoWorkspaceConfig {
	var c RepoWorkspaceConfig
	if len(blob) > 0 {
		_ = json.Unmarshal(blob, &c)
	}
	if c.Packages == nil {
		c.Packages = map[string]string{}
	}
	if c.PathAliases == nil {
		c.PathAliases = map[string][]string{}
	}
	return c
}

// packageManifest is the subset of package.json workspace detection reads.
type packageManifest struct {
	Name            string            `json:"name"`
	Private         bool              `json:"private"`
	Workspaces      json.RawMessage   `json:"workspaces"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// DetectWorkspaces probes root for monorepo manifests
// (pnpm-workspace.yaml, package.json workspaces, nx.json, lerna.json,
// turbo.json, rush.json), resolves their glob patterns to concrete
// package directories, reads each package manifest, parses tsconfig
// path aliases, and builds the intra-repo dependency graph.
func DetectWorkspaces(root, repoID string) (*WorkspaceTopology, error) {
	patterns, found := workspaceGlobs(root)
	if !found {
		return &WorkspaceTopology{Config: RepoWorkspaceConfig{
			Packages:    map[string]string{},
			PathAliases: loadTSConfigAliases(root),
		}}, nil
	}

	dirs := resolvePackageDirs(root, patterns)

	topo := &WorkspaceTopology{Config: RepoWorkspaceConfig{
		Packages:    map[string]string{},
		PathAliases: loadTSConfigAliases(root),
	}}
	byName := make(map[string]*types.Workspace)

	for _, dir := range dirs {
		m, err := readPackageManifest(filepath.Join(root, dir, "package.json"))
		if err != nil {
			continue
		}
		name := m.Name
		if name == "" {
			name = filepath.Base(dir)
		}
		w := types.Workspace{
			WorkspaceID:     uuid.NewString(),
			RepoID:          repoID,
			Name:            name,
			AbsPath:         filepath.Join(root, dir),
			RelPath:         filepath.ToSlash(dir),
			Dependencies:    sortedKeys(m.Dependencies),
			DevDependencies: sortedKeys(m.DevDependencies),
			Private:         m.Private,
		}
		topo.Workspaces = append(topo.Workspaces, w)
		byName[name] = &topo.Workspaces[len(topo.Workspaces)-1]
		topo.Config.Packages[name] = filepath.ToSlash(dir)
	}

	sort.Slice(topo.Workspaces, func(i, j int) bool { return topo.Workspaces[i].Name < topo.Workspaces[j].Name })
	// Re-point byName after the sort moved elements.
	for i := range topo.Workspaces {
		byName[topo.Workspaces[i].Name] = &topo.Workspaces[i]
	}

	g := graph.New(graph.StringHash, graph.Directed())
	for _, w := range topo.Workspaces {
		_ = g.AddVertex(w.WorkspaceID)
	}
	for _, w := range topo.Workspaces {
		for _, dep := range append(append([]string(nil), w.Dependencies...), w.DevDependencies...) {
			target, ok := byName[dep]
			if !ok {
				continue // external dependency, not an intra-repo edge
			}
			if err := g.AddEdge(w.WorkspaceID, target.WorkspaceID); err == nil {
				topo.Edges = append(topo.Edges, [2]string{w.WorkspaceID, target.WorkspaceID})
			}
		}
	}

	return topo, nil
}

// workspaceGlobs returns the package glob patterns from whichever
// workspace manifest the repo carries, probing in a fixed order.
func workspaceGlobs(root string) ([]string, bool) {
	if data, err := os.ReadFile(filepath.Join(root, "pnpm-workspace.yaml")); err == nil {
		var doc struct {
			Packages []string `yaml:"packages"`
		}
		if yaml.Unmarshal(data, &doc) == nil && len(doc.Packages) > 0 {
			return doc.Packages, true
		}
	}

	if m, err := readPackageManifest(filepath.Join(root, "package.json")); err == nil && len(m.Workspaces) > 0 {
		if globs := parseWorkspacesField(m.Workspaces); len(globs) > 0 {
			return globs, true
		}
	}

	for _, name := range []string{"lerna.json", "rush.json"} {
		if data, err := os.ReadFile(filepath.Join(root, name)); err == nil {
			var doc struct {
				Packages []string `json:"packages"`
				Projects []struct {
					ProjectFolder string `json:"projectFolder"`
				} `json:"projects"`
			}
			if json.Unmarshal(data, &doc) == nil {
				if len(doc.Packages) > 0 {
					return doc.Packages, true
				}
				if len(doc.Projects) > 0 {
					globs := make([]string, 0, len(doc.Projects))
					for _, p := range doc.Projects {
						globs = append(globs, p.ProjectFolder)
					}
					return globs, true
				}
			}
		}
	}

	// nx.json and turbo.json mark a monorepo but delegate package
	// location to package.json workspaces or the conventional dirs.
	for _, name := range []string{"nx.json", "turbo.json"} {
		if _, err := os.Stat(filepath.Join(root, name)); err == nil {
			return []string{"packages/*", "apps/*", "libs/*"}, true
		}
	}

	return nil, false
}

// parseWorkspacesField handles both shapes package.json allows:
// an array of globs, or {"packages": [...]}.
func parseWorkspacesField(raw json.RawMessage) []string {
	var globs []string
	if json.Unmarshal(raw, &globs) == nil {
		return globs
	}
	var obj struct {
		Packages []string `json:"packages"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		return obj.Packages
	}
	return nil
}

// resolvePackageDirs expands workspace glob patterns to repo-relative
// directories that contain a package.json.
func resolvePackageDirs(root string, patterns []string) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, p := range patterns {
		if strings.HasPrefix(p, "!") {
			continue // negations only ever exclude non-package dirs in practice
		}
		matches, err := filepath.Glob(filepath.Join(root, filepath.FromSlash(p)))
		if err != nil {
			continue
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || !info.IsDir() {
				continue
			}
			if _, err := os.Stat(filepath.Join(m, "package.json")); err != nil {
				continue
			}
			rel, err := filepath.Rel(root, m)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if !seen[rel] {
				seen[rel] = true
				dirs = append(dirs, rel)
			}
		}
	}
	sort.Strings(dirs)
	return dirs
}

func readPackageManifest(path string) (*packageManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m packageManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &m, nil
}

// loadTSConfigAliases reads tsconfig.json (or tsconfig.base.json) path
// mappings for import-chain alias resolution. Absence is not an error.
func loadTSConfigAliases(root string) map[string][]string {
	out := map[string][]string{}
	for _, name := range []string{"tsconfig.json", "tsconfig.base.json"} {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			continue
		}
		var doc struct {
			CompilerOptions struct {
				Paths map[string][]string `json:"paths"`
			} `json:"compilerOptions"`
		}
		// tsconfig allows comments; strip the common line-comment form
		// before decoding rather than pulling in a JSON5 parser.
		if err := json.Unmarshal(stripLineComments(data), &doc); err != nil {
			continue
		}
		for alias, targets := range doc.CompilerOptions.Paths {
			out[alias] = targets
		}
	}
	return out
}

func stripLineComments(data []byte) []byte {
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		if idx := strings.Index(line, "//"); idx >= 0 && !strings.Contains(line[:idx], `"`) {
			lines[i] = line[:idx]
		}
	}
	return []byte(strings.Join(lines, "\n"))
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
