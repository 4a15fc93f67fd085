package retrieval

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gianged/cindex/internal/topology"
	"github.com/gianged/cindex/internal/types"
)

// probeExtensions is the resolution order for extensionless internal
// imports.
var probeExtensions = []string{".ts", ".tsx", ".js", ".jsx",
	"/index.ts", "/index.tsx", "/index.js", "/index.jsx"}

// IsExternalImport classifies an import specifier: node: prefixes,
// URLs, and bare package specifiers (with or without a subpath, such
// as "lodash/merge") are external; relative, absolute, alias-prefixed
// and workspace-package specifiers are internal.
func IsExternalImport(spec string, aliases map[string][]string, packages map[string]string) bool {
	switch {
	case strings.HasPrefix(spec, "node:"):
		return true
	case strings.HasPrefix(spec, "http://"), strings.HasPrefix(spec, "https://"):
		return true
	case strings.HasPrefix(spec, "./"), strings.HasPrefix(spec, "../"), strings.HasPrefix(spec, "/"):
		return false
	}
	// Alias- or workspace-package-prefixed specifiers are internal even
	// though they look like bare names.
	if matchAlias(spec, aliases) != "" {
		return false
	}
	for pkg := range packages {
		if spec == pkg || strings.HasPrefix(spec, pkg+"/") {
			return false
		}
	}
	// What remains is a bare specifier ("express", "lodash/merge", or a
	// scoped package that is neither a workspace package nor an alias):
	// an external dependency.
	return true
}

func matchAlias(spec string, aliases map[string][]string) string {
	for alias := range aliases {
		prefix := strings.TrimSuffix(alias, "*")
		if prefix == alias {
			if spec == alias {
				return alias
			}
			continue
		}
		if strings.HasPrefix(spec, prefix) {
			return alias
		}
	}
	return ""
}

// expansionState is the per-top-file traversal state: a visited set
// scoped to one expansion, so each file_path is visited at most once
// and any revisit yields a circular entry.
type expansionState struct {
	visited map[string]bool
	entries []ChainEntry
}

// ExpandImports is Retrieval Stage 5: starting from the top-N files,
// recursively walk import edges up to the configured depth, resolving
// aliases through the repository's workspace configuration and
// tightening the depth limit after workspace/service boundaries.
func (p *Pipeline) ExpandImports(ctx context.Context, files []FileHit, topN int) ([]ChainEntry, error) {
	if topN <= 0 {
		topN = 10
	}
	if len(files) > topN {
		files = files[:topN]
	}

	var out []ChainEntry
	for _, fh := range files {
		repo, err := p.store.GetRepository(fh.File.RepoID)
		if err != nil {
			continue
		}
		wsCfg := topology.UnmarshalRepoWorkspaceConfig(repo.WorkspaceConfig)

		st := &expansionState{visited: map[string]bool{fh.File.FilePath: true}}
		p.walkImports(ctx, repo, wsCfg, &fh.File, fh.File.FilePath, 1, p.cfg.Index.ImportDepth, st)
		out = append(out, st.entries...)
	}
	return out, nil
}

// walkImports expands one file's imports. limit is the remaining depth
// budget, already tightened for any boundaries crossed above.
func (p *Pipeline) walkImports(ctx context.Context, repo *types.Repository, wsCfg topology.RepoWorkspaceConfig,
	from *types.File, importedFrom string, depth, limit int, st *expansionState) {

	if ctx.Err() != nil {
		return
	}
	for _, spec := range from.Imports {
		if IsExternalImport(spec, wsCfg.PathAliases, wsCfg.Packages) {
			st.entries = append(st.entries, ChainEntry{
				FilePath:         spec,
				ImportedFrom:     importedFrom,
				Depth:            depth,
				Truncated:        true,
				TruncationReason: TruncationExternalDependency,
			})
			continue
		}

		resolved := p.resolveImport(repo, wsCfg, from.FilePath, spec)
		if resolved == "" {
			continue
		}

		if st.visited[resolved] {
			st.entries = append(st.entries, ChainEntry{
				FilePath:     resolved,
				ImportedFrom: importedFrom,
				Depth:        depth,
				Circular:     true,
				Truncated:    true,
			})
			continue
		}
		st.visited[resolved] = true

		target, err := p.store.GetFile(repo.RepoID, resolved)
		if err != nil {
			continue
		}

		crossWorkspace := target.WorkspaceID != from.WorkspaceID && target.WorkspaceID != ""
		crossService := target.ServiceID != from.ServiceID && target.ServiceID != ""

		nextLimit := limit
		if crossWorkspace && p.cfg.Index.WorkspaceDepth < nextLimit {
			nextLimit = p.cfg.Index.WorkspaceDepth
		}
		if crossService && p.cfg.Index.ServiceDepth < nextLimit {
			nextLimit = p.cfg.Index.ServiceDepth
		}

		entry := ChainEntry{
			FilePath:       resolved,
			ImportedFrom:   importedFrom,
			Depth:          depth,
			FileSummary:    target.Summary,
			Exports:        target.Exports,
			CrossWorkspace: crossWorkspace,
			CrossService:   crossService,
			WorkspaceID:    target.WorkspaceID,
			ServiceID:      target.ServiceID,
		}
		if depth >= nextLimit {
			entry.Truncated = true
			if (crossWorkspace || crossService) && nextLimit < limit {
				entry.TruncationReason = TruncationBoundaryCrossed
			} else {
				entry.TruncationReason = TruncationDepthLimit
			}
		}
		st.entries = append(st.entries, entry)

		if !entry.Truncated {
			p.walkImports(ctx, repo, wsCfg, target, resolved, depth+1, nextLimit, st)
		}
	}
}

// resolveImport maps an internal import specifier to the repo-relative
// path of an indexed file, via workspace package names, tsconfig-style
// path aliases, relative resolution, and extension probing.
func (p *Pipeline) resolveImport(repo *types.Repository, wsCfg topology.RepoWorkspaceConfig, fromPath, spec string) string {
	var base string
	switch {
	case strings.HasPrefix(spec, "./"), strings.HasPrefix(spec, "../"):
		base = path.Clean(path.Join(path.Dir(fromPath), spec))
	case strings.HasPrefix(spec, "/"):
		base = strings.TrimPrefix(path.Clean(spec), "/")
	default:
		if alias := matchAlias(spec, wsCfg.PathAliases); alias != "" {
			prefix := strings.TrimSuffix(alias, "*")
			rest := strings.TrimPrefix(spec, prefix)
			for _, target := range wsCfg.PathAliases[alias] {
				candidate := strings.TrimSuffix(target, "*") + rest
				if resolved := p.probeFile(repo, path.Clean(candidate)); resolved != "" {
					return resolved
				}
			}
			return ""
		}
		for pkg, dir := range wsCfg.Packages {
			if spec == pkg {
				base = dir
				break
			}
			if strings.HasPrefix(spec, pkg+"/") {
				base = path.Join(dir, strings.TrimPrefix(spec, pkg+"/"))
				break
			}
		}
		if base == "" {
			return ""
		}
	}
	return p.probeFile(repo, base)
}

// probeFile tries base as-is and with the common extensions, checking
// the store first and the filesystem second.
func (p *Pipeline) probeFile(repo *types.Repository, base string) string {
	candidates := []string{base}
	for _, ext := range probeExtensions {
		candidates = append(candidates, base+ext)
	}
	for _, c := range candidates {
		if _, ok, err := p.store.GetFileHash(repo.RepoID, c); err == nil && ok {
			return c
		}
	}
	if repo.RootPath != "" {
		for _, c := range candidates {
			if info, err := os.Stat(filepath.Join(repo.RootPath, filepath.FromSlash(c))); err == nil && !info.IsDir() {
				return c
			}
		}
	}
	return ""
}
