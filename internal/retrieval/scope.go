package retrieval

import (
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"

	"github.com/gianged/cindex/internal/cerrors"
	"github.com/gianged/cindex/internal/types"
)

// ScopeMode selects how the concrete repo set is derived.
type ScopeMode string

const (
	ScopeGlobal     ScopeMode = "global"
	ScopeRepository ScopeMode = "repository"
	ScopeService    ScopeMode = "service"
	ScopeBoundary   ScopeMode = "boundary-aware"
)

// BoundaryConfig configures boundary-aware scope.
type BoundaryConfig struct {
	StartRepo          string `json:"start_repo"`
	FollowDependencies bool   `json:"follow_dependencies"`
	MaxDepth           int    `json:"max_depth"` // default 2
}

// ScopeConfig is Stage 0's input.
type ScopeConfig struct {
	Mode              ScopeMode        `json:"mode"`
	RepoIDs           []string         `json:"repo_ids,omitempty"`
	ServiceIDs        []string         `json:"service_ids,omitempty"`
	WorkspaceIDs      []string         `json:"workspace_ids,omitempty"`
	PackageNames      []string         `json:"package_names,omitempty"`
	ServiceTypes      []string         `json:"service_types,omitempty"`
	ExcludeRepoTypes  []types.RepoKind `json:"exclude_repo_types,omitempty"`
	ExcludeRepos      []string         `json:"exclude_repos,omitempty"`
	ExcludeServices   []string         `json:"exclude_services,omitempty"`
	ExcludeWorkspaces []string         `json:"exclude_workspaces,omitempty"`
	Boundary          BoundaryConfig   `json:"boundary,omitempty"`
}

// ResolvedScope is the concrete set subsequent stages filter against.
type ResolvedScope struct {
	RepoIDs      []string
	RepoKinds    map[string]types.RepoKind
	ServiceIDs   []string
	WorkspaceIDs []string
	PackageNames []string
}

// InRepo reports whether repoID is inside the scope.
func (r *ResolvedScope) InRepo(repoID string) bool {
	for _, id := range r.RepoIDs {
		if id == repoID {
			return true
		}
	}
	return false
}

// ResolveScope is Retrieval Stage 0. referencesOnly flips the global
// mode's kind filter: search_codebase excludes reference/documentation
// repos, search_references searches only them.
func (p *Pipeline) ResolveScope(cfg ScopeConfig, referencesOnly bool) (*ResolvedScope, error) {
	repos, err := p.store.ListRepositories()
	if err != nil {
		return nil, err
	}
	kinds := make(map[string]types.RepoKind, len(repos))
	for _, r := range repos {
		kinds[r.RepoID] = r.Kind
	}

	excluded := make(map[types.RepoKind]bool)
	for _, k := range cfg.ExcludeRepoTypes {
		excluded[k] = true
	}

	mode := cfg.Mode
	if mode == "" {
		mode = ScopeGlobal
	}

	var repoIDs []string
	switch mode {
	case ScopeGlobal:
		for _, r := range repos {
			if excluded[r.Kind] {
				continue
			}
			if r.Kind.ExcludedFromGlobalScope() != referencesOnly {
				continue
			}
			repoIDs = append(repoIDs, r.RepoID)
		}

	case ScopeRepository:
		if len(cfg.RepoIDs) == 0 {
			return nil, cerrors.Validation(cerrors.CodeMissingField,
				"repository scope requires repo_ids", "Pass at least one repo_id")
		}
		for _, id := range cfg.RepoIDs {
			if _, ok := kinds[id]; !ok {
				return nil, cerrors.Validation(cerrors.CodeUnknownEnum,
					fmt.Sprintf("unknown repo_id %q", id), "Use list_indexed_repos to see indexed repositories")
			}
			repoIDs = append(repoIDs, id)
		}

	case ScopeService:
		if len(cfg.ServiceIDs) == 0 {
			return nil, cerrors.Validation(cerrors.CodeMissingField,
				"service scope requires service_ids", "Pass at least one service_id")
		}
		seen := make(map[string]bool)
		for _, sid := range cfg.ServiceIDs {
			svc, err := p.store.GetService(sid)
			if err != nil {
				return nil, err
			}
			if !seen[svc.RepoID] {
				seen[svc.RepoID] = true
				repoIDs = append(repoIDs, svc.RepoID)
			}
		}

	case ScopeBoundary:
		if cfg.Boundary.StartRepo == "" {
			return nil, cerrors.Validation(cerrors.CodeMissingField,
				"boundary-aware scope requires start_repo", "Pass boundary.start_repo")
		}
		if _, ok := kinds[cfg.Boundary.StartRepo]; !ok {
			return nil, cerrors.Validation(cerrors.CodeUnknownEnum,
				fmt.Sprintf("unknown start_repo %q", cfg.Boundary.StartRepo), "")
		}
		repoIDs, err = p.boundaryRepos(cfg.Boundary, kinds, excluded)
		if err != nil {
			return nil, err
		}

	default:
		return nil, cerrors.Validation(cerrors.CodeUnknownEnum,
			fmt.Sprintf("unknown scope mode %q", mode),
			"Use one of global, repository, service, boundary-aware")
	}

	// Set-wise exclusion lists apply after mode resolution.
	repoIDs = subtract(repoIDs, cfg.ExcludeRepos)
	serviceIDs := subtract(cfg.ServiceIDs, cfg.ExcludeServices)
	workspaceIDs := subtract(cfg.WorkspaceIDs, cfg.ExcludeWorkspaces)

	sort.Strings(repoIDs)
	return &ResolvedScope{
		RepoIDs:      repoIDs,
		RepoKinds:    kinds,
		ServiceIDs:   serviceIDs,
		WorkspaceIDs: workspaceIDs,
		PackageNames: cfg.PackageNames,
	}, nil
}

// boundaryRepos does a BFS of CrossRepoDependency edges from the start
// repo up to MaxDepth (default 2), skipping excluded kinds. MaxDepth 0
// returns only the start repo.
func (p *Pipeline) boundaryRepos(b BoundaryConfig, kinds map[string]types.RepoKind, excluded map[types.RepoKind]bool) ([]string, error) {
	out := []string{b.StartRepo}
	if !b.FollowDependencies {
		return out, nil
	}
	maxDepth := b.MaxDepth
	if maxDepth < 0 {
		maxDepth = 0
	}
	if b.MaxDepth == 0 {
		return out, nil
	}

	edges, err := p.store.CrossRepoDependencies()
	if err != nil {
		return nil, err
	}
	g := graph.New(graph.StringHash, graph.Directed())
	for id := range kinds {
		_ = g.AddVertex(id)
	}
	for _, e := range edges {
		_ = g.AddEdge(e[0], e[1])
	}
	adj, err := g.AdjacencyMap()
	if err != nil {
		return nil, err
	}

	visited := map[string]bool{b.StartRepo: true}
	frontier := []string{b.StartRepo}
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, id := range frontier {
			neighbors := make([]string, 0, len(adj[id]))
			for n := range adj[id] {
				neighbors = append(neighbors, n)
			}
			sort.Strings(neighbors)
			for _, n := range neighbors {
				if visited[n] || excluded[kinds[n]] {
					continue
				}
				visited[n] = true
				out = append(out, n)
				next = append(next, n)
			}
		}
		frontier = next
	}
	return out, nil
}

func subtract(set, remove []string) []string {
	if len(remove) == 0 {
		return set
	}
	rm := make(map[string]bool, len(remove))
	for _, r := range remove {
		rm[r] = true
	}
	var out []string
	for _, s := range set {
		if !rm[s] {
			out = append(out, s)
		}
	}
	return out
}
