package retrieval

import (
	"context"
	"sort"
	"strings"

	"github.com/gianged/cindex/internal/cerrors"
	"github.com/gianged/cindex/internal/store"
	"github.com/gianged/cindex/internal/types"
)

// SymbolDefinition is one find_symbol_definition result.
type SymbolDefinition struct {
	Symbol types.Symbol  `json:"symbol"`
	Usages []types.Chunk `json:"usages,omitempty"`
}

// FindSymbol resolves every definition of name across the indexed
// repos, ordered by (name, file_path); includeUsages additionally
// returns chunks whose content mentions the symbol.
func (p *Pipeline) FindSymbol(ctx context.Context, name string, repoIDs []string, includeUsages bool) ([]SymbolDefinition, error) {
	if strings.TrimSpace(name) == "" {
		return nil, cerrors.Validation(cerrors.CodeMissingField, "symbol_name is required", "")
	}
	symbols, err := p.store.FindSymbolByName(name, repoIDs, false)
	if err != nil {
		return nil, err
	}

	out := make([]SymbolDefinition, 0, len(symbols))
	var usages []types.Chunk
	if includeUsages && len(symbols) > 0 {
		matches, err := store.SearchChunksByKeyword(p.store.DB(), SanitizeKeywordQuery(name), repoIDs, 20)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(matches))
		for _, m := range matches {
			ids = append(ids, m.ChunkID)
		}
		usages, err = p.store.GetChunksByIDs(ids)
		if err != nil {
			return nil, err
		}
	}
	for _, s := range symbols {
		def := SymbolDefinition{Symbol: s}
		for _, u := range usages {
			// A definition's own chunk is not a usage.
			if u.FilePath == s.FilePath && u.StartLine <= s.Line && s.Line <= u.EndLine {
				continue
			}
			def.Usages = append(def.Usages, u)
		}
		out = append(out, def)
	}
	return out, nil
}

// FileContext is get_file_context's result: the file, its chunks, its
// imports resolved to chain entries, and the files importing it.
type FileContext struct {
	File       types.File     `json:"file"`
	Chunks     []types.Chunk  `json:"chunks"`
	Imports    []ChainEntry   `json:"imports,omitempty"`
	ImportedBy []string       `json:"imported_by,omitempty"`
	Symbols    []types.Symbol `json:"symbols,omitempty"`
}

// GetFileContext assembles the context for one file. repoID may be
// empty when filePath is unique across repos.
func (p *Pipeline) GetFileContext(ctx context.Context, repoID, filePath string) (*FileContext, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, cerrors.Validation(cerrors.CodeMissingField, "file_path is required", "")
	}
	if repoID == "" {
		repos, err := p.store.ListRepositories()
		if err != nil {
			return nil, err
		}
		for _, r := range repos {
			if _, ok, _ := p.store.GetFileHash(r.RepoID, filePath); ok {
				repoID = r.RepoID
				break
			}
		}
		if repoID == "" {
			return nil, cerrors.Store(cerrors.CodeNotFound, "file not found in any indexed repository", nil, false)
		}
	}

	file, err := p.store.GetFile(repoID, filePath)
	if err != nil {
		return nil, err
	}
	chunks, err := p.store.ListChunksByFile(repoID, filePath)
	if err != nil {
		return nil, err
	}

	fc := &FileContext{File: *file, Chunks: chunks}

	// Outgoing imports: a depth-1 expansion of just this file.
	if chains, err := p.ExpandImports(ctx, []FileHit{{File: *file}}, 1); err == nil {
		for _, c := range chains {
			if c.Depth == 1 {
				fc.Imports = append(fc.Imports, c)
			}
		}
	}

	// Callers: files in the same repo whose import list resolves to
	// this file (suffix match over the stored import specifiers).
	all, err := p.store.ListFilesByRepo(repoID)
	if err != nil {
		return nil, err
	}
	stem := strings.TrimSuffix(filePath, pathExt(filePath))
	for _, f := range all {
		if f.FilePath == filePath {
			continue
		}
		for _, imp := range f.Imports {
			if importTargets(f.FilePath, imp, filePath, stem) {
				fc.ImportedBy = append(fc.ImportedBy, f.FilePath)
				break
			}
		}
	}
	sort.Strings(fc.ImportedBy)

	for _, c := range chunks {
		for _, n := range c.Metadata.FunctionNames {
			syms, err := p.store.FindSymbolByName(n, []string{repoID}, true)
			if err != nil {
				continue
			}
			for _, s := range syms {
				if s.FilePath == filePath {
					fc.Symbols = append(fc.Symbols, s)
				}
			}
		}
	}
	return fc, nil
}

func pathExt(p string) string {
	if idx := strings.LastIndexByte(p, '.'); idx > strings.LastIndexByte(p, '/') {
		return p[idx:]
	}
	return ""
}

// importTargets reports whether importing spec from fromPath plausibly
// resolves to targetPath, without filesystem probing: relative
// specifiers are joined and compared against the target path or stem.
func importTargets(fromPath, spec, targetPath, targetStem string) bool {
	if !strings.HasPrefix(spec, ".") {
		return false
	}
	dir := ""
	if idx := strings.LastIndexByte(fromPath, '/'); idx >= 0 {
		dir = fromPath[:idx]
	}
	joined := joinClean(dir, spec)
	return joined == targetPath || joined == targetStem
}

func joinClean(dir, spec string) string {
	parts := []string{}
	if dir != "" {
		parts = strings.Split(dir, "/")
	}
	for _, seg := range strings.Split(spec, "/") {
		switch seg {
		case ".", "":
		case "..":
			if len(parts) > 0 {
				parts = parts[:len(parts)-1]
			}
		default:
			parts = append(parts, seg)
		}
	}
	return strings.Join(parts, "/")
}

// WorkspaceContext is get_workspace_context's result.
type WorkspaceContext struct {
	Workspace  types.Workspace   `json:"workspace"`
	DependsOn  []types.Workspace `json:"depends_on,omitempty"`
	Dependents []types.Workspace `json:"dependents,omitempty"`
	Files      []string          `json:"files,omitempty"`
}

// GetWorkspaceContext resolves a workspace by ID or package name and
// returns it with its dependency graph neighborhood.
func (p *Pipeline) GetWorkspaceContext(workspaceID, packageName string) (*WorkspaceContext, error) {
	ws, err := p.findWorkspace(workspaceID, packageName)
	if err != nil {
		return nil, err
	}
	all, err := p.store.ListWorkspacesByRepo(ws.RepoID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]types.Workspace, len(all))
	byName := make(map[string]types.Workspace, len(all))
	for _, w := range all {
		byID[w.WorkspaceID] = w
		byName[w.Name] = w
	}

	out := &WorkspaceContext{Workspace: *ws}
	for _, dep := range ws.Dependencies {
		if w, ok := byName[dep]; ok {
			out.DependsOn = append(out.DependsOn, w)
		}
	}
	dependentIDs, err := p.store.WorkspaceDependents(ws.WorkspaceID)
	if err != nil {
		return nil, err
	}
	for _, id := range dependentIDs {
		if w, ok := byID[id]; ok {
			out.Dependents = append(out.Dependents, w)
		}
	}

	files, err := p.store.ListFilesByRepo(ws.RepoID)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if f.WorkspaceID == ws.WorkspaceID {
			out.Files = append(out.Files, f.FilePath)
		}
	}
	sort.Strings(out.Files)
	return out, nil
}

func (p *Pipeline) findWorkspace(workspaceID, packageName string) (*types.Workspace, error) {
	if workspaceID == "" && packageName == "" {
		return nil, cerrors.Validation(cerrors.CodeMissingField,
			"workspace_id or package_name is required", "")
	}
	all, err := p.store.ListAllWorkspaces()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if workspaceID != "" && all[i].WorkspaceID == workspaceID {
			return &all[i], nil
		}
		if workspaceID == "" && all[i].Name == packageName {
			return &all[i], nil
		}
	}
	return nil, cerrors.Store(cerrors.CodeNotFound, "workspace not found", nil, false)
}

// ServiceContext is get_service_context's result.
type ServiceContext struct {
	Service   types.Service       `json:"service"`
	Endpoints []types.APIEndpoint `json:"endpoints,omitempty"`
	Files     []string            `json:"files,omitempty"`
}

// GetServiceContext returns a service with its API contracts and files.
func (p *Pipeline) GetServiceContext(serviceID string) (*ServiceContext, error) {
	if serviceID == "" {
		return nil, cerrors.Validation(cerrors.CodeMissingField, "service_id is required", "")
	}
	svc, err := p.store.GetService(serviceID)
	if err != nil {
		return nil, err
	}
	eps, err := p.store.ListEndpointsByRepo(svc.RepoID)
	if err != nil {
		return nil, err
	}
	out := &ServiceContext{Service: *svc, Files: svc.Files}
	for _, e := range eps {
		if e.ServiceID == serviceID {
			out.Endpoints = append(out.Endpoints, e)
		}
	}
	return out, nil
}

// CrossWorkspaceUsage is one find_cross_workspace_usages result row.
type CrossWorkspaceUsage struct {
	SourceWorkspace string   `json:"source_workspace"`
	TargetWorkspace string   `json:"target_workspace"`
	Files           []string `json:"files,omitempty"`
}

// FindCrossWorkspaceUsages traces which workspaces import the target
// package. includeIndirect is accepted but transitive tracking is not
// implemented; callers receive an explicit note rather than silently
// identical behavior.
func (p *Pipeline) FindCrossWorkspaceUsages(workspaceID, packageName string, includeIndirect bool) ([]CrossWorkspaceUsage, string, error) {
	ws, err := p.findWorkspace(workspaceID, packageName)
	if err != nil {
		return nil, "", err
	}
	dependentIDs, err := p.store.WorkspaceDependents(ws.WorkspaceID)
	if err != nil {
		return nil, "", err
	}
	all, err := p.store.ListWorkspacesByRepo(ws.RepoID)
	if err != nil {
		return nil, "", err
	}
	byID := make(map[string]types.Workspace, len(all))
	for _, w := range all {
		byID[w.WorkspaceID] = w
	}

	files, err := p.store.ListFilesByRepo(ws.RepoID)
	if err != nil {
		return nil, "", err
	}

	var out []CrossWorkspaceUsage
	for _, id := range dependentIDs {
		src, ok := byID[id]
		if !ok {
			continue
		}
		usage := CrossWorkspaceUsage{SourceWorkspace: src.Name, TargetWorkspace: ws.Name}
		for _, f := range files {
			if f.WorkspaceID != id {
				continue
			}
			for _, imp := range f.Imports {
				if imp == ws.Name || strings.HasPrefix(imp, ws.Name+"/") {
					usage.Files = append(usage.Files, f.FilePath)
					break
				}
			}
		}
		out = append(out, usage)
	}

	note := ""
	if includeIndirect {
		note = "transitive_tracking: not_implemented"
	}
	return out, note, nil
}

// FindCrossServiceCalls scans indexed chunks for outbound API calls,
// optionally filtered to source or target service IDs.
func (p *Pipeline) FindCrossServiceCalls(sourceServiceID, targetServiceID string) ([]OutboundCall, error) {
	endpoints, err := p.store.ListAllEndpoints()
	if err != nil {
		return nil, err
	}
	byMethodPath := make(map[string]*types.APIEndpoint, len(endpoints))
	for i := range endpoints {
		e := &endpoints[i]
		byMethodPath[e.Method+" "+e.Path] = e
	}

	repos, err := p.store.ListRepositories()
	if err != nil {
		return nil, err
	}

	var calls []OutboundCall
	for _, r := range repos {
		files, err := p.store.ListFilesByRepo(r.RepoID)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if sourceServiceID != "" && f.ServiceID != sourceServiceID {
				continue
			}
			chunks, err := p.store.ListChunksByFile(r.RepoID, f.FilePath)
			if err != nil {
				return nil, err
			}
			hits := make([]ChunkHit, 0, len(chunks))
			for _, c := range chunks {
				if c.ChunkType == types.ChunkTypeFileSummary {
					continue
				}
				hits = append(hits, ChunkHit{Chunk: c})
			}
			for _, call := range scanOutboundCalls(hits, byMethodPath) {
				call.SourceServiceID = f.ServiceID
				if targetServiceID != "" && call.TargetServiceID != targetServiceID {
					continue
				}
				// Same-service calls are not cross-service.
				if call.EndpointFound && call.TargetServiceID == f.ServiceID {
					continue
				}
				calls = append(calls, call)
			}
		}
	}
	return calls, nil
}
