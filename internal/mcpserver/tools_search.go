package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gianged/cindex/internal/retrieval"
	"github.com/gianged/cindex/internal/types"
)

// scopeFromArgs builds the Stage 0 scope config from common tool
// arguments shared by the search tools.
func scopeFromArgs(args map[string]interface{}) retrieval.ScopeConfig {
	cfg := retrieval.ScopeConfig{
		Mode:              retrieval.ScopeMode(strArg(args, "scope_mode")),
		RepoIDs:           strSliceArg(args, "repo_ids"),
		ServiceIDs:        strSliceArg(args, "service_ids"),
		WorkspaceIDs:      strSliceArg(args, "workspace_ids"),
		PackageNames:      strSliceArg(args, "package_names"),
		ServiceTypes:      strSliceArg(args, "service_types"),
		ExcludeRepos:      strSliceArg(args, "exclude_repos"),
		ExcludeServices:   strSliceArg(args, "exclude_services"),
		ExcludeWorkspaces: strSliceArg(args, "exclude_workspaces"),
	}
	for _, k := range strSliceArg(args, "exclude_repo_types") {
		cfg.ExcludeRepoTypes = append(cfg.ExcludeRepoTypes, types.RepoKind(k))
	}
	cfg.Boundary.StartRepo = strArg(args, "start_repo")
	cfg.Boundary.FollowDependencies = boolArg(args, "follow_dependencies")
	if d, ok := intArg(args, "max_depth"); ok {
		cfg.Boundary.MaxDepth = d
	} else {
		cfg.Boundary.MaxDepth = 2
	}
	return cfg
}

func searchOptionsFromArgs(args map[string]interface{}) retrieval.SearchOptions {
	opts := retrieval.SearchOptions{Scope: scopeFromArgs(args)}
	if n, ok := intArg(args, "top_files"); ok {
		opts.TopFiles = n
	}
	opts.API = retrieval.APIOptions{
		APITypes:                   strSliceArg(args, "api_types"),
		IncludeDeprecated:          boolArg(args, "include_deprecated"),
		RequireImplementationMatch: boolArg(args, "require_implementation_match"),
	}
	return opts
}

// AddSearchCodebaseTool registers search_codebase, the primary
// nine-stage semantic search.
func AddSearchCodebaseTool(s *server.MCPServer, srv *Server) {
	tool := mcp.NewTool(
		"search_codebase",
		mcp.WithDescription("Semantic code search across indexed repositories: hybrid vector+keyword retrieval, symbol resolution, import-chain expansion, API enrichment, and token-budgeted context assembly."),
		mcp.WithString("query", mcp.Required(),
			mcp.Description("Natural-language or code-snippet query")),
		mcp.WithString("scope_mode",
			mcp.Description("Scope mode: global (default), repository, service, boundary-aware")),
		mcp.WithArray("repo_ids", mcp.Description("Repository IDs for repository scope")),
		mcp.WithArray("service_ids", mcp.Description("Service IDs for service scope")),
		mcp.WithString("start_repo", mcp.Description("Boundary-aware scope start repository")),
		mcp.WithBoolean("follow_dependencies", mcp.Description("Boundary-aware: BFS cross-repo dependencies")),
		mcp.WithNumber("max_depth", mcp.Description("Boundary-aware BFS depth (default 2)")),
		mcp.WithNumber("top_files", mcp.Description("Stage 2 top-K files (default 10)")),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := argsOf(request)
		query := strArg(args, "query")
		result, err := srv.pipeline.Search(ctx, query, searchOptionsFromArgs(args))
		if err != nil {
			return errResult(err)
		}
		return jsonResult(result)
	})
}

// AddSearchReferencesTool registers search_references, the path over
// reference/documentation repos the global scope excludes.
func AddSearchReferencesTool(s *server.MCPServer, srv *Server) {
	tool := mcp.NewTool(
		"search_references",
		mcp.WithDescription("Semantic search restricted to reference and documentation repositories (the kinds search_codebase excludes)."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		mcp.WithNumber("top_files", mcp.Description("Stage 2 top-K files (default 10)")),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := argsOf(request)
		result, err := srv.pipeline.SearchReferences(ctx, strArg(args, "query"), searchOptionsFromArgs(args))
		if err != nil {
			return errResult(err)
		}
		return jsonResult(result)
	})
}

// AddSearchDocumentationTool registers search_documentation.
func AddSearchDocumentationTool(s *server.MCPServer, srv *Server) {
	tool := mcp.NewTool(
		"search_documentation",
		mcp.WithDescription("Search indexed markdown documentation (vector + keyword hybrid)."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 20)")),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := argsOf(request)
		limit, _ := intArg(args, "limit")
		hits, err := srv.pipeline.SearchDocumentation(ctx, strArg(args, "query"), limit)
		if err != nil {
			return errResult(err)
		}
		return jsonResult(map[string]interface{}{"results": hits, "total": len(hits)})
	})
}

// AddSearchAPIContractsTool registers search_api_contracts. api_type is
// returned exactly as stored, websocket included.
func AddSearchAPIContractsTool(s *server.MCPServer, srv *Server) {
	tool := mcp.NewTool(
		"search_api_contracts",
		mcp.WithDescription("Semantic search over indexed API endpoints (REST, GraphQL, gRPC, WebSocket)."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		mcp.WithArray("api_types", mcp.Description("Filter by api_type: rest, graphql, grpc, websocket")),
		mcp.WithBoolean("include_deprecated", mcp.Description("Include deprecated endpoints")),
		mcp.WithNumber("limit", mcp.Description("Maximum results")),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := argsOf(request)
		limit, _ := intArg(args, "limit")
		opts := retrieval.APIOptions{
			APITypes:          strSliceArg(args, "api_types"),
			IncludeDeprecated: boolArg(args, "include_deprecated"),
		}
		hits, err := srv.pipeline.SearchAPIContracts(ctx, strArg(args, "query"), opts, limit)
		if err != nil {
			return errResult(err)
		}
		return jsonResult(map[string]interface{}{"results": hits, "total": len(hits)})
	})
}
