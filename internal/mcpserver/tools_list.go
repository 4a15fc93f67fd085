package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// AddListIndexedReposTool registers list_indexed_repos.
func AddListIndexedReposTool(s *server.MCPServer, srv *Server) {
	tool := mcp.NewTool(
		"list_indexed_repos",
		mcp.WithDescription("Enumerate every indexed repository."),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		repos, err := srv.store.ListRepositories()
		if err != nil {
			return errResult(err)
		}
		out := make([]map[string]interface{}, 0, len(repos))
		for _, r := range repos {
			out = append(out, map[string]interface{}{
				"repo_id":    r.RepoID,
				"name":       r.Name,
				"kind":       r.Kind,
				"version":    r.Version,
				"indexed_at": r.IndexedAt,
			})
		}
		return jsonResult(map[string]interface{}{"repositories": out, "total": len(out)})
	})
}

// AddListWorkspacesTool registers list_workspaces.
func AddListWorkspacesTool(s *server.MCPServer, srv *Server) {
	tool := mcp.NewTool(
		"list_workspaces",
		mcp.WithDescription("Enumerate every detected monorepo workspace."),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		workspaces, err := srv.store.ListAllWorkspaces()
		if err != nil {
			return errResult(err)
		}
		return jsonResult(map[string]interface{}{"workspaces": workspaces, "total": len(workspaces)})
	})
}

// AddListServicesTool registers list_services.
func AddListServicesTool(s *server.MCPServer, srv *Server) {
	tool := mcp.NewTool(
		"list_services",
		mcp.WithDescription("Enumerate every detected service boundary."),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		services, err := srv.store.ListAllServices()
		if err != nil {
			return errResult(err)
		}
		return jsonResult(map[string]interface{}{"services": services, "total": len(services)})
	})
}

// AddListDocumentationTool registers list_documentation.
func AddListDocumentationTool(s *server.MCPServer, srv *Server) {
	tool := mcp.NewTool(
		"list_documentation",
		mcp.WithDescription("Enumerate every indexed documentation file."),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		files, err := srv.store.ListDocumentationFiles()
		if err != nil {
			return errResult(err)
		}
		return jsonResult(map[string]interface{}{"documentation": files, "total": len(files)})
	})
}
