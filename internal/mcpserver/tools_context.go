package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// AddFindSymbolDefinitionTool registers find_symbol_definition.
func AddFindSymbolDefinitionTool(s *server.MCPServer, srv *Server) {
	tool := mcp.NewTool(
		"find_symbol_definition",
		mcp.WithDescription("Locate every definition of a symbol by name, optionally with usage sites."),
		mcp.WithString("symbol_name", mcp.Required(), mcp.Description("Exact symbol name")),
		mcp.WithArray("repo_ids", mcp.Description("Restrict to these repositories")),
		mcp.WithBoolean("include_usages", mcp.Description("Also return chunks referencing the symbol")),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := argsOf(request)
		defs, err := srv.pipeline.FindSymbol(ctx, strArg(args, "symbol_name"),
			strSliceArg(args, "repo_ids"), boolArg(args, "include_usages"))
		if err != nil {
			return errResult(err)
		}
		return jsonResult(map[string]interface{}{"definitions": defs, "total": len(defs)})
	})
}

// AddGetFileContextTool registers get_file_context.
func AddGetFileContextTool(s *server.MCPServer, srv *Server) {
	tool := mcp.NewTool(
		"get_file_context",
		mcp.WithDescription("Return a file with its chunks, resolved imports, importers, and symbols."),
		mcp.WithString("file_path", mcp.Required(), mcp.Description("Repo-relative file path")),
		mcp.WithString("repo_id", mcp.Description("Repository ID; inferred when the path is unique")),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := argsOf(request)
		fc, err := srv.pipeline.GetFileContext(ctx, strArg(args, "repo_id"), strArg(args, "file_path"))
		if err != nil {
			return errResult(err)
		}
		return jsonResult(fc)
	})
}

// AddGetWorkspaceContextTool registers get_workspace_context.
func AddGetWorkspaceContextTool(s *server.MCPServer, srv *Server) {
	tool := mcp.NewTool(
		"get_workspace_context",
		mcp.WithDescription("Return a monorepo workspace with its dependency graph neighborhood and files."),
		mcp.WithString("workspace_id", mcp.Description("Workspace ID")),
		mcp.WithString("package_name", mcp.Description("Package name, when the ID is unknown")),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := argsOf(request)
		wc, err := srv.pipeline.GetWorkspaceContext(strArg(args, "workspace_id"), strArg(args, "package_name"))
		if err != nil {
			return errResult(err)
		}
		return jsonResult(wc)
	})
}

// AddGetServiceContextTool registers get_service_context.
func AddGetServiceContextTool(s *server.MCPServer, srv *Server) {
	tool := mcp.NewTool(
		"get_service_context",
		mcp.WithDescription("Return a service with its API contracts and associated files."),
		mcp.WithString("service_id", mcp.Required(), mcp.Description("Service ID")),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := argsOf(request)
		sc, err := srv.pipeline.GetServiceContext(strArg(args, "service_id"))
		if err != nil {
			return errResult(err)
		}
		return jsonResult(sc)
	})
}

// AddFindCrossWorkspaceUsagesTool registers find_cross_workspace_usages.
func AddFindCrossWorkspaceUsagesTool(s *server.MCPServer, srv *Server) {
	tool := mcp.NewTool(
		"find_cross_workspace_usages",
		mcp.WithDescription("Trace which workspaces import a monorepo package."),
		mcp.WithString("workspace_id", mcp.Description("Workspace ID")),
		mcp.WithString("package_name", mcp.Description("Package name, when the ID is unknown")),
		mcp.WithBoolean("include_indirect", mcp.Description("Request transitive tracing (currently reported as not implemented)")),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := argsOf(request)
		usages, note, err := srv.pipeline.FindCrossWorkspaceUsages(
			strArg(args, "workspace_id"), strArg(args, "package_name"), boolArg(args, "include_indirect"))
		if err != nil {
			return errResult(err)
		}
		resp := map[string]interface{}{"usages": usages, "total": len(usages)}
		if note != "" {
			resp["note"] = note
		}
		return jsonResult(resp)
	})
}

// AddFindCrossServiceCallsTool registers find_cross_service_calls.
func AddFindCrossServiceCallsTool(s *server.MCPServer, srv *Server) {
	tool := mcp.NewTool(
		"find_cross_service_calls",
		mcp.WithDescription("Trace outbound API calls between services across indexed code."),
		mcp.WithString("source_service_id", mcp.Description("Filter by calling service")),
		mcp.WithString("target_service_id", mcp.Description("Filter by called service")),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := argsOf(request)
		calls, err := srv.pipeline.FindCrossServiceCalls(
			strArg(args, "source_service_id"), strArg(args, "target_service_id"))
		if err != nil {
			return errResult(err)
		}
		return jsonResult(map[string]interface{}{"calls": calls, "total": len(calls)})
	})
}
