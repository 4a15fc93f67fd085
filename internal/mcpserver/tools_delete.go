package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gianged/cindex/internal/cerrors"
)

// invalidEnum builds the validation error destructive and enum-checked
// tools return before any side effects.
func invalidEnum(field, value, suggestion string) error {
	return cerrors.Validation(cerrors.CodeUnknownEnum,
		fmt.Sprintf("invalid %s %q", field, value), suggestion)
}

func needsConfirm(tool string) error {
	return cerrors.Validation(cerrors.CodeNeedsConfirm,
		fmt.Sprintf("%s is destructive and requires confirm=true", tool),
		"Re-run with confirm: true to proceed")
}

// AddDeleteRepositoryTool registers delete_repository. The explicit
// confirm flag is checked before any store mutation.
func AddDeleteRepositoryTool(s *server.MCPServer, srv *Server) {
	tool := mcp.NewTool(
		"delete_repository",
		mcp.WithDescription("Delete repositories and all their indexed data (files, chunks, symbols, workspaces, services, endpoints). Destructive; requires confirm=true."),
		mcp.WithArray("repo_ids", mcp.Required(), mcp.Description("Repository IDs to delete")),
		mcp.WithBoolean("confirm", mcp.Description("Must be true to proceed")),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := argsOf(request)
		repoIDs := strSliceArg(args, "repo_ids")
		if len(repoIDs) == 0 {
			return errResult(cerrors.Validation(cerrors.CodeMissingField, "repo_ids is required", ""))
		}
		if !boolArg(args, "confirm") {
			return errResult(needsConfirm("delete_repository"))
		}

		deleted := make([]string, 0, len(repoIDs))
		for _, id := range repoIDs {
			if _, err := srv.store.GetRepository(id); err != nil {
				return errResult(err)
			}
			if err := srv.store.DeleteRepository(id); err != nil {
				return errResult(err)
			}
			deleted = append(deleted, id)
		}
		return jsonResult(map[string]interface{}{"deleted": deleted, "total": len(deleted)})
	})
}

// AddDeleteDocumentationTool registers delete_documentation.
func AddDeleteDocumentationTool(s *server.MCPServer, srv *Server) {
	tool := mcp.NewTool(
		"delete_documentation",
		mcp.WithDescription("Delete indexed documentation sets by file path. Destructive; requires confirm=true."),
		mcp.WithArray("doc_ids", mcp.Required(), mcp.Description("Documentation file paths to delete (as listed by list_documentation)")),
		mcp.WithBoolean("confirm", mcp.Description("Must be true to proceed")),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := argsOf(request)
		docIDs := strSliceArg(args, "doc_ids")
		if len(docIDs) == 0 {
			return errResult(cerrors.Validation(cerrors.CodeMissingField, "doc_ids is required", ""))
		}
		if !boolArg(args, "confirm") {
			return errResult(needsConfirm("delete_documentation"))
		}

		deleted, err := srv.docIndexer.DeleteDocumentation(docIDs)
		if err != nil {
			return errResult(err)
		}
		return jsonResult(map[string]interface{}{"deleted": deleted})
	})
}
