package mcpserver

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gianged/cindex/internal/indexing"
	"github.com/gianged/cindex/internal/types"
)

var validRepoKinds = map[string]bool{
	"monolithic": true, "monorepo": true, "microservice": true,
	"library": true, "reference": true, "documentation": true,
}

// AddIndexRepositoryTool registers index_repository. During the run
// the handler streams structured progress notifications on the same
// channel the tool result arrives on.
func AddIndexRepositoryTool(s *server.MCPServer, srv *Server) {
	tool := mcp.NewTool(
		"index_repository",
		mcp.WithDescription("Index or re-index a repository with progress reporting. Incremental by default: unchanged files are skipped by content hash."),
		mcp.WithString("repo_path", mcp.Required(), mcp.Description("Absolute path of the repository root")),
		mcp.WithString("repo_id", mcp.Description("Stable repository ID (defaults to the root basename)")),
		mcp.WithString("name", mcp.Description("Human-readable name")),
		mcp.WithString("kind", mcp.Description("Repository kind: monolithic, monorepo, microservice, library, reference, documentation")),
		mcp.WithString("version", mcp.Description("Version tag, used by reference-repo no-op detection")),
		mcp.WithString("upstream_url", mcp.Description("Upstream URL")),
		mcp.WithBoolean("force_reindex", mcp.Description("Bypass the incremental content-hash skip")),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := argsOf(request)

		kind := strArg(args, "kind")
		if kind != "" && !validRepoKinds[kind] {
			return errResult(invalidEnum("kind", kind,
				"Use one of monolithic, monorepo, microservice, library, reference, documentation"))
		}

		opts := indexing.Options{
			RepoPath:     strArg(args, "repo_path"),
			RepoID:       strArg(args, "repo_id"),
			Name:         strArg(args, "name"),
			Kind:         types.RepoKind(kind),
			Version:      strArg(args, "version"),
			UpstreamURL:  strArg(args, "upstream_url"),
			ForceReindex: boolArg(args, "force_reindex"),
			Progress:     progressNotifier(ctx, s),
		}

		stats, err := srv.orch.IndexRepository(ctx, opts)
		if err != nil {
			return errResult(err)
		}
		return jsonResult(stats)
	})
}

// progressNotifier emits each indexing progress event as a
// notifications/message with the cindex.indexing logger envelope.
func progressNotifier(ctx context.Context, s *server.MCPServer) indexing.Reporter {
	return func(p indexing.Progress) {
		pct := 0.0
		if p.Total > 0 {
			pct = 100 * float64(p.Current) / float64(p.Total)
		}
		_ = s.SendNotificationToClient(ctx, "notifications/message", map[string]interface{}{
			"level":  "info",
			"logger": "cindex.indexing",
			"data": map[string]interface{}{
				"type":        "progress",
				"stage":       p.Stage,
				"current":     p.Current,
				"total":       p.Total,
				"percentage":  pct,
				"message":     p.Message,
				"eta_seconds": p.ETASeconds,
				"timestamp":   time.Now().UTC().Format(time.RFC3339),
			},
		})
	}
}

// AddIndexDocumentationTool registers index_documentation.
func AddIndexDocumentationTool(s *server.MCPServer, srv *Server) {
	tool := mcp.NewTool(
		"index_documentation",
		mcp.WithDescription("Index a markdown collection (files or directories) for search_documentation."),
		mcp.WithArray("paths", mcp.Required(), mcp.Description("Files or directories to index")),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := argsOf(request)
		stats, err := srv.docIndexer.IndexDocumentation(ctx, strSliceArg(args, "paths"))
		if err != nil {
			return errResult(err)
		}
		return jsonResult(stats)
	})
}
