// Package mcpserver exposes cindex's tool RPC surface over stdio
// (line-framed JSON-RPC via mark3labs/mcp-go), one composable
// Add*Tool registration function per tool.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gianged/cindex/internal/backend"
	"github.com/gianged/cindex/internal/cerrors"
	"github.com/gianged/cindex/internal/config"
	"github.com/gianged/cindex/internal/indexing"
	"github.com/gianged/cindex/internal/logging"
	"github.com/gianged/cindex/internal/parse"
	"github.com/gianged/cindex/internal/retrieval"
	"github.com/gianged/cindex/internal/store"
)

// Server bundles everything the tool handlers need.
type Server struct {
	cfg        *config.Config
	store      *store.Store
	docIndex   *store.DocIndex
	client     backend.Client
	pipeline   *retrieval.Pipeline
	orch       *indexing.Orchestrator
	docIndexer *indexing.DocIndexer
	log        *logging.Logger
	mcp        *server.MCPServer
}

// New wires the store, backend client, pipelines and every tool.
func New(cfg *config.Config) (*Server, error) {
	st, err := store.Open(cfg.Store.Path, cfg.Embedding.Dimensions, cfg.Store.MaxConnections)
	if err != nil {
		return nil, err
	}

	docIndexDir := filepath.Join(filepath.Dir(cfg.Store.Path), "docindex")
	docIndex, err := store.OpenDocIndex(docIndexDir)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("open documentation index: %w", err)
	}

	client := backend.New(cfg.Embedding.BackendHost,
		time.Duration(cfg.Embedding.BackendTimeoutSec)*time.Second, cfg.Embedding.RetryCount)

	pipeline, err := retrieval.New(st, client, cfg, docIndex, nil)
	if err != nil {
		docIndex.Close()
		st.Close()
		return nil, err
	}

	s := &Server{
		cfg:        cfg,
		store:      st,
		docIndex:   docIndex,
		client:     client,
		pipeline:   pipeline,
		orch:       indexing.New(st, client, parse.DefaultRegistry(), cfg, nil),
		docIndexer: indexing.NewDocIndexer(st, docIndex, client, cfg, nil),
		log:        logging.New("cindex.mcp"),
	}

	s.mcp = server.NewMCPServer("cindex-mcp", "1.0.0", server.WithToolCapabilities(true))

	AddSearchCodebaseTool(s.mcp, s)
	AddSearchReferencesTool(s.mcp, s)
	AddSearchDocumentationTool(s.mcp, s)
	AddSearchAPIContractsTool(s.mcp, s)
	AddFindSymbolDefinitionTool(s.mcp, s)
	AddGetFileContextTool(s.mcp, s)
	AddGetWorkspaceContextTool(s.mcp, s)
	AddGetServiceContextTool(s.mcp, s)
	AddIndexRepositoryTool(s.mcp, s)
	AddIndexDocumentationTool(s.mcp, s)
	AddListIndexedReposTool(s.mcp, s)
	AddListWorkspacesTool(s.mcp, s)
	AddListServicesTool(s.mcp, s)
	AddListDocumentationTool(s.mcp, s)
	AddFindCrossWorkspaceUsagesTool(s.mcp, s)
	AddFindCrossServiceCallsTool(s.mcp, s)
	AddDeleteRepositoryTool(s.mcp, s)
	AddDeleteDocumentationTool(s.mcp, s)

	return s, nil
}

// Serve runs the stdio server until SIGINT/SIGTERM or a server error.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("serving MCP on stdio")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		s.log.Info("received %v, shutting down", sig)
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases every resource the server owns.
func (s *Server) Close() {
	s.pipeline.Close()
	if err := s.docIndex.Close(); err != nil {
		s.log.Warn("close documentation index: %v", err)
	}
	_ = s.client.Close()
	if err := s.store.Close(); err != nil {
		s.log.Warn("close store: %v", err)
	}
}

// jsonResult marshals v and wraps it as a text tool result, the
// mcp-go convention for structured responses.
func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errResult converts an error into a typed tool error response: cindex
// errors keep their code and suggestion, everything else passes through
// as a plain message. Tool-level errors never abort the server.
func errResult(err error) (*mcp.CallToolResult, error) {
	var cerr *cerrors.Error
	if errors.As(err, &cerr) {
		payload, merr := json.Marshal(map[string]string{
			"category":   string(cerr.Category),
			"code":       cerr.Code,
			"message":    cerr.Message,
			"suggestion": cerr.Suggestion,
		})
		if merr == nil {
			return mcp.NewToolResultError(string(payload)), nil
		}
	}
	return mcp.NewToolResultError(err.Error()), nil
}
