// cindex-mcp is the stdio MCP server exposing cindex's tool surface.
package main

import (
	"context"
	"log"

	"github.com/gianged/cindex/internal/config"
	"github.com/gianged/cindex/internal/mcpserver"
)

func main() {
	cfg, err := config.Load(".cindex")
	if err != nil {
		log.Fatalf("[ERROR] configuration: %v", err)
	}

	srv, err := mcpserver.New(cfg)
	if err != nil {
		log.Fatalf("[ERROR] server setup: %v", err)
	}
	defer srv.Close()

	if err := srv.Serve(context.Background()); err != nil {
		log.Fatalf("[ERROR] serve: %v", err)
	}
}
