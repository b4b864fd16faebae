package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/demystify/internal/debug"
	"github.com/standardbeagle/demystify/internal/mcp"
)

func mcpCommand(c *cli.Context) error {
	// stdio carries the protocol
	debug.SetMCPMode(true)

	cfg, err := loadConfigWithOverrides(c, ".")
	if err != nil {
		return debug.Fatal("failed to load config: %v\n", err)
	}

	logger := mcp.NewDiagnosticLogger(true)
	server := mcp.NewServer(cfg, logger)
	defer server.Shutdown()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil && ctx.Err() == nil && err != context.Canceled {
		return debug.Fatal("MCP server error: %v\n", err)
	}
	logger.Printf("Server shutdown completed")
	return nil
}
