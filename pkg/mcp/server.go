// Package mcp exposes the conditional-compilation transform to editor
// agents over the Model Context Protocol: transform a snippet for a
// platform, inventory its directives, evaluate a condition, list targets.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/uniplat/condc/pkg/mcplog"
	"github.com/uniplat/condc/pkg/transform"
)

const serverVersion = "0.1.0-dev"

// Server is the MCP server for condc.
type Server struct {
	mcpServer *server.MCPServer
	opts      transform.Options
	tr        *transform.Transformer
	logger    *mcplog.Logger // nil disables tool-call logging
}

// NewServer creates an MCP server whose tools transform with the given
// options. Tool calls may override the platform per call.
func NewServer(opts transform.Options, logger *mcplog.Logger) *Server {
	s := &Server{
		opts:   opts,
		tr:     transform.New(opts, slog.Default()),
		logger: logger,
	}

	serverOpts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if logger != nil {
		serverOpts = append(serverOpts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}

	s.mcpServer = server.NewMCPServer("condc", serverVersion, serverOpts...)
	s.mcpServer.AddTools(
		server.ServerTool{Tool: transformSourceTool(), Handler: s.handleTransformSource},
		server.ServerTool{Tool: listDirectivesTool(), Handler: s.handleListDirectives},
		server.ServerTool{Tool: evaluateConditionTool(), Handler: s.handleEvaluateCondition},
		server.ServerTool{Tool: listPlatformsTool(), Handler: s.handleListPlatforms},
	)
	return s
}

// ServeStdio serves MCP over stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
