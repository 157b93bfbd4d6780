// Package mcp exposes the prompt broker over the Model Context Protocol.
// The mcp-go server owns the stdio framing, the initialize handshake, and
// tools/list + tools/call dispatch; this package binds the broker's
// operations to tool names.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/promptbroker/promptbroker/internal/application"
)

// ServerName is the name advertised in the initialize response.
const ServerName = "mcp-prompt-broker"

// NewPromptBrokerServer creates an MCP server with all broker tools and
// resources registered.
func NewPromptBrokerServer(svc *application.BrokerService, version string, logger *zap.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	registerTools(s, svc, logger)
	registerResources(s, svc)

	return s
}
