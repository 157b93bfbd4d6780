package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/promptbroker/promptbroker/internal/application"
)

// registerResources exposes the catalog on the MCP resource surface:
// the registry summary as JSON and each profile's instructions as
// markdown via a resource template.
func registerResources(s *server.MCPServer, svc *application.BrokerService) {
	s.AddResource(
		mcplib.NewResource(
			"promptbroker://summary",
			"Registry Summary",
			mcplib.WithResourceDescription("Catalog totals and the union of all domains and capabilities"),
			mcplib.WithMIMEType("application/json"),
		),
		handleSummaryResource(svc),
	)

	s.AddResourceTemplate(
		mcplib.NewResourceTemplate(
			"promptbroker://profiles/{name}",
			"Profile Instructions",
			mcplib.WithTemplateDescription("Guidance text of a catalogued profile"),
			mcplib.WithTemplateMIMEType("text/markdown"),
		),
		handleProfileResource(svc),
	)
}

func handleSummaryResource(svc *application.BrokerService) server.ResourceHandlerFunc {
	return func(_ context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		data, err := json.MarshalIndent(svc.Summary(), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling summary: %w", err)
		}
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      "promptbroker://summary",
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	}
}

func handleProfileResource(svc *application.BrokerService) server.ResourceTemplateHandlerFunc {
	return func(_ context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		name, ok := request.Params.Arguments["name"].(string)
		if !ok || name == "" {
			return nil, fmt.Errorf("profile name is required")
		}

		instructions, err := svc.Instructions(name)
		if err != nil {
			return nil, fmt.Errorf("reading profile: %w", err)
		}

		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      request.Params.URI,
				MIMEType: "text/markdown",
				Text:     instructions,
			},
		}, nil
	}
}
