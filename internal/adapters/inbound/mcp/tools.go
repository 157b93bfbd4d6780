package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/promptbroker/promptbroker/internal/application"
	"github.com/promptbroker/promptbroker/internal/domain"
	"github.com/promptbroker/promptbroker/internal/domain/routing"
)

// Per-tool deadlines. Routing is pure computation and reload is bounded
// file I/O, so anything slower than this is a bug worth surfacing.
const (
	resolveTimeout = 5 * time.Second
	reloadTimeout  = 30 * time.Second
	defaultTimeout = 1 * time.Second
)

// registerTools binds all broker tools on the given server. get_profile
// and resolve_prompt are aliases with identical semantics.
func registerTools(s *server.MCPServer, svc *application.BrokerService, logger *zap.Logger) {
	resolve := handleResolve(svc, logger)
	for _, name := range []string{"resolve_prompt", "get_profile"} {
		s.AddTool(
			mcplib.NewTool(name,
				mcplib.WithDescription("Select the single best-matching instruction profile for a prompt and return it with the scoring trace"),
				mcplib.WithString("prompt",
					mcplib.Required(),
					mcplib.Description("The free-form natural-language prompt to route"),
				),
				mcplib.WithObject("metadata",
					mcplib.Description("Optional overrides: domain, intent, sensitivity, priority, audience, language, complexity, context_tags, capabilities, profile_name"),
				),
			),
			resolve,
		)
	}

	s.AddTool(
		mcplib.NewTool("list_profiles",
			mcplib.WithDescription("List all catalogued profiles with their routing tags"),
		),
		handleListProfiles(svc),
	)

	s.AddTool(
		mcplib.NewTool("reload_profiles",
			mcplib.WithDescription("Reload the profile catalog from disk; in-flight requests keep their snapshot"),
		),
		handleReload(svc, logger),
	)

	s.AddTool(
		mcplib.NewTool("get_checklist",
			mcplib.WithDescription("Return the checklist items of a profile"),
			mcplib.WithString("profile_name",
				mcplib.Required(),
				mcplib.Description("Name of the profile"),
			),
		),
		handleChecklist(svc),
	)

	s.AddTool(
		mcplib.NewTool("get_profile_metadata",
			mcplib.WithDescription("Return a profile's full record minus the instructions and checklist bodies"),
			mcplib.WithString("profile_name",
				mcplib.Required(),
				mcplib.Description("Name of the profile"),
			),
		),
		handleProfileMetadata(svc),
	)

	s.AddTool(
		mcplib.NewTool("find_profiles_by_capability",
			mcplib.WithDescription("Find profiles by capability tag, with match scores"),
			mcplib.WithString("capability",
				mcplib.Required(),
				mcplib.Description("Capability tag to search for"),
			),
		),
		handleFindByCapability(svc),
	)

	s.AddTool(
		mcplib.NewTool("find_profiles_by_domain",
			mcplib.WithDescription("Find profiles by domain tag, with match scores"),
			mcplib.WithString("domain",
				mcplib.Required(),
				mcplib.Description("Domain tag to search for"),
			),
		),
		handleFindByDomain(svc),
	)

	s.AddTool(
		mcplib.NewTool("get_registry_summary",
			mcplib.WithDescription("Return catalog totals and the union of all domains and capabilities"),
		),
		handleSummary(svc),
	)
}

type routingPayload struct {
	Score       int            `json:"score"`
	Consistency float64        `json:"consistency"`
	Reason      routing.Reason `json:"reason"`
	Trace       routing.Trace  `json:"trace"`
}

type resolvePayload struct {
	Profile  *domain.Profile         `json:"profile"`
	Metadata domain.EnhancedMetadata `json:"metadata"`
	Routing  routingPayload          `json:"routing"`
}

func handleResolve(svc *application.BrokerService, logger *zap.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		prompt, err := request.RequireString("prompt")
		if err != nil {
			return errorResult(domain.KindInvalidArgument, err.Error()), nil
		}
		overrides, _ := request.GetArguments()["metadata"].(map[string]any)

		result, err := runWithTimeout(ctx, resolveTimeout, func(ctx context.Context) (*routing.Result, error) {
			return svc.Resolve(ctx, prompt, overrides)
		})
		if err != nil {
			logger.Debug("resolve failed", zap.Error(err))
			return errorResult(domain.KindOf(err), err.Error()), nil
		}

		return jsonResult(resolvePayload{
			Profile:  result.Profile,
			Metadata: result.Metadata,
			Routing: routingPayload{
				Score:       result.Score,
				Consistency: result.Consistency,
				Reason:      result.Reason,
				Trace:       result.Trace,
			},
		})
	}
}

func handleListProfiles(svc *application.BrokerService) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		summaries, err := runWithTimeout(ctx, defaultTimeout, func(context.Context) ([]application.ProfileSummary, error) {
			return svc.ListProfiles(), nil
		})
		if err != nil {
			return errorResult(domain.KindOf(err), err.Error()), nil
		}
		return jsonResult(summaries)
	}
}

type reloadPayload struct {
	Success        bool     `json:"success"`
	ProfilesLoaded int      `json:"profiles_loaded"`
	ProfileNames   []string `json:"profile_names"`
	Errors         []string `json:"errors"`
	Warnings       []string `json:"warnings"`
}

func handleReload(svc *application.BrokerService, logger *zap.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		report, err := runWithTimeout(ctx, reloadTimeout, svc.Reload)
		if err != nil {
			// Never fails at this layer: surface the failure in the payload.
			logger.Error("reload failed", zap.Error(err))
			return jsonResult(reloadPayload{
				Success:      false,
				ProfileNames: []string{},
				Errors:       []string{err.Error()},
				Warnings:     []string{},
			})
		}
		return jsonResult(reloadPayload{
			Success:        report.Success,
			ProfilesLoaded: report.ProfilesLoaded,
			ProfileNames:   coalesce(report.ProfileNames),
			Errors:         coalesce(report.Errors),
			Warnings:       coalesce(report.Warnings),
		})
	}
}

func handleChecklist(svc *application.BrokerService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		name, err := request.RequireString("profile_name")
		if err != nil {
			return errorResult(domain.KindInvalidArgument, err.Error()), nil
		}
		payload, err := runWithTimeout(ctx, defaultTimeout, func(context.Context) (*application.ChecklistPayload, error) {
			return svc.Checklist(name)
		})
		if err != nil {
			return errorResult(domain.KindOf(err), err.Error()), nil
		}
		return jsonResult(payload)
	}
}

func handleProfileMetadata(svc *application.BrokerService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		name, err := request.RequireString("profile_name")
		if err != nil {
			return errorResult(domain.KindInvalidArgument, err.Error()), nil
		}
		meta, err := runWithTimeout(ctx, defaultTimeout, func(context.Context) (*domain.Profile, error) {
			return svc.ProfileMetadata(name)
		})
		if err != nil {
			return errorResult(domain.KindOf(err), err.Error()), nil
		}
		return jsonResult(meta)
	}
}

func handleFindByCapability(svc *application.BrokerService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		capability, err := request.RequireString("capability")
		if err != nil {
			return errorResult(domain.KindInvalidArgument, err.Error()), nil
		}
		matches, err := runWithTimeout(ctx, defaultTimeout, func(context.Context) (*application.TagMatches, error) {
			return svc.FindByCapability(capability)
		})
		if err != nil {
			return errorResult(domain.KindOf(err), err.Error()), nil
		}
		return jsonResult(matches)
	}
}

func handleFindByDomain(svc *application.BrokerService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		dom, err := request.RequireString("domain")
		if err != nil {
			return errorResult(domain.KindInvalidArgument, err.Error()), nil
		}
		matches, err := runWithTimeout(ctx, defaultTimeout, func(context.Context) (*application.TagMatches, error) {
			return svc.FindByDomain(dom)
		})
		if err != nil {
			return errorResult(domain.KindOf(err), err.Error()), nil
		}
		return jsonResult(matches)
	}
}

func handleSummary(svc *application.BrokerService) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		summary, err := runWithTimeout(ctx, defaultTimeout, func(context.Context) (domain.Summary, error) {
			return svc.Summary(), nil
		})
		if err != nil {
			return errorResult(domain.KindOf(err), err.Error()), nil
		}
		return jsonResult(summary)
	}
}

// runWithTimeout bounds one tool call. The work runs in its own goroutine
// so a stuck call cannot block the dispatcher past its deadline.
func runWithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn(ctx)
		done <- outcome{v, err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, domain.E(domain.KindTimeout, "request exceeded %s deadline", d)
	case o := <-done:
		return o.value, o.err
	}
}

// jsonResult marshals v to JSON and returns it as a text content result.
func jsonResult(v any) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(string(data))},
	}, nil
}

type errorPayload struct {
	Kind    domain.Kind `json:"kind"`
	Details string      `json:"details"`
}

// errorResult returns a tool error carrying the failure kind so hosts can
// branch on it without parsing the message.
func errorResult(kind domain.Kind, details string) *mcplib.CallToolResult {
	data, err := json.Marshal(errorPayload{Kind: kind, Details: details})
	if err != nil {
		data = []byte(fmt.Sprintf(`{"kind":%q,"details":"marshal failure"}`, kind))
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(string(data))},
		IsError: true,
	}
}

func coalesce(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
