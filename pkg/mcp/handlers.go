package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/uniplat/condc/pkg/directive"
	"github.com/uniplat/condc/pkg/inspect"
	"github.com/uniplat/condc/pkg/transform"
)

// transformerFor returns the shared transformer, or a platform-override
// instance when the call asks for a different target.
func (s *Server) transformerFor(platform string) *transform.Transformer {
	if platform == "" || strings.EqualFold(platform, s.tr.Platform()) {
		return s.tr
	}
	opts := s.opts
	opts.Platform = platform
	return transform.New(opts, nil)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func (s *Server) handleTransformSource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := req.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id := req.GetString("id", "source.vue")
	tr := s.transformerFor(req.GetString("platform", ""))

	// Rewrite, not Transform: the agent sent this text explicitly, so the
	// file filter does not apply.
	out, changed := code, false
	if res, ok := tr.Rewrite(code, id); ok {
		out, changed = res.Code, true
	}

	return jsonResult(map[string]any{
		"platform": tr.Platform(),
		"changed":  changed,
		"code":     out,
	})
}

func (s *Server) handleListDirectives(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := req.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id := req.GetString("id", "source.vue")

	records := inspect.ScanSource(id, code, s.opts.Marker)
	if records == nil {
		records = []inspect.Record{}
	}
	return jsonResult(records)
}

func (s *Server) handleEvaluateCondition(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	expression, err := req.RequireString("expression")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	platform := req.GetString("platform", s.tr.Platform())

	kind := directive.Ifdef
	switch k := req.GetString("kind", "ifdef"); k {
	case "ifdef":
	case "ifndef":
		kind = directive.Ifndef
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown kind: %q", k)), nil
	}

	return jsonResult(map[string]any{
		"platform": platform,
		"matched":  directive.Eval(expression, platform),
		"keep":     directive.ShouldKeep(kind, expression, platform, s.opts.IsTest),
	})
}

func (s *Server) handleListPlatforms(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(directive.KnownPlatforms)
}
