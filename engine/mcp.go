package engine

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/autofill/booking"
	"github.com/hazyhaar/autofill/kit"
)

// RegisterMCP registers the autofill tools on an MCP server.
func (e *Engine) RegisterMCP(srv *mcp.Server) {
	e.registerFillTool(srv)
	e.registerFillersTool(srv)
	e.registerSnapshotTool(srv)
}

func (e *Engine) registerFillTool(srv *mcp.Server) {
	passenger := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":   map[string]any{"type": "string", "description": "Full name as on the ID card"},
			"age":    map[string]any{"type": "integer", "minimum": 1, "maximum": 120},
			"gender": map[string]any{"type": "string", "description": "male, female or transgender (M, F, T accepted)"},
			"berth":  map[string]any{"type": "string", "description": "Berth preference label or code, e.g. Lower or LB"},
		},
		"required": []any{"name", "age", "gender"},
	}
	tool := &mcp.Tool{
		Name:        ServiceFill,
		Description: "Fill the passenger, contact and payment sections of the open booking page and press Continue. Returns success, a message and the ordered progress log.",
		InputSchema: kit.InputSchema(map[string]any{
			"passengers": map[string]any{"type": "array", "items": passenger, "minItems": 1},
			"contact": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"mobile": map[string]any{"type": "string", "description": "10-digit mobile number"},
					"email":  map[string]any{"type": "string"},
				},
				"required": []any{"mobile", "email"},
			},
			"payment": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"method": map[string]any{"type": "string", "description": "UPI or Cards; omit to skip the payment step"},
					"upiId":  map[string]any{"type": "string"},
				},
			},
		}, []string{"passengers", "contact"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		return e.FillCurrent(ctx, req.(*booking.FillRequest)), nil
	}
	kit.RegisterMCPTool(srv, tool, kit.Chain(e.logTool(ServiceFill))(endpoint), kit.DecodeJSON[booking.FillRequest]())
}

func (e *Engine) registerFillersTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        ServiceFillers,
		Description: "List the site fillers in activation order.",
		InputSchema: kit.InputSchema(map[string]any{}, nil),
	}
	endpoint := func(context.Context, any) (any, error) {
		return FillersResponse{Fillers: e.Fillers()}, nil
	}
	kit.RegisterMCPTool(srv, tool, kit.Chain(e.logTool(ServiceFillers))(endpoint), kit.DecodeJSON[struct{}]())
}

func (e *Engine) registerSnapshotTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        ServiceSnapshot,
		Description: "Read the open page: every visible form control with its current value, and the page text as markdown. Use it to verify a fill or read the site's validation messages.",
		InputSchema: kit.InputSchema(map[string]any{}, nil),
	}
	endpoint := func(ctx context.Context, _ any) (any, error) {
		return e.Snapshot(ctx)
	}
	kit.RegisterMCPTool(srv, tool, kit.Chain(e.logTool(ServiceSnapshot))(endpoint), kit.DecodeJSON[struct{}]())
}

func (e *Engine) logTool(name string) kit.Middleware {
	return func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			log := e.logger.With("tool", name, "duration_ms", time.Since(start).Milliseconds())
			if err != nil {
				log.Warn("engine: mcp tool failed", "error", err)
			} else {
				log.Debug("engine: mcp tool")
			}
			return resp, err
		}
	}
}
