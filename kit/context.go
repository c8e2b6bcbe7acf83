package kit

import "context"

type contextKey string

// Request metadata carried through a fill. Transport is one of "http",
// "mcp", "connectivity" or "cli".
const (
	TransportKey  contextKey = "autofill_transport"
	TraceIDKey    contextKey = "autofill_trace_id"
	RemoteAddrKey contextKey = "autofill_remote_addr"
)

func value(ctx context.Context, k contextKey, fallback string) string {
	if v, ok := ctx.Value(k).(string); ok && v != "" {
		return v
	}
	return fallback
}

func WithTransport(ctx context.Context, t string) context.Context {
	return context.WithValue(ctx, TransportKey, t)
}

// GetTransport reports "cli" for calls made in-process.
func GetTransport(ctx context.Context) string { return value(ctx, TransportKey, "cli") }

func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, TraceIDKey, id)
}

func GetTraceID(ctx context.Context) string { return value(ctx, TraceIDKey, "") }

func WithRemoteAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, RemoteAddrKey, addr)
}

func GetRemoteAddr(ctx context.Context) string { return value(ctx, RemoteAddrKey, "") }
