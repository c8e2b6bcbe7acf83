// Package connectivity routes named service calls to an in-process handler
// or to a remote peer, as decided by a SQLite routes table.
//
// The autofill engine registers its operations locally. A machine without a
// browser can forward the same calls to the machine that holds the
// logged-in tab by flipping one row:
//
//	router := connectivity.New()
//	router.RegisterTransport("http", connectivity.HTTPFactory())
//	eng.RegisterConnectivity(router)
//	go router.Watch(ctx, db, time.Second)
//
//	resp, err := router.Call(ctx, "autofill_fill", payload)
package connectivity

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Handler is a service function: bytes in, bytes out.
type Handler func(ctx context.Context, payload []byte) ([]byte, error)

// TransportFactory builds a Handler for a remote endpoint from the route's
// config JSON. The close function, if any, runs when the route is replaced
// or removed.
type TransportFactory func(endpoint string, config json.RawMessage) (handler Handler, close func(), err error)

type route struct {
	Service  string
	Strategy string
	Endpoint string
	Config   json.RawMessage
}

func (rt route) fingerprint() string {
	return rt.Strategy + "|" + rt.Endpoint + "|" + string(rt.Config)
}

type remote struct {
	handler Handler
	close   func()
}

// Router dispatches calls. Safe for concurrent use.
type Router struct {
	mu        sync.RWMutex
	local     map[string]Handler
	remotes   map[string]remote
	routes    map[string]route
	factories map[string]TransportFactory
	logger    *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the router logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// New returns a router with no routes.
func New(opts ...Option) *Router {
	r := &Router{
		local:     make(map[string]Handler),
		remotes:   make(map[string]remote),
		routes:    make(map[string]route),
		factories: make(map[string]TransportFactory),
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// RegisterLocal registers the in-process handler of a service.
func (r *Router) RegisterLocal(service string, h Handler) {
	r.mu.Lock()
	r.local[service] = h
	r.mu.Unlock()
}

// RegisterTransport registers the factory used for routes whose strategy
// equals protocol.
func (r *Router) RegisterTransport(protocol string, f TransportFactory) {
	r.mu.Lock()
	r.factories[protocol] = f
	r.mu.Unlock()
}

// Services lists every locally registered service, sorted.
func (r *Router) Services() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.local))
	for name := range r.local {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Call dispatches a call: a noop route succeeds with no response, a built
// remote route wins over the local handler, and a service with neither is
// an *ErrServiceNotFound.
func (r *Router) Call(ctx context.Context, service string, payload []byte) ([]byte, error) {
	r.mu.RLock()
	rem, isRemote := r.remotes[service]
	h := r.local[service]
	rt, routed := r.routes[service]
	r.mu.RUnlock()

	switch {
	case routed && rt.Strategy == "noop":
		r.logger.DebugContext(ctx, "connectivity: noop", "service", service)
		return nil, nil
	case isRemote:
		r.logger.DebugContext(ctx, "connectivity: remote", "service", service, "strategy", rt.Strategy, "endpoint", rt.Endpoint)
		return rem.handler(ctx, payload)
	case h != nil:
		r.logger.DebugContext(ctx, "connectivity: local", "service", service)
		return h(ctx, payload)
	}
	return nil, &ErrServiceNotFound{Service: service}
}

// Reload reads the routes table and rebuilds the remote handlers. Handlers
// of unchanged routes are kept; replaced or removed ones are closed. A
// route whose strategy has no factory, or whose factory fails, is skipped
// and logged.
func (r *Router) Reload(ctx context.Context, db *sql.DB) error {
	next, err := loadRoutes(ctx, db)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	built := make(map[string]remote, len(next))
	carried := make(map[string]bool)
	for name, rt := range next {
		if rt.Strategy == "local" || rt.Strategy == "noop" {
			continue
		}
		if old, ok := r.routes[name]; ok && old.fingerprint() == rt.fingerprint() {
			if cur, ok := r.remotes[name]; ok {
				built[name] = cur
				carried[name] = true
				continue
			}
		}
		factory, ok := r.factories[rt.Strategy]
		if !ok {
			r.logger.Warn("connectivity: route skipped", "error", &ErrNoFactory{Service: name, Strategy: rt.Strategy})
			continue
		}
		h, closeFn, err := factory(rt.Endpoint, rt.Config)
		if err != nil {
			r.logger.Error("connectivity: route skipped", "error",
				&ErrFactoryFailed{Service: name, Strategy: rt.Strategy, Endpoint: rt.Endpoint, Cause: err})
			continue
		}
		built[name] = remote{handler: h, close: closeFn}
		r.logger.Info("connectivity: route built", "service", name, "strategy", rt.Strategy, "endpoint", rt.Endpoint)
	}

	for name, old := range r.remotes {
		if old.close != nil && !carried[name] {
			old.close()
		}
	}

	r.remotes = built
	r.routes = next
	r.logger.Info("connectivity: routes reloaded", "total", len(next), "remote", len(built))
	return nil
}

func loadRoutes(ctx context.Context, db *sql.DB) (map[string]route, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT service_name, strategy, COALESCE(endpoint, ''), COALESCE(config, '{}') FROM routes`)
	if err != nil {
		return nil, fmt.Errorf("connectivity: query routes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]route)
	for rows.Next() {
		var rt route
		var cfg string
		if err := rows.Scan(&rt.Service, &rt.Strategy, &rt.Endpoint, &cfg); err != nil {
			return nil, fmt.Errorf("connectivity: scan route: %w", err)
		}
		rt.Config = json.RawMessage(cfg)
		out[rt.Service] = rt
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("connectivity: rows: %w", err)
	}
	return out, nil
}

// Close releases every remote handler and forgets the routes.
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rem := range r.remotes {
		if rem.close != nil {
			rem.close()
		}
	}
	r.remotes = make(map[string]remote)
	r.routes = make(map[string]route)
	return nil
}
