package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hazyhaar/autofill/booking"
	"github.com/hazyhaar/autofill/connectivity"
	"github.com/hazyhaar/autofill/kit"
)

// Service names registered on a connectivity router.
const (
	ServiceFill     = "autofill_fill"
	ServiceFillers  = "autofill_fillers"
	ServiceSnapshot = "autofill_snapshot"
)

// FillersResponse lists the registered fillers.
type FillersResponse struct {
	Fillers []string `json:"fillers"`
}

// RegisterConnectivity registers the engine services on router:
//
//	autofill_fill     FillRequest JSON in, FillResult JSON out, run on the configured source
//	autofill_fillers  FillersResponse JSON out
//	autofill_snapshot Snapshot JSON out, read from the configured source
//
// The router is also what POST /rpc/{service} dispatches to.
func (e *Engine) RegisterConnectivity(router *connectivity.Router) {
	e.routerMu.Lock()
	e.router = router
	e.routerMu.Unlock()

	wrap := func(service string, h connectivity.Handler) connectivity.Handler {
		return connectivity.Chain(
			connectivity.Recovery(e.logger),
			connectivity.Logging(e.logger, service),
		)(h)
	}
	router.RegisterLocal(ServiceFill, wrap(ServiceFill, e.handleFill))
	router.RegisterLocal(ServiceFillers, wrap(ServiceFillers, e.handleFillers))
	router.RegisterLocal(ServiceSnapshot, wrap(ServiceSnapshot, e.handleSnapshot))
}

func (e *Engine) handleFill(ctx context.Context, payload []byte) ([]byte, error) {
	var req booking.FillRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("engine: decode fill request: %w", err)
	}
	if kit.GetTransport(ctx) == "cli" {
		ctx = kit.WithTransport(ctx, "connectivity")
	}
	return json.Marshal(e.FillCurrent(ctx, &req))
}

func (e *Engine) handleFillers(context.Context, []byte) ([]byte, error) {
	return json.Marshal(FillersResponse{Fillers: e.Fillers()})
}

func (e *Engine) handleSnapshot(ctx context.Context, _ []byte) ([]byte, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(snap)
}

func (e *Engine) connectivityRouter() *connectivity.Router {
	e.routerMu.RLock()
	defer e.routerMu.RUnlock()
	return e.router
}
