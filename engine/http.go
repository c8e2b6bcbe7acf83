package engine

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/autofill/booking"
	"github.com/hazyhaar/autofill/connectivity"
	"github.com/hazyhaar/autofill/shield"
)

// RegisterHTTP mounts the engine API on r behind the shield stack:
//
//	GET  /health
//	GET  /api/fillers
//	POST /api/fill          FillRequest in, FillResult out
//	GET  /api/snapshot      form fields and page text of the current page
//	POST /rpc/{service}     raw connectivity call, for forwarding peers
func (e *Engine) RegisterHTTP(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(shield.DefaultStack()...)
		r.Get("/health", e.handleHealth)
		r.Get("/api/fillers", e.handleListFillers)
		r.Post("/api/fill", e.handleHTTPFill)
		r.Get("/api/snapshot", e.handleHTTPSnapshot)
		r.Post("/rpc/{service}", e.handleRPC)
	})
}

func (e *Engine) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"fillers": len(e.Fillers()),
		"source":  e.source != nil,
	})
}

func (e *Engine) handleListFillers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, FillersResponse{Fillers: e.Fillers()})
}

func (e *Engine) handleHTTPFill(w http.ResponseWriter, r *http.Request) {
	var req booking.FillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, booking.Failed("invalid request body", nil))
		return
	}
	writeJSON(w, http.StatusOK, e.FillCurrent(r.Context(), &req))
}

func (e *Engine) handleHTTPSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := e.Snapshot(r.Context())
	switch {
	case errors.Is(err, ErrNoSource):
		jsonErr(w, err.Error(), http.StatusNotFound)
	case err != nil:
		shield.GetLogger(r.Context()).Warn("engine: snapshot failed", "error", err)
		jsonErr(w, err.Error(), http.StatusBadGateway)
	default:
		writeJSON(w, http.StatusOK, snap)
	}
}

func (e *Engine) handleRPC(w http.ResponseWriter, r *http.Request) {
	router := e.connectivityRouter()
	if router == nil {
		jsonErr(w, "connectivity not enabled", http.StatusNotFound)
		return
	}
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return
	}

	service := chi.URLParam(r, "service")
	resp, err := router.Call(r.Context(), service, payload)
	if err != nil {
		var snf *connectivity.ErrServiceNotFound
		if errors.As(err, &snf) {
			jsonErr(w, err.Error(), http.StatusNotFound)
			return
		}
		shield.GetLogger(r.Context()).Warn("engine: rpc failed", "service", service, "error", err)
		jsonErr(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if len(resp) == 0 {
		resp = []byte("null")
	}
	w.Write(resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonErr(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}
