// Package api exposes the administrative HTTP surface.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourname/hardpoint-mm/internal/match"
	"github.com/yourname/hardpoint-mm/internal/ws"
	"github.com/yourname/hardpoint-mm/pkg/logger"
	"github.com/yourname/hardpoint-mm/pkg/types"
)

type router struct {
	base context.Context
	h    *ws.Hub
	mm   *match.Matchmaker
	log  logger.Logger
}

// NewRouter wires the routes. Simulation loops started over HTTP run under
// ctx.
func NewRouter(ctx context.Context, h *ws.Hub, mm *match.Matchmaker) http.Handler {
	r := &router{base: ctx, h: h, mm: mm, log: logger.Named("api")}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)

	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())

	mux.Route("/api", func(api chi.Router) {
		api.Get("/stats", r.handleStats)
		api.Get("/players", r.handlePlayers)
		api.Get("/tree", r.handleTree)
		api.Get("/matches", r.handleMatches)
		api.Post("/player/add", r.handleAdd)
		api.Delete("/player/delete/{id}", r.handleDelete)
		api.Post("/simulation/start", r.handleStart)
		api.Post("/simulation/stop", r.handleStop)
		api.Post("/simulation/speed", r.handleSpeed)
	})
	mux.Get("/ws", r.h.ServeWS)

	return mux
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (r *router) writeError(w http.ResponseWriter, req *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, match.ErrInvalidCandidate), errors.Is(err, match.ErrInvalidSpeed):
		status = http.StatusBadRequest
	case errors.Is(err, match.ErrNotFound):
		status = http.StatusNotFound
	default:
		r.log.Error(req.Context(), "request failed", logger.String("path", req.URL.Path), logger.Error(err))
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func (r *router) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, r.mm.Stats())
}

func (r *router) handlePlayers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, r.mm.Engine().Players())
}

func (r *router) handleTree(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, r.mm.Engine().TreeSnapshot())
}

func (r *router) handleMatches(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, r.mm.Engine().History())
}

func (r *router) handleAdd(w http.ResponseWriter, req *http.Request) {
	var p types.JoinRequest
	if err := json.NewDecoder(req.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body: " + err.Error()})
		return
	}
	adm, err := r.mm.AddPlayer(req.Context(), p)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "player": adm.Player})
}

func (r *router) handleDelete(w http.ResponseWriter, req *http.Request) {
	if _, err := r.mm.RemovePlayer(req.Context(), chi.URLParam(req, "id")); err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (r *router) handleStart(w http.ResponseWriter, _ *http.Request) {
	started := r.mm.Start(r.base)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "changed": started})
}

func (r *router) handleStop(w http.ResponseWriter, _ *http.Request) {
	stopped := r.mm.Stop()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "changed": stopped})
}

func (r *router) handleSpeed(w http.ResponseWriter, req *http.Request) {
	var p struct {
		Speed *float64 `json:"speed"`
	}
	if err := json.NewDecoder(req.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body: " + err.Error()})
		return
	}
	if p.Speed == nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing speed"})
		return
	}
	if err := r.mm.SetSpeed(*p.Speed); err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "speed": r.mm.Speed()})
}
