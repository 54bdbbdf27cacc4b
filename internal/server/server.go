// Package server exposes the health and queue depth endpoints shared by both processes.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/fpt/ping-relay/internal/repository"
	"github.com/fpt/ping-relay/pkg/logger"
)

// Options describes what the endpoints report on.
type Options struct {
	// Service names the process in /health.
	Service string
	// Queues are the queues /queues/{name} may report on.
	Queues []repository.Queue
	// GatewayState, when set, reports the gateway connection state; /health is unhealthy unless
	// it returns "connected".
	GatewayState func() string
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Gateway string `json:"gateway,omitempty"`
}

type depthResponse struct {
	Queue string `json:"queue"`
	Depth int    `json:"depth"`
}

// NewRouter builds the admin routes.
func NewRouter(opts Options) *mux.Router {
	queues := make(map[string]repository.Queue, len(opts.Queues))
	for _, q := range opts.Queues {
		queues[q.Name()] = q
	}

	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok", Service: opts.Service}
		code := http.StatusOK
		if opts.GatewayState != nil {
			resp.Gateway = opts.GatewayState()
			if resp.Gateway != "connected" {
				resp.Status = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
		writeJSON(w, code, resp)
	}).Methods(http.MethodGet)

	router.HandleFunc("/queues/{name}", func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		q, ok := queues[name]
		if !ok {
			http.Error(w, "unknown queue", http.StatusNotFound)
			return
		}
		depth, err := q.Depth(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, depthResponse{Queue: name, Depth: depth})
	}).Methods(http.MethodGet)

	return router
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Start serves the admin routes on addr and blocks until ctx is cancelled.
func Start(ctx context.Context, addr string, opts Options, log *logger.Logger) error {
	log = log.WithComponent("http")
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(opts),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown on context cancellation
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("Admin server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "admin server error")
	}
	return nil
}
