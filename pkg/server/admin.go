package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"

	"github.com/slamb2k/glam-mcp-sub003/pkg/auth"
	"github.com/slamb2k/glam-mcp-sub003/pkg/enhance"
	"github.com/slamb2k/glam-mcp-sub003/pkg/observability"
	"github.com/slamb2k/glam-mcp-sub003/pkg/storage"
)

// maxImportBody caps registry import payloads at 1 MiB.
const maxImportBody = 1 << 20

// Admin serves the operational HTTP surface.
type Admin struct {
	registry *enhance.Registry
	store    storage.ActivityStore
}

// NewAdmin creates the admin surface over the given registry and store.
// The store may be nil; readiness then only reflects process liveness.
func NewAdmin(registry *enhance.Registry, store storage.ActivityStore) *Admin {
	return &Admin{registry: registry, store: store}
}

// Handler builds the admin mux wrapped in metrics and authentication
// middleware. Health probes and metrics bypass authentication.
func (a *Admin) Handler(chain *auth.AuthChain) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("GET /readyz", a.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /v1/registry/stats", a.handleStats)
	mux.HandleFunc("GET /v1/registry/export", a.handleExport)
	mux.HandleFunc("POST /v1/registry/import", a.handleImport)

	var h http.Handler = mux
	if chain != nil {
		h = auth.Middleware(chain, auth.DefaultBypassEndpoints)(h)
	}
	return observability.MetricsMiddleware(h)
}

func (a *Admin) handleReady(w http.ResponseWriter, r *http.Request) {
	if a.store != nil {
		if err := a.store.HealthCheck(r.Context()); err != nil {
			http.Error(w, fmt.Sprintf("storage not ready: %v", err), http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

func (a *Admin) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.registry.GetStats())
}

func (a *Admin) handleExport(w http.ResponseWriter, r *http.Request) {
	snap := a.registry.Export()

	if r.URL.Query().Get("format") == "json" {
		writeJSON(w, http.StatusOK, snap)
		return
	}

	data, err := yaml.Marshal(snap)
	if err != nil {
		http.Error(w, fmt.Sprintf("encoding snapshot: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (a *Admin) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportBody))
	if err != nil {
		http.Error(w, "reading request body", http.StatusBadRequest)
		return
	}

	var snap enhance.Snapshot
	if strings.Contains(r.Header.Get("Content-Type"), "json") {
		err = json.Unmarshal(body, &snap)
	} else {
		err = yaml.Unmarshal(body, &snap)
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("decoding snapshot: %v", err), http.StatusBadRequest)
		return
	}

	if err := a.registry.Import(&snap); err != nil {
		status := http.StatusInternalServerError
		var cfgErr *enhance.ConfigError
		if errors.As(err, &cfgErr) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already written; nothing useful left to do.
		return
	}
}
