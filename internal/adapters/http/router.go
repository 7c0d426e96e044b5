package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/graph-resolver/internal/core/domain"
	"github.com/kirillkom/graph-resolver/internal/core/ports"
	"github.com/kirillkom/graph-resolver/internal/observability/metrics"
)

type Router struct {
	resolver ports.EntityResolver
	store    ports.GraphStore
	queue    ports.NodeEventQueue
	metrics  *metrics.HTTPServerMetrics
	service  string
	options  Options
}

// Options bound the traffic the router accepts. Zero values disable the
// corresponding gate.
type Options struct {
	RateLimitRPS    float64
	RateLimitBurst  int
	MaxInFlight     int
	BackpressureMax time.Duration
}

func NewRouter(
	resolver ports.EntityResolver,
	store ports.GraphStore,
	queue ports.NodeEventQueue,
	m *metrics.HTTPServerMetrics,
	service string,
	options Options,
) *Router {
	return &Router{
		resolver: resolver,
		store:    store,
		queue:    queue,
		metrics:  m,
		service:  service,
		options:  options,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/resolve", rt.resolve)
	mux.HandleFunc("/v1/nodes", rt.upsertNode)
	mux.HandleFunc("/v1/nodes/", rt.getNodeByID)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.options.MaxInFlight > 0 {
		wait := rt.options.BackpressureMax
		if wait <= 0 {
			wait = 100 * time.Millisecond
		}
		handler = backpressureMiddleware(handler, rt.options.MaxInFlight, wait)
	}
	if rt.options.RateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.options.RateLimitRPS, rt.options.RateLimitBurst)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, r *http.Request) {
	if err := rt.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) resolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var query domain.Query
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(query.Text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text is required"})
		return
	}

	start := time.Now()
	result := rt.resolver.Resolve(r.Context(), query)
	if rt.metrics != nil {
		rt.metrics.RecordResolution(
			rt.service,
			string(result.Action),
			len(result.Candidates),
			result.EmbeddingsAvailable,
			time.Since(start),
		)
	}

	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) upsertNode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var record domain.NodeRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(record.Name) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if strings.TrimSpace(record.ID) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id is required"})
		return
	}

	if err := rt.store.UpsertNode(r.Context(), record); err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	if rt.queue != nil {
		if err := rt.queue.PublishNodeUpserted(r.Context(), record.ID); err != nil {
			// The node is stored; embedding will catch up on the next import.
			writeJSON(w, http.StatusAccepted, map[string]string{
				"id":      record.ID,
				"warning": "node stored but embedding enqueue failed",
			})
			return
		}
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"id": record.ID})
}

func (rt *Router) getNodeByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/nodes/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "node id is required"})
		return
	}

	name, err := rt.store.NodeName(r.Context(), id)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "name": name})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
