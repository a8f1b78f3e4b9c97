// Package webhook implements the HTTP-style trigger: an inbound event
// selects a workflow by name and its JSON body becomes the run's input
// map. Routing is built on go-chi/chi/v5, kept to the single POST route
// this trigger needs plus a GET health check.
package webhook

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marktoflow/workflow-engine/internal/engine"
)

// WorkflowLookup resolves a workflow by name for an incoming webhook
// call. Typically backed by a static map or a directory of parsed
// workflow definitions.
type WorkflowLookup func(name string) (*engine.Workflow, bool)

// Receiver is an HTTP server exposing one route per configured
// workflow name: POST /webhooks/{name} triggers that workflow with the
// request body decoded as its input map.
type Receiver struct {
	engine *engine.Engine
	lookup WorkflowLookup
	router chi.Router
}

// New builds a Receiver backed by eng, resolving workflow names via
// lookup.
func New(eng *engine.Engine, lookup WorkflowLookup) *Receiver {
	r := &Receiver{engine: eng, lookup: lookup}
	r.router = r.buildRouter()
	return r
}

// ServeHTTP implements http.Handler.
func (r *Receiver) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

func (r *Receiver) buildRouter() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)

	router.Post("/webhooks/{name}", r.handleTrigger)
	router.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return router
}

// handleTrigger decodes the request body as a workflow input map and
// runs the workflow synchronously, writing the WorkflowResult back as
// JSON. A production deployment would typically dispatch the run
// asynchronously and return 202 with a run id; this receiver keeps the
// synchronous request/response shape instead.
func (r *Receiver) handleTrigger(w http.ResponseWriter, req *http.Request) {
	name := chi.URLParam(req, "name")

	wf, ok := r.lookup(name)
	if !ok {
		http.Error(w, "unknown workflow: "+name, http.StatusNotFound)
		return
	}

	var inputs map[string]any
	if req.ContentLength != 0 {
		if err := json.NewDecoder(req.Body).Decode(&inputs); err != nil {
			http.Error(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	result, err := r.engine.Execute(req.Context(), wf, inputs, "", "")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if result.Status != engine.RunCompleted {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	_ = json.NewEncoder(w).Encode(result)
}
