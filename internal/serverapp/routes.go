package serverapp

import (
	"net/http"
	"strings"
)

// RouteDoc documents one API route for the self-describing
// /api/routes endpoint.
type RouteDoc struct {
	Method      string `json:"method"`
	Pattern     string `json:"pattern"`
	Summary     string `json:"summary,omitempty"`
	ExampleBody string `json:"example_body,omitempty"`
}

type routeRegistry struct {
	routes []RouteDoc
}

func (rr *routeRegistry) add(doc RouteDoc) {
	rr.routes = append(rr.routes, doc)
}

func (rr *routeRegistry) list() []RouteDoc {
	out := make([]RouteDoc, len(rr.routes))
	copy(out, rr.routes)
	return out
}

// handle registers a handler on the mux and records it in the
// registry. methodAndPattern uses the "METHOD /path" mux syntax; an
// empty method documents a pattern that accepts several methods.
func handle(mux *http.ServeMux, rr *routeRegistry, methodAndPattern, summary, exampleBody string, h http.HandlerFunc) {
	parts := strings.SplitN(methodAndPattern, " ", 2)
	method, pattern := parts[0], ""
	if len(parts) == 2 {
		pattern = parts[1]
	} else {
		method, pattern = "", parts[0]
	}
	rr.add(RouteDoc{Method: method, Pattern: pattern, Summary: summary, ExampleBody: exampleBody})
	mux.HandleFunc(methodAndPattern, h)
}
