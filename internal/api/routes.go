package api

import "net/http"

// routeBinding ties a pattern to a handler. Guarded routes change registry
// state and go through the origin check.
type routeBinding struct {
	pattern string
	handler http.HandlerFunc
	guarded bool
}

func (h *Handler) registerRoutes(mux *http.ServeMux, routes []routeBinding) {
	for _, route := range routes {
		if route.guarded {
			mux.HandleFunc(route.pattern, h.wrap(route.handler))
			continue
		}
		mux.HandleFunc(route.pattern, route.handler)
	}
}

func (h *Handler) registerActivityRoutes(mux *http.ServeMux) {
	h.registerRoutes(mux, []routeBinding{
		{pattern: "GET /activities", handler: h.listActivities},
		{pattern: "POST /activities/{name}/signup", handler: h.signup, guarded: true},
		{pattern: "DELETE /activities/{name}/signup", handler: h.unregister, guarded: true},
	})
}

func (h *Handler) registerMetaRoutes(mux *http.ServeMux) {
	h.registerRoutes(mux, []routeBinding{
		{pattern: "GET /api/journal", handler: h.listJournal},
		{pattern: "GET /healthz", handler: h.health},
	})
}

func (h *Handler) registerEventRoutes(mux *http.ServeMux) {
	h.registerRoutes(mux, []routeBinding{
		{pattern: "GET /api/events", handler: h.streamEvents},
	})
}
