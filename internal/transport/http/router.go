// Package http assembles the chi router. Public reads and auth endpoints
// live on an open group; everything else sits behind the bearer-token
// middleware. The public allow-list is structural: a route is public because
// it is mounted here without RequireAuth, not because of a check elsewhere.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gramsuvidha/internal/announcement"
	"gramsuvidha/internal/budget"
	"gramsuvidha/internal/document"
	"gramsuvidha/internal/grievance"
	"gramsuvidha/internal/identity"
	"gramsuvidha/internal/platform/metrics"
	"gramsuvidha/internal/platform/middleware"
	"gramsuvidha/internal/project"
	"gramsuvidha/internal/village"
	"gramsuvidha/pkg/platform/httputil"
)

// Handlers bundles all module handlers for router assembly.
type Handlers struct {
	Identity     *identity.Handler
	Village      *village.Handler
	Budget       *budget.Handler
	Grievance    *grievance.Handler
	Project      *project.Handler
	Announcement *announcement.Handler
	Document     *document.Handler
}

// Deps are the cross-cutting pieces the router wires in front of handlers.
type Deps struct {
	TokenValidator middleware.TokenValidator
	CallerLoader   middleware.CallerLoader
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
}

// New builds the full route tree.
func New(h Handlers, d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(d.Metrics.Middleware)
	r.Use(middleware.RequestLogger(d.Logger))

	r.Get("/health", handleHealth)
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		// Open group: registration, login and all public reads.
		api.Group(func(public chi.Router) {
			h.Identity.RegisterPublic(public)
			h.Village.RegisterPublic(public)
			h.Budget.RegisterPublic(public)
			h.Project.RegisterPublic(public)
			h.Announcement.RegisterPublic(public)
			h.Document.RegisterPublic(public)
		})

		// Everything else requires a valid bearer token.
		api.Group(func(protected chi.Router) {
			protected.Use(middleware.RequireAuth(d.TokenValidator, d.CallerLoader, d.Logger))
			h.Identity.RegisterProtected(protected)
			h.Village.RegisterProtected(protected)
			h.Budget.RegisterProtected(protected)
			h.Grievance.RegisterProtected(protected)
			h.Project.RegisterProtected(protected)
			h.Announcement.RegisterProtected(protected)
			h.Document.RegisterProtected(protected)
		})
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
