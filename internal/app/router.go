package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/holocron/holocron/internal/observability"
	"github.com/holocron/holocron/internal/platform/httpx"
	"github.com/holocron/holocron/internal/rbac"
	"github.com/holocron/holocron/internal/roles"
	"github.com/holocron/holocron/internal/users"
)

// Pinger reports database reachability for /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	DB                 Pinger
	UsersHandler       *users.Handler
	RolesHandler       *roles.Handler
	AssignmentsHandler *rbac.AssignmentsHandler
	PermissionsHandler *rbac.PermissionsHandler
	Metrics            *observability.Metrics
}

type healthResponse struct {
	Status  string `json:"status"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

// NewRouter constructs the chi.Router with service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "Method Not Allowed", "Method Not Allowed")
	})

	r.Get("/healthz", healthHandler(params))
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	if params.UsersHandler != nil || params.AssignmentsHandler != nil {
		r.Route("/users", func(r chi.Router) {
			if params.UsersHandler != nil {
				params.UsersHandler.MountRoutes(r)
			}
			if params.AssignmentsHandler != nil {
				params.AssignmentsHandler.MountRoutes(r)
			}
		})
	}
	if params.RolesHandler != nil {
		r.Route("/roles", func(r chi.Router) {
			params.RolesHandler.MountRoutes(r)
		})
	}
	if params.PermissionsHandler != nil {
		r.Route("/permissions", func(r chi.Router) {
			params.PermissionsHandler.MountRoutes(r)
		})
	}

	return r
}

func healthHandler(params RouterParams) http.HandlerFunc {
	name, version := "Holocron", ""
	if params.Config != nil {
		name, version = params.Config.AppName, params.Config.AppVersion
	}
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok", Name: name, Version: version}
		if params.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := params.DB.Ping(ctx); err != nil {
				if params.Logger != nil {
					params.Logger.Warn("health check failed", slog.Any("error", err))
				}
				resp.Status = "unavailable"
				httpx.JSON(w, http.StatusServiceUnavailable, resp)
				return
			}
		}
		httpx.JSON(w, http.StatusOK, resp)
	}
}
