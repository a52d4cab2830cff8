package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/clarion-hms/clarion/internal/auth"
	"github.com/clarion-hms/clarion/internal/inventory"
	"github.com/clarion-hms/clarion/internal/observability"
	"github.com/clarion-hms/clarion/internal/reports"
	"github.com/clarion-hms/clarion/internal/shared"
	"github.com/clarion-hms/clarion/internal/view"
	"github.com/clarion-hms/clarion/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Templates        *view.Engine
	SessionManager   *shared.SessionManager
	AuthHandler      *auth.Handler
	ReportsHandler   *reports.Handler
	InventoryHandler *inventory.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with Clarion defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/login", params.AuthHandler.ShowLogin)
	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(RequireSession(params.Logger))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			data := view.TemplateData{
				Title:       "Clarion",
				CurrentPath: r.URL.Path,
				Data: map[string]any{
					"UserName": sess.UserName(),
					"AppEnv":   params.Config.AppEnv,
				},
			}
			if err := params.Templates.Render(w, "pages/landing.html", data); err != nil {
				params.Logger.Error("render landing", slog.Any("error", err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		})

		r.Route("/reports", params.ReportsHandler.MountRoutes)
		r.Route("/inventory", params.InventoryHandler.MountRoutes)
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
