package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tallyforge/tallyforge/internal/platform/httpx"
)

// RouteMounter is implemented by domain handlers that attach their routes.
type RouteMounter interface {
	MountRoutes(r chi.Router)
}

// RouterConfig collects everything needed to assemble the HTTP router.
type RouterConfig struct {
	Middleware []func(http.Handler) http.Handler
	Handlers   []RouteMounter
}

// NewRouter assembles the chi router with the middleware chain and all
// domain routes mounted under /api/v1.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	for _, mw := range cfg.Middleware {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(api chi.Router) {
		for _, h := range cfg.Handlers {
			h.MountRoutes(api)
		}
	})

	return r
}
