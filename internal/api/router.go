package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors(deps.Config.AllowedCORSOrigin))

	r.Route("/api", func(r chi.Router) {
		// Long-lived stream, kept out of the request timeout.
		r.Get("/events", deps.handleEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			})
			r.Get("/status", deps.handleStatus)
			r.Get("/history/{id}", deps.handleHistory)
			r.Mount("/monitors", monitorsRouter(deps))
			r.Mount("/incidents", incidentsRouter(deps))
			r.Mount("/webhooks", webhooksRouter(deps))
			r.Mount("/session", sessionRouter(deps))
		})
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	return r
}
