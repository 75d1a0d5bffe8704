package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lsy88/sentinel-dash/internal/model"
)

func incidentsRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Engine.State().Snapshot.Incidents)
	})
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		var in model.IncidentInput
		if err := decodeJSON(r, &in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		if err := deps.Gateway.AddIncident(r.Context(), in); err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"ok": true})
	})
	r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		ctx, confirmed := confirmation(r)
		if err := deps.Gateway.DeleteIncident(ctx, id); err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deleted": confirmed})
	})
	return r
}
