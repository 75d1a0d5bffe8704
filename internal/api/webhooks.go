package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lsy88/sentinel-dash/internal/model"
	"github.com/lsy88/sentinel-dash/internal/stats"
)

func webhooksRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		hooks := deps.Engine.State().Snapshot.Webhooks

		// Secrets live in the URL path; never hand them out in full.
		resp := make([]model.Webhook, 0, len(hooks))
		for _, h := range hooks {
			h.URL = stats.MaskWebhookURL(h.URL)
			resp = append(resp, h)
		}
		writeJSON(w, http.StatusOK, resp)
	})

	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		var in model.WebhookInput
		if err := decodeJSON(r, &in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		if err := deps.Gateway.AddWebhook(r.Context(), in); err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"ok": true})
	})

	r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var in model.WebhookInput
		if err := decodeJSON(r, &in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		if err := deps.Gateway.UpdateWebhook(r.Context(), id, in); err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		ctx, confirmed := confirmation(r)
		if err := deps.Gateway.DeleteWebhook(ctx, id); err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deleted": confirmed})
	})

	return r
}
