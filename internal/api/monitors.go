package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lsy88/sentinel-dash/internal/apierr"
	"github.com/lsy88/sentinel-dash/internal/gateway"
	"github.com/lsy88/sentinel-dash/internal/model"
)

func monitorsRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Engine.State().View.Monitors)
	})
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		var in model.MonitorInput
		if err := decodeJSON(r, &in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		in.ID = 0
		if err := deps.Gateway.AddMonitor(r.Context(), in); err != nil {
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
		var in model.MonitorInput
		if err := decodeJSON(r, &in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		in.ID = id
		if err := deps.Gateway.UpdateMonitor(r.Context(), in); err != nil {
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
		if err := deps.Gateway.DeleteMonitor(ctx, id); err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deleted": confirmed})
	})
	return r
}

func (d Deps) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	days, err := d.Gateway.History(r.Context(), id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeFailure(w, apierr.Invalid("invalid id %q", chi.URLParam(r, "id")))
		return 0, false
	}
	return id, true
}

// confirmation reads ?confirm=true and carries it to the gateway. Without
// it a delete is declined and nothing is sent.
func confirmation(r *http.Request) (context.Context, bool) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	return gateway.WithConfirmation(r.Context(), confirmed), confirmed
}
