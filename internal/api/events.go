package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const keepaliveInterval = 30 * time.Second

type snapshotEvent struct {
	Version uint64 `json:"version"`
	Loaded  bool   `json:"loaded"`
	Summary string `json:"summary"`
	Up      int    `json:"up"`
	Down    int    `json:"down"`
}

// handleEvents streams notifications and snapshot changes as server-sent
// events. An unauthorized failure is followed by a session_expired event.
func (d Deps) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	notes, cancelNotes := d.Notify.Subscribe(32)
	defer cancelNotes()
	changes, cancelChanges := d.Engine.Subscribe()
	defer cancelChanges()

	log := d.Logger.With(zap.String("request_id", middleware.GetReqID(r.Context())))
	log.Debug("event stream opened")
	defer log.Debug("event stream closed")

	send := func(event string, v any) bool {
		b, err := json.Marshal(v)
		if err != nil {
			log.Warn("encode event", zap.String("event", event), zap.Error(err))
			return true
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, b); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !send("snapshot", d.snapshotEvent()) {
		return
	}

	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case n, ok := <-notes:
			if !ok {
				return
			}
			if !send("notification", n) {
				return
			}
			if n.SessionEnded && !send("session_expired", map[string]any{"authenticated": false}) {
				return
			}
		case _, ok := <-changes:
			if !ok {
				return
			}
			if !send("snapshot", d.snapshotEvent()) {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (d Deps) snapshotEvent() snapshotEvent {
	st := d.Engine.State()
	return snapshotEvent{
		Version: st.Version,
		Loaded:  st.Loaded,
		Summary: st.View.Summary,
		Up:      st.View.Stats.Up,
		Down:    st.View.Stats.Down,
	}
}
