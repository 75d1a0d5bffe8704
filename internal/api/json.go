package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/lsy88/sentinel-dash/internal/apierr"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return errors.New("request body is empty")
	}
	return err
}

// writeFailure maps a classified failure onto a response. The remote status
// is reused when there was one.
func writeFailure(w http.ResponseWriter, err error) {
	c := apierr.Classify(err)
	status := c.Status
	if status == 0 {
		switch c.Kind {
		case apierr.KindValidation:
			status = http.StatusBadRequest
		case apierr.KindNetwork:
			status = http.StatusBadGateway
		default:
			status = http.StatusInternalServerError
		}
	}
	writeJSON(w, status, map[string]any{"error": c.Message, "kind": c.Kind})
}
