package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type tokenRequest struct {
	Token string `json:"token"`
}

func sessionRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": deps.Tokens.Authenticated()})
	})
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		var body tokenRequest
		if err := decodeJSON(r, &body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		ok, err := deps.Gateway.Login(r.Context(), body.Token)
		if err != nil {
			writeFailure(w, err)
			return
		}
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Invalid token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": true})
	})
	r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
		deps.Gateway.Logout(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
	})
	r.Post("/verify", func(w http.ResponseWriter, r *http.Request) {
		var body tokenRequest
		if err := decodeJSON(r, &body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		ok, err := deps.Gateway.VerifyToken(r.Context(), body.Token)
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"valid": ok})
	})
	return r
}
