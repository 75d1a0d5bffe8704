package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/lsy88/sentinel-dash/internal/config"
	"github.com/lsy88/sentinel-dash/internal/gateway"
	"github.com/lsy88/sentinel-dash/internal/notify"
	"github.com/lsy88/sentinel-dash/internal/store"
	"github.com/lsy88/sentinel-dash/internal/syncer"
)

type Deps struct {
	Logger  *zap.Logger
	Config  *config.Config
	Engine  *syncer.Engine
	Gateway *gateway.Gateway
	Tokens  *store.TokenStore
	Notify  *notify.Router
	Metrics http.Handler
}

type statusResponse struct {
	Loaded        bool      `json:"loaded"`
	Authenticated bool      `json:"authenticated"`
	Healthy       bool      `json:"healthy"`
	Summary       string    `json:"summary"`
	Total         int       `json:"total"`
	Up            int       `json:"up"`
	Down          int       `json:"down"`
	AvgLatency    int64     `json:"avgLatency"`
	OverallUptime *float64  `json:"overallUptime,omitempty"`
	FetchedAt     time.Time `json:"fetchedAt,omitempty"`
	Version       uint64    `json:"version"`
}

func (d Deps) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := d.Engine.State()
	writeJSON(w, http.StatusOK, statusResponse{
		Loaded:        st.Loaded,
		Authenticated: d.Tokens.Authenticated(),
		Healthy:       st.View.Healthy,
		Summary:       st.View.Summary,
		Total:         st.View.Stats.Total,
		Up:            st.View.Stats.Up,
		Down:          st.View.Stats.Down,
		AvgLatency:    st.View.Stats.AvgLatency,
		OverallUptime: st.View.OverallUptime,
		FetchedAt:     st.Snapshot.FetchedAt,
		Version:       st.Version,
	})
}
