package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lsy88/sentinel-dash/internal/apierr"
	"github.com/lsy88/sentinel-dash/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", 2*time.Second, zap.NewNop())
}

func TestListChecks_GroupedByMonitor(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/checks", r.URL.Path)
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))
		_, _ = w.Write([]byte(`{"1":[{"monitor_id":1,"latency":30,"is_up":false},{"monitor_id":1,"latency":10,"is_up":true}],"2":[]}`))
	})

	got, err := c.ListChecks(context.Background(), "", 50)
	require.NoError(t, err)
	require.Len(t, got[1], 2)
	assert.Equal(t, int64(30), got[1][0].Latency)
	assert.Empty(t, got[2])
}

func TestMutation_SendsRawAuthorization(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/monitors", r.URL.Path)
		assert.Equal(t, "s3cret", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "API", body["name"])
		assert.Equal(t, float64(60), body["interval"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":7,"name":"API","url":"https://api.example.com","interval":60}`))
	})

	m, err := c.CreateMonitor(context.Background(), "s3cret", model.MonitorInput{Name: "API", URL: "https://api.example.com", Interval: 60})
	require.NoError(t, err)
	assert.Equal(t, int64(7), m.ID)
}

func TestDelete_UsesPathID(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	ctx := context.Background()
	require.NoError(t, c.DeleteMonitor(ctx, "t", 3))
	require.NoError(t, c.DeleteIncident(ctx, "t", 4))
	require.NoError(t, c.DeleteWebhook(ctx, "t", 5))
	assert.Equal(t, []string{"/monitors/3", "/incidents/4", "/webhooks/5"}, paths)
}

func TestErrorBodies(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"structured", http.StatusConflict, `{"error":"monitor already exists"}`, "monitor already exists"},
		{"plain text", http.StatusUnauthorized, "Unauthorized\n", ""},
		{"empty", http.StatusInternalServerError, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.ListIncidents(context.Background(), "")
			var aerr *apierr.Error
			require.ErrorAs(t, err, &aerr)
			assert.Equal(t, tt.status, aerr.StatusCode)
			assert.Equal(t, tt.message, aerr.Message)
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, time.Second, nil)
	_, err := c.ListMonitors(context.Background(), "")
	assert.Equal(t, apierr.KindNetwork, apierr.Classify(err).Kind)
}

func TestVerifyToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/verify-token", r.URL.Path)
		switch r.Header.Get("Authorization") {
		case "good":
			w.WriteHeader(http.StatusOK)
		case "boom":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		}
	})

	ctx := context.Background()
	ok, err := c.VerifyToken(ctx, "good")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.VerifyToken(ctx, "bad")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.VerifyToken(ctx, "boom")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestEmptyListsAreNonNil(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("null"))
	})

	ctx := context.Background()
	monitors, err := c.ListMonitors(ctx, "")
	require.NoError(t, err)
	assert.NotNil(t, monitors)

	history, err := c.AllHistory(ctx, "")
	require.NoError(t, err)
	assert.NotNil(t, history)
}
