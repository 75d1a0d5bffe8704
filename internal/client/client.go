package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lsy88/sentinel-dash/internal/apierr"
	"github.com/lsy88/sentinel-dash/internal/model"
)

const (
	RequestIDHeader   = "X-Request-ID"
	slowCallThreshold = 5 * time.Second
	maxErrorBodyBytes = 64 * 1024
)

// Client talks to the monitoring server. Every method takes the credential
// explicitly; an empty token sends no Authorization header.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *Client) ListMonitors(ctx context.Context, token string) ([]model.Monitor, error) {
	var out []model.Monitor
	if err := c.do(ctx, "list monitors", http.MethodGet, "/monitors", token, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Monitor{}
	}
	return out, nil
}

// ListChecks returns the most recent checks per monitor, newest first.
func (c *Client) ListChecks(ctx context.Context, token string, limit int) (map[int64][]model.Check, error) {
	out := map[int64][]model.Check{}
	path := "/checks?limit=" + strconv.Itoa(limit)
	if err := c.do(ctx, "list checks", http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[int64][]model.Check{}
	}
	return out, nil
}

func (c *Client) ListIncidents(ctx context.Context, token string) ([]model.Incident, error) {
	var out []model.Incident
	if err := c.do(ctx, "list incidents", http.MethodGet, "/incidents", token, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Incident{}
	}
	return out, nil
}

func (c *Client) ListWebhooks(ctx context.Context, token string) ([]model.Webhook, error) {
	var out []model.Webhook
	if err := c.do(ctx, "list webhooks", http.MethodGet, "/webhooks", token, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Webhook{}
	}
	return out, nil
}

func (c *Client) AllHistory(ctx context.Context, token string) (map[int64][]model.DailyStats, error) {
	out := map[int64][]model.DailyStats{}
	if err := c.do(ctx, "list history", http.MethodGet, "/history", token, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[int64][]model.DailyStats{}
	}
	return out, nil
}

func (c *Client) History(ctx context.Context, token string, monitorID int64) ([]model.DailyStats, error) {
	var out []model.DailyStats
	path := "/history/" + strconv.FormatInt(monitorID, 10)
	if err := c.do(ctx, "monitor history", http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.DailyStats{}
	}
	return out, nil
}

func (c *Client) CreateMonitor(ctx context.Context, token string, in model.MonitorInput) (model.Monitor, error) {
	var out model.Monitor
	body := map[string]any{"name": in.Name, "url": in.URL, "interval": in.Interval}
	err := c.do(ctx, "create monitor", http.MethodPost, "/monitors", token, body, &out)
	return out, err
}

func (c *Client) UpdateMonitor(ctx context.Context, token string, in model.MonitorInput) (model.Monitor, error) {
	var out model.Monitor
	body := map[string]any{"id": in.ID, "name": in.Name, "url": in.URL, "interval": in.Interval}
	err := c.do(ctx, "update monitor", http.MethodPut, "/monitors", token, body, &out)
	return out, err
}

func (c *Client) DeleteMonitor(ctx context.Context, token string, id int64) error {
	return c.do(ctx, "delete monitor", http.MethodDelete, "/monitors/"+strconv.FormatInt(id, 10), token, nil, nil)
}

func (c *Client) CreateIncident(ctx context.Context, token string, in model.IncidentInput) (model.Incident, error) {
	var out model.Incident
	err := c.do(ctx, "create incident", http.MethodPost, "/incidents", token, in, &out)
	return out, err
}

func (c *Client) DeleteIncident(ctx context.Context, token string, id int64) error {
	return c.do(ctx, "delete incident", http.MethodDelete, "/incidents/"+strconv.FormatInt(id, 10), token, nil, nil)
}

func (c *Client) CreateWebhook(ctx context.Context, token string, in model.WebhookInput) (model.Webhook, error) {
	var out model.Webhook
	err := c.do(ctx, "create webhook", http.MethodPost, "/webhooks", token, in, &out)
	return out, err
}

func (c *Client) UpdateWebhook(ctx context.Context, token string, id int64, in model.WebhookInput) (model.Webhook, error) {
	var out model.Webhook
	err := c.do(ctx, "update webhook", http.MethodPut, "/webhooks/"+strconv.FormatInt(id, 10), token, in, &out)
	return out, err
}

func (c *Client) DeleteWebhook(ctx context.Context, token string, id int64) error {
	return c.do(ctx, "delete webhook", http.MethodDelete, "/webhooks/"+strconv.FormatInt(id, 10), token, nil, nil)
}

// VerifyToken calls a protected endpoint with candidate. A 401 is a normal
// "no" answer, not an error.
func (c *Client) VerifyToken(ctx context.Context, candidate string) (bool, error) {
	err := c.do(ctx, "verify token", http.MethodPost, "/verify-token", candidate, nil, nil)
	if err == nil {
		return true, nil
	}
	if apierr.IsUnauthorized(err) {
		return false, nil
	}
	return false, err
}

func (c *Client) Version(ctx context.Context) (string, error) {
	var out struct {
		Version string `json:"version"`
	}
	if err := c.do(ctx, "version", http.MethodGet, "/version", "", nil, &out); err != nil {
		return "", err
	}
	return out.Version, nil
}

type Health struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.do(ctx, "health", http.MethodGet, "/health", "", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, op, method, path, token string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return apierr.Network(op, err)
	}
	defer resp.Body.Close()

	if elapsed > slowCallThreshold {
		c.logger.Warn("slow api call",
			zap.String("op", op),
			zap.String("path", path),
			zap.Duration("elapsed", elapsed),
		)
	}

	if resp.StatusCode >= 400 {
		return apierr.FromStatus(op, resp.StatusCode, readErrorMessage(resp.Body))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// readErrorMessage extracts {"error": "..."} from an error body. Plain-text
// bodies yield an empty message so the status table applies.
func readErrorMessage(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxErrorBodyBytes))
	if err != nil || len(b) == 0 {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(b, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Error)
}
