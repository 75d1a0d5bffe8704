package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/lsy88/sentinel-dash/internal/config"
)

type Payload struct {
	Type    string    `json:"type"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Kind    string    `json:"kind,omitempty"`
	At      time.Time `json:"at"`
}

// WebhookSink forwards error and warning notifications to an outbound
// webhook. Delivery is best effort and never blocks the router.
type WebhookSink struct {
	cfg    config.NotifyConfig
	client *http.Client
	logger *zap.Logger
}

func NewWebhookSink(cfg config.NotifyConfig, logger *zap.Logger) *WebhookSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookSink{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

func (s *WebhookSink) Deliver(n Notification) {
	if s.cfg.WebhookURL == "" {
		return
	}
	if n.Level != LevelError && n.Level != LevelWarning {
		return
	}

	payload := Payload{
		Type:    "notification",
		Level:   n.Level,
		Message: n.Message,
		Kind:    string(n.Kind),
		At:      n.At,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := Send(ctx, s.client, s.cfg, payload); err != nil {
			s.logger.Warn("webhook delivery failed", zap.Error(err))
		}
	}()
}

func Send(ctx context.Context, client *http.Client, cfg config.NotifyConfig, payload Payload) error {
	var body []byte
	var err error

	switch cfg.WebhookType {
	case "discord":
		body, err = buildDiscordPayload(payload)
	default:
		body, err = json.Marshal(payload)
	}
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func buildDiscordPayload(p Payload) ([]byte, error) {
	color := 0xf0ad4e // Amber
	if p.Level == LevelError {
		color = 0xdc3545 // Red
	}

	payload := map[string]any{
		"username": "Sentinel Dashboard",
		"embeds": []map[string]any{
			{
				"title":       fmt.Sprintf("Dashboard %s", p.Level),
				"description": p.Message,
				"color":       color,
				"timestamp":   p.At.Format(time.RFC3339),
			},
		},
	}
	return json.Marshal(payload)
}
