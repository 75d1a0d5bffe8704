package model

import "time"

type IncidentStatus string

const (
	IncidentInvestigating IncidentStatus = "investigating"
	IncidentMonitoring    IncidentStatus = "monitoring"
	IncidentResolved      IncidentStatus = "resolved"
)

type Monitor struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	URL           string     `json:"url"`
	Interval      int        `json:"interval"`
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty"`
}

// Check is a single check result. The server delivers them grouped by
// monitor and newest first.
type Check struct {
	ID         int64     `json:"id,omitempty"`
	MonitorID  int64     `json:"monitor_id"`
	StatusCode int       `json:"status_code,omitempty"`
	Latency    int64     `json:"latency"`
	IsUp       bool      `json:"is_up"`
	CheckedAt  time.Time `json:"checked_at"`
}

type DailyStats struct {
	MonitorID  int64   `json:"monitor_id"`
	Date       string  `json:"date"`
	UptimePct  float64 `json:"uptime_pct"`
	AvgLatency int64   `json:"avg_latency"`
}

type Incident struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      IncidentStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at,omitempty"`
}

type Webhook struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	Enabled bool   `json:"enabled"`
}

// MonitorStats is derived from a snapshot and never sent to the server.
type MonitorStats struct {
	Total      int   `json:"total"`
	Up         int   `json:"up"`
	Down       int   `json:"down"`
	AvgLatency int64 `json:"avgLatency"`
}

// Snapshot is the complete cached read model between refresh cycles. It is
// replaced as a whole and must not be mutated once published.
type Snapshot struct {
	Monitors  []Monitor              `json:"monitors"`
	Checks    map[int64][]Check      `json:"checks"`
	Incidents []Incident             `json:"incidents"`
	Webhooks  []Webhook              `json:"webhooks"`
	History   map[int64][]DailyStats `json:"history"`
	FetchedAt time.Time              `json:"fetchedAt"`
}

func EmptySnapshot() *Snapshot {
	return &Snapshot{
		Monitors:  []Monitor{},
		Checks:    map[int64][]Check{},
		Incidents: []Incident{},
		Webhooks:  []Webhook{},
		History:   map[int64][]DailyStats{},
	}
}

type MonitorInput struct {
	ID       int64  `json:"id,omitempty"`
	Name     string `json:"name" validate:"required,min=1,max=200"`
	URL      string `json:"url" validate:"required,http_url"`
	Interval int    `json:"interval" validate:"min=10,max=86400"`
}

type IncidentInput struct {
	Title       string         `json:"title" validate:"required,max=200"`
	Description string         `json:"description"`
	Status      IncidentStatus `json:"status" validate:"oneof=investigating monitoring resolved"`
}

type WebhookInput struct {
	Name    string `json:"name" validate:"required,min=1,max=200"`
	URL     string `json:"url" validate:"required,max=2048,url"`
	Enabled bool   `json:"enabled"`
}
