// Package stats derives the dashboard read model from a snapshot. Nothing
// here touches the network or mutates its input.
package stats

import (
	"fmt"
	"math"

	"github.com/lsy88/sentinel-dash/internal/model"
)

const SummaryOperational = "All Systems Operational"

type MonitorView struct {
	Monitor   model.Monitor      `json:"monitor"`
	Latest    *model.Check       `json:"latest,omitempty"`
	History   []model.Check      `json:"history"`
	Daily     []model.DailyStats `json:"daily,omitempty"`
	Uptime30d *float64           `json:"uptime30d,omitempty"`
}

type View struct {
	Stats         model.MonitorStats `json:"stats"`
	Monitors      []MonitorView      `json:"monitors"`
	OverallUptime *float64           `json:"overallUptime,omitempty"`
	Healthy       bool               `json:"healthy"`
	Summary       string             `json:"summary"`
}

// Chronological returns the oldest-first order of a newest-first list.
func Chronological(checks []model.Check) []model.Check {
	out := make([]model.Check, len(checks))
	for i, c := range checks {
		out[len(checks)-1-i] = c
	}
	return out
}

// Latest picks the most recent check by timestamp. Among equal timestamps
// the later entry wins.
func Latest(checks []model.Check) (model.Check, bool) {
	if len(checks) == 0 {
		return model.Check{}, false
	}
	best := 0
	for i := 1; i < len(checks); i++ {
		if !checks[i].CheckedAt.Before(checks[best].CheckedAt) {
			best = i
		}
	}
	return checks[best], true
}

// Compute aggregates monitors against their checks. A monitor without any
// check counts as up but is left out of the latency average. Checks for
// monitors that are not listed are ignored.
func Compute(monitors []model.Monitor, checks map[int64][]model.Check) model.MonitorStats {
	st := model.MonitorStats{Total: len(monitors)}

	var sum int64
	var n int64
	for _, m := range monitors {
		latest, ok := Latest(checks[m.ID])
		if !ok {
			st.Up++
			continue
		}
		sum += latest.Latency
		n++
		if latest.IsUp {
			st.Up++
		}
	}

	st.Down = st.Total - st.Up
	if n > 0 {
		st.AvgLatency = int64(math.Round(float64(sum) / float64(n)))
	}
	return st
}

// Uptime averages the daily uptime percentages.
func Uptime(days []model.DailyStats) (float64, bool) {
	if len(days) == 0 {
		return 0, false
	}
	var sum float64
	for _, d := range days {
		sum += d.UptimePct
	}
	return sum / float64(len(days)), true
}

func Summary(st model.MonitorStats) string {
	if st.Down == 0 {
		return SummaryOperational
	}
	return fmt.Sprintf("%d Service(s) experiencing issues", st.Down)
}

func Build(s *model.Snapshot) View {
	if s == nil {
		s = model.EmptySnapshot()
	}

	st := Compute(s.Monitors, s.Checks)
	v := View{
		Stats:    st,
		Monitors: make([]MonitorView, 0, len(s.Monitors)),
		Healthy:  st.Down == 0,
		Summary:  Summary(st),
	}

	var uptimeSum float64
	var uptimeN int
	for _, m := range s.Monitors {
		mv := MonitorView{
			Monitor: m,
			History: Chronological(s.Checks[m.ID]),
			Daily:   s.History[m.ID],
		}
		if latest, ok := Latest(s.Checks[m.ID]); ok {
			mv.Latest = &latest
		}
		if u, ok := Uptime(s.History[m.ID]); ok {
			mv.Uptime30d = &u
			uptimeSum += u
			uptimeN++
		}
		v.Monitors = append(v.Monitors, mv)
	}

	if uptimeN > 0 {
		overall := uptimeSum / float64(uptimeN)
		v.OverallUptime = &overall
	}
	return v
}
