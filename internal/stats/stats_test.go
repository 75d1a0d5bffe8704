package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsy88/sentinel-dash/internal/model"
)

func TestCompute_MostRecentCheckGoverns(t *testing.T) {
	monitors := []model.Monitor{{ID: 1}}
	checks := map[int64][]model.Check{
		1: {
			{MonitorID: 1, Latency: 10, IsUp: true},
			{MonitorID: 1, Latency: 30, IsUp: false},
		},
	}

	st := Compute(monitors, checks)
	assert.Equal(t, 1, st.Total)
	assert.Equal(t, 0, st.Up)
	assert.Equal(t, 1, st.Down)
	assert.Equal(t, int64(30), st.AvgLatency)
}

func TestCompute_TimestampsOrderNewestFirst(t *testing.T) {
	now := time.Now()
	checks := map[int64][]model.Check{
		1: {
			{MonitorID: 1, Latency: 12, IsUp: true, CheckedAt: now},
			{MonitorID: 1, Latency: 900, IsUp: false, CheckedAt: now.Add(-time.Minute)},
		},
	}

	st := Compute([]model.Monitor{{ID: 1}}, checks)
	assert.Equal(t, 1, st.Up)
	assert.Equal(t, int64(12), st.AvgLatency)
}

func TestCompute_OptimisticAndOrphans(t *testing.T) {
	monitors := []model.Monitor{{ID: 1}, {ID: 2}, {ID: 3}}
	checks := map[int64][]model.Check{
		1:  {{MonitorID: 1, Latency: 100, IsUp: true}},
		2:  {{MonitorID: 2, Latency: 201, IsUp: false}},
		99: {{MonitorID: 99, Latency: 5000, IsUp: false}},
	}

	st := Compute(monitors, checks)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 2, st.Up)
	assert.Equal(t, 1, st.Down)
	assert.Equal(t, int64(151), st.AvgLatency)
}

func TestCompute_Invariants(t *testing.T) {
	cases := []struct {
		monitors []model.Monitor
		checks   map[int64][]model.Check
	}{
		{nil, nil},
		{[]model.Monitor{{ID: 1}}, nil},
		{[]model.Monitor{{ID: 1}, {ID: 2}}, map[int64][]model.Check{2: {{IsUp: false}}}},
		{[]model.Monitor{{ID: 1}, {ID: 2}}, map[int64][]model.Check{1: {{IsUp: false}}, 2: {{IsUp: false}}}},
	}
	for _, c := range cases {
		st := Compute(c.monitors, c.checks)
		assert.Equal(t, st.Total-st.Up, st.Down)
		assert.LessOrEqual(t, st.Up, st.Total)
	}
}

func TestChronological_Involution(t *testing.T) {
	in := []model.Check{{Latency: 1}, {Latency: 2}, {Latency: 3}}

	rev := Chronological(in)
	assert.Equal(t, []int64{3, 2, 1}, latencies(rev))
	assert.Equal(t, in, Chronological(rev))
	assert.Equal(t, []int64{1, 2, 3}, latencies(in), "input must not be mutated")
	assert.Empty(t, Chronological(nil))
}

func latencies(cs []model.Check) []int64 {
	out := make([]int64, len(cs))
	for i, c := range cs {
		out[i] = c.Latency
	}
	return out
}

func TestBuild(t *testing.T) {
	snap := &model.Snapshot{
		Monitors: []model.Monitor{{ID: 1, Name: "api"}, {ID: 2, Name: "web"}},
		Checks: map[int64][]model.Check{
			1: {{MonitorID: 1, Latency: 20, IsUp: false}},
			7: {{MonitorID: 7, Latency: 1, IsUp: true}},
		},
		History: map[int64][]model.DailyStats{
			1: {{UptimePct: 100}, {UptimePct: 90}},
			2: {{UptimePct: 80}},
		},
	}

	v := Build(snap)
	require.Len(t, v.Monitors, 2)
	assert.False(t, v.Healthy)
	assert.Equal(t, "1 Service(s) experiencing issues", v.Summary)

	require.NotNil(t, v.Monitors[0].Latest)
	assert.Equal(t, int64(20), v.Monitors[0].Latest.Latency)
	require.NotNil(t, v.Monitors[0].Uptime30d)
	assert.InDelta(t, 95.0, *v.Monitors[0].Uptime30d, 0.001)

	assert.Nil(t, v.Monitors[1].Latest)
	assert.Empty(t, v.Monitors[1].History)

	require.NotNil(t, v.OverallUptime)
	assert.InDelta(t, 87.5, *v.OverallUptime, 0.001)
}

func TestBuild_Empty(t *testing.T) {
	v := Build(nil)
	assert.True(t, v.Healthy)
	assert.Equal(t, SummaryOperational, v.Summary)
	assert.Nil(t, v.OverallUptime)
	assert.NotNil(t, v.Monitors)
}

func TestMaskWebhookURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://host/api/webhooks/abcdef123456", "https://host/api/webhooks/abcdef••••••••"},
		{"https://discord.com/api/webhooks/123/tok", "https://discord.com/api/webhooks/123/tok••••••••"},
		{"https://host:8443/hook", "https://host:8443/hook••••••••"},
		{"https://host", "https://host/••••••••"},
		{"not a url", "not a url"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskWebhookURL(tt.in))
	}
}
