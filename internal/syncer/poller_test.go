package syncer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPoller_RunsImmediately(t *testing.T) {
	p := NewPoller(zap.NewNop())
	var n atomic.Int32

	require.NoError(t, p.Start(context.Background(), func(context.Context) { n.Add(1) }, time.Hour))
	defer p.Stop()

	assert.Eventually(t, func() bool { return n.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, p.Running())
}

func TestPoller_RepeatsOnInterval(t *testing.T) {
	p := NewPoller(zap.NewNop())
	var n atomic.Int32

	require.NoError(t, p.Start(context.Background(), func(context.Context) { n.Add(1) }, 20*time.Millisecond))
	defer p.Stop()

	assert.Eventually(t, func() bool { return n.Load() >= 3 }, 3*time.Second, 10*time.Millisecond)
}

func TestPoller_StopHaltsCallbacks(t *testing.T) {
	p := NewPoller(zap.NewNop())
	var n atomic.Int32

	require.NoError(t, p.Start(context.Background(), func(context.Context) { n.Add(1) }, 20*time.Millisecond))
	assert.Eventually(t, func() bool { return n.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	p.Stop()
	assert.False(t, p.Running())
	stopped := n.Load()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, stopped, n.Load())

	assert.NotPanics(t, p.Stop)
}

func TestPoller_RestartDoesNotStackSchedules(t *testing.T) {
	p := NewPoller(zap.NewNop())
	var n atomic.Int32

	require.NoError(t, p.Start(context.Background(), func(context.Context) { n.Add(1) }, time.Hour))
	assert.Eventually(t, func() bool { return n.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, p.Restart())
	defer p.Stop()
	assert.Eventually(t, func() bool { return n.Load() == 2 }, 2*time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), n.Load())
}

func TestPoller_RejectsBadInterval(t *testing.T) {
	p := NewPoller(zap.NewNop())
	assert.Error(t, p.Start(context.Background(), func(context.Context) {}, 0))
	assert.Error(t, p.Restart())
}

func TestPoller_RestartAfterStopStaysStopped(t *testing.T) {
	p := NewPoller(zap.NewNop())
	var n atomic.Int32

	require.NoError(t, p.Start(context.Background(), func(context.Context) { n.Add(1) }, 20*time.Millisecond))
	assert.Eventually(t, func() bool { return n.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	p.Stop()
	stopped := n.Load()
	require.NoError(t, p.Restart())

	assert.False(t, p.Running())
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, stopped, n.Load())

	require.NoError(t, p.Start(context.Background(), func(context.Context) { n.Add(1) }, time.Hour))
	defer p.Stop()
	assert.True(t, p.Running())
}
