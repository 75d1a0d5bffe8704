package syncer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lsy88/sentinel-dash/internal/metrics"
	"github.com/lsy88/sentinel-dash/internal/model"
	"github.com/lsy88/sentinel-dash/internal/stats"
)

var ErrClosed = errors.New("sync engine closed")

// Reader is the read half of the remote API. Satisfied by *client.Client.
type Reader interface {
	ListMonitors(ctx context.Context, token string) ([]model.Monitor, error)
	ListChecks(ctx context.Context, token string, limit int) (map[int64][]model.Check, error)
	ListIncidents(ctx context.Context, token string) ([]model.Incident, error)
	ListWebhooks(ctx context.Context, token string) ([]model.Webhook, error)
	AllHistory(ctx context.Context, token string) (map[int64][]model.DailyStats, error)
	History(ctx context.Context, token string, monitorID int64) ([]model.DailyStats, error)
}

type TokenSource interface {
	Get() (string, bool)
}

// State is an immutable published read model. A new value replaces the old
// one on every change.
type State struct {
	Snapshot *model.Snapshot `json:"snapshot"`
	View     stats.View      `json:"view"`
	Loaded   bool            `json:"loaded"`
	Version  uint64          `json:"version"`
}

type EngineDeps struct {
	Logger      *zap.Logger
	API         Reader
	Tokens      TokenSource
	ChecksLimit int
}

type Engine struct {
	deps EngineDeps

	mu     sync.Mutex
	state  atomic.Pointer[State]
	closed atomic.Bool

	subMu     sync.Mutex
	subs      map[int]chan struct{}
	nextSubID int
}

func NewEngine(deps EngineDeps) *Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.ChecksLimit <= 0 {
		deps.ChecksLimit = 50
	}
	empty := model.EmptySnapshot()
	e := &Engine{
		deps: deps,
		subs: map[int]chan struct{}{},
	}
	e.state.Store(&State{Snapshot: empty, View: stats.Build(empty)})
	return e
}

func (e *Engine) State() *State {
	return e.state.Load()
}

func (e *Engine) Loaded() bool {
	return e.state.Load().Loaded
}

// Refresh runs one poll cycle. Either every read succeeds and the state is
// replaced, or the previous state is kept. Failures are logged, not
// surfaced as notifications.
func (e *Engine) Refresh(ctx context.Context) error {
	if e.closed.Load() {
		return ErrClosed
	}

	start := time.Now()
	token, _ := e.deps.Tokens.Get()
	snap, err := e.fetch(ctx, token)
	metrics.ObserveRefresh(err, time.Since(start))

	if e.closed.Load() {
		e.deps.Logger.Debug("discarding refresh result after close")
		return ErrClosed
	}

	if err != nil {
		e.deps.Logger.Warn("refresh failed, keeping previous snapshot", zap.Error(err))
		e.markLoaded()
		return err
	}

	if !e.publish(snap) {
		e.deps.Logger.Debug("discarding refresh result after close")
		return ErrClosed
	}
	return nil
}

// History fetches the 30-day daily stats of one monitor on demand. The
// result is not part of the snapshot.
func (e *Engine) History(ctx context.Context, monitorID int64) ([]model.DailyStats, error) {
	token, _ := e.deps.Tokens.Get()
	return e.deps.API.History(ctx, token, monitorID)
}

func (e *Engine) fetch(ctx context.Context, token string) (*model.Snapshot, error) {
	snap := &model.Snapshot{Webhooks: []model.Webhook{}}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.Monitors, err = e.deps.API.ListMonitors(gctx, token)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Checks, err = e.deps.API.ListChecks(gctx, token, e.deps.ChecksLimit)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Incidents, err = e.deps.API.ListIncidents(gctx, token)
		return err
	})
	g.Go(func() error {
		var err error
		snap.History, err = e.deps.API.AllHistory(gctx, token)
		return err
	})
	// The webhook list is admin only.
	if token != "" {
		g.Go(func() error {
			var err error
			snap.Webhooks, err = e.deps.API.ListWebhooks(gctx, token)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	snap.FetchedAt = time.Now().UTC()
	return snap, nil
}

// publish installs snap unless the engine closed meanwhile. Close takes e.mu,
// so no result lands after Close returns.
func (e *Engine) publish(snap *model.Snapshot) bool {
	view := stats.Build(snap)

	e.mu.Lock()
	if e.closed.Load() {
		e.mu.Unlock()
		return false
	}
	prev := e.state.Load()
	e.state.Store(&State{
		Snapshot: snap,
		View:     view,
		Loaded:   true,
		Version:  prev.Version + 1,
	})
	e.mu.Unlock()

	metrics.SetMonitors(view.Stats.Up, view.Stats.Down)
	e.deps.Logger.Debug("snapshot replaced",
		zap.Int("monitors", len(snap.Monitors)),
		zap.Int("incidents", len(snap.Incidents)),
		zap.Int("down", view.Stats.Down),
	)
	e.notify()
	return true
}

func (e *Engine) markLoaded() {
	e.mu.Lock()
	prev := e.state.Load()
	if prev.Loaded || e.closed.Load() {
		e.mu.Unlock()
		return
	}
	next := *prev
	next.Loaded = true
	next.Version = prev.Version + 1
	e.state.Store(&next)
	e.mu.Unlock()

	e.notify()
}

// Subscribe returns a channel that receives a signal after every state
// change. Signals coalesce; read State() for the current value.
func (e *Engine) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	e.subMu.Lock()
	id := e.nextSubID
	e.nextSubID++
	e.subs[id] = ch
	e.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.subMu.Lock()
			if _, ok := e.subs[id]; ok {
				delete(e.subs, id)
				close(ch)
			}
			e.subMu.Unlock()
		})
	}
}

func (e *Engine) notify() {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for _, ch := range e.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Close tears the engine down. Refreshes still in flight resolve into a
// discarded result.
func (e *Engine) Close() {
	e.mu.Lock()
	swapped := e.closed.CompareAndSwap(false, true)
	e.mu.Unlock()
	if !swapped {
		return
	}
	e.subMu.Lock()
	for id, ch := range e.subs {
		delete(e.subs, id)
		close(ch)
	}
	e.subMu.Unlock()
}
