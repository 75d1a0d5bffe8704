package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lsy88/sentinel-dash/internal/apierr"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

const (
	DurationError   = 5 * time.Second
	DurationDefault = 3 * time.Second
)

// Notification is a transient user-visible event.
type Notification struct {
	Level        Level         `json:"level"`
	Message      string        `json:"message"`
	Kind         apierr.Kind   `json:"kind,omitempty"`
	Duration     time.Duration `json:"duration"`
	At           time.Time     `json:"at"`
	SessionEnded bool          `json:"sessionEnded,omitempty"`
}

func DurationFor(level Level) time.Duration {
	if level == LevelError {
		return DurationError
	}
	return DurationDefault
}

// CredentialClearer is satisfied by *store.TokenStore.
type CredentialClearer interface {
	Clear()
}

type Sink interface {
	Deliver(n Notification)
}

type Router struct {
	logger  *zap.Logger
	clearer CredentialClearer

	mu        sync.RWMutex
	subs      map[int]chan Notification
	nextSubID int
	sinks     []Sink
	onEnd     []func()
}

func NewRouter(logger *zap.Logger, clearer CredentialClearer) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		logger:  logger,
		clearer: clearer,
		subs:    map[int]chan Notification{},
	}
}

func (r *Router) AddSink(s Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks = append(r.sinks, s)
}

// OnSessionEnd registers fn to run after an unauthorized failure has cleared
// the credential.
func (r *Router) OnSessionEnd(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onEnd = append(r.onEnd, fn)
}

// Subscribe returns a buffered stream of notifications. Sends never block:
// when the buffer is full the notification is dropped for that subscriber.
func (r *Router) Subscribe(buffer int) (<-chan Notification, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Notification, buffer)

	r.mu.Lock()
	id := r.nextSubID
	r.nextSubID++
	r.subs[id] = ch
	r.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, id)
			r.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (r *Router) Success(msg string) { r.Notify(LevelSuccess, msg) }
func (r *Router) Info(msg string)    { r.Notify(LevelInfo, msg) }
func (r *Router) Warn(msg string)    { r.Notify(LevelWarning, msg) }

func (r *Router) Notify(level Level, msg string) {
	r.Publish(Notification{Level: level, Message: msg})
}

// Error surfaces a failed operation. An unauthorized failure also clears the
// credential and ends the session, once per call.
func (r *Router) Error(err error) apierr.Classification {
	c := apierr.Classify(err)

	level := LevelError
	if c.Kind == apierr.KindRateLimited {
		level = LevelWarning
	}

	unauthorized := c.Kind == apierr.KindUnauthorized
	r.Publish(Notification{
		Level:        level,
		Message:      c.Message,
		Kind:         c.Kind,
		SessionEnded: unauthorized,
	})

	if unauthorized {
		r.endSession()
	}
	return c
}

func (r *Router) Publish(n Notification) {
	if n.Duration == 0 {
		n.Duration = DurationFor(n.Level)
	}
	if n.At.IsZero() {
		n.At = time.Now().UTC()
	}

	r.log(n)

	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, ch := range r.subs {
		select {
		case ch <- n:
		default:
			r.logger.Warn("notification subscriber full, dropping", zap.Int("subscriber", id))
		}
	}
	for _, s := range r.sinks {
		s.Deliver(n)
	}
}

func (r *Router) endSession() {
	if r.clearer != nil {
		r.clearer.Clear()
	}

	r.mu.RLock()
	hooks := make([]func(), len(r.onEnd))
	copy(hooks, r.onEnd)
	r.mu.RUnlock()

	for _, fn := range hooks {
		fn()
	}
}

func (r *Router) log(n Notification) {
	fields := []zap.Field{zap.String("level", string(n.Level)), zap.String("message", n.Message)}
	if n.Kind != "" {
		fields = append(fields, zap.String("kind", string(n.Kind)))
	}
	switch n.Level {
	case LevelError:
		r.logger.Error("notification", fields...)
	case LevelWarning:
		r.logger.Warn("notification", fields...)
	default:
		r.logger.Info("notification", fields...)
	}
}
