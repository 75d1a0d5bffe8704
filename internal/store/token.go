package store

import (
	"sync"

	"go.uber.org/zap"
)

const TokenKey = "admin_token"

// TokenStore owns the admin credential. Durable storage is best effort: a
// failing backend is logged and the in-memory value keeps governing the
// current session.
type TokenStore struct {
	kv     KV
	logger *zap.Logger

	// writeMu orders writers end to end: memory, storage, then subscribers.
	writeMu sync.Mutex

	mu    sync.RWMutex
	token string

	subMu sync.Mutex
	subs  []func(authenticated bool)
}

func NewTokenStore(kv KV, logger *zap.Logger) *TokenStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &TokenStore{kv: kv, logger: logger}
	if kv == nil {
		return t
	}

	v, ok, err := kv.Get(TokenKey)
	switch {
	case err != nil:
		logger.Warn("token store unreadable, starting anonymous", zap.Error(err))
	case ok:
		t.token = v
	}
	return t
}

func (t *TokenStore) Get() (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.token, t.token != ""
}

func (t *TokenStore) Authenticated() bool {
	_, ok := t.Get()
	return ok
}

// Set replaces the credential. An empty token is the same as Clear.
// Subscribers run while the write is held and must not call Set or Clear.
func (t *TokenStore) Set(token string) {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.mu.Lock()
	changed := (t.token != "") != (token != "")
	t.token = token
	t.mu.Unlock()

	t.persist(token)
	if changed {
		t.publish(token != "")
	}
}

func (t *TokenStore) Clear() {
	t.Set("")
}

// Subscribe registers fn to run whenever the store moves between the
// authenticated and anonymous states.
func (t *TokenStore) Subscribe(fn func(authenticated bool)) {
	t.subMu.Lock()
	defer t.subMu.Unlock()
	t.subs = append(t.subs, fn)
}

func (t *TokenStore) persist(token string) {
	if t.kv == nil {
		return
	}
	var err error
	if token == "" {
		err = t.kv.Delete(TokenKey)
	} else {
		err = t.kv.Put(TokenKey, token)
	}
	if err != nil {
		t.logger.Warn("failed to persist credential", zap.Bool("clear", token == ""), zap.Error(err))
	}
}

func (t *TokenStore) publish(authenticated bool) {
	t.subMu.Lock()
	subs := make([]func(bool), len(t.subs))
	copy(subs, t.subs)
	t.subMu.Unlock()

	for _, fn := range subs {
		fn(authenticated)
	}
}
