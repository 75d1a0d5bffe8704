package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/lsy88/sentinel-dash/internal/config"
)

// KV is the durable key-value port behind the credential. Implementations
// must be safe for concurrent use.
type KV interface {
	Get(key string) (string, bool, error)
	Put(key, value string) error
	Delete(key string) error
	Close() error
}

var ErrClosed = errors.New("store closed")

// Open selects a backend from configuration.
func Open(cfg config.TokenConfig) (KV, error) {
	switch cfg.Backend {
	case "", "file":
		return NewFileKV(cfg.FilePath)
	case "sqlite":
		return NewSQLiteKV(cfg.SQLitePath)
	case "redis":
		return NewRedisKV(cfg.RedisAddr, cfg.RedisDB, cfg.RedisPrefix)
	case "memory":
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown token backend %q", cfg.Backend)
	}
}

// FileKV keeps all keys in one JSON document rewritten atomically on every
// change.
type FileKV struct {
	filePath string
	mu       sync.RWMutex
	data     map[string]string
	closed   bool
}

func NewFileKV(filePath string) (*FileKV, error) {
	if filePath == "" {
		return nil, errors.New("file path is required")
	}
	s := &FileKV{
		filePath: filePath,
		data:     map[string]string{},
	}
	if err := s.load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return s, nil
}

func (s *FileKV) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, ErrClosed
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *FileKV) Put(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	prev, had := s.data[key]
	s.data[key] = value
	if err := s.persistLocked(); err != nil {
		if had {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		return err
	}
	return nil
}

func (s *FileKV) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	prev, had := s.data[key]
	if !had {
		return nil
	}
	delete(s.data, key)
	if err := s.persistLocked(); err != nil {
		s.data[key] = prev
		return err
	}
	return nil
}

func (s *FileKV) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *FileKV) load() error {
	b, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var data map[string]string
	if err := json.Unmarshal(b, &data); err != nil {
		return fmt.Errorf("decode %s: %w", s.filePath, err)
	}
	if data != nil {
		s.data = data
	}
	return nil
}

func (s *FileKV) persistLocked() error {
	b, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.filePath)
}

type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: map[string]string{}}
}

func (m *MemoryKV) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryKV) Put(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryKV) Close() error { return nil }
