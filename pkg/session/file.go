package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileStore persists one JSON file per sender under a base directory.
// It keeps an in-memory cache and writes through to disk on every Set,
// so sessions survive restarts. This is the default backend.
type FileStore struct {
	baseDir string
	mu      sync.RWMutex
	cache   map[string]Session
}

// NewFileStore creates the base directory if needed and loads any
// existing session files into the cache.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir %s: %w", baseDir, err)
	}
	s := &FileStore{baseDir: baseDir, cache: make(map[string]Session)}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return fmt.Errorf("read session dir %s: %w", s.baseDir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		var sess Session
		if err := json.Unmarshal(data, &sess); err != nil {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		s.cache[id] = sess
	}
	return nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

func checkID(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	// Sender ids become filenames; keep them out of parent directories.
	if strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return ErrInvalidID
	}
	return nil
}

// Get returns a clone of the cached session, or a fresh empty one.
func (s *FileStore) Get(ctx context.Context, id string) (Session, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.cache[id]; ok {
		return sess.Clone(), nil
	}
	return Session{}, nil
}

// Set caches a clone of sess and writes it to disk.
func (s *FileStore) Set(ctx context.Context, id string, sess Session) error {
	if err := checkID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache[id] = sess.Clone()

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", id, err)
	}
	if err := os.WriteFile(s.path(id), data, 0o644); err != nil {
		return fmt.Errorf("write session %s: %w", id, err)
	}
	return nil
}

// Sweep removes session files whose last write predates the cutoff.
func (s *FileStore) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return 0, fmt.Errorf("read session dir %s: %w", s.baseDir, err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			id := strings.TrimSuffix(entry.Name(), ".json")
			if err := os.Remove(filepath.Join(s.baseDir, entry.Name())); err != nil {
				continue
			}
			delete(s.cache, id)
			removed++
		}
	}
	return removed, nil
}

func (s *FileStore) Close() error { return nil }
