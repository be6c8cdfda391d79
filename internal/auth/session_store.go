package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/sakif/reclaim/internal/repository"
)

// SessionStore persists the device's session between launches, the way the
// mobile client keeps it in the keychain.
type SessionStore interface {
	// Load returns repository.ErrNoSession when nothing is stored.
	Load() (*repository.Session, error)
	Save(s *repository.Session) error
	Clear() error
}

// FileStore keeps the session as JSON in a single file readable only by the
// current user.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path. The file is created on the
// first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Load() (*repository.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, repository.ErrNoSession
		}
		return nil, fmt.Errorf("auth: reading session file: %w", err)
	}

	var s repository.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("auth: decoding session file: %w", err)
	}
	if s.Token == nil || s.Token.AccessToken == "" {
		return nil, repository.ErrNoSession
	}
	return &s, nil
}

func (f *FileStore) Save(s *repository.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("auth: creating session dir: %w", err)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("auth: encoding session: %w", err)
	}
	// write-then-rename so a crash never leaves half a file behind
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("auth: writing session file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("auth: replacing session file: %w", err)
	}
	return nil
}

func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("auth: removing session file: %w", err)
	}
	return nil
}

// MemoryStore keeps the session in process memory only.
type MemoryStore struct {
	mu      sync.Mutex
	session *repository.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (*repository.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, repository.ErrNoSession
	}
	s := *m.session
	return &s, nil
}

func (m *MemoryStore) Save(s *repository.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *s
	m.session = &stored
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}
