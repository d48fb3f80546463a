// Package state is the persistence boundary: a small key-value store for
// the serialized highlight, progress and bookmark lists, plus content
// hashing for book identity.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// ErrMalformedRecord indicates a persisted record failed validation and was
// rejected at the storage boundary.
var ErrMalformedRecord = errors.New("state: malformed record")

// KV is the key-value persistence collaborator. Writes of a single key are
// atomic: after a crash a reader sees either the old or the new value,
// never a partial one.
type KV interface {
	// Read returns the stored value, or ok=false when the key is absent.
	Read(key string) (value []byte, ok bool, err error)
	Write(key string, value []byte) error
	Remove(key string) error
}

const hashBytes = 8192 // First 8KB for content hash

// ComputeHash generates a content hash identifying a source file, so saved
// state survives file renames.
func ComputeHash(filename string) (string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, hashBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}

	hash := sha256.Sum256(buf[:n])
	return hex.EncodeToString(hash[:16]), nil // First 16 bytes = 32 hex chars
}

// FileStore is a KV keeping one file per key under XDG_STATE_HOME/folio.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStore creates or opens the state directory.
func NewFileStore() (*FileStore, error) {
	dir := getStateDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// getStateDir returns XDG_STATE_HOME/folio or ~/.local/state/folio
func getStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "folio")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "folio")
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) Read(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Write stores the value via a temp file and rename, so a crash mid-write
// leaves the previous value intact.
func (s *FileStore) Write(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tmp, err := os.CreateTemp(s.dir, key+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path(key))
}

func (s *FileStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// MemStore is an in-memory KV used as a test double for the file store.
type MemStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

func (s *MemStore) Read(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (s *MemStore) Write(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.data[key] = v
	return nil
}

func (s *MemStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}
