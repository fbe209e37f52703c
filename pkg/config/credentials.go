package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/mitchellh/go-homedir"
)

// DefaultCredentialsPath is where `n1browse setup` persists the API key and CDP URL.
const DefaultCredentialsPath = "~/.n1-browse/credentials.json"

// LegacyCredentialsPath is read when the default file does not exist yet.
// Saves always go to DefaultCredentialsPath.
const LegacyCredentialsPath = "~/.n1-brightdata/credentials.json"

// CredentialsStore is a flat JSON object of credential keys to values kept
// on disk with owner-only permissions.
type CredentialsStore struct {
	path     string
	fallback string
	data     map[string]string
	mu       sync.RWMutex
}

// NewCredentialsStore opens the store at path, expanding a leading ~.
// If path is empty, defaults to DefaultCredentialsPath. The default store
// falls back to LegacyCredentialsPath for reads. A missing file is not an
// error.
func NewCredentialsStore(path string) (*CredentialsStore, error) {
	if path == "" || path == DefaultCredentialsPath {
		return newCredentialsStore(DefaultCredentialsPath, LegacyCredentialsPath)
	}
	return newCredentialsStore(path, "")
}

func newCredentialsStore(path, fallback string) (*CredentialsStore, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve credentials path: %w", err)
	}
	if fallback != "" {
		if fallback, err = homedir.Expand(fallback); err != nil {
			return nil, fmt.Errorf("failed to resolve credentials path: %w", err)
		}
	}

	store := &CredentialsStore{
		path:     expanded,
		fallback: fallback,
		data:     make(map[string]string),
	}
	if err := store.Load(); err != nil {
		return nil, err
	}
	return store, nil
}

// Path returns the absolute path of the credentials file.
func (s *CredentialsStore) Path() string {
	return s.path
}

// Load reads the file from disk. A missing file yields an empty store.
func (s *CredentialsStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) && s.fallback != "" {
		raw, err = os.ReadFile(s.fallback)
	}
	if err != nil {
		if os.IsNotExist(err) {
			s.data = make(map[string]string)
			return nil
		}
		return fmt.Errorf("failed to read credentials file: %w", err)
	}

	data := make(map[string]string)
	for k, v := range parseCredentials(raw) {
		data[k] = v
	}
	s.data = data
	return nil
}

// Raw returns the file contents in the form Resolve accepts.
func (s *CredentialsStore) Raw() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, _ := json.Marshal(s.data)
	return raw
}

// Get returns the stored value for key.
func (s *CredentialsStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	return v, ok
}

// Set stores a value in memory. Call Save to persist it.
func (s *CredentialsStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
}

// Keys returns the stored keys in sorted order.
func (s *CredentialsStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Save writes the store atomically with 0600 permissions.
func (s *CredentialsStore) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	content, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp credentials file: %w", err)
	}
	tempPath := tmp.Name()

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to restrict temp credentials file: %w", err)
	}
	if _, err := tmp.Write(append(content, '\n')); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Mask hides all but the first and last four characters of a secret.
func Mask(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:4] + "****" + value[len(value)-4:]
}
