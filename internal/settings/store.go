// Package settings caches durable key/value configuration in memory with
// read-through loads and write-through updates.
package settings

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"visionserver/internal/repository"
)

// KeyConfidenceThreshold is the confidence cutoff applied by the
// post-processor.
const KeyConfidenceThreshold = "confidence_threshold"

// Store is a read-through cache over a SettingsRepository. Reads hit the
// cache; Set writes through to the repository before updating the cache.
type Store struct {
	repo repository.SettingsRepository

	mu    sync.RWMutex
	cache map[string]string
}

func NewStore(repo repository.SettingsRepository) *Store {
	return &Store{
		repo:  repo,
		cache: make(map[string]string),
	}
}

// Seed writes a default value for a key only when the key does not exist yet.
func (s *Store) Seed(key, value, description string) error {
	_, err := s.Get(key)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrSettingNotFound) {
		return err
	}
	return s.Set(key, value, description)
}

// Get returns the value for a key, loading it from the repository on a cache
// miss.
func (s *Store) Get(key string) (string, error) {
	s.mu.RLock()
	value, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return value, nil
	}

	value, err := s.repo.Get(key)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.cache[key] = value
	s.mu.Unlock()
	return value, nil
}

// GetFloat returns a key parsed as float64, or def when the key is missing
// or malformed.
func (s *Store) GetFloat(key string, def float64) float64 {
	value, err := s.Get(key)
	if err != nil {
		return def
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return f
}

// Set persists a key and then updates the cache. A failed write leaves the
// cache untouched.
func (s *Store) Set(key, value, description string) error {
	if err := s.repo.Set(key, value, description); err != nil {
		return fmt.Errorf("failed to persist setting: %w", err)
	}

	s.mu.Lock()
	s.cache[key] = value
	s.mu.Unlock()
	return nil
}

// All returns every stored setting from the repository and refreshes the
// cache with the result.
func (s *Store) All() (map[string]string, error) {
	all, err := s.repo.All()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	for k, v := range all {
		s.cache[k] = v
	}
	s.mu.Unlock()
	return all, nil
}
