package services

import (
	"sync"

	"colab/internal/config"
)

// SettingsService hands out immutable settings snapshots and persists
// edits. A snapshot taken at session start is never affected by later
// edits.
type SettingsService struct {
	mu   sync.Mutex
	path string
}

// NewSettingsService creates a SettingsService backed by path
func NewSettingsService(path string) *SettingsService {
	return &SettingsService{path: path}
}

// Snapshot reads the current settings as an immutable copy
func (s *SettingsService) Snapshot() (config.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return config.Load(s.path)
}

// Update replaces the stored settings
func (s *SettingsService) Update(settings config.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return config.Save(s.path, settings)
}

// UpdateRepo replaces only the repository coordinates
func (s *SettingsService) UpdateRepo(repo config.RepoSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := config.Load(s.path)
	if err != nil {
		return err
	}
	settings.Repo = repo
	return config.Save(s.path, settings)
}
