package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultAutoSaveInterval is the default checkpoint interval in seconds
const DefaultAutoSaveInterval = 120

// RepoSettings holds the git repository coordinates
type RepoSettings struct {
	Branch string `json:"branch"`
	URL    string `json:"url"`
}

// Settings represents the structure of <data>/colab.json.
// A lifecycle operation reads it once as an immutable snapshot;
// edits never affect a session that is already running.
type Settings struct {
	AutoSaveInterval int          `json:"auto_save_interval"`
	Classpath        string       `json:"classpath"`
	EnigmaArgs       string       `json:"enigma_args"`
	EnigmaMainClass  string       `json:"enigma_main_class"`
	JarFile          string       `json:"jar_file"`
	MappingsFile     string       `json:"mappings_file"`
	PostSessionCmd   string       `json:"post_session_cmd"`
	PreSessionCmd    string       `json:"pre_session_cmd"`
	PullCmd          string       `json:"pull_cmd"`
	Repo             RepoSettings `json:"repo"`
}

// DefaultSettings returns settings matching a fresh install
func DefaultSettings() Settings {
	return Settings{
		AutoSaveInterval: DefaultAutoSaveInterval,
		EnigmaMainClass:  "cuchaz.enigma.Main",
		JarFile:          "file.jar",
		MappingsFile:     "mappings/",
		Repo:             RepoSettings{Branch: "master"},
	}
}

// Load reads the settings file, creating it with defaults when absent
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		settings := DefaultSettings()
		if err := Save(path, settings); err != nil {
			return Settings{}, err
		}
		return settings, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	if settings.AutoSaveInterval <= 0 {
		settings.AutoSaveInterval = DefaultAutoSaveInterval
	}
	return settings, nil
}

// Save writes the settings file, creating parent directories as needed
func Save(path string, settings Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
