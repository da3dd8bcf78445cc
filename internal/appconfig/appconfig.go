// Package appconfig persists ambient UI preferences — the things that
// aren't a bookmark, like whether hidden files are shown — as JSON under
// the user's config directory, separate from the bookmarks.toml catalog
// (spec.md §5 scopes bookmarks narrowly; this is the ambient rest).
package appconfig

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const (
	configDirName  = "gateway"
	configFileName = "config.json"
)

// Config holds the ambient preferences carried across sessions.
type Config struct {
	ShowHidden  bool   `json:"showHidden"`
	SortMode    string `json:"sortMode"`
	Theme       string `json:"theme"`
	DefaultPort int    `json:"defaultPort,omitempty"`
}

type fileConfig struct {
	ShowHidden  *bool   `json:"showHidden"`
	SortMode    *string `json:"sortMode"`
	Theme       *string `json:"theme"`
	DefaultPort *int    `json:"defaultPort"`
}

// Default returns the preferences used before any config.json exists.
func Default() Config {
	return Config{
		ShowHidden: false,
		SortMode:   "name",
		Theme:      "dark",
	}
}

// Path returns config.json's location under the OS config directory.
func Path() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, configDirName, configFileName), nil
}

// Load reads config.json, merging it over Default(); a missing file
// yields the defaults unchanged.
func Load() (Config, error) {
	cfg := Default()
	path, err := Path()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	var stored fileConfig
	if err := json.Unmarshal(data, &stored); err != nil {
		return cfg, err
	}
	return merge(cfg, stored), nil
}

// Save writes cfg to config.json, creating the config directory if
// needed.
func Save(cfg Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func merge(base Config, stored fileConfig) Config {
	merged := base
	if stored.ShowHidden != nil {
		merged.ShowHidden = *stored.ShowHidden
	}
	if stored.SortMode != nil {
		merged.SortMode = *stored.SortMode
	}
	if stored.Theme != nil {
		merged.Theme = *stored.Theme
	}
	if stored.DefaultPort != nil {
		merged.DefaultPort = *stored.DefaultPort
	}
	return merged
}
