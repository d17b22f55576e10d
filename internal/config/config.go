// Package config reads and writes the per-user profile file, with an
// environment-variable overlay applied to the active profile on load.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/clankers-dev/clankers/internal/paths"
)

// Profile holds the sync settings for one named profile.
type Profile struct {
	Endpoint     string `json:"endpoint,omitempty"`
	SyncEnabled  bool   `json:"sync_enabled"`
	SyncInterval int    `json:"sync_interval"`
	AuthMode     string `json:"auth"`
}

// Config holds every profile and which one is active.
type Config struct {
	Profiles      map[string]Profile `json:"profiles"`
	ActiveProfile string             `json:"active_profile"`
}

// DefaultProfile returns the baseline profile: sync disabled, 30s
// interval, no auth.
func DefaultProfile() Profile {
	return Profile{
		SyncEnabled:  false,
		SyncInterval: 30,
		AuthMode:     "none",
	}
}

// DefaultConfig returns a config with a single "default" profile active.
func DefaultConfig() *Config {
	return &Config{
		Profiles: map[string]Profile{
			"default": DefaultProfile(),
		},
		ActiveProfile: "default",
	}
}

// Load reads the config from path, or from paths.GetConfigPath() when
// path is empty, returning a default config if the file does not exist.
func Load(path string) (*Config, error) {
	configPath := path
	if configPath == "" {
		configPath = paths.GetConfigPath()
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]Profile)
	}
	if _, ok := cfg.Profiles["default"]; !ok {
		cfg.Profiles["default"] = DefaultProfile()
	}
	if cfg.ActiveProfile == "" {
		cfg.ActiveProfile = "default"
	}

	cfg.applyEnvOverrides()

	return &cfg, nil
}

// Save writes the config to path, or to paths.GetConfigPath() when path
// is empty.
func (c *Config) Save(path string) error {
	configPath := path
	if configPath == "" {
		configPath = paths.GetConfigPath()
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetActiveProfile returns the currently active profile, or a default
// profile if ActiveProfile names a profile that no longer exists.
func (c *Config) GetActiveProfile() Profile {
	profile, ok := c.Profiles[c.ActiveProfile]
	if !ok {
		return DefaultProfile()
	}
	return profile
}

// SetActiveProfile switches the active profile.
func (c *Config) SetActiveProfile(name string) error {
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("profile '%s' does not exist", name)
	}
	c.ActiveProfile = name
	return nil
}

// GetProfileValue reads one field off the active profile.
func (c *Config) GetProfileValue(key string) (string, error) {
	profile := c.GetActiveProfile()

	switch key {
	case "endpoint":
		return profile.Endpoint, nil
	case "sync_enabled":
		return strconv.FormatBool(profile.SyncEnabled), nil
	case "sync_interval":
		return strconv.Itoa(profile.SyncInterval), nil
	case "auth":
		return profile.AuthMode, nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

// SetProfileValue writes one field on the active profile.
func (c *Config) SetProfileValue(key, value string) error {
	profile := c.GetActiveProfile()

	switch key {
	case "endpoint":
		profile.Endpoint = value
	case "sync_enabled":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for sync_enabled: %w", err)
		}
		profile.SyncEnabled = enabled
	case "sync_interval":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for sync_interval: %w", err)
		}
		profile.SyncInterval = interval
	case "auth":
		profile.AuthMode = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	c.Profiles[c.ActiveProfile] = profile
	return nil
}

// CreateProfile adds a new profile with default settings.
func (c *Config) CreateProfile(name string) error {
	if _, ok := c.Profiles[name]; ok {
		return fmt.Errorf("profile '%s' already exists", name)
	}
	c.Profiles[name] = DefaultProfile()
	return nil
}

// DeleteProfile removes a profile; "default" cannot be deleted. Deleting
// the active profile falls back to "default".
func (c *Config) DeleteProfile(name string) error {
	if name == "default" {
		return fmt.Errorf("cannot delete the 'default' profile")
	}
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("profile '%s' does not exist", name)
	}
	delete(c.Profiles, name)
	if c.ActiveProfile == name {
		c.ActiveProfile = "default"
	}
	return nil
}

// applyEnvOverrides overlays CLANKERS_ENDPOINT / CLANKERS_SYNC_ENABLED
// onto the active profile. It never touches inactive profiles or the
// file on disk.
func (c *Config) applyEnvOverrides() {
	profile := c.GetActiveProfile()

	if v := os.Getenv("CLANKERS_ENDPOINT"); v != "" {
		profile.Endpoint = v
	}
	if v := os.Getenv("CLANKERS_SYNC_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			profile.SyncEnabled = enabled
		}
	}

	c.Profiles[c.ActiveProfile] = profile
}
