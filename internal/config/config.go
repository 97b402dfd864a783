// Package config provides configuration loading and structs for the HearClear server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Semantic SemanticConfig `yaml:"semantic"`
	Audio    AudioConfig    `yaml:"audio"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the transcript and audio directory paths.
type StorageConfig struct {
	TranscriptsDir string `yaml:"transcripts_dir"`
	AudioDir       string `yaml:"audio_dir"`
}

// SemanticConfig holds language model backend settings.
type SemanticConfig struct {
	Enabled        *bool  `yaml:"enabled"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// EnabledOrDefault reports whether semantic matching is on; defaults to true when unset.
func (s *SemanticConfig) EnabledOrDefault() bool {
	if s.Enabled != nil {
		return *s.Enabled
	}
	return true
}

// Timeout returns the backend request timeout as a duration.
func (s *SemanticConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// AudioConfig holds clip extraction settings.
type AudioConfig struct {
	PaddingSeconds *float64 `yaml:"padding_seconds"`
}

// PaddingOrDefault returns the clip padding; defaults to 0.5s when unset.
// An explicit zero disables padding.
func (a *AudioConfig) PaddingOrDefault() float64 {
	if a.PaddingSeconds != nil {
		return *a.PaddingSeconds
	}
	return 0.5
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.TranscriptsDir = expandPath(cfg.Storage.TranscriptsDir, configDir)
	cfg.Storage.AudioDir = expandPath(cfg.Storage.AudioDir, configDir)

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
