package config

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Manager holds the application configuration and provides thread-safe access to it.
type Manager struct {
	mu     sync.RWMutex
	config *Config
}

// NewManager creates a new ConfigManager.
func NewManager(config *Config) *Manager {
	return &Manager{config: config}
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Update updates the configuration.
func (m *Manager) Update(config *Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldConfig := m.config
	m.config = config

	if oldConfig != nil {
		slog.Debug("Configuration updated",
			"library_path_changed", oldConfig.LibraryPath != config.LibraryPath,
			"directory_format_changed", oldConfig.Naming.DirectoryFormat != config.Naming.DirectoryFormat,
			"suspended_changed", oldConfig.Writeback.Suspended != config.Writeback.Suspended,
		)
	}
}

// EnsureDirectories creates the library and job log directories if they don't exist.
func (m *Manager) EnsureDirectories() error {
	cfg := m.Get()

	if err := os.MkdirAll(cfg.LibraryPath, 0755); err != nil {
		return fmt.Errorf("failed to create library directory %s: %w", cfg.LibraryPath, err)
	}
	if cfg.Jobs.Log && cfg.Jobs.LogPath != "" {
		if err := os.MkdirAll(cfg.Jobs.LogPath, 0755); err != nil {
			return fmt.Errorf("failed to create job log directory %s: %w", cfg.Jobs.LogPath, err)
		}
	}

	slog.Info("Required directories created/verified", "library", cfg.LibraryPath)
	return nil
}

// GetYAML returns the current configuration as a YAML string.
func (m *Manager) GetYAML() string {
	yamlBytes, err := yaml.Marshal(m.Get())
	if err != nil {
		slog.Error("failed to marshal config to YAML", "error", err)
		return err.Error()
	}
	return string(yamlBytes)
}
