package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML file from the given path and returns a new ConfigManager.
// If the file doesn't exist, creates a default configuration.
func Load(path string) (*Manager, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Info("Config file not found, creating default configuration", "path", path)
		defaultCfg := createDefaultConfig()
		applyEnv(defaultCfg)
		if err := saveDefaultConfig(path, defaultCfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		manager := NewManager(defaultCfg)
		if err := manager.EnsureDirectories(); err != nil {
			return nil, err
		}
		return manager, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	manager := NewManager(cfg)
	if err := manager.EnsureDirectories(); err != nil {
		return nil, err
	}
	return manager, nil
}

// Parse decodes a YAML document on top of the defaults and validates it.
func Parse(r io.Reader) (*Config, error) {
	cfg := createDefaultConfig()
	if err := yaml.NewDecoder(r).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	applyEnv(cfg)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// applyEnv overrides values with environment variables if set
func applyEnv(cfg *Config) {
	if path := os.Getenv("SOULWRITE_LIBRARY_PATH"); path != "" {
		cfg.LibraryPath = path
	}
	if path := os.Getenv("SOULWRITE_DATABASE_PATH"); path != "" {
		cfg.Database.Path = path
	}
	if os.Getenv("SOULWRITE_SUSPENDED") == "true" {
		cfg.Writeback.Suspended = true
	}
}

// saveDefaultConfig saves the default configuration to the specified file path
func saveDefaultConfig(path string, cfg *Config) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()
	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	slog.Info("Default configuration saved", "path", path)
	return nil
}
