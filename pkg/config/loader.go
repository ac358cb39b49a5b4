package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the config directory.
const FileName = "searchctl.yaml"

//go:embed defaults.yaml
var defaultsYAML []byte

// SearchctlYAMLConfig represents the complete searchctl.yaml file structure
type SearchctlYAMLConfig struct {
	Search    SearchConfig   `yaml:"search"`
	OpenAI    OpenAIConfig   `yaml:"openai"`
	Storage   StorageConfig  `yaml:"storage"`
	KeyVault  KeyVaultConfig `yaml:"key_vault"`
	Graph     GraphConfig    `yaml:"graph"`
	Samples   SamplesConfig  `yaml:"samples"`
	Store     StoreConfig    `yaml:"store"`
	Server    ServerConfig   `yaml:"server"`
	Slack     SlackConfig    `yaml:"slack"`
	Masking   MaskingConfig  `yaml:"masking"`
	Scenarios ScenarioConfig `yaml:"scenarios"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
//
// Steps performed:
//  1. Parse the built-in defaults (environment-expanded)
//  2. Load searchctl.yaml from configDir when present
//  3. Decode the user file over the defaults: every key it sets wins, zero
//     values included, and keys it omits keep their default
//  4. Resolve derived values (auth mode)
//  5. Validate
//
// An empty configDir, or a directory without searchctl.yaml, runs on defaults
// and environment variables alone.
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("Configuration initialized successfully",
		"search_endpoint", cfg.Search.Endpoint,
		"search_auth", cfg.Search.Auth,
		"openai_configured", cfg.OpenAI.Endpoint != "",
		"store_enabled", cfg.Store.Enabled)

	return cfg, nil
}

func load(_ context.Context, configDir string) (*Config, error) {
	var merged SearchctlYAMLConfig
	if err := parseYAML(defaultsYAML, &merged); err != nil {
		return nil, NewLoadError("defaults.yaml", err)
	}

	if configDir != "" {
		loader := &configLoader{configDir: configDir}
		err := loader.loadSearchctlYAML(&merged)
		switch {
		case errors.Is(err, ErrConfigNotFound):
			slog.Info("No configuration file, using defaults", "path", filepath.Join(configDir, FileName))
		case err != nil:
			return nil, NewLoadError(FileName, err)
		}
	}

	merged.Search.Auth = resolveAuthMode(merged.Search)

	return &Config{
		configDir: configDir,
		Search:    &merged.Search,
		OpenAI:    &merged.OpenAI,
		Storage:   &merged.Storage,
		KeyVault:  &merged.KeyVault,
		Graph:     &merged.Graph,
		Samples:   &merged.Samples,
		Store:     &merged.Store,
		Server:    &merged.Server,
		Slack:     &merged.Slack,
		Masking:   &merged.Masking,
		Scenarios: &merged.Scenarios,
	}, nil
}

// resolveAuthMode defaults to key auth when a key is present, else Entra ID.
func resolveAuthMode(s SearchConfig) AuthMode {
	if s.Auth != "" {
		return s.Auth
	}
	if s.APIKey != "" {
		return AuthModeKey
	}
	return AuthModeAAD
}

func validate(cfg *Config) error {
	return NewValidator(cfg).ValidateAll()
}

type configLoader struct {
	configDir string
}

// loadSearchctlYAML decodes searchctl.yaml into cfg, which already holds the
// defaults. yaml.v3 only assigns the keys present in the document, so an
// explicit 0, "" or [] replaces the default.
func (l *configLoader) loadSearchctlYAML(cfg *SearchctlYAMLConfig) error {
	path := filepath.Join(l.configDir, FileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}
	return parseYAML(data, cfg)
}

// parseYAML expands {{.VAR}} references and unmarshals. ExpandEnv passes
// malformed templates through so the YAML parser reports the error.
func parseYAML(data []byte, target any) error {
	data = ExpandEnv(data)
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return nil
}
