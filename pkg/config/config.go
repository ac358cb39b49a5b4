package config

import (
	"strings"
)

// Config is the umbrella configuration object returned by Initialize and
// passed to every command.
type Config struct {
	configDir string // Configuration directory path (for reference)

	Search    *SearchConfig
	OpenAI    *OpenAIConfig
	Storage   *StorageConfig
	KeyVault  *KeyVaultConfig
	Graph     *GraphConfig
	Samples   *SamplesConfig
	Store     *StoreConfig
	Server    *ServerConfig
	Slack     *SlackConfig
	Masking   *MaskingConfig
	Scenarios *ScenarioConfig
}

// ConfigDir returns the configuration directory path
func (c *Config) ConfigDir() string {
	return c.configDir
}

// StorageAccount returns the configured account name, falling back to the
// AccountName of the connection string.
func (c *Config) StorageAccount() string {
	if c.Storage.AccountName != "" {
		return c.Storage.AccountName
	}
	for _, part := range strings.Split(c.Storage.ConnectionString, ";") {
		if k, v, ok := strings.Cut(strings.TrimSpace(part), "="); ok && k == "AccountName" {
			return v
		}
	}
	return ""
}

// DataSourceConnection returns what the search service should use to reach
// storage: a managed-identity ResourceId when configured, else the connection string.
func (c *Config) DataSourceConnection() string {
	if c.Storage.ResourceID != "" {
		return "ResourceId=" + strings.TrimSuffix(c.Storage.ResourceID, ";") + ";"
	}
	return c.Storage.ConnectionString
}
