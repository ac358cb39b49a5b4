package config

import "time"

// SearchConfig locates and authenticates against the search service.
type SearchConfig struct {
	Endpoint   string   `yaml:"endpoint"`
	APIKey     string   `yaml:"api_key"`
	APIVersion string   `yaml:"api_version"`
	Auth       AuthMode `yaml:"auth"`
	// IndexName is the existing index checked by the connection and cmk scenarios (optional).
	IndexName string `yaml:"index_name"`
}

// OpenAIConfig configures the hosted LLM used for answers and knowledge agents.
type OpenAIConfig struct {
	Endpoint    string    `yaml:"endpoint"`
	APIKey      string    `yaml:"api_key"`
	APIVersion  string    `yaml:"api_version"`
	AnswerModel string    `yaml:"answer_model"`
	AgentModel  string    `yaml:"agent_model"`
	AnswerAPI   AnswerAPI `yaml:"answer_api"`
}

// StorageConfig configures the ADLS Gen2 account used by the indexer scenario.
type StorageConfig struct {
	AccountName      string `yaml:"account_name"`
	ContainerName    string `yaml:"container_name"`
	ResourceID       string `yaml:"resource_id"`
	ConnectionString string `yaml:"connection_string"`
}

// KeyVaultConfig names the customer-managed key.
type KeyVaultConfig struct {
	URI        string `yaml:"uri"`
	KeyName    string `yaml:"key_name"`
	KeyVersion string `yaml:"key_version"`
}

// GraphConfig configures Microsoft Graph lookups.
type GraphConfig struct {
	BaseURL string `yaml:"base_url"`
}

// SamplesConfig controls where sample data is downloaded from.
type SamplesConfig struct {
	AllowedDomains []string      `yaml:"allowed_domains"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	StateParksURLs []string      `yaml:"state_parks_urls"`
}

// StoreConfig toggles PostgreSQL run history. Connection settings come from DB_* variables.
type StoreConfig struct {
	Enabled bool `yaml:"enabled"`
	// RetentionDays is how long finished runs are kept; 0 keeps them forever.
	RetentionDays   int           `yaml:"retention_days"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// ServerConfig holds listener addresses for `searchctl serve`.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	GRPCAddr string `yaml:"grpc_addr"`
}

// SlackConfig enables run notifications. Both Token and Channel must be set.
type SlackConfig struct {
	Token   string `yaml:"token"`
	Channel string `yaml:"channel"`
	// BaseURL is the public URL of `searchctl serve`, used for run links.
	BaseURL string `yaml:"base_url"`
}

// MaskingConfig selects the masking pattern group.
type MaskingConfig struct {
	PatternGroup string `yaml:"pattern_group"`
}

// ScenarioConfig holds resource names and timings used by the scenarios.
type ScenarioConfig struct {
	QuickstartIndex     string        `yaml:"quickstart_index"`
	PermissionsIndex    string        `yaml:"permissions_index"`
	ParksIndex          string        `yaml:"parks_index"`
	DataSource          string        `yaml:"data_source"`
	Indexer             string        `yaml:"indexer"`
	AgentIndex          string        `yaml:"agent_index"`
	AgentName           string        `yaml:"agent_name"`
	IndexerPollInterval time.Duration `yaml:"indexer_poll_interval"`
	IndexerTimeout      time.Duration `yaml:"indexer_timeout"`
	StepTimeout         time.Duration `yaml:"step_timeout"`
	KeepResources       bool          `yaml:"keep_resources"`
}
