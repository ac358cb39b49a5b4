package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Placeholders shipped in sample.env; a value still equal to one of these was never filled in.
var placeholderValues = map[string]bool{
	"https://your-service-name.search.windows.net": true,
	"your-admin-api-key-here":                      true,
	"https://your-service.openai.azure.com":        true,
	"https://your-key-vault.vault.azure.net":       true,
}

// IsPlaceholder reports whether v is a known sample placeholder.
func IsPlaceholder(v string) bool {
	return placeholderValues[strings.TrimRight(strings.TrimSpace(v), "/")]
}

// ConfigValidator validates configuration with clear error messages
type ConfigValidator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration
func NewValidator(cfg *Config) *ConfigValidator {
	return &ConfigValidator{cfg: cfg}
}

// ValidateAll checks the shape of every section (fail-fast - stops at first error).
// Presence of service endpoints is checked per scenario by Require.
func (v *ConfigValidator) ValidateAll() error {
	if err := v.validateSearch(); err != nil {
		return fmt.Errorf("search validation failed: %w", err)
	}
	if err := v.validateOpenAI(); err != nil {
		return fmt.Errorf("openai validation failed: %w", err)
	}
	if err := v.validateEndpoints(); err != nil {
		return fmt.Errorf("endpoint validation failed: %w", err)
	}
	if err := v.validateSamples(); err != nil {
		return fmt.Errorf("samples validation failed: %w", err)
	}
	if err := v.validateScenarios(); err != nil {
		return fmt.Errorf("scenarios validation failed: %w", err)
	}
	if err := v.validateServer(); err != nil {
		return fmt.Errorf("server validation failed: %w", err)
	}
	if err := v.validateStore(); err != nil {
		return fmt.Errorf("store validation failed: %w", err)
	}
	return nil
}

func (v *ConfigValidator) validateSearch() error {
	s := v.cfg.Search
	if !s.Auth.IsValid() {
		return NewValidationError("search", "search", "auth", fmt.Errorf("%w: %q (want key or aad)", ErrInvalidValue, s.Auth))
	}
	if s.APIVersion == "" {
		return NewValidationError("search", "search", "api_version", ErrMissingRequiredField)
	}
	return nil
}

func (v *ConfigValidator) validateOpenAI() error {
	o := v.cfg.OpenAI
	if !o.AnswerAPI.IsValid() {
		return NewValidationError("openai", "openai", "answer_api", fmt.Errorf("%w: %q", ErrInvalidValue, o.AnswerAPI))
	}
	if o.APIVersion == "" {
		return NewValidationError("openai", "openai", "api_version", ErrMissingRequiredField)
	}
	return nil
}

// validateEndpoints checks that every URL that is set parses as http(s).
// Placeholders are tolerated here; the env-check scenario reports them.
func (v *ConfigValidator) validateEndpoints() error {
	endpoints := []struct {
		component, field, value string
	}{
		{"search", "endpoint", v.cfg.Search.Endpoint},
		{"openai", "endpoint", v.cfg.OpenAI.Endpoint},
		{"key_vault", "uri", v.cfg.KeyVault.URI},
		{"graph", "base_url", v.cfg.Graph.BaseURL},
	}
	for _, e := range endpoints {
		if e.value == "" {
			continue
		}
		if err := validateURL(e.value); err != nil {
			return NewValidationError(e.component, e.component, e.field, err)
		}
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("%w: %q is not an http(s) URL", ErrInvalidValue, raw)
	}
	return nil
}

func (v *ConfigValidator) validateSamples() error {
	s := v.cfg.Samples
	if s.CacheTTL <= 0 {
		return NewValidationError("samples", "samples", "cache_ttl", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	for i, u := range s.StateParksURLs {
		if err := validateURL(u); err != nil {
			return NewValidationError("samples", fmt.Sprintf("state_parks_urls[%d]", i), "", err)
		}
	}
	return nil
}

func (v *ConfigValidator) validateScenarios() error {
	s := v.cfg.Scenarios
	names := map[string]string{
		"quickstart_index":  s.QuickstartIndex,
		"permissions_index": s.PermissionsIndex,
		"parks_index":       s.ParksIndex,
		"data_source":       s.DataSource,
		"indexer":           s.Indexer,
		"agent_index":       s.AgentIndex,
		"agent_name":        s.AgentName,
	}
	for field, value := range names {
		if value == "" {
			return NewValidationError("scenarios", "scenarios", field, ErrMissingRequiredField)
		}
		if value != strings.ToLower(value) {
			return NewValidationError("scenarios", "scenarios", field, fmt.Errorf("%w: %q must be lowercase", ErrInvalidValue, value))
		}
	}
	durations := map[string]int64{
		"indexer_poll_interval": int64(s.IndexerPollInterval),
		"indexer_timeout":       int64(s.IndexerTimeout),
		"step_timeout":          int64(s.StepTimeout),
	}
	for field, d := range durations {
		if d <= 0 {
			return NewValidationError("scenarios", "scenarios", field, fmt.Errorf("%w: must be positive", ErrInvalidValue))
		}
	}
	return nil
}

func (v *ConfigValidator) validateServer() error {
	if v.cfg.Server.HTTPAddr == "" {
		return NewValidationError("server", "server", "http_addr", ErrMissingRequiredField)
	}
	return nil
}

func (v *ConfigValidator) validateStore() error {
	s := v.cfg.Store
	if s.RetentionDays < 0 {
		return NewValidationError("store", "store", "retention_days", fmt.Errorf("%w: must not be negative", ErrInvalidValue))
	}
	if s.RetentionDays > 0 && s.CleanupInterval <= 0 {
		return NewValidationError("store", "store", "cleanup_interval", fmt.Errorf("%w: must be positive when retention_days is set", ErrInvalidValue))
	}
	return nil
}

// Require checks that the named sections carry what a scenario needs to make
// remote calls: set, non-placeholder endpoints and credentials.
func (c *Config) Require(components ...Component) error {
	for _, comp := range components {
		if err := c.require(comp); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) require(comp Component) error {
	check := func(field, value string) error {
		switch {
		case value == "":
			return NewValidationError(string(comp), string(comp), field, ErrMissingRequiredField)
		case IsPlaceholder(value):
			return NewValidationError(string(comp), string(comp), field, ErrPlaceholderValue)
		}
		return nil
	}

	switch comp {
	case ComponentSearch:
		if err := check("endpoint", c.Search.Endpoint); err != nil {
			return err
		}
		if c.Search.Auth == AuthModeKey {
			return check("api_key", c.Search.APIKey)
		}
	case ComponentOpenAI:
		if err := check("endpoint", c.OpenAI.Endpoint); err != nil {
			return err
		}
		return check("answer_model", c.OpenAI.AnswerModel)
	case ComponentStorage:
		if err := check("account_name", c.StorageAccount()); err != nil {
			return err
		}
		if err := check("container_name", c.Storage.ContainerName); err != nil {
			return err
		}
		return check("resource_id", c.DataSourceConnection())
	case ComponentKeyVault:
		if err := check("uri", c.KeyVault.URI); err != nil {
			return err
		}
		return check("key_name", c.KeyVault.KeyName)
	default:
		return fmt.Errorf("%w: unknown component %q", ErrInvalidValue, comp)
	}
	return nil
}
