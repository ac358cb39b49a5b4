package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearServiceEnv blanks every variable defaults.yaml reads so tests do not
// depend on the developer's environment.
func clearServiceEnv(t *testing.T) {
	t.Helper()
	for _, v := range KnownEnvVars {
		t.Setenv(v.Name, "")
		for _, a := range v.Aliases {
			t.Setenv(a, "")
		}
	}
	t.Setenv("AZURE_SEARCH_AUTH", "")
	t.Setenv("AZURE_SEARCH_INDEX_NAME", "")
	t.Setenv("AGENT_MODEL", "")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))
	return dir
}

func TestInitialize_DefaultsOnly(t *testing.T) {
	clearServiceEnv(t)
	t.Setenv("AZURE_SEARCH_ENDPOINT", "https://parks.search.windows.net")
	t.Setenv("AZURE_SEARCH_API_KEY", "admin-key-0123456789")

	cfg, err := Initialize(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "https://parks.search.windows.net", cfg.Search.Endpoint)
	assert.Equal(t, "admin-key-0123456789", cfg.Search.APIKey)
	assert.Equal(t, AuthModeKey, cfg.Search.Auth)
	assert.Equal(t, "2025-05-01-preview", cfg.Search.APIVersion)
	assert.Equal(t, AnswerAPIAuto, cfg.OpenAI.AnswerAPI)
	assert.Equal(t, "gpt-4.1-mini", cfg.OpenAI.AnswerModel)
	assert.Equal(t, "state-parks", cfg.Storage.ContainerName)
	assert.Equal(t, 10*time.Minute, cfg.Samples.CacheTTL)
	assert.Len(t, cfg.Samples.StateParksURLs, 2)
	assert.Equal(t, "hotels-quickstart", cfg.Scenarios.QuickstartIndex)
	assert.Equal(t, 5*time.Second, cfg.Scenarios.IndexerPollInterval)
	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.False(t, cfg.Store.Enabled)
	assert.Equal(t, 30, cfg.Store.RetentionDays)
	assert.Equal(t, time.Hour, cfg.Store.CleanupInterval)
	assert.Empty(t, cfg.ConfigDir())
}

func TestInitialize_LegacyVariableNames(t *testing.T) {
	clearServiceEnv(t)
	t.Setenv("SEARCH-ENDPOINT", "https://legacy.search.windows.net")
	t.Setenv("SEARCH-API-KEY", "legacy-key")

	cfg, err := Initialize(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "https://legacy.search.windows.net", cfg.Search.Endpoint)
	assert.Equal(t, "legacy-key", cfg.Search.APIKey)
}

func TestInitialize_AADWhenNoKey(t *testing.T) {
	clearServiceEnv(t)

	cfg, err := Initialize(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, AuthModeAAD, cfg.Search.Auth)
}

func TestInitialize_UserFileOverridesDefaults(t *testing.T) {
	clearServiceEnv(t)
	t.Setenv("PARKS_ENDPOINT", "https://from-template.search.windows.net")

	dir := writeConfig(t, `
search:
  endpoint: "{{.PARKS_ENDPOINT}}"
  auth: aad
openai:
  answer_api: chat_completions
store:
  enabled: true
samples:
  cache_ttl: 30s
scenarios:
  quickstart_index: my-hotels
`)

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.ConfigDir())
	assert.Equal(t, "https://from-template.search.windows.net", cfg.Search.Endpoint)
	assert.Equal(t, AuthModeAAD, cfg.Search.Auth)
	assert.Equal(t, AnswerAPIChatCompletions, cfg.OpenAI.AnswerAPI)
	assert.True(t, cfg.Store.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Samples.CacheTTL)
	assert.Equal(t, "my-hotels", cfg.Scenarios.QuickstartIndex)
	// untouched defaults survive the merge
	assert.Equal(t, "earth-at-night", cfg.Scenarios.AgentIndex)
	assert.Equal(t, "2025-05-01-preview", cfg.Search.APIVersion)
	assert.Equal(t, []string{"raw.githubusercontent.com", "github.com"}, cfg.Samples.AllowedDomains)
}

func TestInitialize_UserZeroValuesOverrideDefaults(t *testing.T) {
	clearServiceEnv(t)
	dir := writeConfig(t, `
store:
  retention_days: 0
server:
  grpc_addr: ""
samples:
  allowed_domains: []
`)

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Store.RetentionDays)
	assert.Empty(t, cfg.Server.GRPCAddr)
	assert.Empty(t, cfg.Samples.AllowedDomains)
	// siblings the file leaves out keep their defaults
	assert.Equal(t, time.Hour, cfg.Store.CleanupInterval)
	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, 10*time.Minute, cfg.Samples.CacheTTL)
}

func TestInitialize_MissingFileUsesDefaults(t *testing.T) {
	clearServiceEnv(t)

	cfg, err := Initialize(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "hotels-quickstart", cfg.Scenarios.QuickstartIndex)
}

func TestInitialize_InvalidYAML(t *testing.T) {
	clearServiceEnv(t)
	dir := writeConfig(t, "search: [unclosed")

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidYAML)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, FileName, loadErr.File)
}

func TestInitialize_ValidationFailure(t *testing.T) {
	clearServiceEnv(t)
	dir := writeConfig(t, `
search:
  auth: certificate
`)

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidValue)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "auth", valErr.Field)
}
