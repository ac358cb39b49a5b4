package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/searchctl/pkg/config"
	"github.com/codeready-toolchain/searchctl/pkg/credential"
	"github.com/codeready-toolchain/searchctl/pkg/version"
)

func TestRunCommands(t *testing.T) {
	t.Run("version prints build info", func(t *testing.T) {
		var out, errOut bytes.Buffer
		require.Equal(t, 0, run([]string{"version"}, &out, &errOut))

		var info version.Info
		require.NoError(t, json.Unmarshal(out.Bytes(), &info))
		assert.Equal(t, version.AppName, info.App)
	})

	t.Run("list prints scenarios", func(t *testing.T) {
		var out, errOut bytes.Buffer
		require.Equal(t, 0, run([]string{"list"}, &out, &errOut))
		assert.Contains(t, out.String(), "quickstart")
		assert.Contains(t, out.String(), "permissions-pull")
	})

	t.Run("no command prints usage", func(t *testing.T) {
		var out, errOut bytes.Buffer
		assert.Equal(t, 2, run(nil, &out, &errOut))
		assert.Contains(t, errOut.String(), "Usage: searchctl")
		assert.Contains(t, errOut.String(), "-config-dir")
	})

	t.Run("unknown command", func(t *testing.T) {
		var out, errOut bytes.Buffer
		assert.Equal(t, 2, run([]string{"frobnicate"}, &out, &errOut))
		assert.Contains(t, errOut.String(), `unknown command "frobnicate"`)
	})

	t.Run("bad flag", func(t *testing.T) {
		var out, errOut bytes.Buffer
		assert.Equal(t, 2, run([]string{"-nope", "list"}, &out, &errOut))
	})
}

func testConfig() *config.Config {
	return &config.Config{
		Search: &config.SearchConfig{
			Endpoint:   "https://parks.search.windows.net",
			APIKey:     "search-key",
			APIVersion: "2025-05-01-preview",
			Auth:       config.AuthModeKey,
		},
		OpenAI: &config.OpenAIConfig{
			Endpoint:    "https://lab-eastus.openai.azure.com",
			APIKey:      "openai-key",
			AnswerModel: "gpt-4.1-mini",
			AnswerAPI:   config.AnswerAPIAuto,
		},
		Storage:  &config.StorageConfig{AccountName: "parksdata"},
		KeyVault: &config.KeyVaultConfig{URI: "https://lab.vault.azure.net", KeyName: "cmk"},
		Graph:    &config.GraphConfig{},
		Samples:  &config.SamplesConfig{CacheTTL: time.Minute},
	}
}

func TestBuildDepsWithoutCredential(t *testing.T) {
	d := buildDeps(testConfig(), nil)

	assert.NotNil(t, d.Search, "key auth needs no credential")
	assert.NotNil(t, d.LLM, "api key needs no credential")
	assert.NotNil(t, d.Samples)
	assert.NotNil(t, d.LookupEnv)
	assert.Nil(t, d.Graph)
	assert.Nil(t, d.DataLake)
	assert.Nil(t, d.KeyVault)
	assert.Nil(t, d.Tokens)
}

func TestBuildDepsWithCredential(t *testing.T) {
	d := buildDeps(testConfig(), credential.StaticProvider("token"))

	assert.NotNil(t, d.Search)
	assert.NotNil(t, d.LLM)
	assert.NotNil(t, d.Graph)
	assert.NotNil(t, d.DataLake)
	assert.NotNil(t, d.KeyVault)
	assert.NotNil(t, d.Tokens)
}

func TestBuildDepsAADSearchNeedsCredential(t *testing.T) {
	cfg := testConfig()
	cfg.Search.Auth = config.AuthModeAAD
	cfg.OpenAI.APIKey = ""

	d := buildDeps(cfg, nil)
	assert.Nil(t, d.Search)
	assert.Nil(t, d.LLM)

	d = buildDeps(cfg, credential.StaticProvider("token"))
	assert.NotNil(t, d.Search)
	assert.NotNil(t, d.LLM)
}

func TestBuildDepsSkipsUnconfigured(t *testing.T) {
	cfg := testConfig()
	cfg.Search.Endpoint = ""
	cfg.OpenAI.Endpoint = ""
	cfg.Storage.AccountName = ""
	cfg.KeyVault.URI = ""

	d := buildDeps(cfg, credential.StaticProvider("token"))
	assert.Nil(t, d.Search)
	assert.Nil(t, d.LLM)
	assert.Nil(t, d.DataLake)
	assert.Nil(t, d.KeyVault)
	assert.NotNil(t, d.Graph)
}

func TestNotifiers(t *testing.T) {
	cfg := testConfig()
	assert.Empty(t, notifiers(cfg), "no slack section")

	cfg.Slack = &config.SlackConfig{Token: "xoxb-test"}
	assert.Empty(t, notifiers(cfg), "channel missing")

	cfg.Slack.Channel = "C123"
	assert.Len(t, notifiers(cfg), 1)
}
