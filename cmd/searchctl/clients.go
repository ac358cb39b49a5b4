package main

import (
	"log/slog"
	"os"

	"github.com/codeready-toolchain/searchctl/pkg/azrest"
	"github.com/codeready-toolchain/searchctl/pkg/config"
	"github.com/codeready-toolchain/searchctl/pkg/credential"
	"github.com/codeready-toolchain/searchctl/pkg/datalake"
	"github.com/codeready-toolchain/searchctl/pkg/graph"
	"github.com/codeready-toolchain/searchctl/pkg/keyvault"
	"github.com/codeready-toolchain/searchctl/pkg/llm"
	"github.com/codeready-toolchain/searchctl/pkg/samples"
	"github.com/codeready-toolchain/searchctl/pkg/scenario"
	"github.com/codeready-toolchain/searchctl/pkg/search"
)

// buildDeps creates every client the configuration allows. A client whose
// settings are missing stays nil; scenarios that need it are refused by the
// registry with a clear message instead of failing mid-run.
// tokens may be nil when no Azure credential is available.
func buildDeps(cfg *config.Config, tokens credential.TokenProvider) *scenario.Deps {
	d := &scenario.Deps{
		Config:    cfg,
		Tokens:    tokens,
		LookupEnv: os.LookupEnv,
		Samples:   samples.NewFetcher(cfg.Samples.AllowedDomains, cfg.Samples.CacheTTL, nil),
	}

	if cfg.Search.Endpoint != "" {
		if auth := searchAuth(cfg.Search, tokens); auth != nil {
			c, err := search.NewClient(cfg.Search.Endpoint, auth, search.Options{APIVersion: cfg.Search.APIVersion})
			if err != nil {
				slog.Warn("Search client unavailable", "error", err)
			} else {
				d.Search = c
			}
		}
	}

	if cfg.OpenAI.Endpoint != "" && cfg.OpenAI.AnswerModel != "" {
		if auth := keyOrBearer("api-key", cfg.OpenAI.APIKey, tokens, credential.ScopeCognitiveServices); auth != nil {
			c, err := llm.NewClient(cfg.OpenAI.Endpoint, auth, llm.Options{
				APIVersion:      cfg.OpenAI.APIVersion,
				Deployment:      cfg.OpenAI.AnswerModel,
				PreferResponses: cfg.OpenAI.AnswerAPI != config.AnswerAPIChatCompletions,
			})
			if err != nil {
				slog.Warn("LLM client unavailable", "error", err)
			} else {
				d.LLM = c
			}
		}
	}

	if tokens == nil {
		return d
	}

	if c, err := graph.NewClient(cfg.Graph.BaseURL, azrest.Bearer{Provider: tokens, Scope: credential.ScopeGraph}, nil); err != nil {
		slog.Warn("Graph client unavailable", "error", err)
	} else {
		d.Graph = c
	}

	azureCred := credential.TokenCredential(tokens)
	if account := cfg.StorageAccount(); account != "" {
		c, err := datalake.NewClient(datalake.Endpoint(account), azureCred, nil)
		if err != nil {
			slog.Warn("Data Lake client unavailable", "error", err)
		} else {
			d.DataLake = c
		}
	}

	if cfg.KeyVault.URI != "" {
		c, err := keyvault.NewClient(cfg.KeyVault.URI, azureCred, nil)
		if err != nil {
			slog.Warn("Key Vault client unavailable", "error", err)
		} else {
			d.KeyVault = c
		}
	}
	return d
}

func searchAuth(s *config.SearchConfig, tokens credential.TokenProvider) azrest.Authorizer {
	if s.Auth == config.AuthModeKey {
		return keyOrBearer("api-key", s.APIKey, nil, "")
	}
	return keyOrBearer("", "", tokens, credential.ScopeSearch)
}

// keyOrBearer prefers a static key and falls back to a bearer token.
// Returns nil when neither is available.
func keyOrBearer(header, key string, tokens credential.TokenProvider, scope string) azrest.Authorizer {
	if key != "" {
		return azrest.APIKey{Header: header, Key: key}
	}
	if tokens != nil {
		return azrest.Bearer{Provider: tokens, Scope: scope}
	}
	return nil
}
