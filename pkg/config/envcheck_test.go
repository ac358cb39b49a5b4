package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckEnv(t *testing.T) {
	env := map[string]string{
		"SEARCH-ENDPOINT":       "https://your-service-name.search.windows.net",
		"AZURE_SEARCH_API_KEY":  "abcdefgh1234",
		"AZURE_OPENAI_ENDPOINT": "https://parks-openai.openai.azure.com",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	vars := []EnvVar{
		{Name: "AZURE_SEARCH_ENDPOINT", Aliases: []string{"SEARCH-ENDPOINT"}, Required: true},
		{Name: "AZURE_SEARCH_API_KEY", Secret: true},
		{Name: "AZURE_OPENAI_ENDPOINT"},
		{Name: "AZURE_KEY_VAULT_URI"},
	}

	checks := CheckEnv(vars, lookup)
	assert.Equal(t, []EnvCheck{
		{Name: "AZURE_SEARCH_ENDPOINT", Source: "SEARCH-ENDPOINT", Status: EnvStatusPlaceholder, Value: "https://your-service-name.search.windows.net", Required: true},
		{Name: "AZURE_SEARCH_API_KEY", Source: "AZURE_SEARCH_API_KEY", Status: EnvStatusOK, Value: "********1234"},
		{Name: "AZURE_OPENAI_ENDPOINT", Source: "AZURE_OPENAI_ENDPOINT", Status: EnvStatusOK, Value: "https://parks-openai.openai.azure.com"},
		{Name: "AZURE_KEY_VAULT_URI", Status: EnvStatusMissing},
	}, checks)

	problems := EnvProblems(checks)
	assert.Len(t, problems, 1)
	assert.Equal(t, "AZURE_SEARCH_ENDPOINT", problems[0].Name)
}

func TestCheckEnv_RequiredMissing(t *testing.T) {
	checks := CheckEnv([]EnvVar{{Name: "X_REQUIRED", Required: true}}, func(string) (string, bool) { return "", false })
	assert.Equal(t, EnvStatusMissing, checks[0].Status)
	assert.Len(t, EnvProblems(checks), 1)
}
