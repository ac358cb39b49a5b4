package config

import (
	"os"

	"github.com/codeready-toolchain/searchctl/pkg/masking"
)

// EnvStatus is the outcome of checking one environment variable.
type EnvStatus string

const (
	EnvStatusOK          EnvStatus = "ok"
	EnvStatusMissing     EnvStatus = "missing"
	EnvStatusPlaceholder EnvStatus = "placeholder"
)

// EnvVar describes a variable the scenarios read.
type EnvVar struct {
	Name     string
	Aliases  []string // legacy names accepted when Name is unset
	Secret   bool
	Required bool
}

// EnvCheck is the result for one variable. Value is masked for secrets.
type EnvCheck struct {
	Name     string    `json:"name"`
	Source   string    `json:"source,omitempty"`
	Status   EnvStatus `json:"status"`
	Value    string    `json:"value,omitempty"`
	Required bool      `json:"required"`
}

// KnownEnvVars lists the variables consulted by defaults.yaml.
var KnownEnvVars = []EnvVar{
	{Name: "AZURE_SEARCH_ENDPOINT", Aliases: []string{"AZURE_SEARCH_SERVICE", "SEARCH-ENDPOINT"}, Required: true},
	{Name: "AZURE_SEARCH_API_KEY", Aliases: []string{"SEARCH-API-KEY"}, Secret: true},
	{Name: "AZURE_OPENAI_ENDPOINT"},
	{Name: "AZURE_OPENAI_API_KEY", Secret: true},
	{Name: "AZURE_OPENAI_API_VERSION"},
	{Name: "ANSWER_MODEL"},
	{Name: "AZURE_STORAGE_ACCOUNT_NAME"},
	{Name: "AZURE_STORAGE_CONTAINER_NAME"},
	{Name: "AZURE_STORAGE_RESOURCE_ID"},
	{Name: "AZURE_STORAGE_CONNECTION_STRING", Secret: true},
	{Name: "AZURE_KEY_VAULT_URI"},
	{Name: "AZURE_KEY_VAULT_NAME"},
	{Name: "AZURE_KEY_VAULT_VERSION"},
}

// CheckEnv reports each variable as ok, missing or placeholder.
// lookup defaults to os.LookupEnv.
func CheckEnv(vars []EnvVar, lookup func(string) (string, bool)) []EnvCheck {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	out := make([]EnvCheck, 0, len(vars))
	for _, v := range vars {
		check := EnvCheck{Name: v.Name, Status: EnvStatusMissing, Required: v.Required}
		for _, name := range append([]string{v.Name}, v.Aliases...) {
			value, ok := lookup(name)
			if !ok || value == "" {
				continue
			}
			check.Source = name
			check.Value = value
			check.Status = EnvStatusOK
			if IsPlaceholder(value) {
				check.Status = EnvStatusPlaceholder
			}
			if v.Secret {
				check.Value = masking.MaskSecret(value)
			}
			break
		}
		out = append(out, check)
	}
	return out
}

// EnvProblems returns the required checks that are not ok, plus any
// placeholder, since a placeholder is never intended.
func EnvProblems(checks []EnvCheck) []EnvCheck {
	var out []EnvCheck
	for _, c := range checks {
		if c.Status == EnvStatusPlaceholder || (c.Required && c.Status != EnvStatusOK) {
			out = append(out, c)
		}
	}
	return out
}
