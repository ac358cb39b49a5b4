// Package region infers the Azure region of a model endpoint from its
// service name and checks it against the regions that serve the Responses API.
package region

import (
	"net/url"
	"sort"
	"strings"
)

// patterns maps region identifiers (as they appear in service names) to display names.
var patterns = map[string]string{
	"eastus":         "East US",
	"eastus2":        "East US 2",
	"westus":         "West US",
	"westus2":        "West US 2",
	"centralus":      "Central US",
	"southcentralus": "South Central US",
	"northeurope":    "North Europe",
	"westeurope":     "West Europe",
	"uksouth":        "UK South",
	"australiaeast":  "Australia East",
	"canadaeast":     "Canada East",
	"brazilsouth":    "Brazil South",
	"japaneast":      "Japan East",
	"southeastasia":  "Southeast Asia",
	"koreacentral":   "Korea Central",
}

// responsesRegions serve the Responses API.
var responsesRegions = map[string]bool{
	"East US":        true,
	"West US 2":      true,
	"North Europe":   true,
	"West Europe":    true,
	"UK South":       true,
	"Australia East": true,
	"Canada East":    true,
}

// sortedPatterns lists pattern keys longest first so "eastus2" wins over "eastus"
// and "southcentralus" over "centralus".
var sortedPatterns = func() []string {
	keys := make([]string, 0, len(patterns))
	for k := range patterns {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// ServiceName returns the first DNS label of endpoint's host.
func ServiceName(endpoint string) string {
	host := endpoint
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		host = u.Hostname()
	}
	name, _, _ := strings.Cut(host, ".")
	return strings.ToLower(name)
}

// IsOpenAIEndpoint reports whether endpoint looks like an Azure OpenAI endpoint.
func IsOpenAIEndpoint(endpoint string) bool {
	u, err := url.Parse(endpoint)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return strings.HasSuffix(host, ".openai.azure.com") || strings.HasSuffix(host, ".cognitiveservices.azure.com")
}

// Detect guesses the region display name from the endpoint's service name.
// Returns "" when the name carries no recognizable region.
func Detect(endpoint string) string {
	name := ServiceName(endpoint)
	for _, p := range sortedPatterns {
		if strings.Contains(name, p) {
			return patterns[p]
		}
	}
	return ""
}

// Normalize maps an identifier ("westeurope") or display name ("West Europe")
// to its display name. Unknown input is returned unchanged.
func Normalize(region string) string {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(region), " ", ""))
	if display, ok := patterns[key]; ok {
		return display
	}
	for _, display := range patterns {
		if strings.EqualFold(display, strings.TrimSpace(region)) {
			return display
		}
	}
	return region
}

// SupportsResponsesAPI reports whether region serves the Responses API.
func SupportsResponsesAPI(region string) bool {
	return responsesRegions[Normalize(region)]
}

// ResponsesRegions returns the supported regions, sorted.
func ResponsesRegions() []string {
	out := make([]string, 0, len(responsesRegions))
	for r := range responsesRegions {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// EuropeanAlternatives returns supported European regions.
func EuropeanAlternatives() []string {
	return []string{"North Europe", "West Europe", "UK South"}
}
