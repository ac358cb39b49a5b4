package scenario

import (
	"context"
	"fmt"
	"strings"

	"github.com/codeready-toolchain/searchctl/pkg/config"
	"github.com/codeready-toolchain/searchctl/pkg/llm"
	"github.com/codeready-toolchain/searchctl/pkg/region"
)

func regionDefinition() Definition {
	return Definition{
		Name:        "region",
		Description: "Detect the model endpoint's region and check Responses API support",
		Requires:    []config.Component{config.ComponentOpenAI},
		Needs:       []Dependency{DepLLM},
		Build:       buildRegion,
	}
}

func buildRegion(d *Deps) *Scenario {
	endpoint := d.Config.OpenAI.Endpoint
	return &Scenario{Steps: []Step{
		{
			Name: "Detect region",
			Run: func(_ context.Context, st *State) (string, error) {
				name := region.ServiceName(endpoint)
				if !region.IsOpenAIEndpoint(endpoint) {
					return "service " + name, fmt.Errorf("%s is not an Azure OpenAI endpoint", endpoint)
				}
				r := region.Detect(endpoint)
				if r == "" {
					return "service " + name, fmt.Errorf("no region in service name %q; check the resource in the portal", name)
				}
				st.Set(KeyRegion, r)
				return fmt.Sprintf("service %s, region %s", name, r), nil
			},
		},
		{
			Name: "Check Responses API availability",
			Run: func(_ context.Context, st *State) (string, error) {
				r := st.String(KeyRegion)
				if r == "" {
					return "region unknown, supported: " + strings.Join(region.ResponsesRegions(), ", "), nil
				}
				if !region.SupportsResponsesAPI(r) {
					return "", fmt.Errorf("%s does not serve the Responses API; European alternatives: %s",
						r, strings.Join(region.EuropeanAlternatives(), ", "))
				}
				return r + " serves the Responses API", nil
			},
		},
		{
			Name: "Probe Responses API",
			Run: func(ctx context.Context, _ *State) (string, error) {
				text, err := d.LLM.Respond(ctx, []llm.Message{{Role: llm.RoleUser, Content: "Reply with the single word: ready"}})
				if err != nil {
					if hints := llm.Troubleshoot(err); len(hints) > 0 {
						return "hints: " + strings.Join(hints, "; "), err
					}
					return "", err
				}
				return "model replied: " + truncate(text, 80), nil
			},
		},
	}}
}
