package scenario

import (
	"context"
	"fmt"
	"strings"

	"github.com/codeready-toolchain/searchctl/pkg/config"
)

func envCheckDefinition() Definition {
	return Definition{
		Name:        "env-check",
		Description: "Check the environment variables the scenarios read and the resolved search settings",
		Build:       buildEnvCheck,
	}
}

func buildEnvCheck(d *Deps) *Scenario {
	return &Scenario{Steps: []Step{
		{
			Name: "Check environment variables",
			Run: func(_ context.Context, _ *State) (string, error) {
				checks := config.CheckEnv(config.KnownEnvVars, d.LookupEnv)
				lines := make([]string, 0, len(checks))
				for _, c := range checks {
					line := fmt.Sprintf("%s=%s", c.Name, c.Status)
					if c.Value != "" {
						line += " (" + c.Value + ")"
					}
					if c.Source != "" && c.Source != c.Name {
						line += " via " + c.Source
					}
					lines = append(lines, line)
				}
				detail := strings.Join(lines, "\n")

				problems := config.EnvProblems(checks)
				if len(problems) > 0 {
					names := make([]string, 0, len(problems))
					for _, p := range problems {
						names = append(names, fmt.Sprintf("%s (%s)", p.Name, p.Status))
					}
					return detail, fmt.Errorf("%d variable(s) need attention: %s", len(problems), strings.Join(names, ", "))
				}
				return detail, nil
			},
		},
		{
			Name: "Resolve search settings",
			Run: func(_ context.Context, _ *State) (string, error) {
				s := d.Config.Search
				detail := fmt.Sprintf("endpoint=%s auth=%s api_version=%s", s.Endpoint, s.Auth, s.APIVersion)
				if err := d.Config.Require(config.ComponentSearch); err != nil {
					return detail, err
				}
				return detail, nil
			},
		},
	}}
}
