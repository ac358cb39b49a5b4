package scenario

import (
	"context"
	"fmt"
	"strings"

	"github.com/codeready-toolchain/searchctl/pkg/config"
)

func connectionDefinition() Definition {
	return Definition{
		Name:        "connection",
		Description: "Validate the search connection by listing indexes",
		Requires:    []config.Component{config.ComponentSearch},
		Needs:       []Dependency{DepSearch},
		Build:       buildConnection,
	}
}

func buildConnection(d *Deps) *Scenario {
	steps := []Step{{
		Name:  "List indexes",
		Fatal: true,
		Run: func(ctx context.Context, st *State) (string, error) {
			names, err := d.Search.ListIndexes(ctx)
			if err != nil {
				return "", err
			}
			st.Set(KeyIndexes, names)
			if len(names) == 0 {
				return fmt.Sprintf("connected to %s, no indexes yet", d.Search.Endpoint()), nil
			}
			return fmt.Sprintf("connected to %s, %d index(es): %s", d.Search.Endpoint(), len(names), strings.Join(names, ", ")), nil
		},
	}}

	if name := d.Config.Search.IndexName; name != "" {
		steps = append(steps, Step{
			Name: "Get index " + name,
			Run: func(ctx context.Context, _ *State) (string, error) {
				idx, err := d.Search.GetIndex(ctx, name)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%d fields, permission filters: %t, encryption key: %t",
					len(idx.Fields), idx.HasPermissionFilters(), idx.EncryptionKey != nil), nil
			},
		})
	}
	return &Scenario{Steps: steps}
}
