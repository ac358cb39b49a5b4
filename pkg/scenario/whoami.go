package scenario

import (
	"context"
	"fmt"
	"strings"

	"github.com/codeready-toolchain/searchctl/pkg/credential"
	"github.com/codeready-toolchain/searchctl/pkg/graph"
)

func whoamiDefinition() Definition {
	return Definition{
		Name:        "whoami",
		Description: "Show which principal the credential chain signs in as",
		Needs:       []Dependency{DepTokens, DepGraph},
		Build:       buildWhoami,
	}
}

func buildWhoami(d *Deps) *Scenario {
	return &Scenario{Steps: []Step{
		{
			Name:  "Acquire storage token",
			Fatal: true,
			Run: func(ctx context.Context, st *State) (string, error) {
				token, err := d.Tokens.Token(ctx, credential.ScopeStorage)
				if err != nil {
					return "", err
				}
				claims, err := credential.DecodeClaims(token)
				if err != nil {
					return "", err
				}
				st.Set(KeyCallerOID, claims.ObjectID)
				parts := make([]string, 0, 6)
				for _, kv := range claims.Fields() {
					parts = append(parts, kv[0]+"="+kv[1])
				}
				return strings.Join(parts, " "), nil
			},
		},
		{
			Name: "Read Graph profile",
			Run: func(ctx context.Context, st *State) (string, error) {
				me, err := d.Graph.Me(ctx)
				if err != nil {
					return "", err
				}
				detail := fmt.Sprintf("%s (%s) id=%s", me.DisplayName, me.UserPrincipalName, me.ID)
				if oid := st.String(KeyCallerOID); oid != "" && oid != me.ID {
					return detail, fmt.Errorf("token oid %s does not match Graph user %s", oid, me.ID)
				}
				return detail, nil
			},
		},
		{
			Name: "List group memberships",
			Run: func(ctx context.Context, st *State) (string, error) {
				groups, err := d.Graph.MemberOf(ctx)
				if err != nil {
					return "", err
				}
				st.Set(KeyGroupIDs, graph.GroupIDs(groups))
				if len(groups) == 0 {
					return "no group memberships", nil
				}
				lines := make([]string, 0, len(groups))
				for _, g := range groups {
					lines = append(lines, fmt.Sprintf("%s %s", g.ID, g.DisplayName))
				}
				return fmt.Sprintf("%d group(s)\n%s", len(groups), strings.Join(lines, "\n")), nil
			},
		},
	}}
}
