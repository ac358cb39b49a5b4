package scenario

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/codeready-toolchain/searchctl/pkg/config"
	"github.com/codeready-toolchain/searchctl/pkg/graph"
	"github.com/codeready-toolchain/searchctl/pkg/search"
)

// foreignPrincipal is an object ID no caller can hold.
const foreignPrincipal = "00000000-0000-0000-0000-000000000000"

func permissionsPushDefinition() Definition {
	return Definition{
		Name:        "permissions-push",
		Description: "Push documents tagged with user and group IDs and query them with the caller's token",
		Requires:    []config.Component{config.ComponentSearch},
		Needs:       []Dependency{DepSearch, DepTokens, DepGraph},
		Build:       buildPermissionsPush,
	}
}

// PermissionsIndex is an index whose oid and group fields are matched against
// the query-source identity.
func PermissionsIndex(name string) *search.Index {
	t := search.Bool(true)
	return &search.Index{
		Name:                   name,
		PermissionFilterOption: "enabled",
		Fields: []search.Field{
			{Name: "id", Type: search.TypeString, Key: true, Filterable: t},
			{Name: "content", Type: search.TypeString, Searchable: t},
			{Name: "oid", Type: search.Collection(search.TypeString), Filterable: t, PermissionFilter: search.PermissionUserIDs},
			{Name: "group", Type: search.Collection(search.TypeString), Filterable: t, PermissionFilter: search.PermissionGroupIDs},
		},
	}
}

func buildPermissionsPush(d *Deps) *Scenario {
	sc := d.Config.Scenarios
	index := sc.PermissionsIndex

	return &Scenario{Steps: []Step{
		{
			Name:  "Acquire caller token",
			Fatal: true,
			Run: func(ctx context.Context, st *State) (string, error) {
				claims, err := callerToken(ctx, d.Tokens, st)
				if err != nil {
					return "", err
				}
				return "oid " + claims.ObjectID, nil
			},
		},
		{
			Name: "List caller groups",
			Run: func(ctx context.Context, st *State) (string, error) {
				groups, err := d.Graph.MemberOf(ctx)
				if err != nil {
					return "", err
				}
				ids := graph.GroupIDs(groups)
				st.Set(KeyGroupIDs, ids)
				return fmt.Sprintf("%d group(s)", len(ids)), nil
			},
		},
		{
			Name:  "Create index " + index,
			Fatal: true,
			Run: func(ctx context.Context, _ *State) (string, error) {
				idx, err := d.Search.CreateOrUpdateIndex(ctx, PermissionsIndex(index))
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("permission filters: %t", idx.HasPermissionFilters()), nil
			},
		},
		{
			Name:  "Upload permission-tagged documents",
			Fatal: true,
			Run: func(ctx context.Context, st *State) (string, error) {
				return uploadDocuments(ctx, d.Search, index, pushDocuments(st.String(KeyCallerOID), st.Strings(KeyGroupIDs)))
			},
		},
		{
			Name:  "Wait for documents",
			Fatal: true,
			Run: func(ctx context.Context, st *State) (string, error) {
				want := int64(len(pushDocuments(st.String(KeyCallerOID), st.Strings(KeyGroupIDs))))
				n, err := waitForDocuments(ctx, d.Search, index, want, sc.IndexerPollInterval)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%d documents searchable", n), nil
			},
		},
		{
			Name: "Query as caller",
			Run: func(ctx context.Context, st *State) (string, error) {
				resp, err := d.Search.Search(ctx, index, search.SearchRequest{Search: "*", Select: "id,content"},
					search.WithQuerySourceAuthorization(st.String(KeyCallerToken)))
				if err != nil {
					return "", err
				}
				ids := resultField(resp, "id")
				detail := "visible: " + strings.Join(ids, ", ")
				if slices.Contains(ids, "foreign") {
					return detail, fmt.Errorf("document owned by another principal was returned")
				}
				if !slices.Contains(ids, "mine") {
					return detail, fmt.Errorf("document owned by the caller was not returned")
				}
				return detail, nil
			},
		},
		{
			Name: "Query with elevated read",
			Run: func(ctx context.Context, st *State) (string, error) {
				resp, err := d.Search.Search(ctx, index, search.SearchRequest{Search: "*", Select: "id", Count: true},
					search.WithQuerySourceAuthorization(st.String(KeyCallerToken)), search.WithElevatedRead())
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%d document(s) visible with elevated read", countOf(resp)), nil
			},
		},
		keepOrDelete("Delete index "+index, sc.KeepResources, func(ctx context.Context) error {
			return d.Search.DeleteIndex(ctx, index)
		}),
	}}
}

// pushDocuments tags one document with the caller, one with the caller's first
// group (when there is one) and one with a principal nobody holds.
func pushDocuments(oid string, groupIDs []string) []search.Document {
	docs := []search.Document{
		{"id": "mine", "content": "Visible to the caller by object ID", "oid": []string{oid}, "group": []string{}},
		{"id": "foreign", "content": "Visible to nobody", "oid": []string{foreignPrincipal}, "group": []string{foreignPrincipal}},
	}
	if len(groupIDs) > 0 {
		docs = append(docs, search.Document{
			"id": "group", "content": "Visible to members of the caller's first group", "oid": []string{}, "group": []string{groupIDs[0]},
		})
	}
	return docs
}
