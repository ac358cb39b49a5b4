package scenario

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/codeready-toolchain/searchctl/pkg/azrest"
	"github.com/codeready-toolchain/searchctl/pkg/config"
	"github.com/codeready-toolchain/searchctl/pkg/datalake"
	"github.com/codeready-toolchain/searchctl/pkg/graph"
	"github.com/codeready-toolchain/searchctl/pkg/samples"
	"github.com/codeready-toolchain/searchctl/pkg/search"
)

// parksRoot is the folder the data source crawls.
const parksRoot = "state-parks"

// parkFolders pairs each state folder with the group that may read it.
var parkFolders = []struct {
	dir   string
	file  string
	group int
}{
	{dir: "oregon", file: "oregon_state_parks.csv", group: 0},
	{dir: "washington", file: "washington_state_parks.csv", group: 1},
}

func permissionsPullDefinition() Definition {
	return Definition{
		Name:        "permissions-pull",
		Description: "Stage ACL-protected files in the data lake, index them with an indexer and query as the caller",
		Requires:    []config.Component{config.ComponentSearch, config.ComponentStorage},
		Needs:       []Dependency{DepSearch, DepTokens, DepGraph, DepDataLake, DepSamples},
		Build:       buildPermissionsPull,
	}
}

// ParksIndex is the index the parks indexer fills. Its permission fields are
// populated from the ACLs the data source reads off each file.
func ParksIndex(name string) *search.Index {
	t := search.Bool(true)
	return &search.Index{
		Name:                   name,
		PermissionFilterOption: "enabled",
		Fields: []search.Field{
			{Name: "id", Type: search.TypeString, Key: true, Filterable: t},
			{Name: "content", Type: search.TypeString, Searchable: t},
			{Name: "metadata_storage_name", Type: search.TypeString, Searchable: t, Filterable: t},
			{Name: "UserIds", Type: search.Collection(search.TypeString), Filterable: t, PermissionFilter: search.PermissionUserIDs},
			{Name: "GroupIds", Type: search.Collection(search.TypeString), Filterable: t, PermissionFilter: search.PermissionGroupIDs},
		},
	}
}

// ParksIndexer maps storage metadata onto ParksIndex.
func ParksIndexer(name, dataSource, index string) *search.Indexer {
	return &search.Indexer{
		Name:            name,
		DataSourceName:  dataSource,
		TargetIndexName: index,
		FieldMappings: []search.FieldMapping{
			{SourceFieldName: "metadata_storage_path", TargetFieldName: "id", MappingFunction: &search.MappingFunction{Name: "base64Encode"}},
			{SourceFieldName: "metadata_user_ids", TargetFieldName: "UserIds"},
			{SourceFieldName: "metadata_group_ids", TargetFieldName: "GroupIds"},
		},
		Parameters: &search.IndexerParameters{
			Configuration: map[string]any{"dataToExtract": "contentAndMetadata"},
		},
	}
}

func buildPermissionsPull(d *Deps) *Scenario {
	cfg := d.Config
	sc := cfg.Scenarios
	fs := cfg.Storage.ContainerName

	groupFor := func(st *State, i int) string {
		ids := st.Strings(KeyGroupIDs)
		if i < len(ids) {
			return ids[i]
		}
		return ids[len(ids)-1]
	}

	steps := []Step{
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
			Name:  "List caller groups",
			Fatal: true,
			Run: func(ctx context.Context, st *State) (string, error) {
				groups, err := d.Graph.MemberOf(ctx)
				if err != nil {
					return "", err
				}
				ids := graph.GroupIDs(groups)
				if len(ids) == 0 {
					return "", fmt.Errorf("caller belongs to no groups; folder ACLs need at least one")
				}
				if len(ids) > 2 {
					ids = ids[:2]
				}
				st.Set(KeyGroupIDs, ids)
				return "using groups " + strings.Join(ids, ", "), nil
			},
		},
		{
			Name:  "Ensure container " + fs,
			Fatal: true,
			Run: func(ctx context.Context, _ *State) (string, error) {
				exists, err := d.DataLake.FileSystemExists(ctx, fs)
				if err != nil {
					return "", err
				}
				if exists {
					return "container exists", nil
				}
				created, err := d.DataLake.CreateFileSystem(ctx, fs)
				if err != nil {
					return "", err
				}
				if !created {
					return "container created concurrently", nil
				}
				return "container created", nil
			},
		},
		{
			Name:  "Create directory " + parksRoot,
			Fatal: true,
			Run: func(ctx context.Context, _ *State) (string, error) {
				return unlessErr("created", d.DataLake.CreateDirectory(ctx, fs, parksRoot))
			},
		},
		{
			Name: "Grant groups access to the root",
			Run: func(ctx context.Context, st *State) (string, error) {
				var lines []string
				for _, id := range uniqueStrings(st.Strings(KeyGroupIDs)) {
					res, err := d.DataLake.SetAccessControlRecursive(ctx, fs, "/", datalake.GroupACL(id, "rwx"))
					if err != nil {
						return strings.Join(lines, "\n"), err
					}
					lines = append(lines, describeACL(id, res))
					if res.FailureCount > 0 {
						return strings.Join(lines, "\n"), fmt.Errorf("%d entries failed: %s", res.FailureCount, strings.Join(res.FailedEntries, ", "))
					}
				}
				return strings.Join(lines, "\n"), nil
			},
		},
	}

	for i, folder := range parkFolders {
		url := ""
		if i < len(cfg.Samples.StateParksURLs) {
			url = cfg.Samples.StateParksURLs[i]
		}
		dir := path.Join(parksRoot, folder.dir)
		steps = append(steps, Step{
			Name: "Stage " + dir,
			Run: func(ctx context.Context, st *State) (string, error) {
				if url == "" {
					return "", fmt.Errorf("no sample URL configured for %s", folder.dir)
				}
				data, err := d.Samples.Fetch(ctx, url)
				if err != nil {
					return "", err
				}
				rows, err := samples.CSVDocuments(data, "")
				if err != nil {
					return "", fmt.Errorf("sample %s is not usable CSV: %w", folder.file, err)
				}
				if err := d.DataLake.CreateDirectory(ctx, fs, dir); err != nil {
					return "", err
				}
				if err := d.DataLake.UploadFile(ctx, fs, path.Join(dir, folder.file), data); err != nil {
					return "", err
				}
				group := groupFor(st, folder.group)
				res, err := d.DataLake.SetAccessControlRecursive(ctx, fs, dir, datalake.GroupACL(group, "rwx"))
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("uploaded %s (%d rows, %d bytes); %s", folder.file, len(rows), len(data), describeACL(group, res)), nil
			},
		})
	}

	steps = append(steps,
		Step{
			Name:  "Create index " + sc.ParksIndex,
			Fatal: true,
			Run: func(ctx context.Context, _ *State) (string, error) {
				_, err := d.Search.CreateOrUpdateIndex(ctx, ParksIndex(sc.ParksIndex))
				return unlessErr("created", err)
			},
		},
		Step{
			Name:  "Create data source " + sc.DataSource,
			Fatal: true,
			Run: func(ctx context.Context, _ *State) (string, error) {
				ds := &search.DataSource{
					Name:                     sc.DataSource,
					Type:                     "adlsgen2",
					Credentials:              search.DataSourceCredentials{ConnectionString: cfg.DataSourceConnection()},
					Container:                search.DataSourceContainer{Name: fs, Query: parksRoot},
					IndexerPermissionOptions: []search.PermissionFilter{search.PermissionUserIDs, search.PermissionGroupIDs},
				}
				return unlessErr("permission options: userIds, groupIds", d.Search.CreateOrUpdateDataSource(ctx, ds))
			},
		},
		Step{
			Name:  "Create indexer " + sc.Indexer,
			Fatal: true,
			Run: func(ctx context.Context, _ *State) (string, error) {
				ix := ParksIndexer(sc.Indexer, sc.DataSource, sc.ParksIndex)
				return unlessErr(fmt.Sprintf("%d field mappings", len(ix.FieldMappings)), d.Search.CreateOrUpdateIndexer(ctx, ix))
			},
		},
		Step{
			Name:    "Run indexer",
			Fatal:   true,
			Timeout: sc.IndexerTimeout,
			Run: func(ctx context.Context, _ *State) (string, error) {
				if err := d.Search.RunIndexer(ctx, sc.Indexer); err != nil {
					// A create starts a run of its own; a second run conflicts until it ends.
					if !errors.Is(err, azrest.ErrConflict) {
						return "", err
					}
				}
				status, err := d.Search.WaitForIndexer(ctx, sc.Indexer, sc.IndexerPollInterval)
				if err != nil {
					return "", err
				}
				last := status.LastResult
				detail := fmt.Sprintf("%s: %d processed, %d failed", last.Status, last.ItemCount, last.FailedCount)
				if last.Status != search.IndexerStatusSuccess {
					if last.ErrorMessage != "" {
						return detail, fmt.Errorf("indexer run %s: %s", last.Status, last.ErrorMessage)
					}
					return detail, fmt.Errorf("indexer run %s", last.Status)
				}
				return detail, nil
			},
		},
		Step{
			Name: "Query as caller",
			Run: func(ctx context.Context, st *State) (string, error) {
				resp, err := d.Search.Search(ctx, sc.ParksIndex, search.SearchRequest{Search: "*", Select: "metadata_storage_name", Count: true},
					search.WithQuerySourceAuthorization(st.String(KeyCallerToken)))
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%d document(s) visible: %s", countOf(resp), strings.Join(resultField(resp, "metadata_storage_name"), ", ")), nil
			},
		},
		keepOrDelete("Delete indexer "+sc.Indexer, sc.KeepResources, func(ctx context.Context) error {
			return d.Search.DeleteIndexer(ctx, sc.Indexer)
		}),
		keepOrDelete("Delete data source "+sc.DataSource, sc.KeepResources, func(ctx context.Context) error {
			return d.Search.DeleteDataSource(ctx, sc.DataSource)
		}),
		keepOrDelete("Delete index "+sc.ParksIndex, sc.KeepResources, func(ctx context.Context) error {
			return d.Search.DeleteIndex(ctx, sc.ParksIndex)
		}),
	)
	return &Scenario{Steps: steps}
}

func describeACL(group string, res *datalake.ACLResult) string {
	return fmt.Sprintf("group %s: %d dirs, %d files updated", group, res.DirectoriesSuccessful, res.FilesSuccessful)
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
