package scenario

import (
	"context"
	"fmt"
	"strings"

	"github.com/codeready-toolchain/searchctl/pkg/config"
	"github.com/codeready-toolchain/searchctl/pkg/samples"
	"github.com/codeready-toolchain/searchctl/pkg/search"
)

func quickstartDefinition() Definition {
	return Definition{
		Name:        "quickstart",
		Description: "Create the hotels index, upload documents, run queries and delete the index",
		Requires:    []config.Component{config.ComponentSearch},
		Needs:       []Dependency{DepSearch},
		Build:       buildQuickstart,
	}
}

func buildQuickstart(d *Deps) *Scenario {
	sc := d.Config.Scenarios
	index := sc.QuickstartIndex
	var docs []search.Document

	query := func(name string, req search.SearchRequest, describe func(*search.SearchResponse) string) Step {
		return Step{
			Name: name,
			Run: func(ctx context.Context, _ *State) (string, error) {
				resp, err := d.Search.Search(ctx, index, req)
				if err != nil {
					return "", err
				}
				return describe(resp), nil
			},
		}
	}
	hotelNames := func(resp *search.SearchResponse) string {
		return fmt.Sprintf("%d hit(s): %s", len(resp.Results), strings.Join(resultField(resp, "HotelName"), ", "))
	}

	return &Scenario{Steps: []Step{
		{
			Name:  "Create index " + index,
			Fatal: true,
			Run: func(ctx context.Context, _ *State) (string, error) {
				idx, err := d.Search.CreateOrUpdateIndex(ctx, samples.HotelsIndex(index))
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%d fields", len(idx.Fields)), nil
			},
		},
		{
			Name:  "Upload hotel documents",
			Fatal: true,
			Run: func(ctx context.Context, _ *State) (string, error) {
				var err error
				if docs, err = samples.Hotels(); err != nil {
					return "", err
				}
				return uploadDocuments(ctx, d.Search, index, docs)
			},
		},
		{
			Name:  "Wait for documents",
			Fatal: true,
			Run: func(ctx context.Context, _ *State) (string, error) {
				n, err := waitForDocuments(ctx, d.Search, index, int64(len(docs)), sc.IndexerPollInterval)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%d documents searchable", n), nil
			},
		},
		query("Search all documents", search.SearchRequest{Search: "*", Count: true, Select: "HotelId,HotelName"},
			func(resp *search.SearchResponse) string {
				return fmt.Sprintf("%d document(s) matched", countOf(resp))
			}),
		query("Search for wifi", search.SearchRequest{Search: "wifi", Select: "HotelName,Description,Tags", Top: 5}, hotelNames),
		query("Filter by rating", search.SearchRequest{Search: "*", Filter: "Rating gt 4", OrderBy: "Rating desc", Select: "HotelName,Rating"}, hotelNames),
		query("Facet by category", search.SearchRequest{Search: "*", Facets: []string{"Category"}, Top: 0},
			func(resp *search.SearchResponse) string {
				buckets := make([]string, 0, len(resp.Facets["Category"]))
				for _, b := range resp.Facets["Category"] {
					buckets = append(buckets, fmt.Sprintf("%v=%v", b["value"], b["count"]))
				}
				return "categories: " + strings.Join(buckets, ", ")
			}),
		keepOrDelete("Delete index "+index, sc.KeepResources, func(ctx context.Context) error {
			return d.Search.DeleteIndex(ctx, index)
		}),
	}}
}
