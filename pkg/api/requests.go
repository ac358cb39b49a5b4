package api

import "github.com/codeready-toolchain/searchctl/pkg/search"

// SearchRequest is the body of POST /api/v1/indexes/:index/search.
type SearchRequest struct {
	Search  string   `json:"search"`
	Filter  string   `json:"filter,omitempty"`
	Select  string   `json:"select,omitempty"`
	OrderBy string   `json:"orderby,omitempty"`
	Facets  []string `json:"facets,omitempty"`
	Top     int      `json:"top,omitempty" binding:"gte=0,lte=1000"`
	Skip    int      `json:"skip,omitempty" binding:"gte=0"`
	Count   bool     `json:"count,omitempty"`
}

func (r SearchRequest) toSearch() search.SearchRequest {
	text := r.Search
	if text == "" {
		text = "*"
	}
	return search.SearchRequest{
		Search:  text,
		Filter:  r.Filter,
		Select:  r.Select,
		OrderBy: r.OrderBy,
		Facets:  r.Facets,
		Top:     r.Top,
		Skip:    r.Skip,
		Count:   r.Count,
	}
}
