package api

import (
	"github.com/codeready-toolchain/searchctl/pkg/config"
	"github.com/codeready-toolchain/searchctl/pkg/scenario"
	"github.com/codeready-toolchain/searchctl/pkg/search"
	"github.com/codeready-toolchain/searchctl/pkg/store"
	"github.com/codeready-toolchain/searchctl/pkg/version"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthCheck is the status of one component.
type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status     string                 `json:"status"`
	Version    version.Info           `json:"version"`
	Checks     map[string]HealthCheck `json:"checks"`
	Database   *store.HealthStatus    `json:"database,omitempty"`
	ActiveRuns int64                  `json:"active_runs"`
}

// ScenarioInfo describes a registered scenario.
type ScenarioInfo struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Requires    []config.Component `json:"requires,omitempty"`
}

// ScenarioListResponse is returned by GET /api/v1/scenarios.
type ScenarioListResponse struct {
	Scenarios []ScenarioInfo `json:"scenarios"`
}

// RunAcceptedResponse is returned by POST /api/v1/scenarios/:name/runs.
type RunAcceptedResponse struct {
	RunID    string          `json:"run_id"`
	Scenario string          `json:"scenario"`
	Status   scenario.Status `json:"status"`
}

// RunListResponse is returned by GET /api/v1/runs.
type RunListResponse struct {
	Runs []*scenario.Run `json:"runs"`
}

// SearchHit is one query result.
type SearchHit struct {
	Score    float64         `json:"score"`
	Document search.Document `json:"document"`
}

// SearchResponse is returned by POST /api/v1/indexes/:index/search.
type SearchResponse struct {
	Count   *int64                      `json:"count,omitempty"`
	Facets  map[string][]map[string]any `json:"facets,omitempty"`
	Results []SearchHit                 `json:"results"`
}

func newSearchResponse(resp *search.SearchResponse) SearchResponse {
	out := SearchResponse{
		Count:   resp.Count,
		Facets:  resp.Facets,
		Results: make([]SearchHit, 0, len(resp.Results)),
	}
	for _, r := range resp.Results {
		out.Results = append(out.Results, SearchHit{Score: r.Score, Document: r.Document})
	}
	return out
}
