// Package search is a REST client for the managed search service: indexes,
// documents, queries, data sources, indexers and knowledge agents.
// Every method is one remote call; semantics are owned by the service.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codeready-toolchain/searchctl/pkg/azrest"
)

const (
	// DefaultAPIVersion is the first API version with permission filters and knowledge agents.
	DefaultAPIVersion = "2025-05-01-preview"

	// MaxBatchSize is the service limit on documents per indexing request.
	MaxBatchSize = 1000

	// QuerySourceAuthorizationHeader carries the end user's token for permission-filtered queries.
	QuerySourceAuthorizationHeader = "x-ms-query-source-authorization"

	// ElevatedReadHeader asks the service to bypass permission filters (requires elevated role).
	ElevatedReadHeader = "x-ms-enable-elevated-read"

	batchConcurrency = 4
)

// Client talks to one search service endpoint.
type Client struct {
	rest   *azrest.Client
	logger *slog.Logger
}

// Options configures NewClient.
type Options struct {
	APIVersion string
	HTTPClient *http.Client
}

// NewClient creates a search client. auth is either azrest.APIKey{Header: "api-key"}
// or azrest.Bearer with the search scope.
func NewClient(endpoint string, auth azrest.Authorizer, opts Options) (*Client, error) {
	if opts.APIVersion == "" {
		opts.APIVersion = DefaultAPIVersion
	}
	restOpts := []azrest.Option{azrest.WithQuery("api-version", opts.APIVersion)}
	if opts.HTTPClient != nil {
		restOpts = append(restOpts, azrest.WithHTTPClient(opts.HTTPClient))
	}
	rest, err := azrest.New(endpoint, auth, restOpts...)
	if err != nil {
		return nil, fmt.Errorf("search client: %w", err)
	}
	return &Client{
		rest:   rest,
		logger: slog.With("component", "search", "endpoint", endpoint),
	}, nil
}

// Endpoint returns the service endpoint.
func (c *Client) Endpoint() string {
	return c.rest.BaseURL()
}

var representation = http.Header{"Prefer": []string{"return=representation"}}

// --- Indexes ---

// CreateOrUpdateIndex creates the index or replaces its definition.
func (c *Client) CreateOrUpdateIndex(ctx context.Context, idx *Index) (*Index, error) {
	var out Index
	_, err := c.rest.Do(ctx, azrest.Request{
		Method: http.MethodPut,
		Path:   "indexes/" + idx.Name,
		Header: representation,
		Body:   idx,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("create index %s: %w", idx.Name, err)
	}
	c.logger.Info("Index created or updated", "index", idx.Name, "fields", len(idx.Fields))
	return &out, nil
}

// GetIndex fetches an index definition.
func (c *Client) GetIndex(ctx context.Context, name string) (*Index, error) {
	var out Index
	if _, err := c.rest.Do(ctx, azrest.Request{Method: http.MethodGet, Path: "indexes/" + name}, &out); err != nil {
		return nil, fmt.Errorf("get index %s: %w", name, err)
	}
	return &out, nil
}

// ListIndexes returns the names of all indexes on the service.
func (c *Client) ListIndexes(ctx context.Context) ([]string, error) {
	var out struct {
		Value []struct {
			Name string `json:"name"`
		} `json:"value"`
	}
	_, err := c.rest.Do(ctx, azrest.Request{
		Method: http.MethodGet,
		Path:   "indexes",
		Query:  url.Values{"$select": []string{"name"}},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	names := make([]string, 0, len(out.Value))
	for _, v := range out.Value {
		names = append(names, v.Name)
	}
	return names, nil
}

// DeleteIndex deletes an index. Deleting a missing index is not an error.
func (c *Client) DeleteIndex(ctx context.Context, name string) error {
	_, err := c.rest.Do(ctx, azrest.Request{Method: http.MethodDelete, Path: "indexes/" + name}, nil)
	if err != nil && !errors.Is(err, azrest.ErrNotFound) {
		return fmt.Errorf("delete index %s: %w", name, err)
	}
	return nil
}

// --- Documents ---

// IndexDocuments applies action to docs. Batches larger than MaxBatchSize are
// split and sent concurrently; results come back in input order.
func (c *Client) IndexDocuments(ctx context.Context, index string, action Action, docs []Document) ([]IndexingResult, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	chunks := chunkDocuments(docs, MaxBatchSize)
	results := make([][]IndexingResult, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			res, err := c.indexBatch(gctx, index, action, chunk)
			if err != nil {
				return fmt.Errorf("batch %d/%d: %w", i+1, len(chunks), err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("index documents into %s: %w", index, err)
	}

	var merged []IndexingResult
	for _, r := range results {
		merged = append(merged, r...)
	}
	c.logger.Info("Documents indexed",
		"index", index,
		"action", action,
		"documents", len(docs),
		"batches", len(chunks),
		"failed", len(FailedResults(merged)))
	return merged, nil
}

func (c *Client) indexBatch(ctx context.Context, index string, action Action, docs []Document) ([]IndexingResult, error) {
	value := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		item := make(map[string]any, len(d)+1)
		for k, v := range d {
			item[k] = v
		}
		item["@search.action"] = string(action)
		value = append(value, item)
	}

	var out struct {
		Value []IndexingResult `json:"value"`
	}
	_, err := c.rest.Do(ctx, azrest.Request{
		Method: http.MethodPost,
		Path:   "indexes/" + index + "/docs/index",
		Body:   map[string]any{"value": value},
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Value, nil
}

// FailedResults filters results whose status is false.
func FailedResults(results []IndexingResult) []IndexingResult {
	var failed []IndexingResult
	for _, r := range results {
		if !r.Status {
			failed = append(failed, r)
		}
	}
	return failed
}

func chunkDocuments(docs []Document, size int) [][]Document {
	var chunks [][]Document
	for start := 0; start < len(docs); start += size {
		end := min(start+size, len(docs))
		chunks = append(chunks, docs[start:end])
	}
	return chunks
}

// CountDocuments returns the number of documents in an index.
func (c *Client) CountDocuments(ctx context.Context, index string) (int64, error) {
	var n int64
	_, err := c.rest.Do(ctx, azrest.Request{
		Method: http.MethodGet,
		Path:   "indexes/" + index + "/docs/$count",
	}, &n)
	if err != nil {
		return 0, fmt.Errorf("count documents in %s: %w", index, err)
	}
	return n, nil
}

// --- Queries ---

// QueryOption adjusts a single query request.
type QueryOption func(h http.Header)

// WithQuerySourceAuthorization sends the end user's token so the service can
// evaluate permission-filter fields against that identity.
func WithQuerySourceAuthorization(token string) QueryOption {
	return func(h http.Header) {
		h.Set(QuerySourceAuthorizationHeader, token)
	}
}

// WithElevatedRead bypasses permission filters for debugging.
func WithElevatedRead() QueryOption {
	return func(h http.Header) {
		h.Set(ElevatedReadHeader, "true")
	}
}

// Search runs a query against index.
func (c *Client) Search(ctx context.Context, index string, req SearchRequest, opts ...QueryOption) (*SearchResponse, error) {
	header := http.Header{}
	for _, opt := range opts {
		opt(header)
	}

	var out SearchResponse
	_, err := c.rest.Do(ctx, azrest.Request{
		Method: http.MethodPost,
		Path:   "indexes/" + index + "/docs/search",
		Header: header,
		Body:   req,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", index, err)
	}
	c.logger.Debug("Search completed", "index", index, "query", req.Search, "results", len(out.Results))
	return &out, nil
}

// --- Data sources & indexers ---

// CreateOrUpdateDataSource creates or replaces a data source connection.
func (c *Client) CreateOrUpdateDataSource(ctx context.Context, ds *DataSource) error {
	_, err := c.rest.Do(ctx, azrest.Request{
		Method: http.MethodPut,
		Path:   "datasources/" + ds.Name,
		Body:   ds,
	}, nil)
	if err != nil {
		return fmt.Errorf("create data source %s: %w", ds.Name, err)
	}
	c.logger.Info("Data source created or updated", "data_source", ds.Name, "type", ds.Type)
	return nil
}

// DeleteDataSource deletes a data source. Missing is not an error.
func (c *Client) DeleteDataSource(ctx context.Context, name string) error {
	_, err := c.rest.Do(ctx, azrest.Request{Method: http.MethodDelete, Path: "datasources/" + name}, nil)
	if err != nil && !errors.Is(err, azrest.ErrNotFound) {
		return fmt.Errorf("delete data source %s: %w", name, err)
	}
	return nil
}

// CreateOrUpdateIndexer creates or replaces an indexer. Creating an indexer
// also schedules its first run.
func (c *Client) CreateOrUpdateIndexer(ctx context.Context, ix *Indexer) error {
	_, err := c.rest.Do(ctx, azrest.Request{
		Method: http.MethodPut,
		Path:   "indexers/" + ix.Name,
		Body:   ix,
	}, nil)
	if err != nil {
		return fmt.Errorf("create indexer %s: %w", ix.Name, err)
	}
	c.logger.Info("Indexer created or updated", "indexer", ix.Name, "target_index", ix.TargetIndexName)
	return nil
}

// DeleteIndexer deletes an indexer. Missing is not an error.
func (c *Client) DeleteIndexer(ctx context.Context, name string) error {
	_, err := c.rest.Do(ctx, azrest.Request{Method: http.MethodDelete, Path: "indexers/" + name}, nil)
	if err != nil && !errors.Is(err, azrest.ErrNotFound) {
		return fmt.Errorf("delete indexer %s: %w", name, err)
	}
	return nil
}

// RunIndexer triggers an on-demand run.
func (c *Client) RunIndexer(ctx context.Context, name string) error {
	_, err := c.rest.Do(ctx, azrest.Request{Method: http.MethodPost, Path: "indexers/" + name + "/run"}, nil)
	if err != nil {
		return fmt.Errorf("run indexer %s: %w", name, err)
	}
	return nil
}

// GetIndexerStatus returns the indexer's status document.
func (c *Client) GetIndexerStatus(ctx context.Context, name string) (*IndexerStatus, error) {
	var out IndexerStatus
	if _, err := c.rest.Do(ctx, azrest.Request{Method: http.MethodGet, Path: "indexers/" + name + "/status"}, &out); err != nil {
		return nil, fmt.Errorf("get indexer status %s: %w", name, err)
	}
	return &out, nil
}

// WaitForIndexer polls the indexer status until its last run is terminal or ctx ends.
func (c *Client) WaitForIndexer(ctx context.Context, name string, interval time.Duration) (*IndexerStatus, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := c.GetIndexerStatus(ctx, name)
		if err != nil {
			return nil, err
		}
		if status.Terminal() {
			return status, nil
		}
		c.logger.Debug("Waiting for indexer", "indexer", name, "status", status.Status)

		select {
		case <-ctx.Done():
			return status, fmt.Errorf("wait for indexer %s: %w", name, ctx.Err())
		case <-ticker.C:
		}
	}
}

// --- Knowledge agents ---

// CreateOrUpdateKnowledgeAgent creates or replaces a knowledge agent.
func (c *Client) CreateOrUpdateKnowledgeAgent(ctx context.Context, agent *KnowledgeAgent) (*KnowledgeAgent, error) {
	var out KnowledgeAgent
	_, err := c.rest.Do(ctx, azrest.Request{
		Method: http.MethodPut,
		Path:   "agents/" + agent.Name,
		Header: representation,
		Body:   agent,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("create knowledge agent %s: %w", agent.Name, err)
	}
	c.logger.Info("Knowledge agent created or updated", "agent", agent.Name, "targets", len(agent.TargetIndexes))
	return &out, nil
}

// DeleteKnowledgeAgent deletes an agent. Missing is not an error.
func (c *Client) DeleteKnowledgeAgent(ctx context.Context, name string) error {
	_, err := c.rest.Do(ctx, azrest.Request{Method: http.MethodDelete, Path: "agents/" + name}, nil)
	if err != nil && !errors.Is(err, azrest.ErrNotFound) {
		return fmt.Errorf("delete knowledge agent %s: %w", name, err)
	}
	return nil
}

// Retrieve runs the agent's server-side query planning and reranking for a conversation.
func (c *Client) Retrieve(ctx context.Context, agent string, req RetrieveRequest, opts ...QueryOption) (*RetrieveResponse, error) {
	header := http.Header{}
	for _, opt := range opts {
		opt(header)
	}

	var out RetrieveResponse
	_, err := c.rest.Do(ctx, azrest.Request{
		Method: http.MethodPost,
		Path:   "agents/" + agent + "/retrieve",
		Header: header,
		Body:   req,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("retrieve with agent %s: %w", agent, err)
	}
	return &out, nil
}
