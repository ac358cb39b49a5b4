package search

import "encoding/json"

// Field data types.
const (
	TypeString         = "Edm.String"
	TypeInt32          = "Edm.Int32"
	TypeDouble         = "Edm.Double"
	TypeBoolean        = "Edm.Boolean"
	TypeDateTimeOffset = "Edm.DateTimeOffset"
	TypeComplex        = "Edm.ComplexType"
	TypeSingle         = "Edm.Single"
)

// Collection returns the collection form of a field type.
func Collection(t string) string { return "Collection(" + t + ")" }

// PermissionFilter tags a field as holding principal identifiers that the
// service matches against the caller's identity at query time.
type PermissionFilter string

const (
	PermissionUserIDs  PermissionFilter = "userIds"
	PermissionGroupIDs PermissionFilter = "groupIds"
	PermissionRBAC     PermissionFilter = "rbacScope"
)

// Field is one index field definition.
type Field struct {
	Name             string           `json:"name"`
	Type             string           `json:"type"`
	Key              bool             `json:"key,omitempty"`
	Searchable       *bool            `json:"searchable,omitempty"`
	Filterable       *bool            `json:"filterable,omitempty"`
	Sortable         *bool            `json:"sortable,omitempty"`
	Facetable        *bool            `json:"facetable,omitempty"`
	Retrievable      *bool            `json:"retrievable,omitempty"`
	Analyzer         string           `json:"analyzer,omitempty"`
	Dimensions       int              `json:"dimensions,omitempty"`
	VectorProfile    string           `json:"vectorSearchProfile,omitempty"`
	PermissionFilter PermissionFilter `json:"permissionFilter,omitempty"`
	Fields           []Field          `json:"fields,omitempty"`
}

// Index is a search index definition.
type Index struct {
	Name                   string          `json:"name"`
	Fields                 []Field         `json:"fields"`
	PermissionFilterOption string          `json:"permissionFilterOption,omitempty"`
	Semantic               *SemanticConfig `json:"semantic,omitempty"`
	VectorSearch           *VectorSearch   `json:"vectorSearch,omitempty"`
	EncryptionKey          *EncryptionKey  `json:"encryptionKey,omitempty"`
	ETag                   string          `json:"@odata.etag,omitempty"`
}

// HasPermissionFilters reports whether any field carries a permission filter.
func (i *Index) HasPermissionFilters() bool {
	for _, f := range i.Fields {
		if f.PermissionFilter != "" {
			return true
		}
	}
	return false
}

// SemanticConfig enables semantic ranking, which knowledge agents require.
type SemanticConfig struct {
	DefaultConfiguration string                  `json:"defaultConfiguration,omitempty"`
	Configurations       []SemanticConfiguration `json:"configurations"`
}

// SemanticConfiguration names the fields semantic ranking reads.
type SemanticConfiguration struct {
	Name              string              `json:"name"`
	PrioritizedFields SemanticPrioritized `json:"prioritizedFields"`
}

// SemanticPrioritized lists title/content fields for a semantic configuration.
type SemanticPrioritized struct {
	TitleField    *SemanticField  `json:"titleField,omitempty"`
	ContentFields []SemanticField `json:"prioritizedContentFields,omitempty"`
}

// SemanticField references an index field by name.
type SemanticField struct {
	FieldName string `json:"fieldName"`
}

// VectorSearch holds vector profiles and algorithms.
type VectorSearch struct {
	Profiles   []VectorProfile   `json:"profiles"`
	Algorithms []VectorAlgorithm `json:"algorithms"`
}

// VectorProfile binds a profile name to an algorithm.
type VectorProfile struct {
	Name      string `json:"name"`
	Algorithm string `json:"algorithm"`
}

// VectorAlgorithm configures an ANN algorithm.
type VectorAlgorithm struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// EncryptionKey points an index at a customer-managed key.
type EncryptionKey struct {
	KeyVaultKeyName    string `json:"keyVaultKeyName"`
	KeyVaultKeyVersion string `json:"keyVaultKeyVersion,omitempty"`
	KeyVaultURI        string `json:"keyVaultUri"`
}

// Action is a document indexing action.
type Action string

const (
	ActionUpload        Action = "upload"
	ActionMerge         Action = "merge"
	ActionMergeOrUpload Action = "mergeOrUpload"
	ActionDelete        Action = "delete"
)

// Document is a schemaless search document.
type Document map[string]any

// IndexingResult is the per-document outcome of an indexing batch.
type IndexingResult struct {
	Key          string `json:"key"`
	Status       bool   `json:"status"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	StatusCode   int    `json:"statusCode"`
}

// SearchRequest is a query against an index.
type SearchRequest struct {
	Search     string   `json:"search"`
	Filter     string   `json:"filter,omitempty"`
	Select     string   `json:"select,omitempty"`
	OrderBy    string   `json:"orderby,omitempty"`
	Facets     []string `json:"facets,omitempty"`
	Top        int      `json:"top,omitempty"`
	Skip       int      `json:"skip,omitempty"`
	Count      bool     `json:"count,omitempty"`
	QueryType  string   `json:"queryType,omitempty"`
	SearchMode string   `json:"searchMode,omitempty"`
}

// SearchResult is one hit. Score is lifted out of the document body.
type SearchResult struct {
	Score    float64
	Document Document
}

// UnmarshalJSON splits @search.score from the rest of the hit.
func (r *SearchResult) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if s, ok := raw["@search.score"].(float64); ok {
		r.Score = s
	}
	for k := range raw {
		if len(k) > 0 && k[0] == '@' {
			delete(raw, k)
		}
	}
	r.Document = raw
	return nil
}

// SearchResponse is the result page of a query.
type SearchResponse struct {
	Count   *int64                      `json:"@odata.count,omitempty"`
	Facets  map[string][]map[string]any `json:"@search.facets,omitempty"`
	Results []SearchResult              `json:"value"`
}

// DataSource connects an indexer to external content.
type DataSource struct {
	Name                     string                `json:"name"`
	Type                     string                `json:"type"`
	Credentials              DataSourceCredentials `json:"credentials"`
	Container                DataSourceContainer   `json:"container"`
	IndexerPermissionOptions []PermissionFilter    `json:"indexerPermissionOptions,omitempty"`
	Description              string                `json:"description,omitempty"`
}

// DataSourceCredentials holds the connection string (or ResourceId=...; for managed identity).
type DataSourceCredentials struct {
	ConnectionString string `json:"connectionString"`
}

// DataSourceContainer names the container/folder to crawl.
type DataSourceContainer struct {
	Name  string `json:"name"`
	Query string `json:"query,omitempty"`
}

// FieldMapping maps a source field onto an index field.
type FieldMapping struct {
	SourceFieldName string           `json:"sourceFieldName"`
	TargetFieldName string           `json:"targetFieldName"`
	MappingFunction *MappingFunction `json:"mappingFunction,omitempty"`
}

// MappingFunction transforms a source value during indexing (e.g. base64Encode
// for document keys derived from storage paths).
type MappingFunction struct {
	Name string `json:"name"`
}

// Indexer pulls documents from a data source into an index.
type Indexer struct {
	Name            string             `json:"name"`
	DataSourceName  string             `json:"dataSourceName"`
	TargetIndexName string             `json:"targetIndexName"`
	FieldMappings   []FieldMapping     `json:"fieldMappings,omitempty"`
	Parameters      *IndexerParameters `json:"parameters,omitempty"`
}

// IndexerParameters tunes an indexer run.
type IndexerParameters struct {
	BatchSize     int            `json:"batchSize,omitempty"`
	Configuration map[string]any `json:"configuration,omitempty"`
}

// Indexer execution states reported by the service.
const (
	IndexerStatusSuccess           = "success"
	IndexerStatusInProgress        = "inProgress"
	IndexerStatusTransientFailure  = "transientFailure"
	IndexerStatusPersistentFailure = "persistentFailure"
	IndexerStatusReset             = "reset"
)

// IndexerExecution is one indexer run.
type IndexerExecution struct {
	Status       string         `json:"status"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
	ItemCount    int            `json:"itemsProcessed"`
	FailedCount  int            `json:"itemsFailed"`
	Errors       []IndexerIssue `json:"errors,omitempty"`
}

// IndexerIssue is an item-level error or warning.
type IndexerIssue struct {
	Key          string `json:"key,omitempty"`
	ErrorMessage string `json:"errorMessage"`
}

// IndexerStatus is the indexer status document.
type IndexerStatus struct {
	Status     string             `json:"status"`
	LastResult *IndexerExecution  `json:"lastResult,omitempty"`
	History    []IndexerExecution `json:"executionHistory,omitempty"`
}

// Terminal reports whether the last run finished (successfully or not).
func (s *IndexerStatus) Terminal() bool {
	if s.LastResult == nil {
		return false
	}
	switch s.LastResult.Status {
	case IndexerStatusInProgress, IndexerStatusReset:
		return false
	}
	return true
}

// Bool returns a pointer to b, for optional field attributes.
func Bool(b bool) *bool { return &b }
