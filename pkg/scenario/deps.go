package scenario

import (
	"context"
	"time"

	"github.com/codeready-toolchain/searchctl/pkg/config"
	"github.com/codeready-toolchain/searchctl/pkg/credential"
	"github.com/codeready-toolchain/searchctl/pkg/datalake"
	"github.com/codeready-toolchain/searchctl/pkg/graph"
	"github.com/codeready-toolchain/searchctl/pkg/keyvault"
	"github.com/codeready-toolchain/searchctl/pkg/llm"
	"github.com/codeready-toolchain/searchctl/pkg/search"
)

// SearchService is the part of the search client the scenarios call.
type SearchService interface {
	Endpoint() string
	ListIndexes(ctx context.Context) ([]string, error)
	GetIndex(ctx context.Context, name string) (*search.Index, error)
	CreateOrUpdateIndex(ctx context.Context, idx *search.Index) (*search.Index, error)
	DeleteIndex(ctx context.Context, name string) error
	IndexDocuments(ctx context.Context, index string, action search.Action, docs []search.Document) ([]search.IndexingResult, error)
	CountDocuments(ctx context.Context, index string) (int64, error)
	Search(ctx context.Context, index string, req search.SearchRequest, opts ...search.QueryOption) (*search.SearchResponse, error)
	CreateOrUpdateDataSource(ctx context.Context, ds *search.DataSource) error
	DeleteDataSource(ctx context.Context, name string) error
	CreateOrUpdateIndexer(ctx context.Context, ix *search.Indexer) error
	DeleteIndexer(ctx context.Context, name string) error
	RunIndexer(ctx context.Context, name string) error
	WaitForIndexer(ctx context.Context, name string, interval time.Duration) (*search.IndexerStatus, error)
	CreateOrUpdateKnowledgeAgent(ctx context.Context, agent *search.KnowledgeAgent) (*search.KnowledgeAgent, error)
	DeleteKnowledgeAgent(ctx context.Context, name string) error
	Retrieve(ctx context.Context, agent string, req search.RetrieveRequest, opts ...search.QueryOption) (*search.RetrieveResponse, error)
}

// LanguageModel is the hosted model used for answers and the region check.
type LanguageModel interface {
	Answer(ctx context.Context, messages []llm.Message) (*llm.Answer, error)
	Respond(ctx context.Context, messages []llm.Message) (string, error)
	ChatCompletion(ctx context.Context, messages []llm.Message) (string, error)
}

// Directory resolves the signed-in principal.
type Directory interface {
	Me(ctx context.Context) (*graph.User, error)
	MemberOf(ctx context.Context) ([]graph.Group, error)
}

// FileSystem is the data lake surface used to stage indexer content.
type FileSystem interface {
	FileSystemExists(ctx context.Context, fileSystem string) (bool, error)
	CreateFileSystem(ctx context.Context, fileSystem string) (bool, error)
	CreateDirectory(ctx context.Context, fileSystem, dir string) error
	UploadFile(ctx context.Context, fileSystem, path string, data []byte) error
	SetAccessControlRecursive(ctx context.Context, fileSystem, path, acl string) (*datalake.ACLResult, error)
}

// KeyStore validates the customer-managed key.
type KeyStore interface {
	GetKey(ctx context.Context, name, version string) (*keyvault.Key, error)
	ValidateRoundTrip(ctx context.Context, name, version string) (string, error)
}

// SampleSource downloads sample data.
type SampleSource interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Deps holds everything scenario builders may use. Unused clients may be nil.
type Deps struct {
	Config    *config.Config
	Search    SearchService
	LLM       LanguageModel
	Graph     Directory
	DataLake  FileSystem
	KeyVault  KeyStore
	Samples   SampleSource
	Tokens    credential.TokenProvider
	LookupEnv func(key string) (string, bool)
}

// Dependency names a client in Deps.
type Dependency string

const (
	DepSearch   Dependency = "search"
	DepLLM      Dependency = "llm"
	DepGraph    Dependency = "graph"
	DepDataLake Dependency = "datalake"
	DepKeyVault Dependency = "keyvault"
	DepSamples  Dependency = "samples"
	DepTokens   Dependency = "tokens"
)

func (d *Deps) has(dep Dependency) bool {
	switch dep {
	case DepSearch:
		return d.Search != nil
	case DepLLM:
		return d.LLM != nil
	case DepGraph:
		return d.Graph != nil
	case DepDataLake:
		return d.DataLake != nil
	case DepKeyVault:
		return d.KeyVault != nil
	case DepSamples:
		return d.Samples != nil
	case DepTokens:
		return d.Tokens != nil
	}
	return false
}
