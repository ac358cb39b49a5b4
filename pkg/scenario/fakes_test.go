package scenario

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/searchctl/pkg/azrest"
	"github.com/codeready-toolchain/searchctl/pkg/config"
	"github.com/codeready-toolchain/searchctl/pkg/credential"
	"github.com/codeready-toolchain/searchctl/pkg/datalake"
	"github.com/codeready-toolchain/searchctl/pkg/graph"
	"github.com/codeready-toolchain/searchctl/pkg/keyvault"
	"github.com/codeready-toolchain/searchctl/pkg/llm"
	"github.com/codeready-toolchain/searchctl/pkg/search"
)

const (
	testOID    = "11111111-1111-1111-1111-111111111111"
	testGroupA = "aaaaaaaa-0000-0000-0000-000000000001"
	testGroupB = "bbbbbbbb-0000-0000-0000-000000000002"
)

func testConfig() *config.Config {
	return &config.Config{
		Search: &config.SearchConfig{Endpoint: "https://parks.search.windows.net", APIKey: "k", APIVersion: "2025-05-01-preview", Auth: config.AuthModeKey},
		OpenAI: &config.OpenAIConfig{
			Endpoint:    "https://lab-eastus.openai.azure.com",
			APIVersion:  "2025-03-01-preview",
			AnswerModel: "gpt-4.1-mini",
			AgentModel:  "gpt-4.1-mini",
			AnswerAPI:   config.AnswerAPIAuto,
		},
		Storage:  &config.StorageConfig{AccountName: "parksdata", ContainerName: "parks", ResourceID: "/subscriptions/s/resourceGroups/g/providers/Microsoft.Storage/storageAccounts/parksdata"},
		KeyVault: &config.KeyVaultConfig{URI: "https://lab.vault.azure.net", KeyName: "cmk"},
		Graph:    &config.GraphConfig{},
		Samples: &config.SamplesConfig{
			CacheTTL:       time.Minute,
			StateParksURLs: []string{"https://example.test/oregon.csv", "https://example.test/washington.csv"},
		},
		Store:   &config.StoreConfig{},
		Server:  &config.ServerConfig{},
		Masking: &config.MaskingConfig{PatternGroup: "azure"},
		Scenarios: &config.ScenarioConfig{
			QuickstartIndex:     "hotels-quickstart",
			PermissionsIndex:    "perm-idx",
			ParksIndex:          "parks-idx",
			DataSource:          "parks-ds",
			Indexer:             "parks-indexer",
			AgentIndex:          "earth-at-night",
			AgentName:           "earth-agent",
			IndexerPollInterval: time.Millisecond,
			IndexerTimeout:      time.Second,
			StepTimeout:         time.Second,
		},
	}
}

func makeToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return token
}

func callerTokens(t *testing.T) credential.TokenProvider {
	return credential.StaticProvider(makeToken(t, jwt.MapClaims{
		"oid": testOID,
		"upn": "ranger@parks.example",
		"tid": "tenant-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}))
}

// fakeSearch keeps indexes and documents in memory. Queries carrying a
// query-source token only see documents whose oid or group fields match the
// token's oid or memberGroups.
type fakeSearch struct {
	mu           sync.Mutex
	indexes      map[string]*search.Index
	docs         map[string][]search.Document
	dataSources  map[string]*search.DataSource
	indexers     map[string]*search.Indexer
	agents       map[string]*search.KnowledgeAgent
	memberGroups []string
	leaky        bool
	calls        []string
	headers      []http.Header
	retrieve     *search.RetrieveResponse
	lastRetrieve search.RetrieveRequest
	indexerRun   *search.IndexerExecution
	runErr       error
	errs         map[string]error
}

func newFakeSearch() *fakeSearch {
	return &fakeSearch{
		indexes:     map[string]*search.Index{},
		docs:        map[string][]search.Document{},
		dataSources: map[string]*search.DataSource{},
		indexers:    map[string]*search.Indexer{},
		agents:      map[string]*search.KnowledgeAgent{},
		indexerRun:  &search.IndexerExecution{Status: search.IndexerStatusSuccess, ItemCount: 2},
		errs:        map[string]error{},
	}
}

func (f *fakeSearch) record(call string) error {
	f.calls = append(f.calls, call)
	return f.errs[call]
}

func (f *fakeSearch) Endpoint() string { return "https://parks.search.windows.net" }

func (f *fakeSearch) ListIndexes(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListIndexes"); err != nil {
		return nil, err
	}
	var names []string
	for n := range f.indexes {
		names = append(names, n)
	}
	slices.Sort(names)
	return names, nil
}

func (f *fakeSearch) GetIndex(_ context.Context, name string) (*search.Index, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GetIndex"); err != nil {
		return nil, err
	}
	idx, ok := f.indexes[name]
	if !ok {
		return nil, fmt.Errorf("get index %s: %w", name, azrest.ErrNotFound)
	}
	return idx, nil
}

func (f *fakeSearch) CreateOrUpdateIndex(_ context.Context, idx *search.Index) (*search.Index, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateOrUpdateIndex"); err != nil {
		return nil, err
	}
	f.indexes[idx.Name] = idx
	return idx, nil
}

func (f *fakeSearch) DeleteIndex(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteIndex"); err != nil {
		return err
	}
	delete(f.indexes, name)
	delete(f.docs, name)
	return nil
}

func (f *fakeSearch) IndexDocuments(_ context.Context, index string, _ search.Action, docs []search.Document) ([]search.IndexingResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("IndexDocuments"); err != nil {
		return nil, err
	}
	results := make([]search.IndexingResult, 0, len(docs))
	for i, d := range docs {
		f.docs[index] = append(f.docs[index], d)
		results = append(results, search.IndexingResult{Key: fmt.Sprint(i), Status: true, StatusCode: http.StatusCreated})
	}
	return results, nil
}

func (f *fakeSearch) CountDocuments(_ context.Context, index string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.docs[index])), f.errs["CountDocuments"]
}

func (f *fakeSearch) Search(_ context.Context, index string, req search.SearchRequest, opts ...search.QueryOption) (*search.SearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Search"); err != nil {
		return nil, err
	}
	h := http.Header{}
	for _, opt := range opts {
		opt(h)
	}
	f.headers = append(f.headers, h)

	var oid string
	if tok := h.Get(search.QuerySourceAuthorizationHeader); tok != "" && h.Get(search.ElevatedReadHeader) == "" && !f.leaky {
		claims, err := credential.DecodeClaims(tok)
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", index, azrest.ErrUnauthorized)
		}
		oid = claims.ObjectID
	}

	resp := &search.SearchResponse{Facets: map[string][]map[string]any{}}
	for _, d := range f.docs[index] {
		if oid != "" && !f.visible(d, oid) {
			continue
		}
		resp.Results = append(resp.Results, search.SearchResult{Score: 1, Document: d})
	}
	for _, facet := range req.Facets {
		counts := map[string]int{}
		for _, r := range resp.Results {
			counts[fmt.Sprint(r.Document[facet])]++
		}
		for v, n := range counts {
			resp.Facets[facet] = append(resp.Facets[facet], map[string]any{"value": v, "count": n})
		}
	}
	if req.Count {
		n := int64(len(resp.Results))
		resp.Count = &n
	}
	return resp, nil
}

func (f *fakeSearch) visible(d search.Document, oid string) bool {
	if ids, ok := d["oid"].([]string); ok && slices.Contains(ids, oid) {
		return true
	}
	if ids, ok := d["group"].([]string); ok {
		for _, g := range ids {
			if slices.Contains(f.memberGroups, g) {
				return true
			}
		}
	}
	return false
}

func (f *fakeSearch) CreateOrUpdateDataSource(_ context.Context, ds *search.DataSource) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dataSources[ds.Name] = ds
	return f.record("CreateOrUpdateDataSource")
}

func (f *fakeSearch) DeleteDataSource(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.dataSources, name)
	return f.record("DeleteDataSource")
}

func (f *fakeSearch) CreateOrUpdateIndexer(_ context.Context, ix *search.Indexer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexers[ix.Name] = ix
	return f.record("CreateOrUpdateIndexer")
}

func (f *fakeSearch) DeleteIndexer(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.indexers, name)
	return f.record("DeleteIndexer")
}

func (f *fakeSearch) RunIndexer(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "RunIndexer")
	return f.runErr
}

func (f *fakeSearch) WaitForIndexer(_ context.Context, name string, _ time.Duration) (*search.IndexerStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("WaitForIndexer"); err != nil {
		return nil, err
	}
	if ix, ok := f.indexers[name]; ok {
		f.docs[ix.TargetIndexName] = []search.Document{
			{"id": "b3JlZ29u", "metadata_storage_name": "oregon_state_parks.csv", "group": []string{testGroupA}},
			{"id": "d2FzaGluZ3Rvbg", "metadata_storage_name": "washington_state_parks.csv", "group": []string{testGroupB}},
		}
	}
	return &search.IndexerStatus{Status: "running", LastResult: f.indexerRun}, nil
}

func (f *fakeSearch) CreateOrUpdateKnowledgeAgent(_ context.Context, agent *search.KnowledgeAgent) (*search.KnowledgeAgent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateOrUpdateKnowledgeAgent"); err != nil {
		return nil, err
	}
	f.agents[agent.Name] = agent
	return agent, nil
}

func (f *fakeSearch) DeleteKnowledgeAgent(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.agents, name)
	return f.record("DeleteKnowledgeAgent")
}

func (f *fakeSearch) Retrieve(_ context.Context, _ string, req search.RetrieveRequest, _ ...search.QueryOption) (*search.RetrieveResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Retrieve"); err != nil {
		return nil, err
	}
	f.lastRetrieve = req
	if f.retrieve != nil {
		return f.retrieve, nil
	}
	return &search.RetrieveResponse{
		Response:   []search.AgentMessage{search.TextMessage("assistant", `[{"ref_id":0,"content":"Suburban lighting grows in December."}]`)},
		References: []search.AgentReference{{Type: "searchIndex", ID: "0", DocKey: "earth_at_night_508_page_1"}},
	}, nil
}

type fakeLLM struct {
	mu          sync.Mutex
	calls       []string
	messages    []llm.Message
	respondErr  error
	answerErr   error
	respondText string
}

func (f *fakeLLM) Answer(_ context.Context, msgs []llm.Message) (*llm.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "Answer")
	f.messages = msgs
	if f.answerErr != nil {
		return nil, f.answerErr
	}
	return &llm.Answer{Text: "Holiday lighting in suburbs.", API: llm.APIResponses}, nil
}

func (f *fakeLLM) Respond(_ context.Context, msgs []llm.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "Respond")
	f.messages = msgs
	if f.respondErr != nil {
		return "", f.respondErr
	}
	if f.respondText != "" {
		return f.respondText, nil
	}
	return "ready", nil
}

func (f *fakeLLM) ChatCompletion(_ context.Context, msgs []llm.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "ChatCompletion")
	f.messages = msgs
	return "from chat", nil
}

type fakeGraph struct {
	user   *graph.User
	groups []graph.Group
	err    error
}

func (f *fakeGraph) Me(context.Context) (*graph.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeGraph) MemberOf(context.Context) ([]graph.Group, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.groups, nil
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		user:   &graph.User{ID: testOID, DisplayName: "Park Ranger", UserPrincipalName: "ranger@parks.example"},
		groups: []graph.Group{{ID: testGroupA, DisplayName: "Oregon"}, {ID: testGroupB, DisplayName: "Washington"}, {ID: "cccc", DisplayName: "Other"}},
	}
}

type aclCall struct {
	path string
	acl  string
}

type fakeLake struct {
	mu      sync.Mutex
	exists  bool
	created []string
	dirs    []string
	files   map[string][]byte
	acls    []aclCall
	aclFail int
}

func newFakeLake() *fakeLake {
	return &fakeLake{files: map[string][]byte{}}
}

func (f *fakeLake) FileSystemExists(context.Context, string) (bool, error) { return f.exists, nil }

func (f *fakeLake) CreateFileSystem(_ context.Context, fs string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, fs)
	f.exists = true
	return true, nil
}

func (f *fakeLake) CreateDirectory(_ context.Context, _, dir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dirs = append(f.dirs, dir)
	return nil
}

func (f *fakeLake) UploadFile(_ context.Context, _, path string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = data
	return nil
}

func (f *fakeLake) SetAccessControlRecursive(_ context.Context, _, path, acl string) (*datalake.ACLResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acls = append(f.acls, aclCall{path: path, acl: acl})
	res := &datalake.ACLResult{DirectoriesSuccessful: 1, FilesSuccessful: 1, FailureCount: f.aclFail}
	if f.aclFail > 0 {
		res.FailedEntries = []string{"state-parks/oregon"}
	}
	return res, nil
}

type fakeVault struct {
	key      *keyvault.Key
	getErr   error
	roundErr error
}

func (f *fakeVault) GetKey(context.Context, string, string) (*keyvault.Key, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.key, nil
}

func (f *fakeVault) ValidateRoundTrip(context.Context, string, string) (string, error) {
	if f.roundErr != nil {
		return "", f.roundErr
	}
	return f.key.Version(), nil
}

type fakeSamples map[string][]byte

func (f fakeSamples) Fetch(_ context.Context, url string) ([]byte, error) {
	data, ok := f[url]
	if !ok {
		return nil, fmt.Errorf("fetch %s: %w", url, azrest.ErrNotFound)
	}
	return data, nil
}

// recordingRecorder captures callbacks in order.
type recordingRecorder struct {
	mu     sync.Mutex
	events []string
	last   *Run
}

func (r *recordingRecorder) RunStarted(_ context.Context, run *Run) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "start:"+run.Scenario)
}

func (r *recordingRecorder) StepFinished(_ context.Context, _ *Run, step StepResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf("step:%s:%s", step.Name, step.Status))
}

func (r *recordingRecorder) RunFinished(_ context.Context, run *Run) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "finish:"+string(run.Status))
	r.last = run.Clone()
}
