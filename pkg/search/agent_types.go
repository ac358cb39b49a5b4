package search

// KnowledgeAgent associates target indexes with a hosted model used for
// query planning. Execution is server-side.
type KnowledgeAgent struct {
	Name          string              `json:"name"`
	Description   string              `json:"description,omitempty"`
	TargetIndexes []AgentTargetIndex  `json:"targetIndexes"`
	Models        []AgentModel        `json:"models"`
	RequestLimits *AgentRequestLimits `json:"requestLimits,omitempty"`
	ETag          string              `json:"@odata.etag,omitempty"`
}

// AgentTargetIndex is an index the agent may query.
type AgentTargetIndex struct {
	IndexName                         string  `json:"indexName"`
	DefaultRerankerThreshold          float64 `json:"defaultRerankerThreshold,omitempty"`
	DefaultIncludeReferenceSourceData *bool   `json:"defaultIncludeReferenceSourceData,omitempty"`
}

// AgentModel is the hosted model the agent plans with.
type AgentModel struct {
	Kind       string                `json:"kind"`
	Parameters AzureOpenAIParameters `json:"azureOpenAIParameters"`
}

// AzureOpenAIParameters identifies a model deployment.
type AzureOpenAIParameters struct {
	ResourceURI  string `json:"resourceUri"`
	DeploymentID string `json:"deploymentId"`
	ModelName    string `json:"modelName"`
	APIKey       string `json:"apiKey,omitempty"`
}

// AgentRequestLimits caps agent output.
type AgentRequestLimits struct {
	MaxOutputSize       int `json:"maxOutputSize,omitempty"`
	MaxRuntimeInSeconds int `json:"maxRuntimeInSeconds,omitempty"`
}

// AgentMessage is one conversation turn sent to or returned by an agent.
type AgentMessage struct {
	Role    string         `json:"role"`
	Content []AgentContent `json:"content"`
}

// AgentContent is a typed message part.
type AgentContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// TextMessage builds a single-part text message.
func TextMessage(role, text string) AgentMessage {
	return AgentMessage{Role: role, Content: []AgentContent{{Type: "text", Text: text}}}
}

// Text concatenates the text parts of a message.
func (m AgentMessage) Text() string {
	var out string
	for _, c := range m.Content {
		if c.Type == "text" {
			out += c.Text
		}
	}
	return out
}

// RetrieveRequest asks an agent to retrieve grounding content for a conversation.
type RetrieveRequest struct {
	Messages          []AgentMessage `json:"messages"`
	TargetIndexParams []TargetParams `json:"targetIndexParams,omitempty"`
}

// TargetParams overrides per-index retrieval settings.
type TargetParams struct {
	IndexName          string  `json:"indexName"`
	RerankerThreshold  float64 `json:"rerankerThreshold,omitempty"`
	MaxDocsForReranker int     `json:"maxDocsForReranker,omitempty"`
}

// RetrieveResponse is the agent's grounding output.
type RetrieveResponse struct {
	Response   []AgentMessage   `json:"response"`
	Activity   []map[string]any `json:"activity,omitempty"`
	References []AgentReference `json:"references,omitempty"`
}

// Text returns the concatenated text of all response messages.
func (r *RetrieveResponse) Text() string {
	var out string
	for _, m := range r.Response {
		out += m.Text()
	}
	return out
}

// AgentReference points at a source document used in the response.
type AgentReference struct {
	Type           string         `json:"type"`
	ID             string         `json:"id"`
	ActivitySource int            `json:"activitySource"`
	DocKey         string         `json:"docKey,omitempty"`
	SourceData     map[string]any `json:"sourceData,omitempty"`
}
