package config

// AuthMode selects how the search client authenticates.
type AuthMode string

const (
	// AuthModeKey sends the admin/query key in the api-key header
	AuthModeKey AuthMode = "key"
	// AuthModeAAD sends a bearer token from the Azure credential chain
	AuthModeAAD AuthMode = "aad"
)

// IsValid checks if the auth mode is valid
func (m AuthMode) IsValid() bool {
	switch m {
	case AuthModeKey, AuthModeAAD:
		return true
	default:
		return false
	}
}

// AnswerAPI selects which hosted LLM API produces answers.
type AnswerAPI string

const (
	// AnswerAPIAuto tries the Responses API and falls back to Chat Completions
	AnswerAPIAuto AnswerAPI = "auto"
	// AnswerAPIResponses uses only the Responses API
	AnswerAPIResponses AnswerAPI = "responses"
	// AnswerAPIChatCompletions uses only Chat Completions
	AnswerAPIChatCompletions AnswerAPI = "chat_completions"
)

// IsValid checks if the answer API is valid
func (a AnswerAPI) IsValid() bool {
	switch a {
	case AnswerAPIAuto, AnswerAPIResponses, AnswerAPIChatCompletions:
		return true
	default:
		return false
	}
}

// Component names a config section a scenario can require.
type Component string

const (
	ComponentSearch   Component = "search"
	ComponentOpenAI   Component = "openai"
	ComponentStorage  Component = "storage"
	ComponentKeyVault Component = "key_vault"
)
