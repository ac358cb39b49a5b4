package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/searchctl/pkg/azrest"
)

const chatReply = `{"choices":[{"message":{"role":"assistant","content":"Suburban belts brighten more in December."}}]}`

const responsesReply = `{"output":[
	{"type":"reasoning","content":[]},
	{"type":"message","content":[{"type":"output_text","text":"Holiday lighting "},{"type":"output_text","text":"adds proportionally more in suburbs."}]}
]}`

func newTestClient(t *testing.T, preferResponses bool, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c, err := NewClient(server.URL, azrest.APIKey{Header: "api-key", Key: "k"}, Options{
		Deployment:      "gpt-4.1-mini",
		PreferResponses: preferResponses,
	})
	require.NoError(t, err)
	return c
}

var question = []Message{
	{Role: RoleSystem, Content: "A Q&A agent that can answer questions about the Earth at night."},
	{Role: RoleUser, Content: "Why do suburban belts display larger December brightening than urban cores?"},
}

func TestClient_ChatCompletion(t *testing.T) {
	var gotPath string
	var gotBody struct {
		Messages []Message `json:"messages"`
	}
	c := newTestClient(t, false, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(chatReply))
	})

	text, err := c.ChatCompletion(context.Background(), question)
	require.NoError(t, err)
	assert.Equal(t, "/openai/deployments/gpt-4.1-mini/chat/completions", gotPath)
	assert.Equal(t, question, gotBody.Messages)
	assert.Equal(t, "Suburban belts brighten more in December.", text)
}

func TestClient_ChatCompletion_NoChoices(t *testing.T) {
	c := newTestClient(t, false, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})
	_, err := c.ChatCompletion(context.Background(), question)
	require.Error(t, err)
}

func TestClient_Respond(t *testing.T) {
	var gotModel string
	c := newTestClient(t, true, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/responses", r.URL.Path)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotModel, _ = body["model"].(string)
		_, _ = w.Write([]byte(responsesReply))
	})

	text, err := c.Respond(context.Background(), question)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1-mini", gotModel)
	assert.Equal(t, "Holiday lighting adds proportionally more in suburbs.", text)
}

func TestClient_Answer(t *testing.T) {
	t.Run("responses API when available", func(t *testing.T) {
		c := newTestClient(t, true, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(responsesReply))
		})
		ans, err := c.Answer(context.Background(), question)
		require.NoError(t, err)
		assert.Equal(t, APIResponses, ans.API)
	})

	t.Run("falls back to chat completions on 404", func(t *testing.T) {
		var paths []string
		c := newTestClient(t, true, func(w http.ResponseWriter, r *http.Request) {
			paths = append(paths, r.URL.Path)
			if r.URL.Path == "/openai/responses" {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"error":{"code":"404","message":"Resource not found"}}`))
				return
			}
			_, _ = w.Write([]byte(chatReply))
		})
		ans, err := c.Answer(context.Background(), question)
		require.NoError(t, err)
		assert.Equal(t, APIChatCompletions, ans.API)
		assert.Equal(t, []string{"/openai/responses", "/openai/deployments/gpt-4.1-mini/chat/completions"}, paths)
	})

	t.Run("auth failure does not fall back", func(t *testing.T) {
		calls := 0
		c := newTestClient(t, true, func(w http.ResponseWriter, _ *http.Request) {
			calls++
			w.WriteHeader(http.StatusUnauthorized)
		})
		_, err := c.Answer(context.Background(), question)
		require.Error(t, err)
		assert.Equal(t, 1, calls)
		assert.True(t, errors.Is(err, azrest.ErrUnauthorized))
	})

	t.Run("chat completions only when not preferring responses", func(t *testing.T) {
		c := newTestClient(t, false, func(w http.ResponseWriter, r *http.Request) {
			assert.NotEqual(t, "/openai/responses", r.URL.Path)
			_, _ = w.Write([]byte(chatReply))
		})
		ans, err := c.Answer(context.Background(), question)
		require.NoError(t, err)
		assert.Equal(t, APIChatCompletions, ans.API)
	})
}

func TestTroubleshoot(t *testing.T) {
	assert.NotEmpty(t, Troubleshoot(&azrest.APIError{StatusCode: http.StatusNotFound}))
	assert.NotEmpty(t, Troubleshoot(&azrest.APIError{StatusCode: http.StatusUnauthorized}))
	assert.NotEmpty(t, Troubleshoot(&azrest.APIError{StatusCode: http.StatusBadRequest}))
	assert.Nil(t, Troubleshoot(errors.New("dial tcp: timeout")))
}

func TestNewClient_RequiresDeployment(t *testing.T) {
	_, err := NewClient("https://aoai.openai.azure.com", nil, Options{})
	require.Error(t, err)
}
