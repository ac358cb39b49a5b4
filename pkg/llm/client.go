// Package llm calls the hosted language model that answers questions from
// agent-retrieved grounding content. Two APIs are supported: Responses and
// Chat Completions; Answer prefers the former and falls back to the latter.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/codeready-toolchain/searchctl/pkg/azrest"
)

// DefaultAPIVersion supports both the Responses and Chat Completions APIs.
const DefaultAPIVersion = "2025-03-01-preview"

// API names recorded on an Answer.
const (
	APIResponses       = "responses"
	APIChatCompletions = "chat_completions"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Answer is the model output plus the API that produced it.
type Answer struct {
	Text string
	API  string
}

// Client talks to one model deployment.
type Client struct {
	rest            *azrest.Client
	deployment      string
	preferResponses bool
	logger          *slog.Logger
}

// Options configures NewClient.
type Options struct {
	APIVersion      string
	Deployment      string
	PreferResponses bool
	HTTPClient      *http.Client
}

// NewClient creates a client for endpoint. auth is azrest.Bearer with the
// cognitive services scope, or azrest.APIKey{Header: "api-key"}.
func NewClient(endpoint string, auth azrest.Authorizer, opts Options) (*Client, error) {
	if opts.Deployment == "" {
		return nil, fmt.Errorf("llm client: deployment is required")
	}
	if opts.APIVersion == "" {
		opts.APIVersion = DefaultAPIVersion
	}
	restOpts := []azrest.Option{azrest.WithQuery("api-version", opts.APIVersion)}
	if opts.HTTPClient != nil {
		restOpts = append(restOpts, azrest.WithHTTPClient(opts.HTTPClient))
	}
	rest, err := azrest.New(endpoint, auth, restOpts...)
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}
	return &Client{
		rest:            rest,
		deployment:      opts.Deployment,
		preferResponses: opts.PreferResponses,
		logger:          slog.With("component", "llm", "deployment", opts.Deployment),
	}, nil
}

type chatCompletionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// ChatCompletion calls the Chat Completions API.
func (c *Client) ChatCompletion(ctx context.Context, messages []Message) (string, error) {
	var out chatCompletionResponse
	_, err := c.rest.Do(ctx, azrest.Request{
		Method: http.MethodPost,
		Path:   "openai/deployments/" + c.deployment + "/chat/completions",
		Body:   map[string]any{"messages": messages},
	}, &out)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("chat completion: response has no choices")
	}
	return out.Choices[0].Message.Content, nil
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

func (r *responsesResponse) text() string {
	var b strings.Builder
	for _, item := range r.Output {
		if item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			if part.Type == "output_text" {
				b.WriteString(part.Text)
			}
		}
	}
	return b.String()
}

// Respond calls the Responses API.
func (c *Client) Respond(ctx context.Context, messages []Message) (string, error) {
	var out responsesResponse
	_, err := c.rest.Do(ctx, azrest.Request{
		Method: http.MethodPost,
		Path:   "openai/responses",
		Body:   map[string]any{"model": c.deployment, "input": messages},
	}, &out)
	if err != nil {
		return "", fmt.Errorf("responses: %w", err)
	}
	return out.text(), nil
}

// Answer produces a reply for messages. When the client prefers the Responses
// API and the deployment does not serve it (404/400), Chat Completions is used.
func (c *Client) Answer(ctx context.Context, messages []Message) (*Answer, error) {
	if c.preferResponses {
		text, err := c.Respond(ctx, messages)
		if err == nil {
			return &Answer{Text: text, API: APIResponses}, nil
		}
		if !errors.Is(err, azrest.ErrNotFound) && !errors.Is(err, azrest.ErrBadRequest) {
			return nil, err
		}
		c.logger.Warn("Responses API unavailable, falling back to Chat Completions", "error", err)
	}

	text, err := c.ChatCompletion(ctx, messages)
	if err != nil {
		return nil, err
	}
	return &Answer{Text: text, API: APIChatCompletions}, nil
}

// Troubleshoot returns remediation hints for a failed call, keyed on the HTTP status.
func Troubleshoot(err error) []string {
	switch azrest.StatusCode(err) {
	case http.StatusNotFound:
		return []string{
			"Check that the service is in a region that supports the Responses API",
			"Use API version " + DefaultAPIVersion + " or later",
			"Make sure the model deployment supports the Responses API",
			"Use the Chat Completions API as an alternative",
		}
	case http.StatusUnauthorized, http.StatusForbidden:
		return []string{
			"Check your authentication credentials",
			"Verify the identity has the Cognitive Services OpenAI User role",
		}
	case http.StatusBadRequest:
		return []string{
			"Check the model deployment name",
			"Verify the model supports the requested API",
		}
	}
	return nil
}
