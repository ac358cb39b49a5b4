package scenario

import (
	"context"
	"fmt"

	"github.com/codeready-toolchain/searchctl/pkg/config"
	"github.com/codeready-toolchain/searchctl/pkg/llm"
	"github.com/codeready-toolchain/searchctl/pkg/samples"
	"github.com/codeready-toolchain/searchctl/pkg/search"
)

const (
	agentInstructions = `A Q&A agent that can answer questions about the Earth at night. ` +
		`Sources have a JSON format with a ref_id that must be cited in the answer. ` +
		`If you do not have the answer, respond with "I don't know".`
	agentQuestion = "Why do suburban belts display larger December brightening than urban cores " +
		"even though absolute light levels are higher downtown?"
	rerankerThreshold = 2.5
)

func agenticRetrievalDefinition() Definition {
	return Definition{
		Name:        "agentic-retrieval",
		Description: "Index the earth-at-night corpus, retrieve grounding through a knowledge agent and answer with the hosted model",
		Requires:    []config.Component{config.ComponentSearch, config.ComponentOpenAI},
		Needs:       []Dependency{DepSearch, DepLLM},
		Build:       buildAgenticRetrieval,
	}
}

func buildAgenticRetrieval(d *Deps) *Scenario {
	sc := d.Config.Scenarios
	oa := d.Config.OpenAI
	index, agent := sc.AgentIndex, sc.AgentName
	var docs []search.Document

	conversation := []llm.Message{
		{Role: llm.RoleSystem, Content: agentInstructions},
		{Role: llm.RoleUser, Content: agentQuestion},
	}

	return &Scenario{Steps: []Step{
		{
			Name:  "Create index " + index,
			Fatal: true,
			Run: func(ctx context.Context, _ *State) (string, error) {
				_, err := d.Search.CreateOrUpdateIndex(ctx, samples.EarthAtNightIndex(index))
				return unlessErr("semantic configuration on page_chunk", err)
			},
		},
		{
			Name:  "Upload earth-at-night documents",
			Fatal: true,
			Run: func(ctx context.Context, _ *State) (string, error) {
				var err error
				if docs, err = samples.EarthAtNight(); err != nil {
					return "", err
				}
				return uploadDocuments(ctx, d.Search, index, docs)
			},
		},
		{
			Name:  "Wait for documents",
			Fatal: true,
			Run: func(ctx context.Context, _ *State) (string, error) {
				n, err := waitForDocuments(ctx, d.Search, index, int64(len(docs)), sc.IndexerPollInterval)
				return unlessErr(fmt.Sprintf("%d documents searchable", n), err)
			},
		},
		{
			Name:  "Create knowledge agent " + agent,
			Fatal: true,
			Run: func(ctx context.Context, _ *State) (string, error) {
				ka := &search.KnowledgeAgent{
					Name: agent,
					Models: []search.AgentModel{{
						Kind: "azureOpenAI",
						Parameters: search.AzureOpenAIParameters{
							ResourceURI:  oa.Endpoint,
							DeploymentID: oa.AgentModel,
							ModelName:    oa.AgentModel,
						},
					}},
					TargetIndexes: []search.AgentTargetIndex{{IndexName: index, DefaultRerankerThreshold: rerankerThreshold}},
				}
				_, err := d.Search.CreateOrUpdateKnowledgeAgent(ctx, ka)
				return unlessErr("planning model "+oa.AgentModel, err)
			},
		},
		{
			Name:  "Retrieve grounding",
			Fatal: true,
			Run: func(ctx context.Context, st *State) (string, error) {
				req := search.RetrieveRequest{
					TargetIndexParams: []search.TargetParams{{IndexName: index, RerankerThreshold: rerankerThreshold}},
				}
				for _, m := range conversation {
					if m.Role != llm.RoleSystem {
						req.Messages = append(req.Messages, search.TextMessage(m.Role, m.Content))
					}
				}
				resp, err := d.Search.Retrieve(ctx, agent, req)
				if err != nil {
					return "", err
				}
				grounding := resp.Text()
				st.Set(KeyGrounding, grounding)
				return fmt.Sprintf("%d reference(s), %d activity record(s): %s",
					len(resp.References), len(resp.Activity), truncate(grounding, 200)), nil
			},
		},
		{
			Name: "Answer with " + oa.AnswerModel,
			Run: func(ctx context.Context, st *State) (string, error) {
				msgs := append(append([]llm.Message(nil), conversation...),
					llm.Message{Role: llm.RoleAssistant, Content: st.String(KeyGrounding)})
				answer, err := answerWith(ctx, d.LLM, oa.AnswerAPI, msgs)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("[%s] %s", answer.API, truncate(answer.Text, maxDetailLen)), nil
			},
		},
		keepOrDelete("Delete knowledge agent "+agent, sc.KeepResources, func(ctx context.Context) error {
			return d.Search.DeleteKnowledgeAgent(ctx, agent)
		}),
		keepOrDelete("Delete index "+index, sc.KeepResources, func(ctx context.Context) error {
			return d.Search.DeleteIndex(ctx, index)
		}),
	}}
}

// answerWith calls the API selected by mode. auto prefers the Responses API
// and falls back to Chat Completions.
func answerWith(ctx context.Context, model LanguageModel, mode config.AnswerAPI, msgs []llm.Message) (*llm.Answer, error) {
	switch mode {
	case config.AnswerAPIResponses:
		text, err := model.Respond(ctx, msgs)
		if err != nil {
			return nil, err
		}
		return &llm.Answer{Text: text, API: llm.APIResponses}, nil
	case config.AnswerAPIChatCompletions:
		text, err := model.ChatCompletion(ctx, msgs)
		if err != nil {
			return nil, err
		}
		return &llm.Answer{Text: text, API: llm.APIChatCompletions}, nil
	default:
		return model.Answer(ctx, msgs)
	}
}
