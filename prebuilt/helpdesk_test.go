package prebuilt

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kendra"
	"github.com/aws/aws-sdk-go-v2/service/kendra/types"
	"github.com/golang/mock/gomock"
	"github.com/natexcvi/lexbot/agents"
	"github.com/natexcvi/lexbot/config"
	"github.com/natexcvi/lexbot/engines"
	"github.com/natexcvi/lexbot/engines/mocks"
	"github.com/natexcvi/lexbot/lex"
	"github.com/natexcvi/lexbot/memory"
	"github.com/natexcvi/lexbot/tools"
	toolmocks "github.com/natexcvi/lexbot/tools/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSearch(t *testing.T, queries *[]string) *tools.DocumentSearch {
	t.Helper()
	ctrl := gomock.NewController(t)
	retriever := toolmocks.NewMockRetriever(ctrl)
	retriever.EXPECT().Retrieve(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, params *kendra.RetrieveInput, _ ...func(*kendra.Options)) (*kendra.RetrieveOutput, error) {
			*queries = append(*queries, aws.ToString(params.QueryText))
			return &kendra.RetrieveOutput{
				ResultItems: []types.RetrieveResultItem{{
					DocumentTitle: aws.String("Office hours"),
					DocumentURI:   aws.String("https://www.cbp.gov/hours"),
					Content:       aws.String("CBP offices are open 8am to 5pm."),
				}},
			}, nil
		}).AnyTimes()
	return tools.NewDocumentSearch(retriever, "index-1")
}

func newScriptedLLM(t *testing.T, prompts *[]*engines.ChatPrompt, responses ...string) engines.LLM {
	t.Helper()
	ctrl := gomock.NewController(t)
	llm := mocks.NewMockLLM(ctrl)
	calls := make([]*gomock.Call, 0, len(responses))
	for _, response := range responses {
		response := response
		calls = append(calls, llm.EXPECT().Chat(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, prompt *engines.ChatPrompt) (*engines.ChatMessage, error) {
				*prompts = append(*prompts, prompt)
				return &engines.ChatMessage{Role: engines.ConvRoleAssistant, Text: response}, nil
			}))
	}
	gomock.InOrder(calls...)
	return llm
}

func fallbackEvent(utterance string, attrs map[string]string) *lex.Event {
	return &lex.Event{
		SessionID:      "session-1",
		Transcriptions: []lex.Transcription{{Transcription: utterance, TranscriptionConfidence: 1}},
		SessionState: lex.SessionState{
			SessionAttributes: attrs,
			Intent:            &lex.Intent{Name: "FallbackIntent", State: "ReadyForFulfillment"},
		},
	}
}

func TestHelpDeskAnswersWithSearch(t *testing.T) {
	var queries []string
	var prompts []*engines.ChatPrompt
	llm := newScriptedLLM(t, &prompts,
		"Thought: Do I need to use a tool? YES\nAction: Search\nAction Input: CBP hours",
		"Thought: Do I need to use a tool? NO\nAI: CBP offices are open 8am to 5pm.",
	)
	helpDesk := NewHelpDesk(llm, newTestSearch(t, &queries))

	resp, err := helpDesk.Router().Dispatch(context.Background(), fallbackEvent("What are CBP office hours?", nil))
	require.NoError(t, err)

	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "CBP offices are open 8am to 5pm.", resp.Messages[0].Content)
	assert.Equal(t, lex.FulfillmentStateFulfilled, resp.SessionState.Intent.State)
	assert.Equal(t, []string{"CBP hours"}, queries)

	require.Len(t, prompts, 2)
	assert.Equal(t, []string{"---"}, prompts[0].Stop)
	first := prompts[0].History[len(prompts[0].History)-1].Text
	assert.Contains(t, first, "Search: useful for when you need to answer questions using a document store")
	assert.Contains(t, first, "should be one of [Search]")
	assert.True(t, strings.HasSuffix(first, "Question: What are CBP office hours?\n"))
	second := prompts[1].History[len(prompts[1].History)-1].Text
	assert.Contains(t, second, "Observation: [Title: Office hours, URI: https://www.cbp.gov/hours, Passage content: CBP offices are open 8am to 5pm.] \nThought: ")

	var history []memory.Exchange
	require.NoError(t, json.Unmarshal([]byte(resp.SessionState.SessionAttributes[memory.DefaultSessionKey]), &history))
	assert.Equal(t, []memory.Exchange{{Human: "What are CBP office hours?", AI: "CBP offices are open 8am to 5pm."}}, history)
}

func TestHelpDeskCarriesSessionHistory(t *testing.T) {
	var queries []string
	var prompts []*engines.ChatPrompt
	llm := newScriptedLLM(t, &prompts, "AI: You're welcome!")
	helpDesk := NewHelpDesk(llm, newTestSearch(t, &queries))

	attrs := map[string]string{}
	require.NoError(t, memory.SaveSession(attrs, memory.DefaultSessionKey, &memory.WindowMemory{
		MaxExchanges: 2,
		Buffer: []memory.Exchange{
			{Human: "h1", AI: "a1"},
			{Human: "h2", AI: "a2"},
		},
	}))

	resp, err := helpDesk.Router().Dispatch(context.Background(), fallbackEvent("Thanks", attrs))
	require.NoError(t, err)
	assert.Equal(t, "You're welcome!", resp.Messages[0].Content)
	assert.Empty(t, queries)

	require.Len(t, prompts, 1)
	history := prompts[0].History
	require.Len(t, history, 5)
	assert.Equal(t, "h1", history[0].Text)
	assert.Equal(t, engines.ConvRoleAssistant, history[3].Role)
	assert.Equal(t, "a2", history[3].Text)

	saved := memory.LoadSession(resp.SessionState.SessionAttributes, memory.DefaultSessionKey, 2)
	assert.Equal(t, []memory.Exchange{
		{Human: "h2", AI: "a2"},
		{Human: "Thanks", AI: "You're welcome!"},
	}, saved.Context())
}

func TestHelpDeskRecoversUnformattedOutput(t *testing.T) {
	var queries []string
	var prompts []*engines.ChatPrompt
	llm := newScriptedLLM(t, &prompts, "Hello! How can I help you today?")
	helpDesk := NewHelpDesk(llm, newTestSearch(t, &queries))

	resp, err := helpDesk.Router().Dispatch(context.Background(), fallbackEvent("Hi", nil))
	require.NoError(t, err)
	assert.Equal(t, "Hello! How can I help you today?", resp.Messages[0].Content)
	saved := memory.LoadSession(resp.SessionState.SessionAttributes, memory.DefaultSessionKey, 2)
	assert.Zero(t, saved.Len())
}

func TestHelpDeskModelFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	llm := mocks.NewMockLLM(ctrl)
	llm.EXPECT().Chat(gomock.Any(), gomock.Any()).Return(nil, errors.New("503 service unavailable"))
	var queries []string
	helpDesk := NewHelpDesk(llm, newTestSearch(t, &queries))

	resp, err := helpDesk.Router().Dispatch(context.Background(), fallbackEvent("What are CBP office hours?", nil))
	require.NoError(t, err)
	assert.Equal(t, lex.ApologyMessage, resp.Messages[0].Content)
}

func TestHelpDeskUnsupportedIntent(t *testing.T) {
	var queries []string
	var prompts []*engines.ChatPrompt
	helpDesk := NewHelpDesk(newScriptedLLM(t, &prompts), newTestSearch(t, &queries))

	event := fallbackEvent("Book a flight", nil)
	event.SessionState.Intent.Name = "BookFlight"
	resp, err := helpDesk.Router().Dispatch(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, "The intent BookFlight is not yet supported.", resp.Messages[0].Content)
	assert.Equal(t, HelpDeskIntents, helpDesk.Router().Intents())
	assert.Empty(t, prompts)
}

func TestHelpDeskStopsAtIterationLimit(t *testing.T) {
	var queries []string
	var prompts []*engines.ChatPrompt
	helpDesk := NewHelpDesk(newScriptedLLM(t, &prompts,
		"Action: Search\nAction Input: hours",
		"Action: Search\nAction Input: hours",
	), newTestSearch(t, &queries))
	helpDesk.MaxIterations = 2

	outcome, err := helpDesk.Run(context.Background(), "What are CBP office hours?")
	require.NoError(t, err)
	assert.Equal(t, agents.StatusMaxIterations, outcome.Status)
	assert.Equal(t, "Agent stopped due to iteration limit or time limit.", outcome.Output)
	assert.Len(t, queries, 2)
}

func TestEngineFromConfig(t *testing.T) {
	engine, err := EngineFromConfig(context.Background(), &config.Config{
		ModelProvider: config.ProviderOpenAI,
		OpenAIAPIKey:  "sk-test",
		OpenAIModel:   "gpt-3.5-turbo",
		OpenAIBaseURL: "http://localhost:8080/v1",
		MaxTokens:     256,
	})
	require.NoError(t, err)
	gpt, ok := engine.(*engines.GPT)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:8080/v1", gpt.BaseURL)
	assert.Equal(t, 256, gpt.MaxTokens)

	_, err = EngineFromConfig(context.Background(), &config.Config{ModelProvider: "llama"})
	assert.Error(t, err)
}

func TestHelpDeskExecutorOffersRegisteredTools(t *testing.T) {
	var queries []string
	var prompts []*engines.ChatPrompt
	helpDesk := NewHelpDesk(newScriptedLLM(t, &prompts), newTestSearch(t, &queries))

	executor, err := helpDesk.NewExecutor(memory.NewWindowMemory(2))
	require.NoError(t, err)
	require.NoError(t, executor.Validate())
	require.Len(t, executor.Template.Tools, 1)
	assert.Same(t, executor.Tools[tools.DocumentSearchName], executor.Template.Tools[0])
}
