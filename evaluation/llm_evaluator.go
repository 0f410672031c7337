package evaluation

import (
	"context"

	"github.com/natexcvi/lexbot/engines"
)

type llmTester struct {
	llm engines.LLM
}

// NewLLMTester evaluates a bare language model, without the agent loop.
func NewLLMTester(llm engines.LLM) Tester[*engines.ChatPrompt, *engines.ChatMessage] {
	return &llmTester{
		llm: llm,
	}
}

func (t *llmTester) Test(ctx context.Context, test *engines.ChatPrompt) (*engines.ChatMessage, error) {
	return t.llm.Chat(ctx, test)
}

type llmCaseTester struct {
	tester Tester[*engines.ChatPrompt, *engines.ChatMessage]
}

// NewLLMCaseTester puts each case's question straight to the model, with no
// agent loop or document search, as a baseline for the agent's scores.
func NewLLMCaseTester(llm engines.LLM) Tester[Case, string] {
	return &llmCaseTester{
		tester: NewLLMTester(llm),
	}
}

func (t *llmCaseTester) Test(ctx context.Context, test Case) (string, error) {
	response, err := t.tester.Test(ctx, &engines.ChatPrompt{
		History: []*engines.ChatMessage{{Role: engines.ConvRoleUser, Text: test.Question}},
	})
	if err != nil {
		return "", err
	}
	return response.Text, nil
}
