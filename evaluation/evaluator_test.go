package evaluation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/natexcvi/lexbot/agents"
	agentmocks "github.com/natexcvi/lexbot/agents/mocks"
	"github.com/natexcvi/lexbot/engines"
	"github.com/natexcvi/lexbot/engines/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createMockEchoLLM(t *testing.T) engines.LLM {
	t.Helper()
	ctrl := gomock.NewController(t)
	mock := mocks.NewMockLLM(ctrl)
	mock.EXPECT().Chat(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, prompt *engines.ChatPrompt) (*engines.ChatMessage, error) {
		return &engines.ChatMessage{
			Text: prompt.History[0].Text,
		}, nil
	}).AnyTimes()
	return mock
}

func echoPack() []*engines.ChatPrompt {
	return []*engines.ChatPrompt{
		{History: []*engines.ChatMessage{{Text: "Hello"}}},
		{History: []*engines.ChatMessage{{Text: "Hello Hello"}}},
		{History: []*engines.ChatMessage{{Text: "Hello Hello Hello Hello"}}},
	}
}

func TestLLMEvaluator(t *testing.T) {
	lengthGoodness := func(_ *engines.ChatPrompt, response *engines.ChatMessage, err error) float64 {
		if err != nil {
			return 0
		}
		return float64(len(response.Text))
	}
	tests := []struct {
		name     string
		options  *Options[*engines.ChatPrompt, *engines.ChatMessage]
		testPack []*engines.ChatPrompt
		want     []float64
	}{
		{
			name: "echo engine with one repetition",
			options: &Options[*engines.ChatPrompt, *engines.ChatMessage]{
				GoodnessFunction: lengthGoodness,
				Repetitions:      1,
			},
			testPack: echoPack(),
			want:     []float64{5, 11, 23},
		},
		{
			name: "echo engine with five repetitions",
			options: &Options[*engines.ChatPrompt, *engines.ChatMessage]{
				GoodnessFunction: lengthGoodness,
				Repetitions:      5,
			},
			testPack: echoPack(),
			want:     []float64{5, 11, 23},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evaluator := NewEvaluator(NewLLMTester(createMockEchoLLM(t)), tt.options)

			got, err := evaluator.Evaluate(context.Background(), tt.testPack)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluatorRejectsZeroRepetitions(t *testing.T) {
	evaluator := NewEvaluator(NewLLMTester(createMockEchoLLM(t)), &Options[*engines.ChatPrompt, *engines.ChatMessage]{
		GoodnessFunction: func(*engines.ChatPrompt, *engines.ChatMessage, error) float64 { return 0 },
	})
	_, err := evaluator.Evaluate(context.Background(), echoPack())
	assert.Error(t, err)
}

func TestEvaluatorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	evaluator := NewEvaluator(NewLLMTester(createMockEchoLLM(t)), &Options[*engines.ChatPrompt, *engines.ChatMessage]{
		GoodnessFunction: func(*engines.ChatPrompt, *engines.ChatMessage, error) float64 { return 1 },
		Repetitions:      2,
	})
	_, err := evaluator.Evaluate(ctx, echoPack())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAgentEvaluator(t *testing.T) {
	ctrl := gomock.NewController(t)
	agent := agentmocks.NewMockAgent(ctrl)
	agent.EXPECT().Run(gomock.Any(), "When is CBP open?").Return(&agents.Outcome{
		Status: agents.StatusFinished,
		Output: "CBP offices are open Monday to Friday, 8am to 5pm.",
	}, nil).Times(2)
	agent.EXPECT().Run(gomock.Any(), "Hi").Return(nil, &agents.ParseError{Text: "Hello there"}).Times(2)
	agent.EXPECT().Run(gomock.Any(), "Where is my visa?").Return(nil, agents.ErrModelUnavailable).Times(2)

	evaluator := NewEvaluator(NewAgentTester(agent), &Options[Case, string]{
		GoodnessFunction: KeywordGoodness,
		Repetitions:      2,
	})
	got, err := evaluator.Evaluate(context.Background(), []Case{
		{Question: "When is CBP open?", Keywords: []string{"monday", "friday", "weekend", "8am"}},
		{Question: "Hi"},
		{Question: "Where is my visa?", Keywords: []string{"visa"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.75, 1, 0}, got)
}

func TestKeywordGoodness(t *testing.T) {
	tests := []struct {
		name   string
		test   Case
		answer string
		err    error
		want   float64
	}{
		{
			name:   "all keywords",
			test:   Case{Keywords: []string{"Passport", "renew"}},
			answer: "You can renew your passport online.",
			want:   1,
		},
		{
			name:   "half the keywords",
			test:   Case{Keywords: []string{"passport", "visa"}},
			answer: "Bring your passport.",
			want:   0.5,
		},
		{
			name:   "no keywords and an answer",
			answer: "Hello!",
			want:   1,
		},
		{
			name:   "blank answer",
			test:   Case{Keywords: []string{"passport"}},
			answer: "  ",
			want:   0,
		},
		{
			name:   "failed answer",
			test:   Case{Keywords: []string{"passport"}},
			answer: "passport",
			err:    errors.New("boom"),
			want:   0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KeywordGoodness(tt.test, tt.answer, tt.err))
		})
	}
}

func TestLoadTestPack(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "pack.json")
	require.NoError(t, os.WriteFile(valid, []byte(`[{"question": "When is CBP open?", "keywords": ["monday"]}, {"question": "Hi"}]`), 0o600))
	blank := filepath.Join(dir, "blank.json")
	require.NoError(t, os.WriteFile(blank, []byte(`[{"question": " "}]`), 0o600))

	pack, err := LoadTestPack(valid)
	require.NoError(t, err)
	assert.Equal(t, []Case{
		{Question: "When is CBP open?", Keywords: []string{"monday"}},
		{Question: "Hi"},
	}, pack)

	_, err = LoadTestPack(blank)
	assert.Error(t, err)

	_, err = LoadTestPack(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestLLMCaseEvaluator(t *testing.T) {
	ctrl := gomock.NewController(t)
	llm := mocks.NewMockLLM(ctrl)
	llm.EXPECT().Chat(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, prompt *engines.ChatPrompt) (*engines.ChatMessage, error) {
		if !assert.Len(t, prompt.History, 1) {
			return nil, errors.New("unexpected history")
		}
		assert.Equal(t, engines.ConvRoleUser, prompt.History[0].Role)
		if prompt.History[0].Text == "Where is my visa?" {
			return nil, errors.New("throttled")
		}
		return &engines.ChatMessage{Role: engines.ConvRoleAssistant, Text: "Passports are renewed online."}, nil
	}).Times(2)

	evaluator := NewEvaluator(NewLLMCaseTester(llm), &Options[Case, string]{
		GoodnessFunction: KeywordGoodness,
		Repetitions:      1,
	})
	got, err := evaluator.Evaluate(context.Background(), []Case{
		{Question: "How do I renew my passport?", Keywords: []string{"passport", "online"}},
		{Question: "Where is my visa?", Keywords: []string{"visa"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, got)
}
