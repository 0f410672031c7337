package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/natexcvi/lexbot/agents"
	"github.com/samber/lo"
)

// Case is one question of an answer-quality test pack.
type Case struct {
	Question string   `json:"question"`
	Keywords []string `json:"keywords,omitempty"`
}

type agentTester struct {
	agent agents.Agent
}

// NewAgentTester answers every case through agents.Query, so unformatted
// model output counts as an answer the same way it does in production.
func NewAgentTester(agent agents.Agent) Tester[Case, string] {
	return &agentTester{
		agent: agent,
	}
}

func (t *agentTester) Test(ctx context.Context, test Case) (string, error) {
	return agents.Query(ctx, t.agent, test.Question)
}

// KeywordGoodness scores an answer by the fraction of the case's keywords it
// mentions, ignoring case. Failed or empty answers score zero.
func KeywordGoodness(test Case, answer string, err error) float64 {
	if err != nil || strings.TrimSpace(answer) == "" {
		return 0
	}
	if len(test.Keywords) == 0 {
		return 1
	}
	answer = strings.ToLower(answer)
	found := lo.CountBy(test.Keywords, func(keyword string) bool {
		return strings.Contains(answer, strings.ToLower(keyword))
	})
	return float64(found) / float64(len(test.Keywords))
}

func LoadTestPack(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read test pack: %w", err)
	}
	var pack []Case
	if err := json.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("failed to parse test pack %s: %w", path, err)
	}
	for i, test := range pack {
		if strings.TrimSpace(test.Question) == "" {
			return nil, fmt.Errorf("test case %d has no question", i)
		}
	}
	return pack, nil
}
