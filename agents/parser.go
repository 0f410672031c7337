package agents

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/mo"
)

const (
	DefaultAIPrefix = "AI"

	parseErrorPrefix = "Could not parse LLM output: `"
	parseErrorSuffix = "`"
)

var actionRegex = regexp.MustCompile(`Action: (?P<tool>.*?)[\n]*Action Input: (?P<input>(?s:.*))`)

// AgentAction is a request from the model to run a tool.
type AgentAction struct {
	ToolName  string
	ToolInput string
	// RawText is the full model output the action was parsed from.
	RawText string
}

// AgentFinish ends a run with the model's final answer.
type AgentFinish struct {
	FinalOutput string
	RawText     string
}

// Decision holds exactly one of an action (left) or a finish (right).
type Decision = mo.Either[*AgentAction, *AgentFinish]

// ParseError reports model output that is neither a final answer nor a
// well-formed action.
type ParseError struct {
	Text string
}

func (e *ParseError) Error() string {
	return parseErrorPrefix + e.Text + parseErrorSuffix
}

type OutputParser interface {
	Parse(text string) (Decision, error)
}

// ReActOutputParser understands the `AI: <answer>` and
// `Action: <tool>` / `Action Input: <input>` conventions. The answer marker
// wins whenever it is present anywhere in the text.
type ReActOutputParser struct {
	AIPrefix string
}

func NewReActOutputParser() *ReActOutputParser {
	return &ReActOutputParser{AIPrefix: DefaultAIPrefix}
}

func (p *ReActOutputParser) Parse(text string) (Decision, error) {
	marker := fmt.Sprintf("%s:", p.AIPrefix)
	if idx := strings.LastIndex(text, marker); idx >= 0 {
		return mo.Right[*AgentAction](&AgentFinish{
			FinalOutput: strings.TrimSpace(text[idx+len(marker):]),
			RawText:     text,
		}), nil
	}
	matches := actionRegex.FindStringSubmatch(text)
	if matches == nil {
		return Decision{}, &ParseError{Text: text}
	}
	toolName := matches[actionRegex.SubexpIndex("tool")]
	toolInput := matches[actionRegex.SubexpIndex("input")]
	return mo.Left[*AgentAction, *AgentFinish](&AgentAction{
		ToolName:  strings.TrimSpace(toolName),
		ToolInput: strings.Trim(strings.TrimSpace(toolInput), `"`),
		RawText:   text,
	}), nil
}
