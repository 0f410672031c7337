package agents

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/natexcvi/lexbot/memory"
	"github.com/natexcvi/lexbot/tools"
	"github.com/samber/lo"
)

const (
	VarTools       = "tools"
	VarToolNames   = "tool_names"
	VarInput       = "input"
	VarScratchpad  = "agent_scratchpad"
	VarChatHistory = "chat_history"
)

var placeholderRegex = regexp.MustCompile(`\{(?P<name>[A-Za-z_][A-Za-z0-9_]*)\}`)

// Step records one tool invocation and what it returned.
type Step struct {
	Action      AgentAction
	Observation string
}

// TemplateError reports a placeholder that has no value to substitute.
type TemplateError struct {
	Placeholder string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("missing value for template placeholder {%s}", e.Placeholder)
}

// PromptTemplate renders the text sent to the model on every turn.
type PromptTemplate struct {
	Template string
	Tools    []tools.Tool
}

// NewPromptTemplate rejects templates referencing placeholders that are
// never provided.
func NewPromptTemplate(template string, tools ...tools.Tool) (*PromptTemplate, error) {
	known := []string{VarTools, VarToolNames, VarInput, VarScratchpad, VarChatHistory}
	for _, name := range placeholders(template) {
		if !lo.Contains(known, name) {
			return nil, &TemplateError{Placeholder: name}
		}
	}
	return &PromptTemplate{
		Template: template,
		Tools:    tools,
	}, nil
}

func placeholders(template string) []string {
	matches := placeholderRegex.FindAllStringSubmatch(template, -1)
	return lo.Uniq(lo.Map(matches, func(match []string, _ int) string {
		return match[placeholderRegex.SubexpIndex("name")]
	}))
}

func (p *PromptTemplate) Render(question string, steps []Step, history []memory.Exchange) (string, error) {
	return p.Format(map[string]string{
		VarTools: strings.Join(lo.Map(p.Tools, func(tool tools.Tool, _ int) string {
			return fmt.Sprintf("%s: %s", tool.Name(), tool.Description())
		}), "\n"),
		VarToolNames: strings.Join(lo.Map(p.Tools, func(tool tools.Tool, _ int) string {
			return tool.Name()
		}), ", "),
		VarInput:       question,
		VarScratchpad:  Scratchpad(steps),
		VarChatHistory: ChatHistory(history),
	})
}

// Format substitutes every {name} placeholder in the template.
func (p *PromptTemplate) Format(values map[string]string) (string, error) {
	var missing *TemplateError
	rendered := placeholderRegex.ReplaceAllStringFunc(p.Template, func(match string) string {
		name := match[1 : len(match)-1]
		value, ok := values[name]
		if !ok {
			if missing == nil {
				missing = &TemplateError{Placeholder: name}
			}
			return match
		}
		return value
	})
	if missing != nil {
		return "", missing
	}
	return rendered, nil
}

// Scratchpad replays the model's own actions and the tool observations.
func Scratchpad(steps []Step) string {
	var thoughts strings.Builder
	for _, step := range steps {
		thoughts.WriteString(step.Action.RawText)
		fmt.Fprintf(&thoughts, "\nObservation: %s\nThought: ", step.Observation)
	}
	return thoughts.String()
}

func ChatHistory(history []memory.Exchange) string {
	return strings.Join(lo.Map(history, func(exchange memory.Exchange, _ int) string {
		return fmt.Sprintf("Human: %s\n%s: %s", exchange.Human, DefaultAIPrefix, exchange.AI)
	}), "\n")
}
