package agents

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/natexcvi/lexbot/engines"
	"github.com/natexcvi/lexbot/memory"
	toolsPkg "github.com/natexcvi/lexbot/tools"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
)

const (
	DefaultMaxIterations = 15

	// MaxIterationsOutput is the answer given when the step cap is hit.
	MaxIterationsOutput = "Agent stopped due to iteration limit or time limit."

	ExceptionToolName        = "_Exception"
	InvalidFormatObservation = "Invalid or incomplete response"
)

type Status int

const (
	StatusFinished Status = iota
	StatusMaxIterations
)

func (s Status) String() string {
	switch s {
	case StatusFinished:
		return "finished"
	case StatusMaxIterations:
		return "max_iterations"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the result of a run that did not fail.
type Outcome struct {
	Status     Status
	Output     string
	Steps      []Step
	ModelCalls int
}

// Executor drives the render, model call, parse and dispatch cycle until the
// model answers or the iteration cap is reached.
type Executor struct {
	Engine             engines.LLM
	Template           *PromptTemplate
	Parser             OutputParser
	Tools              map[string]toolsPkg.Tool
	Memory             memory.Memory
	Stop               []string
	MaxIterations      int
	ParseErrorFeedback bool

	configErrs *multierror.Error
}

func NewExecutor(engine engines.LLM, template *PromptTemplate, memory memory.Memory) *Executor {
	return &Executor{
		Engine:        engine,
		Template:      template,
		Parser:        NewReActOutputParser(),
		Tools:         map[string]toolsPkg.Tool{},
		Memory:        memory,
		MaxIterations: DefaultMaxIterations,
	}
}

func (e *Executor) WithTools(tools ...toolsPkg.Tool) *Executor {
	for _, tool := range tools {
		if _, ok := e.Tools[tool.Name()]; ok {
			e.configErrs = multierror.Append(e.configErrs, fmt.Errorf("tool %q registered twice", tool.Name()))
			continue
		}
		e.Tools[tool.Name()] = tool
	}
	return e
}

func (e *Executor) WithParser(parser OutputParser) *Executor {
	e.Parser = parser
	return e
}

func (e *Executor) WithStop(stop ...string) *Executor {
	e.Stop = append(e.Stop, stop...)
	return e
}

func (e *Executor) WithMaxIterations(max int) *Executor {
	e.MaxIterations = max
	return e
}

// WithParseErrorFeedback makes unparseable output a step the model sees on
// its next turn instead of an error ending the run.
func (e *Executor) WithParseErrorFeedback() *Executor {
	e.ParseErrorFeedback = true
	return e
}

func (e *Executor) Validate() error {
	var err *multierror.Error
	if e.configErrs != nil {
		err = multierror.Append(err, e.configErrs.Errors...)
	}
	if e.Engine == nil {
		err = multierror.Append(err, errors.New("no language model configured"))
	}
	if e.Template == nil {
		err = multierror.Append(err, errors.New("no prompt template configured"))
	} else {
		for _, tool := range e.Template.Tools {
			if _, ok := e.Tools[tool.Name()]; !ok {
				err = multierror.Append(err, fmt.Errorf("tool %q is offered in the prompt but not registered", tool.Name()))
			}
		}
	}
	if e.Parser == nil {
		err = multierror.Append(err, errors.New("no output parser configured"))
	}
	if e.MaxIterations < 1 {
		err = multierror.Append(err, fmt.Errorf("max iterations must be positive, got %d", e.MaxIterations))
	}
	return err.ErrorOrNil()
}

func (e *Executor) Run(ctx context.Context, question string) (*Outcome, error) {
	if err := e.Validate(); err != nil {
		return nil, e.fail(fmt.Errorf("invalid executor: %w", err), question, "")
	}
	var history []memory.Exchange
	if e.Memory != nil {
		history = e.Memory.Context()
	}
	outcome := &Outcome{}
	lastRaw := ""
	for iteration := 0; iteration < e.MaxIterations; iteration++ {
		log.Debugf("starting iteration %d", iteration)
		prompt, err := e.Template.Render(question, outcome.Steps, history)
		if err != nil {
			return nil, e.fail(fmt.Errorf("failed to render prompt: %w", err), question, lastRaw)
		}
		response, err := e.Engine.Chat(ctx, e.chatPrompt(prompt, history))
		outcome.ModelCalls++
		if err != nil {
			return nil, e.fail(fmt.Errorf("%w: %w", ErrModelUnavailable, err), question, lastRaw)
		}
		raw := engines.TruncateAtStop(response.Text, e.Stop)
		lastRaw = raw
		log.Debugf("model response: %s", raw)

		decision, err := e.Parser.Parse(raw)
		if err != nil {
			var parseErr *ParseError
			if e.ParseErrorFeedback && errors.As(err, &parseErr) {
				log.Debugf("feeding parse error back to the model")
				outcome.Steps = append(outcome.Steps, Step{
					Action: AgentAction{
						ToolName:  ExceptionToolName,
						ToolInput: "Invalid Format",
						RawText:   raw,
					},
					Observation: InvalidFormatObservation,
				})
				continue
			}
			return nil, err
		}

		if finish, ok := decision.Right(); ok {
			outcome.Status = StatusFinished
			outcome.Output = finish.FinalOutput
			e.remember(question, outcome.Output)
			return outcome, nil
		}
		action, _ := decision.Left()
		observation, err := e.executeAction(ctx, action)
		if err != nil {
			return nil, e.fail(err, question, raw)
		}
		outcome.Steps = append(outcome.Steps, Step{
			Action:      *action,
			Observation: observation,
		})
	}
	log.WithField("iterations", e.MaxIterations).Warn("max iterations reached")
	outcome.Status = StatusMaxIterations
	outcome.Output = MaxIterationsOutput
	e.remember(question, outcome.Output)
	return outcome, nil
}

// chatPrompt places remembered exchanges ahead of the rendered prompt.
func (e *Executor) chatPrompt(prompt string, history []memory.Exchange) *engines.ChatPrompt {
	chatPrompt := &engines.ChatPrompt{Stop: e.Stop}
	for _, exchange := range history {
		chatPrompt.History = append(chatPrompt.History,
			&engines.ChatMessage{Role: engines.ConvRoleUser, Text: exchange.Human},
			&engines.ChatMessage{Role: engines.ConvRoleAssistant, Text: exchange.AI},
		)
	}
	chatPrompt.History = append(chatPrompt.History, &engines.ChatMessage{
		Role: engines.ConvRoleUser,
		Text: prompt,
	})
	return chatPrompt
}

func (e *Executor) executeAction(ctx context.Context, action *AgentAction) (string, error) {
	tool, ok := e.Tools[action.ToolName]
	if !ok {
		available := maps.Keys(e.Tools)
		sort.Strings(available)
		return "", &UnknownToolError{Name: action.ToolName, Available: available, RawText: action.RawText}
	}
	log.WithFields(log.Fields{"tool": action.ToolName, "input": action.ToolInput}).Debug("executing action")
	output, err := tool.Execute(ctx, action.ToolInput)
	if err != nil {
		log.Debugf("action error: %s", err.Error())
		return fmt.Sprintf("Error: %s", err.Error()), nil
	}
	log.Debugf("action output: %s", output)
	return output, nil
}

// fail logs a fatal run error together with the last model output, which
// never reaches the user.
func (e *Executor) fail(err error, question, raw string) error {
	log.WithFields(log.Fields{
		"question": question,
		"raw":      raw,
	}).WithError(err).Error("agent run failed")
	return err
}

func (e *Executor) remember(question, answer string) {
	if e.Memory == nil {
		return
	}
	if err := e.Memory.Append(question, answer); err != nil {
		log.WithError(err).Warn("failed to add exchange to memory")
	}
}
