package prebuilt

import (
	"context"
	"fmt"

	"github.com/natexcvi/lexbot/agents"
	"github.com/natexcvi/lexbot/config"
	"github.com/natexcvi/lexbot/engines"
	"github.com/natexcvi/lexbot/lex"
	"github.com/natexcvi/lexbot/memory"
	"github.com/natexcvi/lexbot/tools"
	log "github.com/sirupsen/logrus"
)

var (
	// HelpDeskIntents are answered by the agent; every other intent gets the
	// "not yet supported" reply.
	HelpDeskIntents = []string{"FallbackIntent", "greeting_intent"}

	helpDeskStop = []string{"---"}
)

// HelpDesk answers CBP questions with a search-backed agent. A fresh executor
// is built for every question so requests share no state.
type HelpDesk struct {
	Engine        engines.LLM
	Search        tools.Tool
	MaxIterations int
	MemoryWindow  int
	SessionKey    string
}

func NewHelpDesk(engine engines.LLM, search tools.Tool) *HelpDesk {
	return &HelpDesk{
		Engine:        engine,
		Search:        search,
		MaxIterations: agents.DefaultMaxIterations,
		MemoryWindow:  2,
		SessionKey:    memory.DefaultSessionKey,
	}
}

func NewHelpDeskFromConfig(ctx context.Context, cfg *config.Config) (*HelpDesk, error) {
	engine, err := EngineFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	search, err := tools.NewKendraDocumentSearch(ctx, cfg.KendraIndexID, cfg.KendraRegion)
	if err != nil {
		return nil, fmt.Errorf("failed to create document search: %w", err)
	}
	helpDesk := NewHelpDesk(engine, search)
	helpDesk.MaxIterations = cfg.MaxIterations
	helpDesk.MemoryWindow = cfg.MemoryWindow
	return helpDesk, nil
}

func EngineFromConfig(ctx context.Context, cfg *config.Config) (engines.LLM, error) {
	switch cfg.ModelProvider {
	case config.ProviderOpenAI:
		return engines.NewGPTEngine(cfg.OpenAIAPIKey, cfg.OpenAIModel).
			WithBaseURL(cfg.OpenAIBaseURL).
			WithTemperature(cfg.Temperature).
			WithMaxTokens(cfg.MaxTokens), nil
	case config.ProviderBedrock:
		engine, err := engines.NewBedrockEngineFromRegion(ctx, cfg.BedrockRegion, cfg.BedrockModelID)
		if err != nil {
			return nil, fmt.Errorf("failed to create bedrock engine: %w", err)
		}
		return engine.WithTemperature(cfg.Temperature).WithMaxTokens(int32(cfg.MaxTokens)), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.ModelProvider)
	}
}

func (h *HelpDesk) NewExecutor(mem memory.Memory) (*agents.Executor, error) {
	toolset := []tools.Tool{h.Search}
	template, err := agents.NewPromptTemplate(helpDeskTemplate, toolset...)
	if err != nil {
		return nil, err
	}
	return agents.NewExecutor(h.Engine, template, mem).
		WithTools(toolset...).
		WithStop(helpDeskStop...).
		WithMaxIterations(h.MaxIterations), nil
}

// Ask answers a single question, reading and updating mem.
func (h *HelpDesk) Ask(ctx context.Context, question string, mem memory.Memory) (string, error) {
	executor, err := h.NewExecutor(mem)
	if err != nil {
		return "", fmt.Errorf("failed to build agent: %w", err)
	}
	return agents.Query(ctx, executor, question)
}

// Run answers question with no prior conversation.
func (h *HelpDesk) Run(ctx context.Context, question string) (*agents.Outcome, error) {
	executor, err := h.NewExecutor(memory.NewWindowMemory(h.MemoryWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to build agent: %w", err)
	}
	return executor.Run(ctx, question)
}

// HandleIntent answers the request's utterance, carrying the conversation
// window in the Lex session attributes.
func (h *HelpDesk) HandleIntent(ctx context.Context, req *lex.Request) (string, error) {
	mem := memory.LoadSession(req.SessionAttributes, h.SessionKey, h.MemoryWindow)
	log.Debugf("help desk question: %s", req.Utterance)
	answer, err := h.Ask(ctx, req.Utterance, mem)
	if err != nil {
		log.WithFields(log.Fields{
			"intent":    req.IntentName,
			"utterance": req.Utterance,
		}).WithError(err).Error("help desk agent failed")
		return "", err
	}
	if err := memory.SaveSession(req.SessionAttributes, h.SessionKey, mem); err != nil {
		log.WithError(err).Warn("failed to persist conversation history")
	}
	return answer, nil
}

func (h *HelpDesk) Router() *lex.Router {
	router := lex.NewRouter()
	for _, intent := range HelpDeskIntents {
		router.Handle(intent, h.HandleIntent)
	}
	return router
}
