package engines

import "context"

//go:generate mockgen -source=engine.go -destination=mocks/engine.go -package=mocks
type LLM interface {
	Chat(ctx context.Context, prompt *ChatPrompt) (*ChatMessage, error)
}
