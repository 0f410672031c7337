package tools

import "context"

type GenericTool struct {
	name        string
	description string
	handler     func(ctx context.Context, input string) (string, error)
}

func (b *GenericTool) Execute(ctx context.Context, input string) (string, error) {
	return b.handler(ctx, input)
}

func (b *GenericTool) Name() string {
	return b.name
}

func (b *GenericTool) Description() string {
	return b.description
}

func NewGenericTool(name, description string, handler func(ctx context.Context, input string) (string, error)) *GenericTool {
	return &GenericTool{
		name:        name,
		description: description,
		handler:     handler,
	}
}
