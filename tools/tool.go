package tools

import "context"

//go:generate mockgen -source=tool.go -destination=mocks/tool.go -package=mocks
type Tool interface {
	// Execute runs the tool on the raw action input and returns the
	// observation shown to the model.
	Execute(ctx context.Context, input string) (string, error)
	Name() string
	Description() string
}
