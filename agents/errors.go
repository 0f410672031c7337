package agents

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownTool      = errors.New("unknown tool")
	ErrModelUnavailable = errors.New("language model unavailable")
)

type UnknownToolError struct {
	Name      string
	Available []string
	// RawText is the model output that named the tool.
	RawText string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("%s %q. Available tools: %s", ErrUnknownTool, e.Name, strings.Join(e.Available, ", "))
}

func (e *UnknownToolError) Unwrap() error {
	return ErrUnknownTool
}

// RecoverParseFailure extracts the offending model output from a parse
// failure so it can be used verbatim as an answer.
func RecoverParseFailure(err error) (string, bool) {
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		return "", false
	}
	msg := parseErr.Error()
	return strings.TrimSuffix(strings.TrimPrefix(msg, parseErrorPrefix), parseErrorSuffix), true
}
