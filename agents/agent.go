package agents

import (
	"context"

	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=agent.go -destination=mocks/agent.go -package=mocks
type Agent interface {
	Run(ctx context.Context, question string) (*Outcome, error)
}

// Query runs agent once and returns its answer. Output the model failed to
// format is returned as the answer itself; every other error is fatal.
func Query(ctx context.Context, agent Agent, question string) (string, error) {
	outcome, err := agent.Run(ctx, question)
	if err != nil {
		if text, ok := RecoverParseFailure(err); ok {
			log.WithField("raw", text).Info("using unformatted model output as the answer")
			return text, nil
		}
		return "", err
	}
	if outcome.Status == StatusMaxIterations {
		log.WithField("model_calls", outcome.ModelCalls).Warn("agent did not finish")
	}
	return outcome.Output, nil
}
