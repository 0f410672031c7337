package lex

import (
	"context"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
)

const (
	NotUnderstoodMessage  = "Sorry, I didn't understand."
	NoAnswerMessage       = "Sorry, I was not able to understand your question."
	ApologyMessage        = "Sorry, I was not able to process your request. Please try again later."
	unsupportedIntentText = "The intent %s is not yet supported."
)

// Request is what a handler gets out of an event.
type Request struct {
	IntentName string
	Utterance  string
	// SessionAttributes is a private copy; changes are sent back to Lex.
	SessionAttributes map[string]string
	Event             *Event
}

// HandlerFunc answers a request with the text shown to the user.
type HandlerFunc func(ctx context.Context, req *Request) (string, error)

type Router struct {
	handlers map[string]HandlerFunc
}

func NewRouter() *Router {
	return &Router{handlers: map[string]HandlerFunc{}}
}

func (r *Router) Handle(intentName string, handler HandlerFunc) *Router {
	r.handlers[intentName] = handler
	return r
}

func (r *Router) Intents() []string {
	intents := maps.Keys(r.handlers)
	sort.Strings(intents)
	return intents
}

func UnsupportedIntentMessage(intentName string) string {
	return fmt.Sprintf(unsupportedIntentText, intentName)
}

// Dispatch never fails: handler errors are logged and answered with an
// apology so Lex always gets a well-formed reply.
func (r *Router) Dispatch(ctx context.Context, event *Event) (*Response, error) {
	attrs := event.SessionAttributes()
	intentName := event.IntentName()
	logger := log.WithFields(log.Fields{
		"session_id": event.SessionID,
		"intent":     intentName,
	})
	logger.Info("received lex event")

	if intentName == "" {
		return Close(event, attrs, FulfillmentStateFulfilled, PlainText(NotUnderstoodMessage)), nil
	}
	handler, ok := r.handlers[intentName]
	if !ok {
		logger.Info("intent not supported")
		return Close(event, attrs, FulfillmentStateFulfilled, PlainText(UnsupportedIntentMessage(intentName))), nil
	}
	answer, err := handler(ctx, &Request{
		IntentName:        intentName,
		Utterance:         event.Utterance(),
		SessionAttributes: attrs,
		Event:             event,
	})
	if err != nil {
		logger.WithError(err).Error("intent handler failed")
		return Close(event, attrs, FulfillmentStateFulfilled, PlainText(ApologyMessage)), nil
	}
	if answer == "" {
		return Close(event, attrs, FulfillmentStateFulfilled, PlainText(NoAnswerMessage)), nil
	}
	logger.Debugf("answer: %s", answer)
	return Close(event, attrs, FulfillmentStateFulfilled, PlainText(answer)), nil
}
