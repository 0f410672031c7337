// Package lex holds the Amazon Lex V2 fulfillment wire format and the
// intent dispatch table.
package lex

import "encoding/json"

const (
	FulfillmentStateFulfilled = "Fulfilled"
	FulfillmentStateFailed    = "Failed"

	DialogActionClose = "Close"

	ContentTypePlainText = "PlainText"
)

// Event is the input Lex V2 sends to a fulfillment Lambda.
type Event struct {
	MessageVersion      string            `json:"messageVersion,omitempty"`
	InvocationSource    string            `json:"invocationSource,omitempty"`
	InputMode           string            `json:"inputMode,omitempty"`
	ResponseContentType string            `json:"responseContentType,omitempty"`
	SessionID           string            `json:"sessionId"`
	InputTranscript     string            `json:"inputTranscript,omitempty"`
	Bot                 *Bot              `json:"bot,omitempty"`
	Transcriptions      []Transcription   `json:"transcriptions,omitempty"`
	SessionState        SessionState      `json:"sessionState"`
	RequestAttributes   map[string]string `json:"requestAttributes,omitempty"`
}

type Bot struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	AliasID   string `json:"aliasId,omitempty"`
	AliasName string `json:"aliasName,omitempty"`
	LocaleID  string `json:"localeId,omitempty"`
	Version   string `json:"version,omitempty"`
}

type Transcription struct {
	Transcription           string  `json:"transcription"`
	TranscriptionConfidence float64 `json:"transcriptionConfidence,omitempty"`
}

type SessionState struct {
	SessionAttributes    map[string]string `json:"sessionAttributes,omitempty"`
	DialogAction         *DialogAction     `json:"dialogAction,omitempty"`
	Intent               *Intent           `json:"intent,omitempty"`
	ActiveContexts       []json.RawMessage `json:"activeContexts,omitempty"`
	OriginatingRequestID string            `json:"originatingRequestId,omitempty"`
}

type DialogAction struct {
	Type string `json:"type"`
}

type Intent struct {
	Name              string                     `json:"name"`
	State             string                     `json:"state,omitempty"`
	ConfirmationState string                     `json:"confirmationState,omitempty"`
	Slots             map[string]json.RawMessage `json:"slots,omitempty"`
}

// IntentName is empty when the event carries no intent.
func (e *Event) IntentName() string {
	if e.SessionState.Intent == nil {
		return ""
	}
	return e.SessionState.Intent.Name
}

// Utterance prefers the top transcription and falls back to the raw input
// transcript.
func (e *Event) Utterance() string {
	if len(e.Transcriptions) > 0 && e.Transcriptions[0].Transcription != "" {
		return e.Transcriptions[0].Transcription
	}
	return e.InputTranscript
}

// SessionAttributes returns a copy that handlers may modify.
func (e *Event) SessionAttributes() map[string]string {
	attrs := make(map[string]string, len(e.SessionState.SessionAttributes))
	for k, v := range e.SessionState.SessionAttributes {
		attrs[k] = v
	}
	return attrs
}
