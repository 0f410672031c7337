package lex

type Response struct {
	SessionState      SessionState      `json:"sessionState"`
	Messages          []Message         `json:"messages"`
	SessionID         string            `json:"sessionId,omitempty"`
	RequestAttributes map[string]string `json:"requestAttributes,omitempty"`
}

type Message struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

func PlainText(content string) Message {
	return Message{
		ContentType: ContentTypePlainText,
		Content:     content,
	}
}

// Close ends the dialog, echoing the event's intent with its state set to
// fulfillmentState.
func Close(event *Event, sessionAttributes map[string]string, fulfillmentState string, message Message) *Response {
	intent := Intent{}
	if event.SessionState.Intent != nil {
		intent = *event.SessionState.Intent
	}
	intent.State = fulfillmentState
	return &Response{
		SessionState: SessionState{
			SessionAttributes: sessionAttributes,
			DialogAction:      &DialogAction{Type: DialogActionClose},
			Intent:            &intent,
		},
		Messages:  []Message{message},
		SessionID: event.SessionID,
	}
}
