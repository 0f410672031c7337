package memory

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// DefaultSessionKey is the session attribute holding the serialized window.
const DefaultSessionKey = "chat_history"

// LoadSession rehydrates a window from session attributes. A missing or
// unreadable attribute yields an empty window.
func LoadSession(attrs map[string]string, key string, maxExchanges int) *WindowMemory {
	memory := NewWindowMemory(maxExchanges)
	raw, ok := attrs[key]
	if !ok || raw == "" {
		return memory
	}
	var exchanges []Exchange
	if err := json.Unmarshal([]byte(raw), &exchanges); err != nil {
		log.WithError(err).WithField("key", key).Warn("discarding unreadable conversation history")
		return memory
	}
	for _, exchange := range exchanges {
		memory.add(exchange)
	}
	return memory
}

// SaveSession writes the current window into attrs under key.
func SaveSession(attrs map[string]string, key string, memory Memory) error {
	encoded, err := json.Marshal(memory.Context())
	if err != nil {
		return fmt.Errorf("failed to encode conversation history: %w", err)
	}
	attrs[key] = string(encoded)
	return nil
}
