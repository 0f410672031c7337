package engines

import "strings"

// TruncateAtStop cuts text at the earliest occurrence of any stop sequence.
// Providers are asked to stop there already, but not all of them honour it
// for every model.
func TruncateAtStop(text string, stop []string) string {
	cut := len(text)
	for _, seq := range stop {
		if seq == "" {
			continue
		}
		if idx := strings.Index(text, seq); idx >= 0 && idx < cut {
			cut = idx
		}
	}
	return text[:cut]
}
