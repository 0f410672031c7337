package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	memory := NewWindowMemory(2)
	require.NoError(t, memory.Append("h1", "a1"))
	require.NoError(t, memory.Append("h2", "a2"))

	attrs := map[string]string{"other": "kept"}
	require.NoError(t, SaveSession(attrs, DefaultSessionKey, memory))
	assert.Equal(t, "kept", attrs["other"])

	restored := LoadSession(attrs, DefaultSessionKey, 2)
	assert.Equal(t, memory.Context(), restored.Context())

	require.NoError(t, restored.Append("h3", "a3"))
	assert.Equal(t, []Exchange{{Human: "h2", AI: "a2"}, {Human: "h3", AI: "a3"}}, restored.Context())
}

func TestLoadSession(t *testing.T) {
	testCases := []struct {
		name     string
		attrs    map[string]string
		max      int
		expected []Exchange
	}{
		{
			name:     "nil attributes",
			attrs:    nil,
			max:      2,
			expected: []Exchange{},
		},
		{
			name:     "corrupt attribute",
			attrs:    map[string]string{DefaultSessionKey: "{not json"},
			max:      2,
			expected: []Exchange{},
		},
		{
			name:  "stored window larger than capacity",
			attrs: map[string]string{DefaultSessionKey: `[{"human":"h1","ai":"a1"},{"human":"h2","ai":"a2"},{"human":"h3","ai":"a3"}]`},
			max:   2,
			expected: []Exchange{
				{Human: "h2", AI: "a2"},
				{Human: "h3", AI: "a3"},
			},
		},
		{
			name:     "zero capacity drops stored history",
			attrs:    map[string]string{DefaultSessionKey: `[{"human":"h1","ai":"a1"},{"human":"h2","ai":"a2"}]`},
			max:      0,
			expected: []Exchange{},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, LoadSession(tc.attrs, DefaultSessionKey, tc.max).Context())
		})
	}
}

func TestSessionWithZeroCapacityStaysEmpty(t *testing.T) {
	attrs := map[string]string{}
	for _, turn := range []string{"h1", "h2", "h3"} {
		memory := LoadSession(attrs, DefaultSessionKey, 0)
		require.NoError(t, memory.Append(turn, "answer"))
		require.NoError(t, SaveSession(attrs, DefaultSessionKey, memory))
	}
	assert.Equal(t, "[]", attrs[DefaultSessionKey])
}
