package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseDetails checks the strict parse-or-fallback rule: JSON objects
// stay structured, everything else becomes free text. No input is rejected.
func TestParseDetails(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected map[string]any
	}{
		{
			name:     "json object stays structured",
			raw:      `{"capital": "5000"}`,
			expected: map[string]any{"capital": "5000"},
		},
		{
			name:     "nested object stays structured",
			raw:      `{"quota": {"valor": "2500", "moeda": "EUR"}}`,
			expected: map[string]any{"quota": map[string]any{"valor": "2500", "moeda": "EUR"}},
		},
		{
			name:     "plain text is wrapped",
			raw:      "ad-hoc note",
			expected: map[string]any{FreeTextKey: "ad-hoc note"},
		},
		{
			name:     "json string contributes its value",
			raw:      `"nota simples"`,
			expected: map[string]any{FreeTextKey: "nota simples"},
		},
		{
			name:     "truncated object syntax falls back to text",
			raw:      `{"capital":`,
			expected: map[string]any{FreeTextKey: `{"capital":`},
		},
		{
			name:     "json array is not an object",
			raw:      `[1, 2, 3]`,
			expected: map[string]any{FreeTextKey: `[1, 2, 3]`},
		},
		{
			name:     "empty input yields empty object",
			raw:      "",
			expected: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			details := ParseDetails(tt.raw)
			assert.Equal(t, tt.expected, details.AsMap())
		})
	}
}

// TestEventDetailsValueScan checks the column round trip keeps the stored
// object form identical.
func TestEventDetailsValueScan(t *testing.T) {
	original := ParseDetails("ad-hoc note")

	value, err := original.Value()
	require.NoError(t, err)

	var loaded EventDetails
	require.NoError(t, loaded.Scan(value))
	assert.Equal(t, map[string]any{FreeTextKey: "ad-hoc note"}, loaded.AsMap())

	structured := ParseDetails(`{"capital": "5000"}`)
	value, err = structured.Value()
	require.NoError(t, err)
	require.NoError(t, loaded.Scan(value))
	assert.Equal(t, map[string]any{"capital": "5000"}, loaded.AsMap())
}

// TestEventDetailsScanCorrupt checks a corrupt column is reported, not
// silently accepted.
func TestEventDetailsScanCorrupt(t *testing.T) {
	var details EventDetails
	err := details.Scan("{not json")
	assert.Error(t, err)
}

// TestEventDetailsMarshalJSON checks the API shape is the canonical object.
func TestEventDetailsMarshalJSON(t *testing.T) {
	data, err := ParseDetails("ad-hoc note").MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"descricao": "ad-hoc note"}`, string(data))
}
