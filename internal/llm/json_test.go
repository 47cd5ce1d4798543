package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "bare object",
			input: `{"tier":2}`,
			want:  `{"tier":2}`,
		},
		{
			name:  "fenced with prose",
			input: "Here you go:\n```json\n{\"tier\": 3, \"reason\": \"asks a question\"}\n```\nThanks",
			want:  `{"tier": 3, "reason": "asks a question"}`,
		},
		{
			name:  "nested and braces in strings",
			input: `answer: {"a":{"b":"}"},"c":"{"} trailing {"d":1}`,
			want:  `{"a":{"b":"}"},"c":"{"}`,
		},
		{
			name:  "escaped quote in string",
			input: `{"reason":"said \"hi}\""}`,
			want:  `{"reason":"said \"hi}\""}`,
		},
		{
			name:  "unbalanced first then valid",
			input: `{ oops { "x": 1 }`,
			want:  `{ "x": 1 }`,
		},
		{
			name:    "no object",
			input:   "tier two",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrNoJSON))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var out struct {
		Tier       int     `json:"tier"`
		Confidence float64 `json:"confidence"`
	}
	require.NoError(t, DecodeJSON("```\n{\"tier\":1,\"confidence\":0.9}\n```", &out))
	assert.Equal(t, 1, out.Tier)
	assert.Equal(t, 0.9, out.Confidence)

	err := DecodeJSON(`{"tier":"one"}`, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode")
}
