package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModelDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"claude-4-opus", "Opus 4"},
		{"claude-4-sonnet", "Sonnet 4"},
		{"claude-3.5-sonnet", "Sonnet 3.5"},
		{"claude-3-opus", "Opus 3"},
		{"claude-sonnet-4-20250514", "Sonnet-4"},
		{"claude-3-5-haiku-20241022", "3-5-haiku"},
		{"gpt-5-codex", "gpt-5-codex"},
		{"gemini-2.5-pro", "gemini-2.5-pro"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ModelDisplayName(tt.input))
		})
	}
}
